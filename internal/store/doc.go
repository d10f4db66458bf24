// Package store implements all Postgres persistence: raw payload
// archival, canonical asset upserts, identity mappings, checkpoints and
// run bookkeeping.
//
// Every query method works both on the pool and inside a transaction:
// Store.Begin returns a Tx whose embedded Store runs against the
// transaction, so the ETL cycle can commit raw rows, asset upserts and
// the checkpoint advance atomically.
package store
