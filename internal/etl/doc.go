// Package etl orchestrates the incremental fetch, normalize, resolve
// and upsert cycle for each configured source.
//
// A cycle is a single transaction: raw payload archival, canonical
// asset upserts and the checkpoint advance commit together or not at
// all, so a crash can never record progress for data that was not
// persisted. Run bookkeeping rows live outside the transaction so a
// failed cycle still leaves a failure record behind.
package etl
