// Package database provides the PostgreSQL connection pool and embedded
// schema migrations.
//
// All durable state lives in five logical tables: per-source raw archives
// (raw_coingecko, raw_coinpaprika, raw_csv), normalized_crypto_assets,
// asset_mappings, etl_checkpoints and etl_runs.
package database
