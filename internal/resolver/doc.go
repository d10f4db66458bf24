// Package resolver implements cross-source entity resolution.
//
// The resolver owns the asset_mappings table: a one-time bootstrap
// matches the top-ranked listings of both providers by symbol, and
// per-record resolution during ETL assigns each incoming record a stable
// asset_uid, lazily creating or enriching mappings as new ids appear.
// Mappings are never deleted or merged.
package resolver
