// Package model defines the domain types shared across the ETL engine:
// the uniform in-flight record produced by source adapters and the five
// persisted shapes (raw archive, canonical asset, asset mapping,
// checkpoint, run).
package model
