// Package server exposes the read API over the normalized data and the
// operational endpoints that trigger ETL runs and bootstraps.
package server
