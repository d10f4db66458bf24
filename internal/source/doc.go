// Package source implements the provider adapters.
//
// Each adapter turns one provider's wire format into the uniform
// in-flight record: coingecko and coinpaprika over HTTPS, csv from a
// local file. CoinCap is a listing client consumed by the CSV refresher
// only. A shared HTTP client provides retries with backoff and per-client
// rate limiting.
package source
