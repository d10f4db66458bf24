package resolver

import "github.com/kasparro/crypto-etl/internal/model"

func strptr(s string) *string { return &s }

// WellKnownAssets is the fallback mapping seed used when the bootstrap
// cannot reach either provider. It is inserted with on-conflict-do-nothing
// and overwritten by the next successful bootstrap.
func WellKnownAssets() []model.AssetMapping {
	seed := []struct {
		uid, cg, cp, symbol, name string
	}{
		{"bitcoin", "bitcoin", "btc-bitcoin", "BTC", "Bitcoin"},
		{"ethereum", "ethereum", "eth-ethereum", "ETH", "Ethereum"},
		{"tether", "tether", "usdt-tether", "USDT", "Tether"},
		{"binancecoin", "binancecoin", "bnb-binance-coin", "BNB", "BNB"},
		{"solana", "solana", "sol-solana", "SOL", "Solana"},
		{"ripple", "ripple", "xrp-xrp", "XRP", "XRP"},
		{"usd-coin", "usd-coin", "usdc-usd-coin", "USDC", "USD Coin"},
		{"cardano", "cardano", "ada-cardano", "ADA", "Cardano"},
		{"dogecoin", "dogecoin", "doge-dogecoin", "DOGE", "Dogecoin"},
		{"avalanche-2", "avalanche-2", "avax-avalanche", "AVAX", "Avalanche"},
		{"tron", "tron", "trx-tron", "TRX", "TRON"},
		{"polkadot", "polkadot", "dot-polkadot", "DOT", "Polkadot"},
		{"chainlink", "chainlink", "link-chainlink", "LINK", "Chainlink"},
		{"matic-network", "matic-network", "matic-polygon", "MATIC", "Polygon"},
		{"litecoin", "litecoin", "ltc-litecoin", "LTC", "Litecoin"},
		{"shiba-inu", "shiba-inu", "shib-shiba-inu", "SHIB", "Shiba Inu"},
		{"wrapped-bitcoin", "wrapped-bitcoin", "wbtc-wrapped-bitcoin", "WBTC", "Wrapped Bitcoin"},
		{"uniswap", "uniswap", "uni-uniswap", "UNI", "Uniswap"},
		{"stellar", "stellar", "xlm-stellar", "XLM", "Stellar"},
		{"cosmos", "cosmos", "atom-cosmos", "ATOM", "Cosmos"},
	}

	mappings := make([]model.AssetMapping, 0, len(seed))
	for _, s := range seed {
		mappings = append(mappings, model.AssetMapping{
			AssetUID:      s.uid,
			CoinGeckoID:   strptr(s.cg),
			CoinPaprikaID: strptr(s.cp),
			Symbol:        s.symbol,
			Name:          s.name,
		})
	}
	return mappings
}
