package source

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/kasparro/crypto-etl/internal/model"
)

// CSVFile reads the local market CSV. Required header:
// symbol,name,price_usd,market_cap_usd,rank,source_updated_at.
// A missing file yields an empty fetch, not an error.
type CSVFile struct {
	path   string
	logger *slog.Logger
}

// NewCSVFile creates the CSV adapter.
func NewCSVFile(path string, logger *slog.Logger) *CSVFile {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVFile{
		path:   path,
		logger: logger.With("source", "csv"),
	}
}

func (c *CSVFile) Name() model.SourceName { return model.SourceCSV }

// Fetch reads all rows from the CSV file.
func (c *CSVFile) Fetch(ctx context.Context) ([]model.Record, error) {
	f, err := os.Open(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			c.logger.Warn("csv file not found", "path", c.path)
			return nil, nil
		}
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, required := range []string{"symbol", "name", "source_updated_at"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("csv missing required column %q", required)
		}
	}

	var records []model.Record
	dropped := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			dropped++
			continue
		}

		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		ts, ok := parseTimestamp(field("source_updated_at"))
		if !ok {
			dropped++
			continue
		}

		payload := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(row) {
				payload[name] = row[i]
			}
		}
		raw, err := json.Marshal(payload)
		if err != nil {
			dropped++
			continue
		}

		records = append(records, model.Record{
			Symbol:          field("symbol"),
			Name:            field("name"),
			PriceUSD:        toFloat(field("price_usd")),
			MarketCapUSD:    toFloat(field("market_cap_usd")),
			Rank:            toInt(field("rank")),
			SourceUpdatedAt: ts,
			Payload:         raw,
		})
	}

	if dropped > 0 {
		c.logger.Warn("dropped malformed rows", "dropped", dropped, "kept", len(records))
	}
	c.logger.Info("loaded records from csv", "count", len(records))
	return records, nil
}

// toFloat is permissive coercion: unparsable values become absent.
func toFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func toInt(s string) *int {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}
