// Package importer loads merchant master data and orders from
// semicolon-separated flat files.
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"disburse/internal/models"
	"disburse/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const DefaultBatchSize = 1000

// ImportResult counts the rows of one file.
type ImportResult struct {
	Read     int `json:"read"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

type MerchantStore interface {
	CreateBatch(ctx context.Context, merchants []models.Merchant) (int64, error)
	IDsByReference(ctx context.Context) (map[string]uint, error)
}

type OrderStore interface {
	ExecuteInTransaction(ctx context.Context, fn func(repositories.OrderRepository) error) error
}

type Importer struct {
	merchants MerchantStore
	orders    OrderStore
	batchSize int
	validate  *validator.Validate
	log       zerolog.Logger
}

func New(merchants MerchantStore, orders OrderStore, batchSize int, log zerolog.Logger) *Importer {
	if merchants == nil || orders == nil {
		panic("merchant and order stores are required")
	}
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &Importer{
		merchants: merchants,
		orders:    orders,
		batchSize: batchSize,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		log:       log,
	}
}

func (i *Importer) ImportMerchantsFile(ctx context.Context, path string) (ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("open merchants file: %w", err)
	}
	defer f.Close()

	res, err := i.ImportMerchants(ctx, f)
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

func (i *Importer) ImportOrdersFile(ctx context.Context, path string) (ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("open orders file: %w", err)
	}
	defer f.Close()

	res, err := i.ImportOrders(ctx, f)
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// table reads a header row and yields the remaining rows keyed by column.
type table struct {
	reader  *csv.Reader
	columns map[string]int
	line    int
}

func newTable(r io.Reader, required ...string) (*table, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for idx, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = idx
	}
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return &table{reader: reader, columns: columns, line: 1}, nil
}

// next returns the following row, or io.EOF.
func (t *table) next() (func(string) string, error) {
	record, err := t.reader.Read()
	t.line++
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("line %d: %w", t.line, err)
	}
	return func(name string) string {
		return strings.TrimSpace(record[t.columns[name]])
	}, nil
}

var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
}

func parseTime(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

// toCents converts a decimal currency amount such as "10.5" to minor units.
func toCents(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", raw)
	}
	return d.Shift(2).Round(0).IntPart(), nil
}
