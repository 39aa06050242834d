package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/observability"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductWriter interface {
	Upsert(ctx context.Context, q db.Querier, product domain.Product) (*domain.Product, error)
}

type CategoryResolver interface {
	GetOrCreate(ctx context.Context, q db.Querier, name string) (*domain.Category, error)
}

// CSVImporter reads a product CSV (name,description,category,price,quantity)
// and upserts every row as a listing of one seller. A file is imported in a
// single transaction: one bad row leaves the catalog untouched.
type CSVImporter struct {
	reader     *csv.Reader
	runner     db.Runner
	products   ProductWriter
	categories CategoryResolver
	sellerID   string
	logger     *zap.Logger
}

func NewCSVImporter(r io.Reader, runner db.Runner, products ProductWriter, categories CategoryResolver, sellerID string, logger *zap.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:     csvr,
		runner:     runner,
		products:   products,
		categories: categories,
		sellerID:   sellerID,
		logger:     observability.OrNop(logger).Named("importer"),
	}
}

type csvRow struct {
	Line     int
	Name     string
	Desc     string
	Category string
	Price    decimal.Decimal
	Quantity int
}

// Run parses all rows, then upserts them. It returns the number of products written.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	if i.sellerID == "" {
		return 0, errors.New("seller id required")
	}
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, col := range []string{"name", "price"} {
		if _, ok := index[col]; !ok {
			return 0, fmt.Errorf("missing required column %q", col)
		}
	}

	var rows []csvRow
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return 0, fmt.Errorf("read row %d: %w", line, err)
		}
		row, err := parseRow(record, index)
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", line, err)
		}
		if row == nil {
			continue
		}
		row.Line = line
		rows = append(rows, *row)
	}

	categoryIDs := map[string]string{}
	err = i.runner.InTx(ctx, func(q db.Querier) error {
		for _, row := range rows {
			id, ok := categoryIDs[row.Category]
			if !ok {
				c, err := i.categories.GetOrCreate(ctx, q, row.Category)
				if err != nil {
					return fmt.Errorf("resolve category %q: %w", row.Category, err)
				}
				id = c.ID
				categoryIDs[row.Category] = id
			}
			if _, err := i.products.Upsert(ctx, q, domain.Product{
				SellerID:    i.sellerID,
				CategoryID:  &id,
				Name:        row.Name,
				Description: row.Desc,
				Price:       row.Price,
				Quantity:    row.Quantity,
			}); err != nil {
				return fmt.Errorf("upsert product %q (row %d): %w", row.Name, row.Line, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	i.logger.Info("catalog import finished",
		zap.Int("products", len(rows)),
		zap.Int("categories", len(categoryIDs)),
		zap.String("seller_id", i.sellerID))
	return len(rows), nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

// parseRow returns nil for blank lines.
func parseRow(record []string, index map[string]int) (*csvRow, error) {
	name := pick(record, index, "name")
	priceStr := pick(record, index, "price")
	if name == "" && priceStr == "" {
		return nil, nil
	}
	if name == "" {
		return nil, errors.New("name is required")
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q", priceStr)
	}
	if !domain.ValidPrice(price) {
		return nil, fmt.Errorf("price %q must be non-negative with at most two decimals", priceStr)
	}

	qty := 0
	if s := pick(record, index, "quantity"); s != "" {
		qty, err = strconv.Atoi(s)
		if err != nil || qty < 0 {
			return nil, fmt.Errorf("invalid quantity %q", s)
		}
	}

	category := pick(record, index, "category")
	if category == "" {
		category = domain.DefaultCategory
	}
	return &csvRow{
		Name:     name,
		Desc:     pick(record, index, "description"),
		Category: category,
		Price:    price,
		Quantity: qty,
	}, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
