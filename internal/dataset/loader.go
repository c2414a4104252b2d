package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"

	"superstore-dashboard/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

const (
	EncodingUTF8   = "utf8"
	EncodingLatin1 = "latin1"
)

var ErrNoRecords = errors.New("no valid records found")

// Columns the comparator cannot work without.
var requiredColumns = []string{"orderid", "customerid", "orderdate", "sales", "profit"}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"1/2/2006",
	"02-01-2006",
	"2-1-2006",
}

type loadOptions struct {
	encoding string
	cacheDir string
	logger   *slog.Logger
}

type Option func(*loadOptions)

// WithEncoding selects the source file encoding, EncodingUTF8 or EncodingLatin1.
func WithEncoding(enc string) Option {
	return func(o *loadOptions) { o.encoding = enc }
}

// WithCache enables the gob snapshot cache under dir.
func WithCache(dir string) Option {
	return func(o *loadOptions) { o.cacheDir = dir }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *loadOptions) { o.logger = logger }
}

// LoadCSV parses a sales export into a Store. Rows that fail to parse are
// skipped and counted; a file without a single valid row is an error.
func LoadCSV(ctx context.Context, filename string, opts ...Option) (*Store, error) {
	o := loadOptions{encoding: EncodingUTF8, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	switch o.encoding {
	case EncodingUTF8, EncodingLatin1:
	case "":
		o.encoding = EncodingUTF8
	default:
		return nil, fmt.Errorf("unsupported encoding %q", o.encoding)
	}

	if o.cacheDir != "" {
		if records, err := loadFromCache(o.cacheDir, filename, o.encoding); err == nil {
			o.logger.Info("loaded dataset from cache", "records", len(records))
			return New(records), nil
		}
	}

	start := time.Now()
	o.logger.Info("processing CSV file", "filename", filename, "encoding", o.encoding)

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	var src io.Reader = file
	if o.encoding == EncodingLatin1 {
		src = charmap.ISO8859_1.NewDecoder().Reader(file)
	}

	records, skipped, err := parseCSV(ctx, src)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		o.logger.Warn("skipped invalid rows", "count", skipped)
	}

	if o.cacheDir != "" {
		if err := saveToCache(o.cacheDir, filename, o.encoding, records); err != nil {
			o.logger.Warn("failed to save cache", "error", err)
		}
	}

	duration := time.Since(start)
	o.logger.Info("csv processing complete",
		"records", len(records),
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(len(records))/duration.Seconds()))

	return New(records), nil
}

func parseCSV(ctx context.Context, src io.Reader) ([]models.Record, int64, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err == io.EOF {
		return nil, 0, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}

	cols, err := newColumnIndex(header)
	if err != nil {
		return nil, 0, err
	}

	var (
		records []models.Record
		skipped atomic.Int64
	)

	batch := make([][]string, 0, batchSize)
	for {
		select {
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		default:
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				skipped.Add(1)
				continue
			}
			return nil, 0, fmt.Errorf("read csv: %w", err)
		}
		batch = append(batch, row)

		if len(batch) >= batchSize {
			parsed, err := processBatch(ctx, batch, cols, &skipped)
			if err != nil {
				return nil, 0, err
			}
			records = append(records, parsed...)
			batch = make([][]string, 0, batchSize)
		}
	}

	if len(batch) > 0 {
		parsed, err := processBatch(ctx, batch, cols, &skipped)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, parsed...)
	}

	if len(records) == 0 {
		return nil, skipped.Load(), ErrNoRecords
	}
	return records, skipped.Load(), nil
}

// processBatch parses rows in parallel chunks. Output order matches input.
func processBatch(ctx context.Context, batch [][]string, cols columnIndex, skipped *atomic.Int64) ([]models.Record, error) {
	parsed := make([]models.Record, len(batch))
	valid := make([]bool, len(batch))

	chunk := (len(batch) + maxWorkers - 1) / maxWorkers

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for lo := 0; lo < len(batch); lo += chunk {
		hi := min(lo+chunk, len(batch))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				rec, err := cols.parse(batch[i])
				if err != nil {
					skipped.Add(1)
					continue
				}
				parsed[i] = rec
				valid[i] = true
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := parsed[:0]
	for i := range parsed {
		if valid[i] {
			out = append(out, parsed[i])
		}
	}
	return out, nil
}

type columnIndex map[string]int

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(h)
}

func newColumnIndex(header []string) (columnIndex, error) {
	cols := make(columnIndex, len(header))
	for i, h := range header {
		cols[normalizeHeader(h)] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func (c columnIndex) get(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (c columnIndex) parse(row []string) (models.Record, error) {
	orderDate, err := parseDate(c.get(row, "orderdate"))
	if err != nil {
		return models.Record{}, err
	}
	sales, err := parseAmount(c.get(row, "sales"))
	if err != nil {
		return models.Record{}, fmt.Errorf("sales: %w", err)
	}
	profit, err := parseAmount(c.get(row, "profit"))
	if err != nil {
		return models.Record{}, fmt.Errorf("profit: %w", err)
	}

	rec := models.Record{
		OrderID:     c.get(row, "orderid"),
		OrderDate:   orderDate,
		CustomerID:  c.get(row, "customerid"),
		Segment:     c.get(row, "segment"),
		Country:     c.get(row, "country"),
		Market:      c.get(row, "market"),
		Region:      c.get(row, "region"),
		ProductName: c.get(row, "productname"),
		Category:    c.get(row, "category"),
		SubCategory: c.get(row, "subcategory"),
		Sales:       sales,
		Profit:      profit,
	}
	if v := c.get(row, "rowid"); v != "" {
		rec.RowID, _ = strconv.Atoi(v)
	}
	if v := c.get(row, "quantity"); v != "" {
		rec.Quantity, _ = strconv.Atoi(v)
	}
	return rec, nil
}

func parseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("missing order date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", v)
}

// parseAmount treats blank and NaN cells as zero. Thousands separators and a
// leading currency sign are accepted.
func parseAmount(v string) (float64, error) {
	v = strings.TrimPrefix(strings.ReplaceAll(v, ",", ""), "$")
	if v == "" || strings.EqualFold(v, "nan") || strings.EqualFold(v, "na") {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, nil
	}
	return f, nil
}
