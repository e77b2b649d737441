package pricehistory

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// column headers used by the archive CSV format. Merged archives may
// carry extra columns; readers select by name so that harmlessly lands
// as an ignored column rather than breaking parsing.
const (
	colInstanceType = "Instance type"
	colProduct      = "Product"
	colRegion       = "Region"
	colZone         = "Availability zone"
	colPrice        = "Spot price"
	colTimestamp    = "Timestamp"
)

// Archive is an on-disk, append-only record of price samples laid out
// as <base>/<period>/<region>/<product-slug>/<instance>.csv. Loading a
// key walks every period directory, concatenates matching rows, drops
// duplicate timestamps (keep-first), and returns a sorted Series.
type Archive struct {
	baseDir string
	logger  *log.Logger
}

// New creates an Archive rooted at baseDir.
func New(baseDir string, logger *log.Logger) *Archive {
	if logger == nil {
		logger = log.New(os.Stderr, "pricehistory: ", log.LstdFlags)
	}
	return &Archive{baseDir: baseDir, logger: logger}
}

// Path returns the CSV path a sample for the given key and period would
// be stored under.
func (a *Archive) Path(period string, key Key) string {
	return filepath.Join(a.baseDir, period, key.Region(), key.ProductSlug(), key.InstanceType+".csv")
}

// Append writes samples to their period-partitioned CSV files, creating
// directories and headers as needed. Samples for different keys or
// periods are routed to their own files.
func (a *Archive) Append(period string, samples []Sample) error {
	byPath := make(map[string][]Sample)
	for _, s := range samples {
		p := a.Path(period, s.key())
		byPath[p] = append(byPath[p], s)
	}

	for path, rows := range byPath {
		if err := a.appendFile(path, rows); err != nil {
			return fmt.Errorf("pricehistory: append %s: %w", path, err)
		}
	}
	return nil
}

func (a *Archive) appendFile(path string, rows []Sample) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	exists := true
	if _, err := os.Stat(path); os.IsNotExist(err) {
		exists = false
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if !exists {
		if err := w.Write([]string{colInstanceType, colProduct, colRegion, colZone, colPrice, colTimestamp}); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for _, s := range rows {
		record := []string{
			s.InstanceType,
			s.Product,
			s.Region,
			s.Zone,
			strconv.FormatFloat(s.Price, 'f', -1, 64),
			s.Timestamp.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// ErrArchiveMiss is returned by Load when no samples exist for a key.
var ErrArchiveMiss = fmt.Errorf("pricehistory: no samples for key")

// Load walks every period directory under the archive root, collects
// every sample matching key from any CSV file under that key's
// region/product/instance path, and returns the deduped, sorted
// Series. Corrupt rows are skipped with a logged warning; they never
// abort the load.
func (a *Archive) Load(key Key) (Series, error) {
	var samples []Sample

	periods, err := os.ReadDir(a.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return Series{}, ErrArchiveMiss
		}
		return Series{}, fmt.Errorf("pricehistory: read base dir: %w", err)
	}

	for _, p := range periods {
		if !p.IsDir() {
			continue
		}
		path := filepath.Join(a.baseDir, p.Name(), key.Region(), key.ProductSlug(), key.InstanceType+".csv")
		rows, err := a.readCSV(path, key)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Series{}, err
		}
		samples = append(samples, rows...)
	}

	if len(samples) == 0 {
		return Series{}, ErrArchiveMiss
	}

	series, err := NewSeries(key, samples)
	if err != nil {
		return Series{}, fmt.Errorf("pricehistory: %w", err)
	}
	return series, nil
}

// LoadCSV loads samples for key directly from a single CSV dataframe
// file (the -s/--spot-csv path used by the sweep CLI), bypassing the
// period-partitioned tree. Matches the original source's
// spothistory_from_dataframe behavior: filter by (instance, product,
// zone), then sort and dedup.
func (a *Archive) LoadCSV(path string, key Key) (Series, error) {
	samples, err := a.readCSV(path, key)
	if err != nil {
		return Series{}, fmt.Errorf("pricehistory: read %s: %w", path, err)
	}
	if len(samples) == 0 {
		return Series{}, ErrArchiveMiss
	}
	return NewSeries(key, samples)
}

func (a *Archive) readCSV(path string, key Key) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	required := []string{colInstanceType, colProduct, colRegion, colZone, colPrice, colTimestamp}
	for _, c := range required {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("missing column %q in %s", c, path)
		}
	}

	var out []Sample
	lineNo := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		lineNo++
		if err != nil {
			a.logger.Printf("skipping corrupt row %d in %s: %v", lineNo, path, err)
			continue
		}

		s, err := parseRow(record, idx)
		if err != nil {
			a.logger.Printf("skipping corrupt row %d in %s: %v", lineNo, path, err)
			continue
		}
		if s.InstanceType != key.InstanceType || s.Product != key.Product || s.Zone != key.Zone {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func parseRow(record []string, idx map[string]int) (Sample, error) {
	get := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	price, err := strconv.ParseFloat(get(colPrice), 64)
	if err != nil {
		return Sample{}, fmt.Errorf("parse price: %w", err)
	}

	ts, err := parseTimestamp(get(colTimestamp))
	if err != nil {
		return Sample{}, fmt.Errorf("parse timestamp: %w", err)
	}

	return Sample{
		InstanceType: get(colInstanceType),
		Product:      get(colProduct),
		Region:       get(colRegion),
		Zone:         get(colZone),
		Price:        price,
		Timestamp:    ts,
	}, nil
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}
