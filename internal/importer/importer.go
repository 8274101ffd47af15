// Package importer orchestrates fuel transaction file imports: decode,
// classify, parse, resolve, deduplicate, persist, audit. One file is one
// batch; a directory import fans files out to concurrent workers.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/fleetops/fuelimport/internal/dedup"
	"github.com/fleetops/fuelimport/internal/layout"
	"github.com/fleetops/fuelimport/internal/textenc"
)

// Store is the persistence surface the importer needs. Implemented by the
// pgx-backed store; tests swap in fakes.
type Store interface {
	dedup.Lookup

	// InsertTransactions persists one chunk atomically.
	InsertTransactions(ctx context.Context, txs []*layout.Transaction) error

	CreateBatch(ctx context.Context, b *Batch) error
	UpdateBatch(ctx context.Context, b *Batch) error

	// RecordRowError persists a row-level failure for later inspection.
	RecordRowError(ctx context.Context, batchID string, rowNumber int, field, message, raw string) error
}

// Resolver fills entity references on a parsed transaction.
type Resolver interface {
	Resolve(ctx context.Context, tx *layout.Transaction) error
}

// Config tunes the importer. Zero values fall back to defaults.
type Config struct {
	// ChunkSize is how many accepted rows are buffered before a flush.
	ChunkSize int
	// MaxFileSize rejects oversized files before reading them, in bytes.
	MaxFileSize int64
	// MaxErrorsInline caps how many row errors a Result carries inline.
	// Every error is still persisted and logged.
	MaxErrorsInline int
	// MaxConcurrent bounds directory-import worker fan-out.
	MaxConcurrent int
}

func (c Config) withDefaults() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = 100
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 100 * 1024 * 1024
	}
	if c.MaxErrorsInline <= 0 {
		c.MaxErrorsInline = 10
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 4
	}
	return c
}

// RowIssue is one row-level failure, carried inline on the Result.
type RowIssue struct {
	Row     int
	Field   string
	Message string
}

func (i RowIssue) String() string {
	if i.Field == "" {
		return fmt.Sprintf("row %d: %s", i.Row, i.Message)
	}
	return fmt.Sprintf("row %d: %s: %s", i.Row, i.Field, i.Message)
}

// Result summarizes one file import.
type Result struct {
	BatchID  string
	FileName string
	Layout   layout.Tag
	Encoding string
	Status   Status

	TotalRows     int
	SuccessRows   int
	ErrorRows     int
	DuplicateRows int
	SkippedRows   int

	// Errors holds the first few row issues for immediate feedback.
	Errors []RowIssue
}

// Importer runs file imports against a store and resolver.
type Importer struct {
	store    Store
	resolver Resolver
	cfg      Config
	log      *slog.Logger
}

func New(store Store, resolver Resolver, cfg Config, log *slog.Logger) *Importer {
	if log == nil {
		log = slog.Default()
	}
	return &Importer{
		store:    store,
		resolver: resolver,
		cfg:      cfg.withDefaults(),
		log:      log,
	}
}

// ImportFile imports one file end to end. A failed batch returns both the
// partial Result and the error; the batch row records the failure either
// way.
func (im *Importer) ImportFile(ctx context.Context, path string) (*Result, error) {
	batch := NewBatch(filepath.Base(path))
	log := im.log.With("batch_id", batch.ID, "file", batch.FileName)
	log.Info("import started")

	if err := im.store.CreateBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}

	result, err := im.run(ctx, batch, path, log)
	if err != nil {
		batch.fail(err)
		if uerr := im.store.UpdateBatch(ctx, batch); uerr != nil {
			log.Error("batch update failed", "error", uerr)
		}
		log.Error("import failed", "error", err)
		result.Status = batch.Status
		return result, err
	}

	if uerr := im.store.UpdateBatch(ctx, batch); uerr != nil {
		return result, fmt.Errorf("finalize batch: %w", uerr)
	}
	log.Info("import completed",
		"layout", batch.Layout,
		"total", batch.TotalRows,
		"success", batch.SuccessRows,
		"errors", batch.ErrorRows,
		"duplicates", batch.DuplicateRows,
		"skipped", batch.SkippedRows,
		"duration", batch.Duration())
	return result, nil
}

// run performs the import phases, mutating the batch as it goes. The
// caller persists the batch on both success and failure.
func (im *Importer) run(ctx context.Context, batch *Batch, path string, log *slog.Logger) (*Result, error) {
	result := &Result{BatchID: batch.ID, FileName: batch.FileName}
	fill := func() {
		result.Layout = batch.Layout
		result.Encoding = batch.Encoding
		result.Status = batch.Status
		result.TotalRows = batch.TotalRows
		result.SuccessRows = batch.SuccessRows
		result.ErrorRows = batch.ErrorRows
		result.DuplicateRows = batch.DuplicateRows
		result.SkippedRows = batch.SkippedRows
	}
	defer fill()

	// Detect encoding.
	if err := batch.advance(StatusDetecting); err != nil {
		return result, err
	}
	data, err := im.readFile(path)
	if err != nil {
		return result, err
	}
	decoded, err := textenc.Decode(data)
	if err != nil {
		return result, fmt.Errorf("%s: %w", batch.FileName, err)
	}
	batch.Encoding = decoded.Encoding
	log.Debug("encoding detected", "encoding", decoded.Encoding)

	// Classify the layout from the header.
	if err := batch.advance(StatusClassifying); err != nil {
		return result, err
	}
	header, records, err := parseCSV(decoded.Text)
	if err != nil {
		return result, fmt.Errorf("parse csv: %w", err)
	}
	profile, err := layout.Classify(header)
	if err != nil {
		return result, fmt.Errorf("%s: %w", batch.FileName, err)
	}
	batch.Layout = profile.Tag
	log.Debug("layout classified", "layout", profile.Tag, "label", profile.Label)

	// Process rows.
	if err := batch.advance(StatusProcessing); err != nil {
		return result, err
	}
	if err := im.processRows(ctx, batch, result, profile, header, records); err != nil {
		return result, err
	}

	if err := batch.advance(StatusFinalizing); err != nil {
		return result, err
	}
	return result, batch.advance(StatusCompleted)
}

func (im *Importer) readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > im.cfg.MaxFileSize {
		return nil, fmt.Errorf("%s: file size %d exceeds limit %d",
			filepath.Base(path), info.Size(), im.cfg.MaxFileSize)
	}
	return os.ReadFile(path)
}

// parseCSV splits decoded text into a header and data records. The
// delimiter is sniffed from the header line; vendor exports use tabs and
// semicolons as often as commas.
func parseCSV(text string) (header []string, records [][]string, err error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = textenc.SniffDelimiter(text)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	// Skip leading blank lines before the header.
	for i, rec := range all {
		if !blankRecord(rec) {
			for j, cell := range rec {
				rec[j] = strings.TrimSpace(cell)
			}
			return rec, all[i+1:], nil
		}
	}
	return nil, nil, errors.New("file contains no header row")
}

func blankRecord(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// processRows walks the data rows with full row isolation: a bad row is
// counted and recorded, never aborts the file. Accepted rows are flushed
// in chunks.
func (im *Importer) processRows(ctx context.Context, batch *Batch, result *Result, profile layout.Profile, header []string, records [][]string) error {
	checker := dedup.New(im.store)
	pending := make([]*layout.Transaction, 0, im.cfg.ChunkSize)

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if err := im.store.InsertTransactions(ctx, pending); err != nil {
			return fmt.Errorf("flush %d rows: %w", len(pending), err)
		}
		batch.SuccessRows += len(pending)
		pending = pending[:0]
		return nil
	}

	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if blankRecord(record) {
			continue
		}
		batch.TotalRows++
		row := layout.NewRawRow(i+1, header, record)

		tx, err := profile.Parse(row)
		if err != nil {
			if errors.Is(err, layout.ErrNonFuelProduct) || errors.Is(err, layout.ErrReversalRow) {
				batch.SkippedRows++
				continue
			}
			im.recordRowError(ctx, batch, result, row, err)
			continue
		}

		tx.SourceFile = batch.FileName
		tx.BatchID = batch.ID

		if err := im.resolver.Resolve(ctx, tx); err != nil {
			return err
		}

		dup, err := checker.Check(ctx, tx)
		if err != nil {
			return err
		}
		if dup {
			batch.DuplicateRows++
			continue
		}

		pending = append(pending, tx)
		if len(pending) >= im.cfg.ChunkSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// recordRowError counts a row failure, persists it, and keeps the first
// few inline on the result.
func (im *Importer) recordRowError(ctx context.Context, batch *Batch, result *Result, row layout.RawRow, err error) {
	batch.ErrorRows++

	issue := RowIssue{Row: row.Number, Message: err.Error()}
	var rowErr *layout.RowError
	if errors.As(err, &rowErr) {
		issue.Field = rowErr.Field
		issue.Message = rowErr.Msg
	}
	if len(result.Errors) < im.cfg.MaxErrorsInline {
		result.Errors = append(result.Errors, issue)
	}

	if serr := im.store.RecordRowError(ctx, batch.ID, row.Number, issue.Field, issue.Message, row.Snapshot()); serr != nil {
		im.log.Error("row error not persisted", "batch_id", batch.ID, "row", row.Number, "error", serr)
	}
	im.log.Warn("row rejected", "batch_id", batch.ID, "row", row.Number, "field", issue.Field, "reason", issue.Message)
}

// ImportDir imports every file in dir whose name matches pattern,
// fanning out to at most MaxConcurrent workers. Results come back in
// file-name order. One failing file does not stop the others; the first
// failure is returned after all files finish.
func (im *Importer) ImportDir(ctx context.Context, dir, pattern string) ([]*Result, error) {
	if pattern == "" {
		pattern = "*.csv"
	}
	paths, err := matchFiles(dir, pattern)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files matching %q in %s", pattern, dir)
	}

	results := make([]*Result, len(paths))
	var mu sync.Mutex

	// A plain group, not WithContext: one failed file must not cancel
	// its siblings mid-chunk.
	var g errgroup.Group
	g.SetLimit(im.cfg.MaxConcurrent)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			res, err := im.ImportFile(ctx, path)
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return err
		})
	}
	err = g.Wait()

	out := results[:0]
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, err
}

func matchFiles(dir, pattern string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ok, err := filepath.Match(pattern, e.Name())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if ok {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
