// Package store persists fuel transactions and their import audit trail
// in PostgreSQL.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetops/fuelimport/internal/importer"
	"github.com/fleetops/fuelimport/internal/layout"
)

// Store is the pgx-backed persistence layer. It satisfies importer.Store.
type Store struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func New(pool *pgxpool.Pool, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{pool: pool, log: log}
}

const insertTransactionSQL = `
	INSERT INTO fuel_transactions (
		dedup_key, batch_id, source_file, source_layout, row_number,
		vehicle_id, station_id, vehicle_number, card_number_masked,
		service_date, service_time,
		product_code, product_name, product_class,
		quantity, unit_price, unit_price_before_tax,
		amount_before_tax, tax_amount, total_amount,
		slip_number, branch_number, raw_data
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23
	)
	ON CONFLICT (dedup_key) DO NOTHING`

// InsertTransactions persists one chunk atomically. The statements ride a
// single pgx batch inside one transaction: either the whole chunk lands
// or none of it does.
func (s *Store) InsertTransactions(ctx context.Context, txs []*layout.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	dbtx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer dbtx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, tx := range txs {
		batch.Queue(insertTransactionSQL,
			keyString(tx.NaturalKey()),
			tx.BatchID,
			tx.SourceFile,
			string(tx.Layout),
			tx.RowNumber,
			tx.VehicleID,
			tx.StationID,
			tx.VehicleNumber,
			tx.MaskedCard,
			tx.Date,
			clockText(tx.Time),
			tx.ProductCode,
			tx.ProductName,
			string(layout.ClassifyProduct(tx.ProductName)),
			optNumeric(tx.Quantity),
			optNumeric(tx.UnitPrice),
			optNumeric(tx.UnitPriceBeforeTax),
			optNumeric(tx.AmountBeforeTax),
			optNumeric(tx.TaxAmount),
			numeric(tx.TotalAmount),
			tx.SlipNumber,
			tx.BranchNumber,
			tx.RawData,
		)
	}

	results := dbtx.SendBatch(ctx, batch)
	for range txs {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("insert transaction: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}
	return dbtx.Commit(ctx)
}

// TransactionExists reports whether a transaction with the given natural
// key has been persisted, served by the unique dedup index.
func (s *Store) TransactionExists(ctx context.Context, key layout.Key) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM fuel_transactions WHERE dedup_key = $1)`,
		keyString(key)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("transaction exists: %w", err)
	}
	return exists, nil
}

// CreateBatch inserts the initial audit row for a file import.
func (s *Store) CreateBatch(ctx context.Context, b *importer.Batch) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO import_batches (batch_id, file_name, status, started_at)
		 VALUES ($1, $2, $3, $4)`,
		b.ID, b.FileName, string(b.Status), b.StartedAt)
	if err != nil {
		return fmt.Errorf("create batch: %w", err)
	}
	return nil
}

// UpdateBatch writes the batch's current state and counters.
func (s *Store) UpdateBatch(ctx context.Context, b *importer.Batch) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE import_batches SET
			source_layout = $2, encoding = $3, status = $4,
			total_rows = $5, success_rows = $6, error_rows = $7,
			duplicate_rows = $8, skipped_rows = $9,
			error_message = $10, completed_at = $11
		 WHERE batch_id = $1`,
		b.ID, string(b.Layout), b.Encoding, string(b.Status),
		b.TotalRows, b.SuccessRows, b.ErrorRows,
		b.DuplicateRows, b.SkippedRows,
		b.ErrorMessage, b.CompletedAt)
	if err != nil {
		return fmt.Errorf("update batch: %w", err)
	}
	return nil
}

// RecordRowError persists one rejected row for later inspection.
func (s *Store) RecordRowError(ctx context.Context, batchID string, rowNumber int, field, message, raw string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO import_errors (batch_id, row_number, field, message, raw_data)
		 VALUES ($1, $2, $3, $4, $5)`,
		batchID, rowNumber, field, message, raw)
	if err != nil {
		return fmt.Errorf("record row error: %w", err)
	}
	return nil
}

// BatchSummary is one row of the batch listing.
type BatchSummary struct {
	BatchID       string
	FileName      string
	Layout        string
	Status        string
	TotalRows     int
	SuccessRows   int
	ErrorRows     int
	DuplicateRows int
	SkippedRows   int
}

// RecentBatches lists the latest import batches, newest first.
func (s *Store) RecentBatches(ctx context.Context, limit int) ([]BatchSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT batch_id, file_name, source_layout, status,
			total_rows, success_rows, error_rows, duplicate_rows, skipped_rows
		 FROM import_batches
		 ORDER BY started_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent batches: %w", err)
	}
	defer rows.Close()

	var out []BatchSummary
	for rows.Next() {
		var b BatchSummary
		if err := rows.Scan(&b.BatchID, &b.FileName, &b.Layout, &b.Status,
			&b.TotalRows, &b.SuccessRows, &b.ErrorRows, &b.DuplicateRows, &b.SkippedRows); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
