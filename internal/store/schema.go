package store

import (
	"context"
	"fmt"
)

// ddl creates the import schema. Statements are idempotent so the CLI can
// run bootstrap on every start.
var ddl = []string{
	`CREATE TABLE IF NOT EXISTS vehicles (
		id                  BIGSERIAL PRIMARY KEY,
		registration_number TEXT NOT NULL,
		model_code          TEXT NOT NULL DEFAULT '',
		chassis_number      TEXT NOT NULL DEFAULT '',
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_vehicles_registration
		ON vehicles (registration_number)`,

	`CREATE TABLE IF NOT EXISTS vehicle_cards (
		id          BIGSERIAL PRIMARY KEY,
		vehicle_id  BIGINT NOT NULL REFERENCES vehicles(id),
		card_number TEXT NOT NULL,
		active      BOOLEAN NOT NULL DEFAULT true,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_vehicle_cards_number
		ON vehicle_cards (card_number)`,

	`CREATE TABLE IF NOT EXISTS fuel_stations (
		id           BIGSERIAL PRIMARY KEY,
		station_code TEXT NOT NULL,
		station_name TEXT NOT NULL,
		prefecture   TEXT NOT NULL DEFAULT '',
		city         TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_fuel_stations_code
		ON fuel_stations (station_code)`,

	`CREATE TABLE IF NOT EXISTS import_batches (
		id            BIGSERIAL PRIMARY KEY,
		batch_id      TEXT NOT NULL UNIQUE,
		file_name     TEXT NOT NULL,
		source_layout TEXT NOT NULL DEFAULT '',
		encoding      TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL,
		total_rows     INTEGER NOT NULL DEFAULT 0,
		success_rows   INTEGER NOT NULL DEFAULT 0,
		error_rows     INTEGER NOT NULL DEFAULT 0,
		duplicate_rows INTEGER NOT NULL DEFAULT 0,
		skipped_rows   INTEGER NOT NULL DEFAULT 0,
		error_message  TEXT NOT NULL DEFAULT '',
		started_at     TIMESTAMPTZ NOT NULL,
		completed_at   TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS import_errors (
		id         BIGSERIAL PRIMARY KEY,
		batch_id   TEXT NOT NULL,
		row_number INTEGER NOT NULL,
		field      TEXT NOT NULL DEFAULT '',
		message    TEXT NOT NULL,
		raw_data   TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_import_errors_batch
		ON import_errors (batch_id)`,

	`CREATE TABLE IF NOT EXISTS fuel_transactions (
		id            BIGSERIAL PRIMARY KEY,
		dedup_key     TEXT NOT NULL,
		batch_id      TEXT NOT NULL,
		source_file   TEXT NOT NULL,
		source_layout TEXT NOT NULL,
		row_number    INTEGER NOT NULL,

		vehicle_id BIGINT REFERENCES vehicles(id),
		station_id BIGINT REFERENCES fuel_stations(id),

		vehicle_number     TEXT NOT NULL DEFAULT '',
		card_number_masked TEXT NOT NULL DEFAULT '',

		service_date DATE NOT NULL,
		service_time TEXT,

		product_code  TEXT NOT NULL DEFAULT '',
		product_name  TEXT NOT NULL DEFAULT '',
		product_class TEXT NOT NULL DEFAULT 'other',

		quantity              NUMERIC,
		unit_price            NUMERIC,
		unit_price_before_tax NUMERIC,
		amount_before_tax     NUMERIC,
		tax_amount            NUMERIC,
		total_amount          NUMERIC NOT NULL,

		slip_number   TEXT NOT NULL DEFAULT '',
		branch_number TEXT NOT NULL DEFAULT '',
		raw_data      TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_fuel_transactions_dedup
		ON fuel_transactions (dedup_key)`,
	`CREATE INDEX IF NOT EXISTS idx_fuel_transactions_date
		ON fuel_transactions (service_date)`,
	`CREATE INDEX IF NOT EXISTS idx_fuel_transactions_vehicle
		ON fuel_transactions (vehicle_id, service_date)`,
	`CREATE INDEX IF NOT EXISTS idx_fuel_transactions_batch
		ON fuel_transactions (batch_id)`,
}

// EnsureSchema creates any missing tables and indexes.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range ddl {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
