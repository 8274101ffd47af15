// Package resolve maps the raw identifiers on a transaction row to stored
// entities: vehicles (by registration number, falling back to the fuel
// card) and fuel stations (by code, falling back to name, creating the
// station when it is unknown).
package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fleetops/fuelimport/internal/layout"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Resolver looks up vehicles and stations for one import run. Lookups are
// cached per run; vendor files repeat the same handful of vehicles and
// stations across thousands of rows.
type Resolver struct {
	db DBTX

	vehicleByNumber map[string]*int64
	vehicleByCard   map[string]*int64
	stationByCode   map[string]int64
	stationByName   map[string]int64
}

func New(db DBTX) *Resolver {
	return &Resolver{
		db:              db,
		vehicleByNumber: make(map[string]*int64),
		vehicleByCard:   make(map[string]*int64),
		stationByCode:   make(map[string]int64),
		stationByName:   make(map[string]int64),
	}
}

// Resolve fills the VehicleID and StationID references on a transaction.
// An unresolvable vehicle is not an error; the transaction is persisted
// with a nil reference and matched up later. Station resolution creates
// missing stations, so it only fails on storage errors.
func (r *Resolver) Resolve(ctx context.Context, tx *layout.Transaction) error {
	vehicleID, err := r.resolveVehicle(ctx, tx.VehicleNumber, tx.CardNumber)
	if err != nil {
		return fmt.Errorf("resolve vehicle: %w", err)
	}
	tx.VehicleID = vehicleID

	stationID, err := r.resolveStation(ctx, tx)
	if err != nil {
		return fmt.Errorf("resolve station: %w", err)
	}
	tx.StationID = stationID
	return nil
}

// resolveVehicle tries the registration number first, then the card the
// row was charged to. A cached nil means "looked up before, not found"
// and falls through to the card branch, same as a fresh miss.
func (r *Resolver) resolveVehicle(ctx context.Context, number, card string) (*int64, error) {
	if number != "" {
		id, ok := r.vehicleByNumber[number]
		if !ok {
			var err error
			id, err = r.queryVehicleByNumber(ctx, number)
			if err != nil {
				return nil, err
			}
			r.vehicleByNumber[number] = id
		}
		if id != nil {
			return id, nil
		}
	}

	if card != "" {
		if id, ok := r.vehicleByCard[card]; ok {
			return id, nil
		}
		id, err := r.queryVehicleByCard(ctx, card)
		if err != nil {
			return nil, err
		}
		r.vehicleByCard[card] = id
		return id, nil
	}

	return nil, nil
}

func (r *Resolver) queryVehicleByNumber(ctx context.Context, number string) (*int64, error) {
	const q = `
		SELECT id FROM vehicles
		WHERE registration_number LIKE '%' || $1 || '%'
		   OR model_code = $1
		   OR chassis_number = $1
		ORDER BY id
		LIMIT 1`

	var id int64
	err := r.db.QueryRow(ctx, q, number).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (r *Resolver) queryVehicleByCard(ctx context.Context, card string) (*int64, error) {
	const q = `
		SELECT vehicle_id FROM vehicle_cards
		WHERE card_number = $1 AND active
		LIMIT 1`

	var id int64
	err := r.db.QueryRow(ctx, q, card).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// resolveStation looks up by station code, then by name, then creates the
// station. Rows that carry neither identifier have no station reference.
func (r *Resolver) resolveStation(ctx context.Context, tx *layout.Transaction) (*int64, error) {
	code := strings.TrimSpace(tx.StationCode)
	name := strings.TrimSpace(tx.StationName)

	if code != "" {
		if id, ok := r.stationByCode[code]; ok {
			return &id, nil
		}
		var id int64
		err := r.db.QueryRow(ctx,
			`SELECT id FROM fuel_stations WHERE station_code = $1`, code).Scan(&id)
		if err == nil {
			r.stationByCode[code] = id
			return &id, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
	}

	if name == "" {
		return nil, nil
	}
	if id, ok := r.stationByName[name]; ok {
		return &id, nil
	}

	var id int64
	err := r.db.QueryRow(ctx,
		`SELECT id FROM fuel_stations WHERE station_name = $1`, name).Scan(&id)
	if err == nil {
		r.stationByName[name] = id
		return &id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	id, err = r.createStation(ctx, code, name, tx.Prefecture, tx.City)
	if err != nil {
		return nil, err
	}
	r.stationByName[name] = id
	if code != "" {
		r.stationByCode[code] = id
	}
	return &id, nil
}

// createStation inserts a station discovered in an import file. The upsert
// makes concurrent imports safe: two workers hitting the same new station
// converge on one row instead of one of them failing the unique index.
func (r *Resolver) createStation(ctx context.Context, code, name, prefecture, city string) (int64, error) {
	if code == "" {
		code = generatedCode(name)
	}

	const q = `
		INSERT INTO fuel_stations (station_code, station_name, prefecture, city)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (station_code) DO UPDATE SET
			station_name = EXCLUDED.station_name,
			prefecture   = COALESCE(NULLIF(EXCLUDED.prefecture, ''), fuel_stations.prefecture),
			city         = COALESCE(NULLIF(EXCLUDED.city, ''), fuel_stations.city)
		RETURNING id`

	var id int64
	if err := r.db.QueryRow(ctx, q, code, name, prefecture, city).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// generatedCode derives a stable synthetic code for stations that appear
// in files by name only. Stability matters: the same station in a later
// file must land on the same row.
func generatedCode(name string) string {
	sum := uint32(2166136261)
	for _, b := range []byte(name) {
		sum ^= uint32(b)
		sum *= 16777619
	}
	return fmt.Sprintf("GEN-%08X", sum)
}
