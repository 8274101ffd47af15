package resolve

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fleetops/fuelimport/internal/layout"
)

// fakeDB routes queries to canned responses by SQL substring. Vehicle and
// station resolution only ever uses QueryRow.
type fakeDB struct {
	vehiclesByNumber map[string]int64
	vehiclesByCard   map[string]int64
	stationsByCode   map[string]int64
	stationsByName   map[string]int64
	nextStationID    int64
	inserted         []string
	queries          int
}

type fakeRow struct {
	id  int64
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if p, ok := dest[0].(*int64); ok {
		*p = r.id
	}
	return nil
}

func (f *fakeDB) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("unexpected Exec")
}

func (f *fakeDB) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("unexpected Query")
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...interface{}) pgx.Row {
	f.queries++
	arg := func(i int) string {
		if i < len(args) {
			if s, ok := args[i].(string); ok {
				return s
			}
		}
		return ""
	}

	switch {
	case strings.Contains(sql, "FROM vehicles"):
		if id, ok := f.vehiclesByNumber[arg(0)]; ok {
			return fakeRow{id: id}
		}
	case strings.Contains(sql, "FROM vehicle_cards"):
		if id, ok := f.vehiclesByCard[arg(0)]; ok {
			return fakeRow{id: id}
		}
	case strings.Contains(sql, "station_code = $1"):
		if id, ok := f.stationsByCode[arg(0)]; ok {
			return fakeRow{id: id}
		}
	case strings.Contains(sql, "station_name = $1"):
		if id, ok := f.stationsByName[arg(0)]; ok {
			return fakeRow{id: id}
		}
	case strings.Contains(sql, "INSERT INTO fuel_stations"):
		f.nextStationID++
		f.inserted = append(f.inserted, arg(0))
		if f.stationsByCode == nil {
			f.stationsByCode = map[string]int64{}
		}
		f.stationsByCode[arg(0)] = f.nextStationID
		if f.stationsByName == nil {
			f.stationsByName = map[string]int64{}
		}
		f.stationsByName[arg(1)] = f.nextStationID
		return fakeRow{id: f.nextStationID}
	}
	return fakeRow{err: pgx.ErrNoRows}
}

func testTx(vehicle, card, stationCode, stationName string) *layout.Transaction {
	return &layout.Transaction{
		Layout:        layout.DetailFuel,
		Date:          time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC),
		VehicleNumber: vehicle,
		CardNumber:    card,
		StationCode:   stationCode,
		StationName:   stationName,
	}
}

func TestResolveVehicle(t *testing.T) {
	db := &fakeDB{
		vehiclesByNumber: map[string]int64{"TRK-001": 11},
		vehiclesByCard:   map[string]int64{"9999": 22},
	}
	r := New(db)
	ctx := context.Background()

	t.Run("by number", func(t *testing.T) {
		tx := testTx("TRK-001", "", "", "")
		if err := r.Resolve(ctx, tx); err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if tx.VehicleID == nil || *tx.VehicleID != 11 {
			t.Errorf("VehicleID = %v, want 11", tx.VehicleID)
		}
	})

	t.Run("falls back to card", func(t *testing.T) {
		tx := testTx("UNKNOWN-7", "9999", "", "")
		if err := r.Resolve(ctx, tx); err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if tx.VehicleID == nil || *tx.VehicleID != 22 {
			t.Errorf("VehicleID = %v, want 22", tx.VehicleID)
		}
	})

	t.Run("unresolved is not an error", func(t *testing.T) {
		tx := testTx("NOBODY", "0000", "", "")
		if err := r.Resolve(ctx, tx); err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if tx.VehicleID != nil {
			t.Errorf("VehicleID = %v, want nil", tx.VehicleID)
		}
	})

	t.Run("no identifiers at all", func(t *testing.T) {
		tx := testTx("", "", "", "")
		if err := r.Resolve(ctx, tx); err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if tx.VehicleID != nil {
			t.Errorf("VehicleID = %v, want nil", tx.VehicleID)
		}
	})
}

func TestResolveVehicleCardFallbackRepeats(t *testing.T) {
	// An unknown vehicle number must fall back to the card on every row,
	// not just the first; the cached number miss must not short-circuit
	// the card lookup.
	db := &fakeDB{vehiclesByCard: map[string]int64{"CARD-1": 7}}
	r := New(db)
	ctx := context.Background()

	for row := 1; row <= 3; row++ {
		tx := testTx("UNKNOWN-NUM", "CARD-1", "", "")
		if err := r.Resolve(ctx, tx); err != nil {
			t.Fatalf("row %d: Resolve() error = %v", row, err)
		}
		if tx.VehicleID == nil || *tx.VehicleID != 7 {
			t.Fatalf("row %d: VehicleID = %v, want 7 (same inputs every row)", row, tx.VehicleID)
		}
	}
}

func TestResolveVehicleCached(t *testing.T) {
	db := &fakeDB{vehiclesByNumber: map[string]int64{"TRK-001": 11}}
	r := New(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tx := testTx("TRK-001", "", "", "")
		if err := r.Resolve(ctx, tx); err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
	}
	if db.queries != 1 {
		t.Errorf("queries = %d, want 1 (cached after first lookup)", db.queries)
	}
}

func TestResolveStation(t *testing.T) {
	ctx := context.Background()

	t.Run("by code", func(t *testing.T) {
		db := &fakeDB{stationsByCode: map[string]int64{"SS001": 5}}
		tx := testTx("", "", "SS001", "サンプルSS")
		if err := New(db).Resolve(ctx, tx); err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if tx.StationID == nil || *tx.StationID != 5 {
			t.Errorf("StationID = %v, want 5", tx.StationID)
		}
	})

	t.Run("by name when code unknown", func(t *testing.T) {
		db := &fakeDB{stationsByName: map[string]int64{"サンプルSS": 7}}
		tx := testTx("", "", "", "サンプルSS")
		if err := New(db).Resolve(ctx, tx); err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if tx.StationID == nil || *tx.StationID != 7 {
			t.Errorf("StationID = %v, want 7", tx.StationID)
		}
	})

	t.Run("created when unknown", func(t *testing.T) {
		db := &fakeDB{}
		tx := testTx("", "", "SS009", "新規SS")
		tx.Prefecture = "大阪府"
		if err := New(db).Resolve(ctx, tx); err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if tx.StationID == nil {
			t.Fatal("StationID = nil, want created station")
		}
		if len(db.inserted) != 1 || db.inserted[0] != "SS009" {
			t.Errorf("inserted = %v, want [SS009]", db.inserted)
		}
	})

	t.Run("created with generated code when name only", func(t *testing.T) {
		db := &fakeDB{}
		tx := testTx("", "", "", "名前だけSS")
		if err := New(db).Resolve(ctx, tx); err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if len(db.inserted) != 1 || !strings.HasPrefix(db.inserted[0], "GEN-") {
			t.Errorf("inserted = %v, want one GEN- code", db.inserted)
		}
	})

	t.Run("no identifiers means no station", func(t *testing.T) {
		db := &fakeDB{}
		tx := testTx("", "", "", "")
		if err := New(db).Resolve(ctx, tx); err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if tx.StationID != nil {
			t.Errorf("StationID = %v, want nil", tx.StationID)
		}
		if len(db.inserted) != 0 {
			t.Errorf("inserted = %v, want none", db.inserted)
		}
	})
}

func TestGeneratedCodeStable(t *testing.T) {
	a := generatedCode("名前だけSS")
	b := generatedCode("名前だけSS")
	if a != b {
		t.Errorf("generatedCode not stable: %q vs %q", a, b)
	}
	if a == generatedCode("別のSS") {
		t.Error("distinct names collided")
	}
}
