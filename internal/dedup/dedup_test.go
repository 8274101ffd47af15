package dedup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fleetops/fuelimport/internal/layout"
)

type fakeLookup struct {
	existing map[layout.Key]bool
	calls    int
	err      error
}

func (f *fakeLookup) TransactionExists(_ context.Context, key layout.Key) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.existing[key], nil
}

func tx(vehicle, slip, branch string) *layout.Transaction {
	return &layout.Transaction{
		Layout:        layout.DetailFuel,
		Date:          time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC),
		VehicleNumber: vehicle,
		SlipNumber:    slip,
		BranchNumber:  branch,
	}
}

func TestCheckerInBatch(t *testing.T) {
	c := New(nil)
	ctx := context.Background()

	dup, err := c.Check(ctx, tx("TRK-001", "SL-100", "01"))
	if err != nil || dup {
		t.Fatalf("first Check() = %v, %v; want not duplicate", dup, err)
	}

	dup, err = c.Check(ctx, tx("TRK-001", "SL-100", "01"))
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !dup {
		t.Error("repeated key not flagged as duplicate")
	}

	dup, err = c.Check(ctx, tx("TRK-001", "SL-100", "02"))
	if err != nil || dup {
		t.Errorf("different branch flagged as duplicate")
	}

	if got := c.Seen(); got != 2 {
		t.Errorf("Seen() = %d, want 2", got)
	}
}

func TestCheckerPersisted(t *testing.T) {
	existing := tx("TRK-001", "SL-100", "01")
	lookup := &fakeLookup{existing: map[layout.Key]bool{
		existing.NaturalKey(): true,
	}}
	c := New(lookup)
	ctx := context.Background()

	dup, err := c.Check(ctx, tx("TRK-001", "SL-100", "01"))
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !dup {
		t.Error("persisted key not flagged as duplicate")
	}

	// A second hit on the same key is answered from the in-memory set.
	if _, err := c.Check(ctx, tx("TRK-001", "SL-100", "01")); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if lookup.calls != 1 {
		t.Errorf("lookup calls = %d, want 1", lookup.calls)
	}

	dup, err = c.Check(ctx, tx("TRK-002", "SL-101", "01"))
	if err != nil || dup {
		t.Errorf("fresh key flagged as duplicate")
	}
}

func TestCheckerLookupError(t *testing.T) {
	wantErr := errors.New("connection reset")
	c := New(&fakeLookup{err: wantErr})

	_, err := c.Check(context.Background(), tx("TRK-001", "SL-100", "01"))
	if !errors.Is(err, wantErr) {
		t.Fatalf("Check() error = %v, want wrapped %v", err, wantErr)
	}
}

func TestCheckerKeyUsesCardWhenVehicleAbsent(t *testing.T) {
	c := New(nil)
	ctx := context.Background()

	byCard := &layout.Transaction{
		Layout:     layout.BillingV2,
		Date:       time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC),
		CardNumber: "9876543210987654",
		SlipNumber: "CH-500",
	}
	if dup, err := c.Check(ctx, byCard); err != nil || dup {
		t.Fatalf("first Check() = %v, %v", dup, err)
	}
	dup, err := c.Check(ctx, byCard)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !dup {
		t.Error("card-keyed repeat not flagged as duplicate")
	}
}
