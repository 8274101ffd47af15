package store

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fleetops/fuelimport/internal/layout"
)

func TestKeyString(t *testing.T) {
	tests := []struct {
		name string
		key  layout.Key
		want string
	}{
		{
			name: "full key",
			key: layout.Key{
				Layout: layout.DetailFuel, Date: "2025-05-31",
				Vehicle: "TRK-001", Slip: "SL-100", Branch: "01",
			},
			want: "detail_fuel|2025-05-31|TRK-001|SL-100|01",
		},
		{
			name: "absent components stay as empty segments",
			key: layout.Key{
				Layout: layout.DetailFuel, Date: "2025-05-31",
				Vehicle: "TRK-001",
			},
			want: "detail_fuel|2025-05-31|TRK-001||",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := keyString(tt.key); got != tt.want {
				t.Errorf("keyString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeyStringDistinguishesLayouts(t *testing.T) {
	a := layout.Key{Layout: layout.BillingV1, Date: "2025-05-31", Vehicle: "X", Slip: "1"}
	b := layout.Key{Layout: layout.BillingV2, Date: "2025-05-31", Vehicle: "X", Slip: "1"}
	if keyString(a) == keyString(b) {
		t.Error("keys from different layouts collided")
	}
}

func TestClockText(t *testing.T) {
	if got := clockText(nil); got != nil {
		t.Errorf("clockText(nil) = %v, want nil", got)
	}
	c := layout.ClockTime{Hour: 8, Minute: 5}
	got := clockText(&c)
	if got == nil || *got != "08:05" {
		t.Errorf("clockText() = %v, want 08:05", got)
	}
}

func TestNumeric(t *testing.T) {
	tests := []string{"0", "7500", "-42", "136.36", "0.001"}
	for _, s := range tests {
		d, err := decimal.NewFromString(s)
		if err != nil {
			t.Fatal(err)
		}
		n := numeric(d)
		if !n.Valid {
			t.Errorf("numeric(%s) not valid", s)
			continue
		}
		v, err := n.Value()
		if err != nil {
			t.Errorf("numeric(%s).Value() error = %v", s, err)
		}
		if v == nil {
			t.Errorf("numeric(%s) drove to NULL", s)
		}
	}
}

func TestOptNumericNil(t *testing.T) {
	n := optNumeric(nil)
	if n.Valid {
		t.Error("optNumeric(nil) should be SQL NULL")
	}
}
