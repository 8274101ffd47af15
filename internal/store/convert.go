package store

import (
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/fleetops/fuelimport/internal/layout"
)

// keyString flattens a natural key into the single indexed column. The
// pipe separator never appears in the component values (dates are ISO,
// identifiers are vendor codes), so the mapping is unambiguous.
func keyString(k layout.Key) string {
	return strings.Join([]string{
		string(k.Layout), k.Date, k.Vehicle, k.Slip, k.Branch,
	}, "|")
}

// clockText renders an optional time of day as HH:MM, nil when absent.
func clockText(c *layout.ClockTime) *string {
	if c == nil {
		return nil
	}
	s := c.String()
	return &s
}

// numeric converts a decimal to pgtype.Numeric through its exact string
// form; no float round trip.
func numeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	if err := n.Scan(d.String()); err != nil {
		// Decimal strings always scan; reaching this means a programming
		// error, surfaced as SQL NULL rather than a panic mid-batch.
		return pgtype.Numeric{}
	}
	return n
}

// optNumeric is numeric for optional fields: nil maps to SQL NULL.
func optNumeric(d *decimal.Decimal) pgtype.Numeric {
	if d == nil {
		return pgtype.Numeric{}
	}
	return numeric(*d)
}
