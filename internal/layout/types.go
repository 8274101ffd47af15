// Package layout defines the known export-file layouts and converts their
// rows into canonical fuel transactions.
//
// Each external billing system ships a different column set, date format,
// and identifier scheme. A layout is modeled as a Profile: detection
// keywords plus a row-parsing function. Classification picks exactly one
// profile (or Unknown) for a decoded file; parsing is pure per-row work.
package layout

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Tag identifies one of the known layouts.
type Tag string

const (
	DetailFuel Tag = "detail_fuel"
	BillingV1  Tag = "billing_v1"
	BillingV2  Tag = "billing_v2"
	Unknown    Tag = "unknown"
)

// RawRow is one data row of a decoded file: an ordered mapping from column
// label to raw string value. It exists only while the row is processed.
type RawRow struct {
	// Number is the 1-based source row number, counted from the first row
	// after the header.
	Number  int
	columns []string
	values  map[string]string
}

// NewRawRow pairs a header with one record. Short records leave trailing
// columns empty; extra cells beyond the header are dropped.
func NewRawRow(number int, header, record []string) RawRow {
	values := make(map[string]string, len(header))
	for i, col := range header {
		if i < len(record) {
			values[col] = record[i]
		} else {
			values[col] = ""
		}
	}
	return RawRow{Number: number, columns: header, values: values}
}

// Get returns the trimmed value of a column, or "" when the column is absent.
func (r RawRow) Get(label string) string {
	return cleanCell(r.values[label])
}

// GetAny returns the first non-empty value among the given column labels.
// Layouts drift between vendor file versions; amount columns in particular
// appear under more than one label.
func (r RawRow) GetAny(labels ...string) string {
	for _, l := range labels {
		if v := r.Get(l); v != "" {
			return v
		}
	}
	return ""
}

// Snapshot renders the row as JSON in column order, for the audit trail.
func (r RawRow) Snapshot() string {
	ordered := make([]snapshotField, 0, len(r.columns))
	for _, col := range r.columns {
		ordered = append(ordered, snapshotField{col, r.values[col]})
	}
	b, err := json.Marshal(ordered)
	if err != nil {
		return ""
	}
	return string(b)
}

type snapshotField struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

// ClockTime is a time of day without a date, from 4-digit HHMM fields.
type ClockTime struct {
	Hour   int
	Minute int
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Transaction is the canonical record produced from one accepted row.
// Monetary fields are decimals, never binary floats: unit prices carry
// fractional yen and rounding drift is unacceptable in billing data.
type Transaction struct {
	// Resolved references. Nil means unresolved (vehicle) or absent (station);
	// neither is fatal.
	VehicleID *int64
	StationID *int64

	// Raw identifiers as they appeared in the file, kept for resolution
	// and for the natural key.
	VehicleNumber string
	CardNumber    string
	StationCode   string
	StationName   string
	Prefecture    string
	City          string

	ProductCode string
	ProductName string

	Quantity           *decimal.Decimal
	UnitPrice          *decimal.Decimal
	UnitPriceBeforeTax *decimal.Decimal
	AmountBeforeTax    *decimal.Decimal
	TaxAmount          *decimal.Decimal
	TotalAmount        decimal.Decimal

	Date time.Time
	Time *ClockTime

	// MaskedCard is the last four digits of the card identifier.
	MaskedCard string

	// Natural-key fields. Which ones a layout fills varies; absent optional
	// components stay empty and still participate in the key.
	SlipNumber   string
	BranchNumber string

	// Provenance.
	SourceFile string
	BatchID    string
	Layout     Tag
	RowNumber  int
	RawData    string
}

// Key is the layout-specific natural key used for duplicate detection,
// both against the in-batch set and persisted storage.
type Key struct {
	Layout  Tag
	Date    string // YYYY-MM-DD
	Vehicle string
	Slip    string
	Branch  string
}

// NaturalKey computes the duplicate-detection key for this transaction.
func (t *Transaction) NaturalKey() Key {
	vehicle := t.VehicleNumber
	if vehicle == "" {
		vehicle = t.CardNumber
	}
	return Key{
		Layout:  t.Layout,
		Date:    t.Date.Format("2006-01-02"),
		Vehicle: vehicle,
		Slip:    t.SlipNumber,
		Branch:  t.BranchNumber,
	}
}

// MaskCard keeps the last four digits of a card identifier. Shorter values
// are already safe to store verbatim.
func MaskCard(card string) string {
	if len(card) > 4 {
		return card[len(card)-4:]
	}
	return card
}
