package layout

import (
	"errors"
	"fmt"
)

// ErrUnknownFormat is returned by Classify when no profile matches the
// header. The whole file is rejected; classification never degrades to
// row-by-row guessing.
var ErrUnknownFormat = errors.New("header matched no known layout")

// Exclusion sentinels. Excluded rows are intentional skips, not errors:
// the orchestrator counts them and moves on without logging a row error.
var (
	// ErrNonFuelProduct marks rows whose product code is the non-fuel
	// sentinel used by the card network for fees and adjustments.
	ErrNonFuelProduct = errors.New("non-fuel product code")

	// ErrReversalRow marks reversal/cancellation rows (negative category
	// code) that must never be persisted as transactions.
	ErrReversalRow = errors.New("reversal or cancellation row")
)

// RowError is a recoverable, row-level validation failure. The row is
// logged and skipped; the file keeps processing.
type RowError struct {
	Field string
	Msg   string
}

func (e *RowError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// missingField reports a mandatory field that is absent or unparseable.
func missingField(field string) *RowError {
	return &RowError{Field: field, Msg: "mandatory field missing or invalid"}
}
