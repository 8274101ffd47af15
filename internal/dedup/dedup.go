// Package dedup detects duplicate transactions during an import run.
//
// Duplicates are found at two levels: against rows already accepted in the
// same file (an in-memory key set) and against previously persisted
// transactions (a storage lookup). The natural key is layout-specific and
// computed by the layout package; this package only tracks it.
package dedup

import (
	"context"
	"fmt"

	"github.com/fleetops/fuelimport/internal/layout"
)

// Lookup answers whether a transaction with the given natural key has
// already been persisted. Implemented by the store.
type Lookup interface {
	TransactionExists(ctx context.Context, key layout.Key) (bool, error)
}

// Checker tracks the natural keys seen during one file's import. It is
// not safe for concurrent use; each file gets its own Checker.
type Checker struct {
	lookup Lookup
	seen   map[layout.Key]struct{}
}

// New builds a Checker backed by the given persisted-transaction lookup.
// A nil lookup checks in-batch duplicates only.
func New(lookup Lookup) *Checker {
	return &Checker{
		lookup: lookup,
		seen:   make(map[layout.Key]struct{}),
	}
}

// Check reports whether the transaction is a duplicate, either of a row
// accepted earlier in this run or of a persisted transaction. A
// non-duplicate is recorded so later rows with the same key are caught.
func (c *Checker) Check(ctx context.Context, tx *layout.Transaction) (bool, error) {
	key := tx.NaturalKey()
	if _, ok := c.seen[key]; ok {
		return true, nil
	}

	if c.lookup != nil {
		exists, err := c.lookup.TransactionExists(ctx, key)
		if err != nil {
			return false, fmt.Errorf("duplicate lookup: %w", err)
		}
		if exists {
			c.seen[key] = struct{}{}
			return true, nil
		}
	}

	c.seen[key] = struct{}{}
	return false, nil
}

// Seen returns how many distinct keys the checker has recorded.
func (c *Checker) Seen() int {
	return len(c.seen)
}
