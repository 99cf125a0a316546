// Package journal defines the ports a transaction store must implement.
// The aggregation engine itself only ever needs LoadAll; the two write
// styles (bulk replace vs row-level) are both first-class so an adapter
// may offer either or both.
package journal

import (
	"context"
	"errors"

	"salestree/internal/core"
)

// ErrNotFound is returned by row-level operations for an unknown ID.
var ErrNotFound = errors.New("transaction not found")

type (
	Loader interface {
		LoadAll(ctx context.Context) ([]core.Transaction, error)
	}

	// Replacer overwrites the whole journal atomically.
	Replacer interface {
		ReplaceAll(ctx context.Context, txs []core.Transaction) error
	}

	// RowWriter mutates single rows. Insert assigns and returns the ID;
	// Update replaces the record wholesale (no field-level patching).
	RowWriter interface {
		Insert(ctx context.Context, t core.Transaction) (string, error)
		Update(ctx context.Context, id string, t core.Transaction) error
		Delete(ctx context.Context, id string) error
	}

	// Getter is optional: adapters that can fetch a single row cheaply
	// implement it, callers fall back to LoadAll otherwise.
	Getter interface {
		Get(ctx context.Context, id string) (core.Transaction, error)
	}

	// Store is a fully-featured journal backend.
	Store interface {
		Loader
		Replacer
		RowWriter
	}
)
