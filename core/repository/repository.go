// Package repository persists model records.
//
// A Repository hands out one Collection per model. Two adapters are available:
// Memory keeps records in process, Postgres stores them in one table per model.
package repository

import (
	"context"
	"errors"

	"github.com/relabs-tech/modelrest/core/model"
	"github.com/relabs-tech/modelrest/core/pager"
	"github.com/relabs-tech/modelrest/core/query"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("not found")

// ErrUnsupportedOperation is returned when a search uses an operation the adapter cannot evaluate
var ErrUnsupportedOperation = query.ErrUnsupportedOperation

// SaveOptions modify Collection.Save
type SaveOptions struct {
	// IgnoreUnloaded allows saving a record with a caller-chosen uuid which
	// does not exist yet. Without it, saving a record with uuid requires the
	// record to exist.
	IgnoreUnloaded bool
}

// FindOptions modify Collection.Find and Collection.List
type FindOptions struct {
	// Meta receives the total number of matching records, if not nil
	Meta *pager.Meta
	// LoadRecords requests full records. Otherwise only the uuids are set.
	LoadRecords bool
}

// Collection gives access to the records of one model
type Collection interface {
	// Exists returns whether a record with the given uuid exists
	Exists(ctx context.Context, id string) (bool, error)
	// Load returns the record with the given uuid or ErrNotFound
	Load(ctx context.Context, id string) (*model.Record, error)
	// Save stores the record. A record without uuid is created with a new uuid.
	Save(ctx context.Context, rec *model.Record, opts SaveOptions) (*model.Record, error)
	// Remove deletes the record with the given uuid or returns ErrNotFound
	Remove(ctx context.Context, id string) error
	// Find returns the page of records matching the predicate
	Find(ctx context.Context, p query.Predicate, spec pager.Spec, opts FindOptions) ([]*model.Record, error)
	// List returns the page of all records
	List(ctx context.Context, spec pager.Spec, opts FindOptions) ([]*model.Record, error)
}

// Repository hands out the collections of models
type Repository interface {
	Collection(ctx context.Context, d *model.Descriptor) (Collection, error)
}

// page applies the spec to the records and strips them down to their
// uuid unless full records are requested
func page(records []*model.Record, spec pager.Spec, opts FindOptions) []*model.Record {
	result := pager.Apply(records, spec, opts.Meta)
	if opts.LoadRecords {
		return result
	}
	stripped := make([]*model.Record, len(result))
	for i, rec := range result {
		stripped[i] = model.NewRecord(rec.UUID)
	}
	return stripped
}
