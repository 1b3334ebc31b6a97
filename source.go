package distkmeans

import (
	"context"
	"math"

	"github.com/hupe1980/distkmeans/blobstore"
	"github.com/hupe1980/distkmeans/dataset"
	"github.com/hupe1980/distkmeans/model"
)

// Source supplies the global dataset. Only the coordinator calls Load.
type Source interface {
	Load(ctx context.Context) ([]model.Point, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]model.Point, error)

// Load calls f.
func (f SourceFunc) Load(ctx context.Context) ([]model.Point, error) { return f(ctx) }

// Points returns a Source serving a fixed dataset.
func Points(points []model.Point) Source {
	return SourceFunc(func(context.Context) ([]model.Point, error) {
		return points, nil
	})
}

// Dataset returns a Source that reads name from store with dataset.Load.
func Dataset(store blobstore.BlobStore, name string, optFns ...func(*dataset.Options)) Source {
	return SourceFunc(func(ctx context.Context) ([]model.Point, error) {
		return dataset.Load(ctx, store, name, optFns...)
	})
}

// StopPredicate reports whether the loop may end after round, given the
// centers before and after it. It sees identical inputs on every worker.
type StopPredicate func(round int, prev, next []model.Point) bool

// CentersWithin stops once no center moved farther than tol.
// CentersWithin(0) stops as soon as the centers no longer change.
func CentersWithin(tol float64) StopPredicate {
	return func(_ int, prev, next []model.Point) bool {
		for i := range next {
			if d := prev[i].Distance(next[i]); d > tol || math.IsNaN(d) {
				return false
			}
		}
		return true
	}
}
