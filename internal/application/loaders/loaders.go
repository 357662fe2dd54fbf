package loaders

import (
	"context"
	"sync"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/zatekoja/clinicdesk/backend/internal/domain/entities"
)

type ctxKey string

const loadersKey ctxKey = "dataloaders"

// Resolver resolves a single reference
type Resolver interface {
	Resolve(ctx context.Context, ref entities.EntityReference) (*entities.ResolutionOutcome, error)
}

// Loaders holds the per-request dataloaders
type Loaders struct {
	// ReferenceLoader resolves each distinct reference once per request
	ReferenceLoader *dataloader.Loader[entities.EntityReference, *entities.ResolutionOutcome]
}

// NewLoaders creates request-scoped loaders over resolver
func NewLoaders(resolver Resolver) *Loaders {
	return &Loaders{
		ReferenceLoader: dataloader.NewBatchedLoader(
			func(ctx context.Context, keys []entities.EntityReference) []*dataloader.Result[*entities.ResolutionOutcome] {
				results := make([]*dataloader.Result[*entities.ResolutionOutcome], len(keys))

				var wg sync.WaitGroup
				for i, key := range keys {
					wg.Add(1)
					go func(i int, key entities.EntityReference) {
						defer wg.Done()
						outcome, err := resolver.Resolve(ctx, key)
						results[i] = &dataloader.Result[*entities.ResolutionOutcome]{Data: outcome, Error: err}
					}(i, key)
				}
				wg.Wait()

				return results
			},
			dataloader.WithWait[entities.EntityReference, *entities.ResolutionOutcome](2*time.Millisecond),
		),
	}
}

// For returns the loaders attached to ctx, or nil
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(loadersKey).(*Loaders)
	return l
}

// WithLoaders returns a new context with the loaders attached
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}
