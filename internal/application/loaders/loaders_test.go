package loaders

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/clinicdesk/backend/internal/domain/entities"
)

type countingResolver struct {
	mu    sync.Mutex
	calls map[entities.EntityReference]int
}

func (r *countingResolver) Resolve(_ context.Context, ref entities.EntityReference) (*entities.ResolutionOutcome, error) {
	r.mu.Lock()
	r.calls[ref]++
	r.mu.Unlock()
	return &entities.ResolutionOutcome{Reference: ref, Record: &entities.CanonicalRecord{ID: ref.ID + "-resolved"}}, nil
}

func TestReferenceLoader_ResolvesEachKeyOnce(t *testing.T) {
	resolver := &countingResolver{calls: map[entities.EntityReference]int{}}
	ctx := WithLoaders(context.Background(), NewLoaders(resolver))

	doctor := entities.EntityReference{Kind: entities.KindDoctor, ID: "d1"}
	other := entities.EntityReference{Kind: entities.KindDoctor, ID: "d2"}

	loader := For(ctx).ReferenceLoader
	thunks := []func() (*entities.ResolutionOutcome, error){
		loader.Load(ctx, doctor),
		loader.Load(ctx, other),
		loader.Load(ctx, doctor),
	}

	for _, thunk := range thunks {
		outcome, err := thunk()
		require.NoError(t, err)
		assert.True(t, outcome.Found())
	}

	assert.Equal(t, 1, resolver.calls[doctor])
	assert.Equal(t, 1, resolver.calls[other])
}

func TestFor_WithoutLoaders(t *testing.T) {
	assert.Nil(t, For(context.Background()))
}
