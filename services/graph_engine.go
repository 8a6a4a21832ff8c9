package services

import (
	"context"

	"github.com/worklink/api-go/stores"
)

const (
	defaultSuggestionLimit = 10
	maxSuggestionLimit     = 50
)

// GraphEngine owns the read-side graph semantics: mutuality is defined over
// accepted edges only, treated as undirected, and never includes the two
// endpoints themselves. Suggestions walk exactly one hop past the accepted
// neighborhood and never resurface anyone the user already has history with.
//
// Ordering is deterministic: suggestions by shared-connection count
// descending then user id ascending, mutual lists by user id ascending.
type GraphEngine struct {
	store stores.ConnectionStore
}

func NewGraphEngine(store stores.ConnectionStore) *GraphEngine {
	return &GraphEngine{store: store}
}

func (e *GraphEngine) MutualCount(ctx context.Context, userA, userB uint) (int, error) {
	if userA == userB {
		return 0, nil
	}
	return e.store.CountMutual(ctx, userA, userB)
}

func (e *GraphEngine) MutualList(ctx context.Context, userA, userB uint, limit int) ([]uint, error) {
	if userA == userB {
		return nil, nil
	}
	return e.store.ListMutual(ctx, userA, userB, clampLimit(limit))
}

func (e *GraphEngine) Suggestions(ctx context.Context, userID uint, limit int) ([]stores.SuggestionRow, error) {
	return e.store.ListSecondDegreeCandidates(ctx, userID, clampLimit(limit))
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultSuggestionLimit
	}
	if limit > maxSuggestionLimit {
		return maxSuggestionLimit
	}
	return limit
}
