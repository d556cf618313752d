package home

import (
	"context"
	"time"

	"recipehub/mq"
	"recipehub/rdx"
)

const invalidateTimeout = 500 * time.Millisecond

// Invalidator is an mq.Emitter that drops the cached stats an event makes
// stale. A nil cache makes it a no-op.
type Invalidator struct {
	cache *rdx.Cache
}

func NewInvalidator(cache *rdx.Cache) *Invalidator {
	return &Invalidator{cache: cache}
}

func (i *Invalidator) Emit(ev mq.Event) {
	keys := staleStats(ev.Type)
	if i.cache == nil || len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), invalidateTimeout)
	defer cancel()
	i.cache.Invalidate(ctx, keys...)
}

func staleStats(eventType string) []string {
	switch eventType {
	case mq.UserRegistered:
		return []string{UsersCount}
	case mq.RecipeCreated, mq.RecipeDeleted:
		return []string{RecipesCount, TopLikedUsers}
	case mq.RecipeLiked, mq.RecipeUnliked:
		return []string{TopLikedUsers}
	}
	return nil
}
