// Package mq publishes domain events to the live activity feed.
package mq

import (
	"sync"
	"time"
)

const (
	RecipeCreated   = "recipe.created"
	RecipeUpdated   = "recipe.updated"
	RecipeDeleted   = "recipe.deleted"
	RecipeLiked     = "recipe.liked"
	RecipeUnliked   = "recipe.unliked"
	RecipeCommented = "recipe.commented"
	RecipeImaged    = "recipe.image"
	UserRegistered  = "user.registered"
)

type Event struct {
	Type       string    `json:"type"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	ActorID    string    `json:"actor_id,omitempty"`
	At         time.Time `json:"at"`
}

// Emitter must return promptly; it never fails the caller.
type Emitter interface {
	Emit(ev Event)
}

// Fanout hands every event to each emitter in order.
type Fanout []Emitter

func (f Fanout) Emit(ev Event) {
	for _, e := range f {
		e.Emit(ev)
	}
}

// Discard drops every event.
type Discard struct{}

func (Discard) Emit(Event) {}

// Recorder keeps emitted events in memory.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

func (r *Recorder) Emit(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, ev)
}

func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Events))
	for i, ev := range r.Events {
		out[i] = ev.Type
	}
	return out
}
