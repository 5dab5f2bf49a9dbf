package watch

import (
	"sync"

	"github.com/StudioSol/set"
)

// Registry holds the chats currently subscribed to broadcasts. It is shared
// between the poll loop and the Telegram command handlers, so every access
// goes through the mutex.
type Registry struct {
	mu    sync.Mutex
	chats *set.LinkedHashSetINT64
}

func NewRegistry() *Registry {
	return &Registry{chats: set.NewLinkedHashSetINT64()}
}

// Subscribe adds a chat, reporting whether it was not already present.
func (r *Registry) Subscribe(chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.chats.InArray(chatID) {
		return false
	}
	r.chats.Add(chatID)
	return true
}

// Unsubscribe removes a chat, reporting whether it was present.
func (r *Registry) Unsubscribe(chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.chats.InArray(chatID) {
		return false
	}
	r.chats.Remove(chatID)
	return true
}

func (r *Registry) Contains(chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.chats.InArray(chatID)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.chats.Length()
}

// Snapshot returns a copy of the registry for fan-out iteration, so command
// handlers can mutate the live set while a broadcast is in flight.
func (r *Registry) Snapshot() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]int64(nil), r.chats.AsSlice()...)
}

// Prune removes chats whose delivery failed during a broadcast pass.
func (r *Registry) Prune(chatIDs []int64) {
	if len(chatIDs) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.chats.Remove(chatIDs...)
}
