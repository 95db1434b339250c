// Package services – StateStore
//
// This file implements the conversation state store: a plain keyed map from
// chat id to domain.ConversationMode. There is no expiry; the key space is
// bounded by active users and entries are overwritten on every menu action.
// Only the handler currently processing an event for a chat mutates its
// mode, but the map itself is shared across event goroutines and therefore
// mutex-guarded.
package services

import (
	"sync"

	"github.com/alritech/tikbot/internal/domain"
)

// StateStore maps chat ids to their conversation mode. Safe for concurrent
// use. The zero value is not usable; construct with NewStateStore.
type StateStore struct {
	mu    sync.RWMutex
	modes map[int64]domain.ConversationMode
}

// NewStateStore returns an empty store.
func NewStateStore() *StateStore {
	return &StateStore{modes: make(map[int64]domain.ConversationMode)}
}

// Get returns the mode for chatID, defaulting to ModeIdle when absent.
func (s *StateStore) Get(chatID int64) domain.ConversationMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modes[chatID]
}

// Set records the mode for chatID, overwriting any previous value.
func (s *StateStore) Set(chatID int64, mode domain.ConversationMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modes[chatID] = mode
}

// Clear removes the entry for chatID; subsequent Gets return ModeIdle.
func (s *StateStore) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.modes, chatID)
}
