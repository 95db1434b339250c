package services

import (
	"sync"
	"testing"

	"github.com/alritech/tikbot/internal/domain"
)

func TestStateStoreDefaultsToIdle(t *testing.T) {
	s := NewStateStore()
	if got := s.Get(42); got != domain.ModeIdle {
		t.Fatalf("Get on unknown chat = %v, want ModeIdle", got)
	}
}

func TestStateStoreSetGetClear(t *testing.T) {
	s := NewStateStore()

	s.Set(1, domain.ModeAwaitingLink)
	if got := s.Get(1); got != domain.ModeAwaitingLink {
		t.Fatalf("Get = %v, want ModeAwaitingLink", got)
	}

	s.Set(1, domain.ModeAwaitingMenuChoice)
	if got := s.Get(1); got != domain.ModeAwaitingMenuChoice {
		t.Fatalf("Get after overwrite = %v, want ModeAwaitingMenuChoice", got)
	}

	s.Clear(1)
	if got := s.Get(1); got != domain.ModeIdle {
		t.Fatalf("Get after Clear = %v, want ModeIdle", got)
	}
}

func TestStateStoreIsolatesChats(t *testing.T) {
	s := NewStateStore()
	s.Set(1, domain.ModeAwaitingLink)
	if got := s.Get(2); got != domain.ModeIdle {
		t.Fatalf("chat 2 mode = %v, want ModeIdle", got)
	}
}

func TestStateStoreConcurrentAccess(t *testing.T) {
	s := NewStateStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.Set(id, domain.ModeAwaitingLink)
			_ = s.Get(id)
			s.Clear(id)
		}(int64(i))
	}
	wg.Wait()
}
