// Package memory is an in-process document tree standing in for the remote store when no
// backend is configured. It can go offline and inject random failures on demand.
package memory

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/budgetbuddy/internal/transaction"
)

var (
	ErrOffline   = errors.New("remote store offline")
	ErrSimulated = errors.New("simulated remote failure")
)

type Store struct {
	mu   sync.Mutex
	docs map[string][]transaction.Child
	subs map[string]map[chan transaction.Snapshot]struct{}

	offline  atomic.Bool
	simulate atomic.Bool
	failRoll func(n int) bool
}

func New() *Store {
	return &Store{
		docs:     make(map[string][]transaction.Child),
		subs:     make(map[string]map[chan transaction.Snapshot]struct{}),
		failRoll: func(n int) bool { return rand.Intn(n) == 0 },
	}
}

// SetSimulateErrors makes writes fail half of the time and subscriptions a quarter of the time.
func (s *Store) SetSimulateErrors(enabled bool) {
	s.simulate.Store(enabled)
}

// SetOffline cuts writes and subscriptions off. Subscribers are told immediately and receive a fresh
// snapshot when the store comes back.
func (s *Store) SetOffline(offline bool) {
	if s.offline.Swap(offline) == offline {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for ownerID := range s.subs {
		s.broadcast(ownerID)
	}
}

// AllocateKey works offline: keys are generated in process.
func (s *Store) AllocateKey(_ context.Context, _ string) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) WriteValue(_ context.Context, ownerID, key string, doc transaction.Document) error {
	if err := s.check(2); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	children := s.docs[ownerID]

	idx := slices.IndexFunc(children, func(c transaction.Child) bool { return c.Key == key })
	if idx >= 0 {
		children[idx].Document = doc
	} else {
		s.docs[ownerID] = append(children, transaction.Child{Key: key, Document: doc})
	}

	s.broadcast(ownerID)

	return nil
}

func (s *Store) SubscribeSubtree(ctx context.Context, ownerID string) (<-chan transaction.Snapshot, error) {
	if s.offline.Load() {
		return nil, ErrOffline
	}

	ch := make(chan transaction.Snapshot, 1)

	s.mu.Lock()
	defer s.mu.Unlock()

	ch <- s.snapshot(ownerID, 4)

	if s.subs[ownerID] == nil {
		s.subs[ownerID] = make(map[chan transaction.Snapshot]struct{})
	}
	s.subs[ownerID][ch] = struct{}{}

	go func() {
		<-ctx.Done()

		s.mu.Lock()
		defer s.mu.Unlock()

		delete(s.subs[ownerID], ch)
		if len(s.subs[ownerID]) == 0 {
			delete(s.subs, ownerID)
		}
		close(ch)
	}()

	return ch, nil
}

// Children returns the owner's documents, newest first.
func (s *Store) Children(ownerID string) []transaction.Child {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ordered(ownerID)
}

// Subscribers reports the number of live subscriptions for the owner.
func (s *Store) Subscribers(ownerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.subs[ownerID])
}

func (s *Store) check(odds int) error {
	if s.offline.Load() {
		return ErrOffline
	}

	if s.simulate.Load() && s.failRoll(odds) {
		return ErrSimulated
	}

	return nil
}

// snapshot must be called with mu held.
func (s *Store) snapshot(ownerID string, odds int) transaction.Snapshot {
	if err := s.check(odds); err != nil {
		return transaction.Snapshot{Err: err}
	}

	return transaction.Snapshot{Children: s.ordered(ownerID)}
}

// ordered must be called with mu held.
func (s *Store) ordered(ownerID string) []transaction.Child {
	children := slices.Clone(s.docs[ownerID])
	slices.Reverse(children)
	slices.SortStableFunc(children, func(a, b transaction.Child) int {
		switch {
		case a.Document.DateText > b.Document.DateText:
			return -1
		case a.Document.DateText < b.Document.DateText:
			return 1
		}

		return 0
	})

	return children
}

// broadcast must be called with mu held.
func (s *Store) broadcast(ownerID string) {
	for ch := range s.subs[ownerID] {
		select {
		case <-ch:
		default:
		}
		ch <- s.snapshot(ownerID, 4)
	}
}
