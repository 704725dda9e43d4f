package revisions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/domeo/domeo-backend/internal/pricing"
	pkgerrors "github.com/domeo/domeo-backend/pkg/errors"
	"github.com/domeo/domeo-backend/pkg/logger"
	"github.com/google/uuid"
)

type storeEntry struct {
	engine   *Engine
	lastSeen time.Time
}

// Store keeps the session-scoped engines keyed by cart ID.
type Store struct {
	mu      sync.RWMutex
	engines map[uuid.UUID]*storeEntry
	pricer  Pricer
	opts    pricing.Options
	logg    *logger.Logger
	now     func() time.Time
}

func NewStore(pricer Pricer, opts pricing.Options, logg *logger.Logger) (*Store, error) {
	if pricer == nil {
		return nil, fmt.Errorf("pricer required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Store{
		engines: make(map[uuid.UUID]*storeEntry),
		pricer:  pricer,
		opts:    opts,
		logg:    logg,
		now:     time.Now,
	}, nil
}

// Create opens a cart. Items without a price are priced before the engine
// is registered, so the baseline is always priced.
func (s *Store) Create(ctx context.Context, clientID string, items []LineItem) (*Engine, error) {
	engine, err := NewEngine(uuid.New(), clientID, nil, s.pricer, s.opts, s.logg)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if _, err := engine.AddItem(ctx, item); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	s.engines[engine.CartID()] = &storeEntry{engine: engine, lastSeen: s.now()}
	s.mu.Unlock()

	s.logg.Info(s.logg.WithCartID(ctx, engine.CartID().String()), "cart opened")
	return engine, nil
}

// Get returns the engine and marks the cart as active.
func (s *Store) Get(cartID uuid.UUID) (*Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.engines[cartID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	entry.lastSeen = s.now()
	return entry.engine, nil
}

func (s *Store) Delete(cartID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.engines[cartID]; !ok {
		return false
	}
	delete(s.engines, cartID)
	return true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.engines)
}

// Engines returns the open engines without touching their activity time.
func (s *Store) Engines() []*Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	engines := make([]*Engine, 0, len(s.engines))
	for _, entry := range s.engines {
		engines = append(engines, entry.engine)
	}
	return engines
}

// EvictIdle drops carts not accessed since cutoff and returns their IDs.
func (s *Store) EvictIdle(cutoff time.Time) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	var evicted []uuid.UUID
	for id, entry := range s.engines {
		if entry.lastSeen.Before(cutoff) {
			delete(s.engines, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}
