package travel

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/wayplan/wayplan/internal/event_bus"
	"github.com/wayplan/wayplan/pkg/querycache"
	"github.com/wayplan/wayplan/pkg/user"
)

// StoreState makes a store's fetch lifecycle explicit instead of hiding it in
// a one-shot boolean.
type StoreState int

const (
	StateUninitialized StoreState = iota
	StateLoading
	StateReady
)

// ListStore holds the trips of the signed-in user, loaded through the shared
// query cache and replaced wholesale on every refresh. Fetch failures resolve
// to an empty list rather than stale data.
type ListStore struct {
	mu      sync.Mutex
	repo    Repo
	queries *querycache.Cache

	state   StoreState
	travels []Travel

	unsubscribe func()
}

func NewListStore(repo Repo, queries *querycache.Cache, eventBus *event_bus.EventBus) *ListStore {
	store := &ListStore{
		repo:    repo,
		queries: queries,
	}
	store.unsubscribe = eventBus.Subscribe(event_bus.EventTravelDataChanged, func(e event_bus.Event) error {
		log.Debug("travel list store: received travel data change")
		store.queries.Invalidate(querycache.QueryTravelSummaries)
		return store.FetchAll(e.Context())
	})
	return store
}

// FetchAll replaces the whole trip collection from the remote summaries
// query. On failure the collection becomes empty: showing nothing is
// preferred over showing stale or wrong data.
func (s *ListStore) FetchAll(ctx context.Context) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	s.mu.Lock()
	s.state = StateLoading
	s.mu.Unlock()

	result, err := s.queries.Do(ctx, querycache.QueryTravelSummaries, userId, func(ctx context.Context) (any, error) {
		return s.repo.Summaries(ctx, userId)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateReady
	if err != nil {
		log.Errorf("failed to fetch travels: %s", normalizeRemoteError(err))
		s.travels = []Travel{}
		return nil
	}

	summaries, _ := result.([]Travel)
	travels := make([]Travel, 0, len(summaries))
	for _, summary := range summaries {
		travels = append(travels, summary.normalized())
	}
	s.travels = travels
	return nil
}

// EnsureFetched runs the initial fetch exactly once per signed-in session;
// later calls are no-ops until ResetForSignOut.
func (s *ListStore) EnsureFetched(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateUninitialized {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()
	return s.FetchAll(ctx)
}

// ResetForSignOut returns the store to its pre-fetch state so the next
// session triggers a fresh initial load.
func (s *ListStore) ResetForSignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateUninitialized
	s.travels = nil
}

// Create persists a new trip and appends it locally with all four aggregates
// zeroed; the server recomputes them on the next summaries fetch.
func (s *ListStore) Create(ctx context.Context, input TravelInput) (Travel, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Travel{}, fmt.Errorf("failed to get current user: %w", err)
	}

	created, err := s.repo.Create(ctx, userId, input)
	if err != nil {
		log.Errorf("failed to create travel: %s", normalizeRemoteError(err))
		return Travel{}, err
	}

	created.TotalExpenses = 0
	created.ExpensesCount = 0
	created.TotalActivities = 0
	created.ActivitiesCount = 0

	s.queries.Invalidate(querycache.QueryTravelSummaries, querycache.QueryOverviewData)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.travels = append(s.travels, created.normalized())
	return created, nil
}

// Delete removes the trip remotely and drops exactly the matching record
// from the local collection, preserving the order of the rest.
func (s *ListStore) Delete(ctx context.Context, travelId string) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	deleted, err := s.repo.Delete(ctx, userId, travelId)
	if err != nil {
		log.Errorf("failed to delete travel: %s", normalizeRemoteError(err))
		return err
	}
	if !deleted {
		log.Warnf("travel not deleted, probably because it does not exist (%s) or the user (%s) is not the owner", travelId, userId)
		return ErrTravelNotFound
	}

	s.queries.Invalidate(querycache.QueryTravelSummaries, querycache.QueryOverviewData)

	s.mu.Lock()
	defer s.mu.Unlock()
	remaining := make([]Travel, 0, len(s.travels))
	for _, travel := range s.travels {
		if travel.ID != travelId {
			remaining = append(remaining, travel)
		}
	}
	s.travels = remaining
	return nil
}

// Travels returns a copy of the current trip collection.
func (s *ListStore) Travels() []Travel {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Travel, len(s.travels))
	copy(out, s.travels)
	return out
}

func (s *ListStore) State() StoreState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close unsubscribes the store from the event bus.
func (s *ListStore) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}
