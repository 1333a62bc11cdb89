package travel

import (
	"context"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/wayplan/wayplan/internal/event_bus"
	"github.com/wayplan/wayplan/pkg/itinerary"
	"github.com/wayplan/wayplan/pkg/querycache"
	"github.com/wayplan/wayplan/pkg/user"
)

// Store holds one trip's metadata, its daily-plan aggregates, and a
// date-keyed cache of detailed itinerary items. It is bound to one user and
// one travel id at construction. A trip id missing from the summaries query
// is not an error: the store becomes Ready with a nil travel ("not found
// yet").
type Store struct {
	mu          sync.Mutex
	travelId    string
	currentUser user.User

	repo      Repo
	itemRepo  itinerary.Repo
	cache     *itinerary.Cache
	queries   *querycache.Cache
	snapshots *SnapshotStore

	// listStore, when registered, is refreshed after a metadata edit so both
	// scopes stay consistent.
	listStore *ListStore

	state     StoreState
	travel    *Travel
	dailyPlan []DailyPlanEntry

	closed       bool
	unsubscribes []func()
}

func NewStore(
	travelId string,
	currentUser user.User,
	repo Repo,
	itemRepo itinerary.Repo,
	queries *querycache.Cache,
	snapshots *SnapshotStore,
	eventBus *event_bus.EventBus,
) *Store {
	store := &Store{
		travelId:    travelId,
		currentUser: currentUser,
		repo:        repo,
		itemRepo:    itemRepo,
		cache:       itinerary.NewCache(),
		queries:     queries,
		snapshots:   snapshots,
	}

	unsubTargeted := event_bus.SubscribeTyped[event_bus.ItemStatusChanged](
		eventBus,
		event_bus.EventDailyDataChanged,
		func(e event_bus.EventT[event_bus.ItemStatusChanged]) error {
			store.applyItemStatus(e.Data)
			return nil
		},
	)
	unsubDaily := eventBus.Subscribe(event_bus.EventDailyDataChanged, func(e event_bus.Event) error {
		// Targeted payloads are handled by the typed subscription above.
		if e.Data != nil {
			return nil
		}
		store.handleDataChanged(e.Context())
		return nil
	})
	unsubTravel := eventBus.Subscribe(event_bus.EventTravelDataChanged, func(e event_bus.Event) error {
		store.handleDataChanged(e.Context())
		return nil
	})
	store.unsubscribes = []func(){unsubTargeted, unsubDaily, unsubTravel}

	return store
}

// SetListStore registers the list-level store to refresh after Update.
func (s *Store) SetListStore(listStore *ListStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listStore = listStore
}

// Init resolves the trip from the shared summaries query and loads its daily
// plan. A persisted snapshot, when present, is applied first for instant
// display. Aggregate fetch failures resolve to "no trip" rather than an
// error.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	s.state = StateLoading
	s.mu.Unlock()

	if snapshot, err := s.snapshots.Load(s.travelId, s.currentUser.Id); err == nil && snapshot != nil {
		s.mu.Lock()
		travel := snapshot.Travel
		s.travel = &travel
		s.dailyPlan = snapshot.DailyPlan
		s.mu.Unlock()
	}

	result, err := s.queries.Do(ctx, querycache.QueryTravelSummaries, s.currentUser.Id, func(ctx context.Context) (any, error) {
		return s.repo.Summaries(ctx, s.currentUser.Id)
	})
	if err != nil {
		log.Errorf("failed to fetch travel summaries: %s", normalizeRemoteError(err))
		s.mu.Lock()
		s.travel = nil
		s.dailyPlan = nil
		s.state = StateReady
		s.mu.Unlock()
		return nil
	}

	summaries, _ := result.([]Travel)
	var resolved *Travel
	for i := range summaries {
		if summaries[i].ID == s.travelId {
			travel := summaries[i].normalized()
			resolved = &travel
			break
		}
	}

	if resolved == nil {
		log.Debugf("travel %s not present in summaries, treating as not found yet", s.travelId)
		s.mu.Lock()
		s.travel = nil
		s.dailyPlan = nil
		s.state = StateReady
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	s.travel = resolved
	s.mu.Unlock()

	if err := s.fetchDailyPlan(ctx); err != nil {
		log.Errorf("failed to fetch daily plan: %s", normalizeRemoteError(err))
	}

	s.mu.Lock()
	s.state = StateReady
	s.mu.Unlock()
	return nil
}

// RefreshDailyPlan re-fetches only the daily plan and updates the snapshot.
// Without a loaded trip it is a no-op.
func (s *Store) RefreshDailyPlan(ctx context.Context) error {
	s.mu.Lock()
	loaded := s.travel != nil
	s.mu.Unlock()
	if !loaded {
		return nil
	}
	s.queries.Invalidate(querycache.QueryDailyPlan)
	return s.fetchDailyPlan(ctx)
}

func (s *Store) fetchDailyPlan(ctx context.Context) error {
	result, err := s.queries.Do(ctx, querycache.QueryDailyPlan, s.travelId, func(ctx context.Context) (any, error) {
		return s.repo.DailyPlan(ctx, s.travelId)
	})
	if err != nil {
		return err
	}
	entries, _ := result.([]DailyPlanEntry)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.dailyPlan = entries
	travel := s.travel
	s.mu.Unlock()

	if travel != nil {
		if err := s.snapshots.Save(*travel, entries); err != nil {
			log.Warnf("failed to persist travel snapshot: %v", err)
		}
	}
	return nil
}

// GetDayTotals returns the aggregates for one date, zeroed when the date has
// no entry. It never fails.
func (s *Store) GetDayTotals(date string) DailyPlanEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.dailyPlan {
		if entry.Date == date {
			return entry
		}
	}
	return DailyPlanEntry{Date: date}
}

// GetDetailedItems is a pure cache read; misses return an empty slice
// without fetching.
func (s *Store) GetDetailedItems(date string) []itinerary.Item {
	return s.cache.Get(date)
}

// GetItemById is a pure cache read by source id and type.
func (s *Store) GetItemById(date string, sourceId string, itemType itinerary.ItemType) (itinerary.Item, bool) {
	return s.cache.GetItem(date, sourceId, itemType)
}

// HasCachedDate reports whether the date bucket has been fetched. Callers
// distinguish fetched-and-empty from never-fetched through this, not through
// the length of GetDetailedItems.
func (s *Store) HasCachedDate(date string) bool {
	return s.cache.Has(date)
}

// CachedDates returns every fetched date in chronological order.
func (s *Store) CachedDates() []string {
	return s.cache.Dates()
}

// LoadDetailedItems fetches and caches the detailed items for one date.
// Already-cached dates, a missing user, or a missing travel id all make it a
// silent no-op.
func (s *Store) LoadDetailedItems(ctx context.Context, date string) error {
	if s.currentUser.Id == "" || s.travelId == "" {
		return nil
	}
	if s.cache.Has(date) {
		return nil
	}

	items, err := s.itemRepo.ForDate(ctx, s.currentUser.Id, s.travelId, date)
	if err != nil {
		log.Errorf("failed to load items for %s: %s", date, normalizeRemoteError(err))
		return err
	}
	if s.isClosed() {
		return nil
	}
	s.cache.Put(date, items)
	return nil
}

// LoadMultipleDays fetches every not-yet-cached date among the given ones in
// a single range query spanning from the earliest to the latest uncached
// date, and merges the returned buckets in one update. Dates are sorted
// before the span is computed, so caller order does not matter.
func (s *Store) LoadMultipleDays(ctx context.Context, dates []string) error {
	if s.currentUser.Id == "" || s.travelId == "" {
		return nil
	}

	var uncached []string
	for _, date := range dates {
		if !s.cache.Has(date) {
			uncached = append(uncached, date)
		}
	}
	if len(uncached) == 0 {
		return nil
	}
	sort.Strings(uncached)

	from, to := uncached[0], uncached[len(uncached)-1]
	buckets, err := s.itemRepo.ForRange(ctx, s.currentUser.Id, s.travelId, from, to)
	if err != nil {
		log.Errorf("failed to load items for %s..%s: %s", from, to, normalizeRemoteError(err))
		return err
	}
	if s.isClosed() {
		return nil
	}

	merged := make(map[string][]itinerary.Item, len(buckets)+len(uncached))
	for date, items := range buckets {
		merged[date] = items
	}
	// Requested dates with no rows still become present-as-empty so later
	// reads know they were fetched.
	for _, date := range uncached {
		if _, ok := merged[date]; !ok {
			merged[date] = []itinerary.Item{}
		}
	}
	s.cache.Merge(merged)
	return nil
}

// InvalidateDateCache removes one date bucket.
func (s *Store) InvalidateDateCache(date string) {
	s.cache.Invalidate(date)
}

// Update edits the trip's metadata. On success the response is merged into
// the local record, the persisted snapshot is dropped so the next cold start
// reloads fresh, the daily plan is re-fetched (a changed date range moves
// day-to-item associations), and the registered list store is refreshed.
func (s *Store) Update(ctx context.Context, input TravelInput) (Travel, error) {
	if s.currentUser.Id == "" {
		return Travel{}, user.ErrNoUser
	}
	s.mu.Lock()
	if s.travel == nil {
		s.mu.Unlock()
		return Travel{}, ErrTravelNotFound
	}
	s.mu.Unlock()

	updated, err := s.repo.Update(ctx, s.currentUser.Id, s.travelId, input)
	if err != nil {
		log.Errorf("failed to update travel: %s", normalizeRemoteError(err))
		return Travel{}, err
	}
	updated = updated.normalized()

	s.mu.Lock()
	s.travel = &updated
	listStore := s.listStore
	s.mu.Unlock()

	if err := s.snapshots.Delete(s.travelId, s.currentUser.Id); err != nil {
		log.Warnf("failed to drop travel snapshot: %v", err)
	}
	s.queries.Invalidate(querycache.QueryTravelSummaries, querycache.QueryOverviewData)

	if err := s.RefreshDailyPlan(ctx); err != nil {
		log.Errorf("failed to refresh daily plan after update: %v", err)
	}
	if listStore != nil {
		if err := listStore.FetchAll(ctx); err != nil {
			log.Errorf("failed to refresh travel list after update: %v", err)
		}
	}
	return updated, nil
}

// InvalidateCache removes only this trip's persisted snapshot. In-memory
// state stays available until the next refresh.
func (s *Store) InvalidateCache() error {
	return s.snapshots.Delete(s.travelId, s.currentUser.Id)
}

// ClearAllTravelCache sweeps every persisted snapshot across all trips and
// clears the in-memory caches (logout).
func (s *Store) ClearAllTravelCache() error {
	s.cache.Clear()
	s.queries.Clear()
	return s.snapshots.SweepAll()
}

// Travel returns a copy of the loaded trip, or nil when none resolved.
func (s *Store) Travel() *Travel {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.travel == nil {
		return nil
	}
	travel := *s.travel
	return &travel
}

// DailyPlan returns a copy of the current daily plan.
func (s *Store) DailyPlan() []DailyPlanEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DailyPlanEntry, len(s.dailyPlan))
	copy(out, s.dailyPlan)
	return out
}

func (s *Store) State() StoreState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close unsubscribes from the event bus and makes the store ignore
// late-arriving results.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	for _, unsubscribe := range s.unsubscribes {
		unsubscribe()
	}
	s.unsubscribes = nil
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// applyItemStatus patches one cached record in place instead of reloading
// whole buckets for a toggle-style edit.
func (s *Store) applyItemStatus(change event_bus.ItemStatusChanged) {
	if s.isClosed() {
		return
	}
	patched := s.cache.PatchStatus(change.SourceId, itinerary.ItemType(change.ItemType), change.Completed)
	log.Debugf("patched %d cached item(s) for source %s", patched, change.SourceId)
}

// handleDataChanged reacts to a broadcast without a targeted payload: the
// shared query results are invalidated so the next read recomputes, and a
// background refresh keeps the daily plan and cached date buckets warm
// without blocking the broadcaster.
func (s *Store) handleDataChanged(ctx context.Context) {
	s.queries.Invalidate(
		querycache.QueryTravelSummaries,
		querycache.QueryDailyPlan,
		querycache.QueryOverviewData,
	)

	// The broadcaster's request context may end before the refresh does.
	background := context.WithoutCancel(ctx)
	go s.refreshCachedData(background)
}

func (s *Store) refreshCachedData(ctx context.Context) {
	if s.isClosed() {
		return
	}
	if err := s.fetchDailyPlan(ctx); err != nil {
		log.Errorf("background daily plan refresh failed: %v", err)
	}

	dates := s.cache.Dates()
	if len(dates) == 0 {
		return
	}
	from, to := dates[0], dates[len(dates)-1]
	buckets, err := s.itemRepo.ForRange(ctx, s.currentUser.Id, s.travelId, from, to)
	if err != nil {
		log.Errorf("background item refresh failed for %s..%s: %v", from, to, err)
		return
	}
	if s.isClosed() {
		return
	}

	merged := make(map[string][]itinerary.Item, len(dates))
	for _, date := range dates {
		merged[date] = buckets[date]
	}
	s.cache.Merge(merged)
}
