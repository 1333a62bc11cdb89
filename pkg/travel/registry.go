package travel

import (
	"context"
	"sync"

	"github.com/wayplan/wayplan/internal/event_bus"
	"github.com/wayplan/wayplan/pkg/itinerary"
	"github.com/wayplan/wayplan/pkg/querycache"
	"github.com/wayplan/wayplan/pkg/user"
)

// StoreRegistry hands out one ListStore per user and one Store per user+trip
// pair, constructing and initializing them lazily on first use. It exists so
// the HTTP layer reads through the same cache hierarchy the rest of the
// application uses.
type StoreRegistry struct {
	mu         sync.Mutex
	repo       Repo
	itemRepo   itinerary.Repo
	queries    *querycache.Cache
	snapshots  *SnapshotStore
	eventBus   *event_bus.EventBus
	listStores map[string]*ListStore
	stores     map[string]*Store
}

func NewStoreRegistry(
	repo Repo,
	itemRepo itinerary.Repo,
	queries *querycache.Cache,
	snapshots *SnapshotStore,
	eventBus *event_bus.EventBus,
) *StoreRegistry {
	return &StoreRegistry{
		repo:       repo,
		itemRepo:   itemRepo,
		queries:    queries,
		snapshots:  snapshots,
		eventBus:   eventBus,
		listStores: make(map[string]*ListStore),
		stores:     make(map[string]*Store),
	}
}

// ListStoreFor returns the user's list store, fetched at most once per
// session by EnsureFetched.
func (r *StoreRegistry) ListStoreFor(ctx context.Context, u user.User) (*ListStore, error) {
	r.mu.Lock()
	store, ok := r.listStores[u.Id]
	if !ok {
		store = NewListStore(r.repo, r.queries, r.eventBus)
		r.listStores[u.Id] = store
	}
	r.mu.Unlock()

	if err := store.EnsureFetched(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// StoreFor returns the initialized per-trip store for the user+travel pair.
func (r *StoreRegistry) StoreFor(ctx context.Context, u user.User, travelId string) (*Store, error) {
	key := u.Id + "|" + travelId

	r.mu.Lock()
	store, ok := r.stores[key]
	if ok {
		r.mu.Unlock()
		return store, nil
	}
	store = NewStore(travelId, u, r.repo, r.itemRepo, r.queries, r.snapshots, r.eventBus)
	r.stores[key] = store
	r.mu.Unlock()

	if listStore, err := r.ListStoreFor(ctx, u); err == nil {
		store.SetListStore(listStore)
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// DropUser closes and forgets every store of one user (sign-out).
func (r *StoreRegistry) DropUser(userId string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if listStore, ok := r.listStores[userId]; ok {
		listStore.Close()
		delete(r.listStores, userId)
	}
	for key, store := range r.stores {
		if store.currentUser.Id == userId {
			store.Close()
			delete(r.stores, key)
		}
	}
}
