package travel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wayplan/wayplan/internal/event_bus"
	"github.com/wayplan/wayplan/internal/test_utils"
	"github.com/wayplan/wayplan/pkg/querycache"
	"github.com/wayplan/wayplan/pkg/user"
)

var ctx = test_utils.ContextWithTestUser()

func setupListStore(t *testing.T) (*StubRepo, *event_bus.EventBus, *ListStore) {
	t.Helper()
	repo := NewStubRepo()
	queries := querycache.NewCache()
	bus := event_bus.NewEventBus()
	store := NewListStore(repo, queries, bus)
	t.Cleanup(store.Close)
	return repo, bus, store
}

func seededTravel(id string, name string, createdAt time.Time) Travel {
	return Travel{
		ID:        id,
		Name:      name,
		StartDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
		Budget:    1500,
		CreatedAt: createdAt,
		UserId:    test_utils.TestUser.Id,
	}
}

func TestListStore_FetchAll(t *testing.T) {
	t.Run("replaces the collection and is idempotent across refreshes", func(t *testing.T) {
		repo, _, store := setupListStore(t)
		base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		repo.Seed(
			seededTravel("t-1", "Rome", base),
			seededTravel("t-2", "Lisbon", base.Add(time.Hour)),
		)

		require.NoError(t, store.FetchAll(ctx))
		first := store.Travels()

		require.NoError(t, store.FetchAll(ctx))
		second := store.Travels()

		assert.Equal(t, first, second)
		require.Len(t, second, 2)
		assert.Equal(t, "Rome", second[0].Name)
		assert.Equal(t, "Lisbon", second[1].Name)
		assert.Equal(t, StateReady, store.State())
	})

	t.Run("defaults missing array fields to empty slices", func(t *testing.T) {
		repo, _, store := setupListStore(t)
		travel := seededTravel("t-1", "Rome", time.Now())
		travel.BoundingBox = nil
		travel.Countries = nil
		repo.Seed(travel)

		require.NoError(t, store.FetchAll(ctx))

		travels := store.Travels()
		require.Len(t, travels, 1)
		assert.NotNil(t, travels[0].BoundingBox)
		assert.NotNil(t, travels[0].Countries)
		assert.Empty(t, travels[0].BoundingBox)
		assert.Empty(t, travels[0].Countries)
	})

	t.Run("fails open to an empty collection on remote failure", func(t *testing.T) {
		repo, _, store := setupListStore(t)
		repo.Seed(seededTravel("t-1", "Rome", time.Now()))
		require.NoError(t, store.FetchAll(ctx))
		require.Len(t, store.Travels(), 1)

		repo.Err = errors.New("connection refused")

		// The shared query cache would serve the previous result, so force a
		// recompute the way a data-changed broadcast does.
		store.queries.Invalidate(querycache.QueryTravelSummaries)
		require.NoError(t, store.FetchAll(ctx))

		assert.Empty(t, store.Travels())
		assert.Equal(t, StateReady, store.State())
	})

	t.Run("requires a signed-in user", func(t *testing.T) {
		_, _, store := setupListStore(t)

		err := store.FetchAll(context.Background())

		assert.ErrorIs(t, err, user.ErrNoUser)
	})
}

func TestListStore_EnsureFetched(t *testing.T) {
	t.Run("fetches only once per session", func(t *testing.T) {
		repo, _, store := setupListStore(t)
		repo.Seed(seededTravel("t-1", "Rome", time.Now()))

		require.NoError(t, store.EnsureFetched(ctx))
		require.NoError(t, store.EnsureFetched(ctx))
		require.NoError(t, store.EnsureFetched(ctx))

		assert.Equal(t, 1, repo.SummariesCalls)
	})

	t.Run("fetches again after sign-out reset", func(t *testing.T) {
		repo, _, store := setupListStore(t)
		repo.Seed(seededTravel("t-1", "Rome", time.Now()))

		require.NoError(t, store.EnsureFetched(ctx))
		store.ResetForSignOut()
		assert.Equal(t, StateUninitialized, store.State())
		assert.Empty(t, store.Travels())

		store.queries.Invalidate(querycache.QueryTravelSummaries)
		require.NoError(t, store.EnsureFetched(ctx))

		assert.Equal(t, 2, repo.SummariesCalls)
		assert.Len(t, store.Travels(), 1)
	})
}

func TestListStore_Create(t *testing.T) {
	t.Run("appends a record with all aggregates zeroed", func(t *testing.T) {
		_, _, store := setupListStore(t)
		require.NoError(t, store.FetchAll(ctx))

		created, err := store.Create(ctx, TravelInput{
			Name:      "Kyoto",
			StartDate: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, 9, 14, 0, 0, 0, 0, time.UTC),
			Budget:    4000,
		})

		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Zero(t, created.TotalExpenses)
		assert.Zero(t, created.ExpensesCount)
		assert.Zero(t, created.TotalActivities)
		assert.Zero(t, created.ActivitiesCount)

		travels := store.Travels()
		require.Len(t, travels, 1)
		assert.Equal(t, created.ID, travels[0].ID)
	})

	t.Run("fails without a signed-in user", func(t *testing.T) {
		_, _, store := setupListStore(t)

		_, err := store.Create(context.Background(), TravelInput{Name: "Kyoto"})

		assert.ErrorIs(t, err, user.ErrNoUser)
	})

	t.Run("propagates remote failures", func(t *testing.T) {
		repo, _, store := setupListStore(t)
		repo.Err = errors.New("permission denied")

		_, err := store.Create(ctx, TravelInput{Name: "Kyoto"})

		assert.Error(t, err)
		assert.Empty(t, store.Travels())
	})
}

func TestListStore_Delete(t *testing.T) {
	t.Run("removes exactly the matching record, order preserved", func(t *testing.T) {
		repo, _, store := setupListStore(t)
		base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		repo.Seed(
			seededTravel("t-1", "Rome", base),
			seededTravel("t-2", "Lisbon", base.Add(time.Hour)),
			seededTravel("t-3", "Oslo", base.Add(2*time.Hour)),
		)
		require.NoError(t, store.FetchAll(ctx))

		require.NoError(t, store.Delete(ctx, "t-2"))

		travels := store.Travels()
		require.Len(t, travels, 2)
		assert.Equal(t, "t-1", travels[0].ID)
		assert.Equal(t, "t-3", travels[1].ID)
	})

	t.Run("returns not found for an unknown id", func(t *testing.T) {
		_, _, store := setupListStore(t)

		err := store.Delete(ctx, "missing")

		assert.ErrorIs(t, err, ErrTravelNotFound)
	})
}

func TestListStore_RefreshesOnTravelDataChanged(t *testing.T) {
	repo, bus, store := setupListStore(t)
	repo.Seed(seededTravel("t-1", "Rome", time.Now()))
	require.NoError(t, store.FetchAll(ctx))
	require.Len(t, store.Travels(), 1)

	repo.Seed(seededTravel("t-2", "Lisbon", time.Now().Add(time.Hour)))
	require.NoError(t, bus.Publish(event_bus.NewEvent(ctx, event_bus.EventTravelDataChanged, nil)))

	assert.Len(t, store.Travels(), 2)
}
