package itinerary

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wayplan/wayplan/internal/event_bus"
	"github.com/wayplan/wayplan/internal/test_utils"
	"github.com/wayplan/wayplan/pkg/user"
)

var ctx = test_utils.ContextWithTestUser()

type publishedEvents struct {
	daily    []event_bus.Event
	travel   []event_bus.Event
	statuses []event_bus.ItemStatusChanged
}

func setupService(t *testing.T) (*StubRepo, *publishedEvents, *ServiceImpl) {
	t.Helper()
	repo := NewStubRepo()
	bus := event_bus.NewEventBus()
	events := &publishedEvents{}
	unsubDaily := bus.Subscribe(event_bus.EventDailyDataChanged, func(e event_bus.Event) error {
		events.daily = append(events.daily, e)
		return nil
	})
	unsubStatus := event_bus.SubscribeTyped[event_bus.ItemStatusChanged](bus, event_bus.EventDailyDataChanged,
		func(e event_bus.EventT[event_bus.ItemStatusChanged]) error {
			events.statuses = append(events.statuses, e.Data)
			return nil
		})
	unsubTravel := bus.Subscribe(event_bus.EventTravelDataChanged, func(e event_bus.Event) error {
		events.travel = append(events.travel, e)
		return nil
	})
	t.Cleanup(func() {
		unsubDaily()
		unsubStatus()
		unsubTravel()
	})
	return repo, events, NewService(repo, bus)
}

func serviceItem(sourceId string, date string, itemType ItemType) Item {
	return Item{
		SourceId: sourceId,
		TravelId: "t-1",
		UserId:   test_utils.TestUser.Id,
		Type:     itemType,
		Date:     date,
		Title:    "item " + sourceId,
	}
}

func TestServiceImpl_ItemsForDate(t *testing.T) {
	t.Run("returns the user's items for the date", func(t *testing.T) {
		repo, _, service := setupService(t)
		repo.Seed(
			serviceItem("i-1", "2024-05-01", TypeActivity),
			serviceItem("i-2", "2024-05-02", TypeExpense),
		)

		items, err := service.ItemsForDate(ctx, "t-1", "2024-05-01")

		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "i-1", items[0].SourceId)
	})

	t.Run("requires a signed-in user", func(t *testing.T) {
		_, _, service := setupService(t)

		_, err := service.ItemsForDate(context.Background(), "t-1", "2024-05-01")

		assert.ErrorIs(t, err, user.ErrNoUser)
	})
}

func TestServiceImpl_ItemsForRange(t *testing.T) {
	repo, _, service := setupService(t)
	repo.Seed(
		serviceItem("i-1", "2024-05-01", TypeActivity),
		serviceItem("i-2", "2024-05-02", TypeExpense),
		serviceItem("i-3", "2024-05-05", TypeExpense),
	)

	buckets, err := service.ItemsForRange(ctx, "t-1", "2024-05-01", "2024-05-02")

	require.NoError(t, err)
	assert.Len(t, buckets, 2)
	assert.Len(t, buckets["2024-05-01"], 1)
	assert.Len(t, buckets["2024-05-02"], 1)
	assert.NotContains(t, buckets, "2024-05-05")
}

func TestServiceImpl_Create(t *testing.T) {
	t.Run("assigns an id and announces both data changes", func(t *testing.T) {
		_, events, service := setupService(t)

		created, err := service.Create(ctx, Item{TravelId: "t-1", Type: TypeActivity, Date: "2024-05-01", Title: "Museum"})

		require.NoError(t, err)
		assert.NotEmpty(t, created.SourceId)
		assert.Len(t, events.daily, 1)
		assert.Nil(t, events.daily[0].Data)
		assert.Len(t, events.travel, 1)
		assert.Empty(t, events.statuses)
	})

	t.Run("drops the priority of accommodation entries", func(t *testing.T) {
		_, _, service := setupService(t)
		priority := 2

		created, err := service.Create(ctx, Item{
			TravelId: "t-1",
			Type:     TypeActivity,
			Date:     "2024-05-01",
			Title:    "Hotel",
			Category: CategoryAccommodation,
			Priority: &priority,
		})

		require.NoError(t, err)
		assert.Nil(t, created.Priority)
	})

	t.Run("publishes nothing when the remote write fails", func(t *testing.T) {
		repo, events, service := setupService(t)
		repo.Err = assert.AnError

		_, err := service.Create(ctx, Item{TravelId: "t-1", Type: TypeActivity, Date: "2024-05-01", Title: "Museum"})

		assert.Error(t, err)
		assert.Empty(t, events.daily)
		assert.Empty(t, events.travel)
	})
}

func TestServiceImpl_Delete(t *testing.T) {
	t.Run("removes the item and announces both data changes", func(t *testing.T) {
		repo, events, service := setupService(t)
		repo.Seed(serviceItem("i-1", "2024-05-01", TypeActivity))

		require.NoError(t, service.Delete(ctx, "i-1"))

		assert.Len(t, events.daily, 1)
		assert.Len(t, events.travel, 1)
	})

	t.Run("returns not found for an unknown id", func(t *testing.T) {
		_, events, service := setupService(t)

		err := service.Delete(ctx, "missing")

		assert.ErrorIs(t, err, ErrItemNotFound)
		assert.Empty(t, events.daily)
	})
}

func TestServiceImpl_SetCompleted(t *testing.T) {
	t.Run("announces a targeted status change only", func(t *testing.T) {
		repo, events, service := setupService(t)
		repo.Seed(serviceItem("i-1", "2024-05-01", TypeActivity))

		require.NoError(t, service.SetCompleted(ctx, "i-1", TypeActivity, true))

		require.Len(t, events.statuses, 1)
		assert.Equal(t, "i-1", events.statuses[0].SourceId)
		assert.Equal(t, string(TypeActivity), events.statuses[0].ItemType)
		assert.True(t, events.statuses[0].Completed)
		// No broad refresh for a toggle.
		assert.Empty(t, events.travel)
	})

	t.Run("returns not found when the type does not match", func(t *testing.T) {
		repo, events, service := setupService(t)
		repo.Seed(serviceItem("i-1", "2024-05-01", TypeActivity))

		err := service.SetCompleted(ctx, "i-1", TypeExpense, true)

		assert.ErrorIs(t, err, ErrItemNotFound)
		assert.Empty(t, events.statuses)
	})
}
