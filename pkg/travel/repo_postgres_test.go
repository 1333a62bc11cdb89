package travel

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/wayplan/wayplan/internal/test_utils"
	"github.com/wayplan/wayplan/pkg/itinerary"
)

var pgContainer *postgres.PostgresContainer
var openDb func() *sql.DB

func TestMain(m *testing.M) {
	pgContainer, openDb = test_utils.TestWithDB()
	defer func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			log.Errorf("failed to terminate container: %s", err)
		}
	}()
	code := m.Run()
	os.Exit(code)
}

func setupTestRepository(t *testing.T) (context.Context, *RepoImpl, *itinerary.RepoImpl) {
	ctx := context.Background()
	db := openDb()
	t.Cleanup(func() {
		db.Close()
		err := pgContainer.Restore(ctx)
		require.NoError(t, err)
	})
	return ctx, NewRepo(db), itinerary.NewRepo(db)
}

func TestRepoImpl_Postgres(t *testing.T) {
	t.Run("should run the full travel lifecycle", func(t *testing.T) {
		// given
		ctx, repo, itemRepo := setupTestRepository(t)
		userId := test_utils.TestUser.Id

		// when
		created, err := repo.Create(ctx, userId, TravelInput{
			Name:        "Rome",
			StartDate:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			EndDate:     time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
			Budget:      1500,
			BoundingBox: []float64{12.3, 41.8, 12.6, 42.0},
			Countries:   []string{"IT"},
		})
		require.NoError(t, err)

		dinner := 42.5
		_, err = itemRepo.Create(ctx, userId, itinerary.Item{
			SourceId: "pg-i-1", TravelId: created.ID, Type: itinerary.TypeExpense,
			Date: "2024-05-02", Title: "Dinner", Cost: &dinner,
		})
		require.NoError(t, err)
		_, err = itemRepo.Create(ctx, userId, itinerary.Item{
			SourceId: "pg-i-2", TravelId: created.ID, Type: itinerary.TypeActivity,
			Date: "2024-05-02", Title: "Museum",
		})
		require.NoError(t, err)

		// then
		travels, err := repo.Summaries(ctx, userId)
		require.NoError(t, err)
		require.Len(t, travels, 1)
		assert.Equal(t, created.ID, travels[0].ID)
		assert.Equal(t, []float64{12.3, 41.8, 12.6, 42.0}, travels[0].BoundingBox)
		assert.Equal(t, 42.5, travels[0].TotalExpenses)
		assert.Equal(t, 1, travels[0].ExpensesCount)
		assert.Equal(t, 1, travels[0].ActivitiesCount)

		plan, err := repo.DailyPlan(ctx, created.ID)
		require.NoError(t, err)
		require.Len(t, plan, 1)
		assert.Equal(t, "2024-05-02", plan[0].Date)
		assert.Equal(t, 42.5, plan[0].TotalSpent)

		updated, err := repo.Update(ctx, userId, created.ID, TravelInput{
			Name:      "Rome and Florence",
			StartDate: created.StartDate,
			EndDate:   time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC),
			Budget:    2000,
		})
		require.NoError(t, err)
		assert.Equal(t, "Rome and Florence", updated.Name)
		assert.Equal(t, 42.5, updated.TotalExpenses)

		deleted, err := repo.Delete(ctx, userId, created.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		travels, err = repo.Summaries(ctx, userId)
		require.NoError(t, err)
		assert.Empty(t, travels)
	})

	t.Run("should read and toggle items", func(t *testing.T) {
		// given
		ctx, repo, itemRepo := setupTestRepository(t)
		userId := test_utils.TestUser.Id
		created, err := repo.Create(ctx, userId, TravelInput{
			Name:      "Lisbon",
			StartDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		_, err = itemRepo.Create(ctx, userId, itinerary.Item{
			SourceId: "pg-i-3", TravelId: created.ID, Type: itinerary.TypeActivity,
			Date: "2024-06-02", Title: "City tour", Time: "10:00",
		})
		require.NoError(t, err)

		// when
		toggled, err := itemRepo.SetCompleted(ctx, userId, "pg-i-3", itinerary.TypeActivity, true)
		require.NoError(t, err)
		buckets, err := itemRepo.ForRange(ctx, userId, created.ID, "2024-06-01", "2024-06-05")

		// then
		require.NoError(t, err)
		assert.True(t, toggled)
		require.Len(t, buckets["2024-06-02"], 1)
		assert.True(t, buckets["2024-06-02"][0].IsDone)
	})
}
