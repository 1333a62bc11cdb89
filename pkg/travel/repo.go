package travel

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const dateFormat = "2006-01-02"

type Repo interface {
	// Summaries returns all travels of the user with their aggregates
	// precomputed, ordered by creation time.
	Summaries(ctx context.Context, userId string) ([]Travel, error)
	// DailyPlan returns the per-date aggregates of one travel, ordered by
	// date. Dates without items produce no entry.
	DailyPlan(ctx context.Context, travelId string) ([]DailyPlanEntry, error)
	Create(ctx context.Context, userId string, input TravelInput) (Travel, error)
	Update(ctx context.Context, userId string, travelId string, input TravelInput) (Travel, error)
	Delete(ctx context.Context, userId string, travelId string) (bool, error)
}

type RepoImpl struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *RepoImpl {
	return &RepoImpl{db: db}
}

func (r *RepoImpl) Summaries(ctx context.Context, userId string) ([]Travel, error) {
	query := `SELECT t.id, t.name, t.start_date, t.end_date, t.budget, t.bounding_box, t.countries,
				t.created_at, t.user_id, t.closed, t.synced,
				COALESCE(SUM(CASE WHEN i.type = 'expense' THEN COALESCE(i.cost, 0) END), 0) AS total_expenses,
				COUNT(CASE WHEN i.type = 'expense' THEN 1 END) AS expenses_count,
				COALESCE(SUM(CASE WHEN i.type = 'activity' THEN COALESCE(i.cost, 0) END), 0) AS total_activities,
				COUNT(CASE WHEN i.type = 'activity' THEN 1 END) AS activities_count
			FROM travel t
			LEFT JOIN itinerary_item i ON i.travel_id = t.id
			WHERE t.user_id = $1
			GROUP BY t.id, t.name, t.start_date, t.end_date, t.budget, t.bounding_box, t.countries,
				t.created_at, t.user_id, t.closed, t.synced
			ORDER BY t.created_at, t.id`
	rows, err := r.db.QueryContext(ctx, query, userId)
	if err != nil {
		err := fmt.Errorf("could not query travel summaries: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var travels []Travel
	for rows.Next() {
		travel, err := scanTravel(rows)
		if err != nil {
			return nil, err
		}
		travels = append(travels, travel)
	}

	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}

	return travels, nil
}

func (r *RepoImpl) DailyPlan(ctx context.Context, travelId string) ([]DailyPlanEntry, error) {
	query := `SELECT date,
				COUNT(CASE WHEN type = 'activity' THEN 1 END) AS activities_count,
				COUNT(CASE WHEN type = 'expense' THEN 1 END) AS expenses_count,
				COALESCE(SUM(COALESCE(cost, 0)), 0) AS total_spent
			FROM itinerary_item
			WHERE travel_id = $1
			GROUP BY date
			ORDER BY date`
	rows, err := r.db.QueryContext(ctx, query, travelId)
	if err != nil {
		err := fmt.Errorf("could not query daily plan: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var entries []DailyPlanEntry
	for rows.Next() {
		var entry DailyPlanEntry
		if err := rows.Scan(
			&entry.Date,
			&entry.ActivitiesCount,
			&entry.ExpensesCount,
			&entry.TotalSpent,
		); err != nil {
			err := fmt.Errorf("could not scan daily plan entry: %w", err)
			log.Error(err)
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}

	return entries, nil
}

func (r *RepoImpl) Create(ctx context.Context, userId string, input TravelInput) (Travel, error) {
	travel := Travel{
		ID:          uuid.NewString(),
		Name:        input.Name,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Budget:      input.Budget,
		BoundingBox: input.BoundingBox,
		Countries:   input.Countries,
		CreatedAt:   time.Now().UTC(),
		UserId:      userId,
		Closed:      input.Closed,
		Synced:      input.Synced,
	}.normalized()

	boundingBox, err := json.Marshal(travel.BoundingBox)
	if err != nil {
		return Travel{}, fmt.Errorf("could not encode bounding box: %w", err)
	}
	countries, err := json.Marshal(travel.Countries)
	if err != nil {
		return Travel{}, fmt.Errorf("could not encode countries: %w", err)
	}

	query := `INSERT INTO travel (id, user_id, name, start_date, end_date, budget, bounding_box, countries,
				closed, synced, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not prepare query: %w", err)
		log.Error(err)
		return Travel{}, err
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		travel.ID,
		travel.UserId,
		travel.Name,
		travel.StartDate.Format(dateFormat),
		travel.EndDate.Format(dateFormat),
		travel.Budget,
		string(boundingBox),
		string(countries),
		travel.Closed,
		travel.Synced,
		travel.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return Travel{}, err
	}

	return travel, nil
}

func (r *RepoImpl) Update(ctx context.Context, userId string, travelId string, input TravelInput) (Travel, error) {
	boundingBox, err := json.Marshal(defaultedFloats(input.BoundingBox))
	if err != nil {
		return Travel{}, fmt.Errorf("could not encode bounding box: %w", err)
	}
	countries, err := json.Marshal(defaultedStrings(input.Countries))
	if err != nil {
		return Travel{}, fmt.Errorf("could not encode countries: %w", err)
	}

	query := `UPDATE travel SET
				name = $1,
				start_date = $2,
				end_date = $3,
				budget = $4,
				bounding_box = $5,
				countries = $6,
				closed = $7,
				synced = $8
			WHERE id = $9 AND user_id = $10`
	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not prepare query: %w", err)
		log.Error(err)
		return Travel{}, err
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx,
		input.Name,
		input.StartDate.Format(dateFormat),
		input.EndDate.Format(dateFormat),
		input.Budget,
		string(boundingBox),
		string(countries),
		input.Closed,
		input.Synced,
		travelId,
		userId,
	)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return Travel{}, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		err := fmt.Errorf("could not get rows affected: %w", err)
		log.Error(err)
		return Travel{}, err
	}
	if rowsAffected != 1 {
		log.Warnf("travel not updated, probably because it does not exist (%s) or the user (%s) is not the owner", travelId, userId)
		return Travel{}, ErrTravelNotFound
	}

	return r.getOne(ctx, userId, travelId)
}

func (r *RepoImpl) Delete(ctx context.Context, userId string, travelId string) (bool, error) {
	query := "DELETE FROM travel WHERE id = $1 AND user_id = $2"
	result, err := r.db.ExecContext(ctx, query, travelId, userId)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		err := fmt.Errorf("could not get rows affected: %w", err)
		log.Error(err)
		return false, err
	}
	return rowsAffected == 1, nil
}

func (r *RepoImpl) getOne(ctx context.Context, userId string, travelId string) (Travel, error) {
	query := `SELECT t.id, t.name, t.start_date, t.end_date, t.budget, t.bounding_box, t.countries,
				t.created_at, t.user_id, t.closed, t.synced,
				COALESCE(SUM(CASE WHEN i.type = 'expense' THEN COALESCE(i.cost, 0) END), 0) AS total_expenses,
				COUNT(CASE WHEN i.type = 'expense' THEN 1 END) AS expenses_count,
				COALESCE(SUM(CASE WHEN i.type = 'activity' THEN COALESCE(i.cost, 0) END), 0) AS total_activities,
				COUNT(CASE WHEN i.type = 'activity' THEN 1 END) AS activities_count
			FROM travel t
			LEFT JOIN itinerary_item i ON i.travel_id = t.id
			WHERE t.id = $1 AND t.user_id = $2
			GROUP BY t.id, t.name, t.start_date, t.end_date, t.budget, t.bounding_box, t.countries,
				t.created_at, t.user_id, t.closed, t.synced`
	rows, err := r.db.QueryContext(ctx, query, travelId, userId)
	if err != nil {
		err := fmt.Errorf("could not query travel: %w", err)
		log.Error(err)
		return Travel{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Travel{}, err
		}
		return Travel{}, ErrTravelNotFound
	}
	return scanTravel(rows)
}

func scanTravel(rows *sql.Rows) (Travel, error) {
	var travel Travel
	var startDate, endDate, createdAt, boundingBox, countries string
	if err := rows.Scan(
		&travel.ID,
		&travel.Name,
		&startDate,
		&endDate,
		&travel.Budget,
		&boundingBox,
		&countries,
		&createdAt,
		&travel.UserId,
		&travel.Closed,
		&travel.Synced,
		&travel.TotalExpenses,
		&travel.ExpensesCount,
		&travel.TotalActivities,
		&travel.ActivitiesCount,
	); err != nil {
		err := fmt.Errorf("could not scan travel: %w", err)
		log.Error(err)
		return Travel{}, err
	}

	var err error
	if travel.StartDate, err = time.Parse(dateFormat, startDate); err != nil {
		err := fmt.Errorf("could not parse start date: %w", err)
		log.Error(err)
		return Travel{}, err
	}
	if travel.EndDate, err = time.Parse(dateFormat, endDate); err != nil {
		err := fmt.Errorf("could not parse end date: %w", err)
		log.Error(err)
		return Travel{}, err
	}
	if travel.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		err := fmt.Errorf("could not parse creation time: %w", err)
		log.Error(err)
		return Travel{}, err
	}
	if err := json.Unmarshal([]byte(boundingBox), &travel.BoundingBox); err != nil {
		err := fmt.Errorf("could not decode bounding box: %w", err)
		log.Error(err)
		return Travel{}, err
	}
	if err := json.Unmarshal([]byte(countries), &travel.Countries); err != nil {
		err := fmt.Errorf("could not decode countries: %w", err)
		log.Error(err)
		return Travel{}, err
	}

	return travel.normalized(), nil
}

func defaultedFloats(values []float64) []float64 {
	if values == nil {
		return []float64{}
	}
	return values
}

func defaultedStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
