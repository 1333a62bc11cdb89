package itinerary

import (
	"context"
	"database/sql"
	"fmt"

	log "github.com/sirupsen/logrus"
)

type Repo interface {
	// ForDate returns all items of one travel on one date, in itinerary order.
	ForDate(ctx context.Context, userId string, travelId string, date string) ([]Item, error)
	// ForRange returns the items of one travel between from and to
	// (inclusive), bucketed by date.
	ForRange(ctx context.Context, userId string, travelId string, from string, to string) (map[string][]Item, error)
	Create(ctx context.Context, userId string, item Item) (Item, error)
	Delete(ctx context.Context, userId string, sourceId string) (bool, error)
	SetCompleted(ctx context.Context, userId string, sourceId string, itemType ItemType, completed bool) (bool, error)
}

type RepoImpl struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *RepoImpl {
	return &RepoImpl{db: db}
}

const itemColumns = `id, travel_id, user_id, type, date, title, description, item_time, location,
			is_done, city_id, day_id, cost, category, priority, generated_by_ai`

func (r *RepoImpl) ForDate(ctx context.Context, userId string, travelId string, date string) ([]Item, error) {
	query := fmt.Sprintf(`SELECT %s FROM itinerary_item
			WHERE user_id = $1 AND travel_id = $2 AND date = $3
			ORDER BY item_time, id`, itemColumns)
	rows, err := r.db.QueryContext(ctx, query, userId, travelId, date)
	if err != nil {
		err := fmt.Errorf("could not query items for date %s: %w", date, err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	return scanItems(rows)
}

func (r *RepoImpl) ForRange(ctx context.Context, userId string, travelId string, from string, to string) (map[string][]Item, error) {
	query := fmt.Sprintf(`SELECT %s FROM itinerary_item
			WHERE user_id = $1 AND travel_id = $2 AND date >= $3 AND date <= $4
			ORDER BY date, item_time, id`, itemColumns)
	rows, err := r.db.QueryContext(ctx, query, userId, travelId, from, to)
	if err != nil {
		err := fmt.Errorf("could not query items for range %s..%s: %w", from, to, err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string][]Item)
	for _, item := range items {
		buckets[item.Date] = append(buckets[item.Date], item)
	}
	return buckets, nil
}

func (r *RepoImpl) Create(ctx context.Context, userId string, item Item) (Item, error) {
	item = item.Normalized()
	query := `INSERT INTO itinerary_item (
			id, travel_id, user_id, type, date, title, description, item_time, location,
			is_done, city_id, day_id, cost, category, priority, generated_by_ai
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not prepare query: %w", err)
		log.Error(err)
		return Item{}, err
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		item.SourceId,
		item.TravelId,
		userId,
		string(item.Type),
		item.Date,
		item.Title,
		item.Description,
		item.Time,
		item.Location,
		item.IsDone,
		nullableString(item.CityId),
		nullableString(item.DayId),
		item.Cost,
		item.Category,
		item.Priority,
		item.GeneratedByAI,
	)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return Item{}, err
	}
	item.UserId = userId
	return item, nil
}

func (r *RepoImpl) Delete(ctx context.Context, userId string, sourceId string) (bool, error) {
	query := "DELETE FROM itinerary_item WHERE id = $1 AND user_id = $2"
	result, err := r.db.ExecContext(ctx, query, sourceId, userId)
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

func (r *RepoImpl) SetCompleted(ctx context.Context, userId string, sourceId string, itemType ItemType, completed bool) (bool, error) {
	query := "UPDATE itinerary_item SET is_done = $1 WHERE id = $2 AND type = $3 AND user_id = $4"
	result, err := r.db.ExecContext(ctx, query, completed, sourceId, string(itemType), userId)
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

func scanItems(rows *sql.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		var item Item
		var cityId, dayId sql.NullString
		var cost sql.NullFloat64
		var priority sql.NullInt64
		var itemType string
		if err := rows.Scan(
			&item.SourceId,
			&item.TravelId,
			&item.UserId,
			&itemType,
			&item.Date,
			&item.Title,
			&item.Description,
			&item.Time,
			&item.Location,
			&item.IsDone,
			&cityId,
			&dayId,
			&cost,
			&item.Category,
			&priority,
			&item.GeneratedByAI,
		); err != nil {
			err := fmt.Errorf("could not scan item: %w", err)
			log.Error(err)
			return nil, err
		}
		item.Type = ItemType(itemType)
		if cityId.Valid {
			item.CityId = cityId.String
		}
		if dayId.Valid {
			item.DayId = dayId.String
		}
		if cost.Valid {
			c := cost.Float64
			item.Cost = &c
		}
		if priority.Valid {
			p := int(priority.Int64)
			item.Priority = &p
		}
		items = append(items, item.Normalized())
	}

	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}

	return items, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
