package travel

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/wayplan/wayplan/internal/utils"
)

const snapshotPrefix = "travel_"

// Snapshot is a persisted copy of one trip's state, keyed by travel and user,
// used only for instant display on cold start. In-memory state is always
// authoritative; writes are whole-file overwrites so no locking is needed.
type Snapshot struct {
	Travel    Travel           `json:"travel"`
	DailyPlan []DailyPlanEntry `json:"dailyPlan"`
	SavedAt   time.Time        `json:"savedAt"`
}

type SnapshotStore struct {
	dir   string
	clock utils.Clock
}

func NewSnapshotStore(dir string, clock utils.Clock) *SnapshotStore {
	return &SnapshotStore{dir: dir, clock: clock}
}

func (s *SnapshotStore) Save(travel Travel, dailyPlan []DailyPlanEntry) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("could not create snapshot directory: %w", err)
	}

	snapshot := Snapshot{
		Travel:    travel,
		DailyPlan: dailyPlan,
		SavedAt:   s.clock.Now(),
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("could not encode snapshot: %w", err)
	}

	path := s.path(travel.ID, travel.UserId)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("could not write snapshot: %w", err)
	}
	log.Debugf("saved snapshot for travel %s", travel.ID)
	return nil
}

// Load returns the persisted snapshot for the travel+user pair, or nil when
// none exists.
func (s *SnapshotStore) Load(travelId string, userId string) (*Snapshot, error) {
	data, err := os.ReadFile(s.path(travelId, userId))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		// A corrupt snapshot is only a lost convenience; drop it.
		log.Warnf("discarding unreadable snapshot for travel %s: %v", travelId, err)
		_ = os.Remove(s.path(travelId, userId))
		return nil, nil
	}
	return &snapshot, nil
}

// Delete removes one travel's snapshot. Missing snapshots are not an error.
func (s *SnapshotStore) Delete(travelId string, userId string) error {
	err := os.Remove(s.path(travelId, userId))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete snapshot: %w", err)
	}
	return nil
}

// SweepAll removes every persisted travel snapshot across all trips and
// users (logout).
func (s *SnapshotStore) SweepAll() error {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not read snapshot directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), snapshotPrefix) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			return fmt.Errorf("could not delete snapshot %s: %w", entry.Name(), err)
		}
	}
	return nil
}

func (s *SnapshotStore) path(travelId string, userId string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s%s_%s.json", snapshotPrefix, travelId, userId))
}
