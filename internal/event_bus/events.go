package event_bus

const (
	// EventDailyDataChanged announces that itinerary data for some date
	// changed. Published with an ItemStatusChanged payload it requests a
	// targeted patch; published with nil data it requests a full refresh of
	// cached daily data.
	EventDailyDataChanged EventType = "dailyDataChanged"

	// EventTravelDataChanged announces a trip-level change (metadata edit,
	// create, delete). Carries no payload.
	EventTravelDataChanged EventType = "travelDataChanged"
)

// ItemStatusChanged is the targeted payload of EventDailyDataChanged: one
// itinerary item flipped its completion flag. Subscribers patch the matching
// cached record in place instead of reloading whole date buckets.
type ItemStatusChanged struct {
	SourceId  string
	ItemType  string
	Completed bool
}
