package itinerary

type ItemType string

const (
	TypeActivity ItemType = "activity"
	TypeExpense  ItemType = "expense"
)

const CategoryAccommodation = "accommodation"

// Item is a fully detailed itinerary entry: an activity or an expense,
// distinguished by Type. SourceId is the remote row id; items are cached per
// Date in remote query order.
type Item struct {
	SourceId      string
	TravelId      string
	UserId        string
	Type          ItemType
	Date          string
	Title         string
	Description   string
	Time          string
	Location      string
	IsDone        bool
	CityId        string
	DayId         string
	Cost          *float64
	Category      string
	Priority      *int
	GeneratedByAI bool
}

// Normalized returns the item with cross-field rules applied: accommodation
// entries never carry a priority.
func (i Item) Normalized() Item {
	if i.Category == CategoryAccommodation {
		i.Priority = nil
	}
	return i
}
