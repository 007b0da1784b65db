// Package model contains domain models passed between layers.
package model

// Category classifies an event. It decides the ordering direction and
// whether the event is contested by individuals or by teams.
type Category string

const (
	CategoryTrack  Category = "Track"
	CategoryHurdle Category = "Hurdle"
	CategoryRelay  Category = "Relay"
	CategoryField  Category = "Field"
)

// IsRelay reports whether the category is a team event.
func (c Category) IsRelay() bool { return c == CategoryRelay }

// Event is immutable reference data identified by name.
type Event struct {
	Name     string   `json:"event" koanf:"event"`
	Category Category `json:"event_type" koanf:"event_type"`
}

// Catalog maps event names to their categories.
type Catalog map[string]Category

// NewCatalog indexes events by name.
func NewCatalog(events []Event) Catalog {
	c := make(Catalog, len(events))
	for _, e := range events {
		c[e.Name] = e.Category
	}
	return c
}

// Category returns the category for event. Unknown events are reported as
// Track so they sort like timed events.
func (c Catalog) Category(event string) Category {
	if cat, ok := c[event]; ok {
		return cat
	}
	return CategoryTrack
}

// Lookup returns the category and whether the event is known.
func (c Catalog) Lookup(event string) (Category, bool) {
	cat, ok := c[event]
	return cat, ok
}
