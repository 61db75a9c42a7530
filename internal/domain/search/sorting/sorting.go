package sorting

import "fmt"

// Direction is the sort order.
type Direction string

// Sort directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// IsValid checks if the direction is one of the supported values.
func (d Direction) IsValid() bool {
	return d == Asc || d == Desc
}

// Config is the single active sort.
type Config struct {
	Field     string
	Direction Direction
}

// New validates a sort. An empty direction means ascending.
func New(field string, dir Direction) (Config, error) {
	if field == "" {
		return Config{}, fmt.Errorf("sort field is required")
	}
	if dir == "" {
		dir = Asc
	}
	if !dir.IsValid() {
		return Config{}, fmt.Errorf("invalid sort direction: %q", dir)
	}
	return Config{Field: field, Direction: dir}, nil
}
