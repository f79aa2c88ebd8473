package domain

import (
	"encoding/json"
	"time"
)

// Record represents a resolved geocoding result stored in the database.
type Record struct {
	ID        int64
	Provider  string
	Operation string
	Query     string
	Address   string
	Latitude  float64
	Longitude float64
	Raw       json.RawMessage
	CreatedAt time.Time
}
