package domain

import "time"

// Vehicle belongs to a customer and is the subject of service jobs.
type Vehicle struct {
	ID        string
	OwnerID   string
	Plate     string
	Make      string
	Model     string
	Year      int
	CreatedAt time.Time
	UpdatedAt time.Time
}
