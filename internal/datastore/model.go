// model.go this code defines the data model for the application
package datastore

import "time"

// RiskReport represents one computed risk assessment for a region on a
// calendar day. Coordinates and display color are not stored; they are
// recomputed from the registry and the probability on read.
type RiskReport struct {
	ID          uint      `gorm:"primaryKey"`
	CreatedAt   time.Time `gorm:"index:idx_reports_created_at"`
	DateKey     string    `gorm:"size:10;not null;uniqueIndex:idx_reports_location_date"` // local calendar day, YYYY-MM-DD
	Location    string    `gorm:"size:100;not null;uniqueIndex:idx_reports_location_date"` // region name, free text
	Probability float64
	RiskLevel   string `gorm:"size:20"`
}

// Region represents a persistent catalog entry for a monitored region. The
// in-memory registry is reconciled into this table at startup.
type Region struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;uniqueIndex;not null"`
	Province  string `gorm:"size:100"`
	Latitude  float64
	Longitude float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// User represents a registered account. Email is the account identity;
// username is an optional display handle, stored as NULL when absent so the
// unique index does not collide on empty values.
type User struct {
	ID           uint    `gorm:"primaryKey"`
	FirstName    string  `gorm:"size:100;not null"`
	LastName     string  `gorm:"size:100;not null"`
	Email        string  `gorm:"size:255;uniqueIndex;not null"`
	Username     *string `gorm:"size:100;uniqueIndex"`
	PasswordHash string  `gorm:"size:255;not null"`
	CreatedAt    time.Time
}
