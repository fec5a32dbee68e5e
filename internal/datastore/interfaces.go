// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quakepredict/quakepredict-go/internal/conf"
	"github.com/quakepredict/quakepredict-go/internal/errors"
)

// Interface abstracts the underlying database implementation and defines the
// operations available to the rest of the application.
type Interface interface {
	Open() error
	Close() error
	// risk reports
	SaveReports(reports []RiskReport) error
	GetReportsByDate(dateKey string) ([]RiskReport, error)
	// region catalog
	UpsertRegion(region *Region) error
	GetRegions() ([]Region, error)
	// user accounts
	CreateUser(user *User) error
	GetUserByEmail(email string) (*User, error)
	GetUserByUsername(username string) (*User, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new datastore based on the provided settings. Returns nil if
// no database backend is enabled.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			Settings: settings,
		}
	default:
		return nil
	}
}

// SaveReports stores a batch of risk reports in a single transaction. Rows
// that already exist for the same (location, day) pair are left untouched, so
// two concurrent first-of-the-day computations cannot produce duplicates.
// Any failure rolls back the whole batch.
func (ds *DataStore) SaveReports(reports []RiskReport) error {
	if ds.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	if len(reports) == 0 {
		return nil
	}

	err := ds.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "location"}, {Name: "date_key"}},
			DoNothing: true,
		}).Create(&reports).Error
	})
	if err != nil {
		return errors.New(fmt.Errorf("saving report batch: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("batch_size", len(reports)).
			Build()
	}
	return nil
}

// GetReportsByDate returns all reports created on the given calendar day,
// ordered by region name.
func (ds *DataStore) GetReportsByDate(dateKey string) ([]RiskReport, error) {
	var reports []RiskReport
	if err := ds.DB.Where("date_key = ?", dateKey).Order("location ASC").Find(&reports).Error; err != nil {
		return nil, errors.New(fmt.Errorf("getting reports for %s: %w", dateKey, err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("date_key", dateKey).
			Build()
	}
	return reports, nil
}

// UpsertRegion creates the region row or refreshes its province and
// coordinates when a row with the same name already exists.
func (ds *DataStore) UpsertRegion(region *Region) error {
	err := ds.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"province", "latitude", "longitude", "updated_at"}),
	}).Create(region).Error
	if err != nil {
		return errors.New(fmt.Errorf("upserting region %s: %w", region.Name, err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("region", region.Name).
			Build()
	}
	return nil
}

// GetRegions returns all catalog regions ordered by name.
func (ds *DataStore) GetRegions() ([]Region, error) {
	var regions []Region
	if err := ds.DB.Order("name ASC").Find(&regions).Error; err != nil {
		return nil, errors.New(fmt.Errorf("getting regions: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return regions, nil
}

// CreateUser inserts a new user row.
func (ds *DataStore) CreateUser(user *User) error {
	if err := ds.DB.Create(user).Error; err != nil {
		return errors.New(fmt.Errorf("creating user: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("email", user.Email).
			Build()
	}
	return nil
}

// GetUserByEmail returns the user with the given email, or (nil, nil) when no
// such user exists.
func (ds *DataStore) GetUserByEmail(email string) (*User, error) {
	var user User
	err := ds.DB.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.New(fmt.Errorf("getting user by email: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return &user, nil
}

// GetUserByUsername returns the user with the given username, or (nil, nil)
// when no such user exists.
func (ds *DataStore) GetUserByUsername(username string) (*User, error) {
	var user User
	err := ds.DB.Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.New(fmt.Errorf("getting user by username: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return &user, nil
}
