package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds indexes AutoMigrate cannot express. Overlap
// detection scans availability rows by owner and time range on every
// conflict check, so those composite indexes matter.
func MigrateConstraints(db *gorm.DB) error {
	err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_availability_guide_window
		ON availability_blocks (guide_id, start, "end");
	`).Error
	if err != nil {
		return err
	}

	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_trips_service_window
		ON trips (guide_service_id, start, "end");
	`).Error
	if err != nil {
		return err
	}

	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_external_events_integration_window
		ON external_calendar_events (integration_id, start, "end");
	`).Error
	if err != nil {
		return err
	}

	return nil
}
