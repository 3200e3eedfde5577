package reports

import "time"

// TripReport is a guide's post-trip writeup. Conditions and incidents are
// free text; the office reads these when reviewing a trip.
type TripReport struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	TripID      uint      `json:"trip_id" gorm:"index;not null"`
	AuthorID    uint      `json:"author_id" gorm:"index;not null"`
	Summary     string    `json:"summary" gorm:"type:text;not null"`
	Conditions  string    `json:"conditions" gorm:"type:text"`
	Incidents   string    `json:"incidents" gorm:"type:text"`
	SubmittedAt time.Time `json:"submitted_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName sets the table name for TripReport
func (TripReport) TableName() string {
	return "trip_reports"
}
