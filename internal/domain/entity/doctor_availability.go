package entity

import "github.com/google/uuid"

// DoctorAvailability is a weekly availability window, expressed in the
// doctor's availability timezone. DayOfWeek follows time.Weekday (0 = Sunday).
type DoctorAvailability struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	DoctorID    uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	DayOfWeek   int       `gorm:"not null" json:"day_of_week"`
	StartTime   string    `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime     string    `gorm:"type:varchar(5);not null" json:"end_time"`
	IsAvailable bool      `gorm:"not null" json:"is_available"`
}

func (DoctorAvailability) TableName() string {
	return "doctor_availabilities"
}
