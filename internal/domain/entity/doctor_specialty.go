package entity

import "github.com/google/uuid"

// DoctorSpecialty is one entry of a doctor's ordered specialty list
type DoctorSpecialty struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	DoctorID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_doctor_specialties_doctor_specialty" json:"-"`
	Specialty string    `gorm:"type:varchar(100);not null;index;uniqueIndex:idx_doctor_specialties_doctor_specialty" json:"specialty"`
	Position  int       `gorm:"not null" json:"-"`
}

func (DoctorSpecialty) TableName() string {
	return "doctor_specialties"
}
