package models

import "time"

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectSuspended ProjectStatus = "suspended"
)

// Project - Şantiye projesi; BOQ kalemleri ve hakediş dönemlerinin sahibi
type Project struct {
	ID          uint          `gorm:"primaryKey"`
	Name        string        `gorm:"size:200;not null"`
	Code        string        `gorm:"size:50;uniqueIndex"`
	Employer    string        `gorm:"size:200"` // işveren
	Budget      float64       `gorm:"default:0"` // sözleşme bedeli
	Status      ProjectStatus `gorm:"size:20;not null;default:'active'"`
	StartDate   *time.Time
	EndDate     *time.Time
	CreatedBy   uint
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
