package models

import "time"

type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleEngineer UserRole = "engineer" // saha mühendisi: metraj girer
	RoleReviewer UserRole = "reviewer" // kontrol: incelemeyi tamamlar
	RoleApprover UserRole = "approver" // onay makamı
)

type User struct {
	ID           uint     `gorm:"primaryKey"`
	Name         string   `gorm:"size:100;not null"`
	Email        string   `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string   `gorm:"size:255;not null"`
	Role         UserRole `gorm:"size:20;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
