package model

import (
	"time"
)

// User is an authorized principal. The row itself is the authorization record:
// it is created once and never updated.
type User struct {
	ID          string    `gorm:"primaryKey;size:255" yaml:"id"`
	DisplayName string    `gorm:"not null;default:''" yaml:"display_name"`
	GrantedAt   time.Time `gorm:"not null" yaml:"granted_at,omitempty"`
}

type UserDTO struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	GrantedAt   time.Time `json:"granted_at"`
}

func (u *User) GetID() string {
	if u == nil {
		return ""
	}

	return u.ID
}

func (u *User) DTO() *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		GrantedAt:   u.GrantedAt,
	}
}

func (d *UserDTO) Model() *User {
	if d == nil {
		return nil
	}

	return &User{
		ID:          d.ID,
		DisplayName: d.DisplayName,
		GrantedAt:   d.GrantedAt,
	}
}
