package model

import (
	"fmt"
	"time"
)

// Invitation is a single-use code. Redeemed, RedeemedBy and RedeemedAt change together
// and only once.
type Invitation struct {
	Code       string    `gorm:"primaryKey;size:64"`
	IssuedBy   string    `gorm:"index;not null;size:255"`
	IssuedAt   time.Time `gorm:"not null"`
	Redeemed   bool      `gorm:"index;not null;default:false"`
	RedeemedBy string    `gorm:"not null;default:'';size:255"`
	RedeemedAt *time.Time
}

type InvitationDTO struct {
	Code       string     `json:"code,omitempty"`
	IssuedBy   string     `json:"issued_by"`
	IssuedAt   time.Time  `json:"issued_at"`
	Redeemed   bool       `json:"redeemed"`
	RedeemedBy string     `json:"redeemed_by,omitempty"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty"`
}

func (i *Invitation) String() string {
	if i == nil {
		return "nil"
	}

	if i.Redeemed {
		return fmt.Sprintf("%s issued by %s, redeemed by %s", i.Code, i.IssuedBy, i.RedeemedBy)
	}

	return fmt.Sprintf("%s issued by %s", i.Code, i.IssuedBy)
}

func (i *Invitation) IsActive() bool {
	return i != nil && !i.Redeemed
}

func (i *Invitation) DTO() *InvitationDTO {
	if i == nil {
		return nil
	}

	return &InvitationDTO{
		Code:       i.Code,
		IssuedBy:   i.IssuedBy,
		IssuedAt:   i.IssuedAt,
		Redeemed:   i.Redeemed,
		RedeemedBy: i.RedeemedBy,
		RedeemedAt: i.RedeemedAt,
	}
}

func (d *InvitationDTO) Model() *Invitation {
	if d == nil {
		return nil
	}

	return &Invitation{
		Code:       d.Code,
		IssuedBy:   d.IssuedBy,
		IssuedAt:   d.IssuedAt,
		Redeemed:   d.Redeemed,
		RedeemedBy: d.RedeemedBy,
		RedeemedAt: d.RedeemedAt,
	}
}
