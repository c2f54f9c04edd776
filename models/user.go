package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleCreator  Role = "creator"
	RoleSponsor  Role = "sponsor"
	RoleClaimant Role = "claimant"
	RoleAdmin    Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleCreator, RoleSponsor, RoleClaimant, RoleAdmin:
		return true
	}
	return false
}

// ParseRegistrationRole maps the role names clients send at sign-up.
// Legacy names (CAUSE_CREATOR, CAUSE_POSTER, PUBLIC) are still accepted.
// Admin accounts cannot be self-registered.
func ParseRegistrationRole(s string) (Role, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CREATOR", "CAUSE_CREATOR", "CAUSE_POSTER":
		return RoleCreator, true
	case "SPONSOR":
		return RoleSponsor, true
	case "CLAIMANT", "PUBLIC":
		return RoleClaimant, true
	}
	return "", false
}

// User is an account of any role.
type User struct {
	ID               string    `gorm:"primaryKey;type:uuid" json:"userID"`
	Name             string    `gorm:"not null" json:"name"`
	Email            *string   `gorm:"uniqueIndex" json:"email,omitempty"`
	MobNumber        string    `json:"mobNumber,omitempty"`
	PasswordHash     string    `gorm:"not null" json:"-"`
	Role             Role      `gorm:"type:varchar(16);not null;index" json:"role"`
	LoginComplete    bool      `gorm:"default:false" json:"loginComplete"`
	MobileVerified   bool      `gorm:"default:false" json:"mobileVerified"`
	IdentityVerified bool      `gorm:"default:false" json:"identityVerified"`
	CreatedAt        time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt        time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// UserSummary is the public shape attached to causes and sponsorships.
type UserSummary struct {
	UserID string  `json:"userID"`
	Name   string  `json:"name"`
	Email  *string `json:"email,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{UserID: u.ID, Name: u.Name, Email: u.Email}
}
