package models

import (
	"time"
)

// User is an application account. NAV-only users have no row here; they
// authenticate through the reference cache fallback and never get a session
// token column.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Password     string     `gorm:"size:255" json:"-"`
	FullName     string     `gorm:"size:200" json:"fullName"`
	BranchCode   string     `gorm:"size:10;index" json:"branchCode"`
	IsApprover   bool       `gorm:"default:false" json:"isApprover"`
	Actived      bool       `gorm:"default:true" json:"actived"`
	CurrentToken string     `gorm:"size:512" json:"-"` // single-session token; cleared on logout
	LastLoginAt  *time.Time `json:"lastLoginAt"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}
