package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Role controls what an operator can do in the back office.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
)

// Staff is a back-office operator account.
type Staff struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Email        string       `gorm:"type:text;not null;uniqueIndex" json:"email"`
	DisplayName  string       `gorm:"type:text;not null" json:"display_name"`
	PasswordHash string       `gorm:"type:text;not null" json:"-"`
	Role         Role         `gorm:"type:text;not null;default:'operator'" json:"role"`
	IsDefault    bool         `gorm:"not null;default:false" json:"is_default"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Staff) TableName() string { return "staff" }
