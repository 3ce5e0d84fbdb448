package model

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string // global user role (RBAC)

const (
	RoleUser     UserRole = "user"     // regular account
	RoleBusiness UserRole = "business" // business owner account
	RoleAdmin    UserRole = "admin"    // administrator
)

type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`                        // user ID
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`           // email (login)
	PasswordHash string         `gorm:"not null" json:"-"`                           // bcrypt hash
	DisplayName  string         `json:"display_name"`                                // public display name
	Role         UserRole       `gorm:"type:varchar(20);default:'user'" json:"role"` // role
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Memberships []BusinessMembership `gorm:"foreignKey:UserID" json:"memberships,omitempty"` // business roles held
}

func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
