package model

import (
	"time"
)

type MembershipRole string // per-business role

const (
	MembershipOwner   MembershipRole = "OWNER"
	MembershipManager MembershipRole = "MANAGER"
	MembershipStaff   MembershipRole = "STAFF"
)

// BusinessMembership links a user to a business with a role. A user may act
// on a business when they are an admin or hold an OWNER/MANAGER membership.
type BusinessMembership struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID     uint `gorm:"not null;index:uq_user_business,unique" json:"user_id"`
	BusinessID uint `gorm:"not null;index:uq_user_business,unique" json:"business_id"`

	Role MembershipRole `gorm:"type:varchar(20);default:'OWNER';not null" json:"role"`

	User     User     `gorm:"foreignKey:UserID" json:"-"`
	Business Business `gorm:"foreignKey:BusinessID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (BusinessMembership) TableName() string {
	return "business_memberships"
}

// CanManage reports whether this membership grants management rights
func (m *BusinessMembership) CanManage() bool {
	return m.Role == MembershipOwner || m.Role == MembershipManager
}
