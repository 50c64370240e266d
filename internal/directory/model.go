package directory

import (
	"time"
)

// UserKind tags the two population kinds that can register for training.
// Exactly one of the two foreign keys on registrations/attendances is set,
// selected by this tag.
type UserKind string

const (
	KindCitizen UserKind = "CITIZEN"
	KindWorker  UserKind = "WORKER"
)

// ValidUserKind reports whether k names one of the known kinds.
func ValidUserKind(k string) bool {
	return UserKind(k) == KindCitizen || UserKind(k) == KindWorker
}

// Audience roles an event may target. Citizens and workers are the
// registering population; the two admin roles may attend admin briefings.
const (
	RoleCitizen       = "CITIZEN"
	RoleWorker        = "WORKER"
	RoleDistrictAdmin = "DISTRICT_ADMIN"
	RoleLocalityAdmin = "LOCALITY_ADMIN"
)

// ValidAudienceRole reports whether role is in the closed role enumeration.
func ValidAudienceRole(role string) bool {
	switch role {
	case RoleCitizen, RoleWorker, RoleDistrictAdmin, RoleLocalityAdmin:
		return true
	}
	return false
}

// UserRef is the tagged union used everywhere a citizen-or-worker is
// referenced.
type UserRef struct {
	Kind UserKind `json:"user_kind"`
	ID   string   `json:"user_id"`
}

// Role returns the audience role implied by the kind.
func (u UserRef) Role() string {
	if u.Kind == KindWorker {
		return RoleWorker
	}
	return RoleCitizen
}

// ============================
// 🔷 Population models

type District struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(120);not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Locality struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"type:varchar(120);not null" json:"name"`
	DistrictID uint      `gorm:"not null;index" json:"district_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Citizen struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(120);not null" json:"name"`
	Email       string    `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	PhoneNumber string    `gorm:"type:varchar(20)" json:"phone_number"`
	LocalityID  uint      `gorm:"not null;index" json:"locality_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Worker struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(120);not null" json:"name"`
	Email       string    `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	PhoneNumber string    `gorm:"type:varchar(20)" json:"phone_number"`
	LocalityID  uint      `gorm:"not null;index" json:"locality_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type DistrictAdmin struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name       string    `gorm:"type:varchar(120);not null" json:"name"`
	Email      string    `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	DistrictID uint      `gorm:"not null;index" json:"district_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type LocalityAdmin struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name       string    `gorm:"type:varchar(120);not null" json:"name"`
	Email      string    `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	LocalityID uint      `gorm:"not null;index" json:"locality_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// UserInfo is the compact projection the engine needs about a citizen or
// worker: identity, contact fields and home locality.
type UserInfo struct {
	ID          string   `json:"id"`
	Kind        UserKind `json:"user_kind"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	PhoneNumber string   `json:"phone_number"`
	LocalityID  uint     `json:"locality_id"`
}
