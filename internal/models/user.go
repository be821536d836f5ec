package models

import "time"

// UserRole classifies a user for authorization purposes. The role is a
// business classification, not a permission bitmask; permissions are derived
// from it in the gate package.
type UserRole string

const (
	RoleAdmin         UserRole = "ADMIN"
	RoleJuriste       UserRole = "JURISTE"
	RoleRH            UserRole = "RH"
	RoleManager       UserRole = "MANAGER"
	RoleSafetyManager UserRole = "SAFETY_MANAGER"
	RoleQSE           UserRole = "QSE"
	RoleDirection     UserRole = "DIRECTION"
	RoleEmployee      UserRole = "EMPLOYEE"
)

// Roles lists every recognized role, in declaration order.
var Roles = []UserRole{
	RoleAdmin, RoleJuriste, RoleRH, RoleManager,
	RoleSafetyManager, RoleQSE, RoleDirection, RoleEmployee,
}

// Valid reports whether r is one of the recognized roles.
func (r UserRole) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

type User struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	Email       string   `gorm:"unique;not null;index" json:"email"`
	Password    string   `gorm:"not null" json:"-"` // hashé (bcrypt)
	Name        string   `json:"name"`
	Role        UserRole `gorm:"not null;default:'EMPLOYEE'" json:"role"`
	IsSuperuser bool     `json:"-"`

	// TOTP second factor. The secret is set at enrolment; only a confirmed
	// device gates login.
	TOTPSecret    string `json:"-"`
	TOTPConfirmed bool   `json:"has_2fa"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

// IsAdmin reports whether the user passes every permission check.
func (u *User) IsAdmin() bool {
	return u.IsSuperuser || u.Role == RoleAdmin
}
