package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role defines the type for staff roles.
type Role string

// Constants for staff roles
const (
	RoleAdmin     Role = "admin"
	RoleFrontDesk Role = "front_desk"
	RoleTrainer   Role = "trainer"
)

// Valid reports whether r is one of the known staff roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleFrontDesk, RoleTrainer:
		return true
	}
	return false
}

// User represents a staff member (admin, front desk or trainer) in the system.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsTrainer checks if the user has the trainer role.
func (u *User) IsTrainer() bool {
	return u.Role == RoleTrainer
}

// IsAdmin checks if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
