package models

import "time"

const PrefixUser = "user:"

type UserRole string

const (
	RoleCashier UserRole = "cashier"
	RoleAdmin   UserRole = "admin"
	RoleManager UserRole = "manager"
)

func (r UserRole) rank() int {
	switch r {
	case RoleCashier:
		return 1
	case RoleAdmin:
		return 2
	case RoleManager:
		return 3
	}
	return 0
}

func (r UserRole) Valid() bool { return r.rank() > 0 }

// AtLeast reports whether r carries every capability of min (cashier < admin < manager).
func (r UserRole) AtLeast(min UserRole) bool {
	return r.Valid() && r.rank() >= min.rank()
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserAccount is the stored form of a user, including its credential.
type UserAccount struct {
	User
	PasswordHash string `json:"passwordHash"`
}

// Actor identifies who performed a state change.
type Actor struct {
	UserID string
	Name   string
	Role   UserRole
}

func (u User) Actor() Actor {
	return Actor{UserID: u.ID, Name: u.Name, Role: u.Role}
}

func UserKey(id string) string { return PrefixUser + id }
