package entity

import "time"

const (
	RoleMember    = "MEMBER"
	RoleLibrarian = "LIBRARIAN"
)

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"` // MEMBER, LIBRARIAN
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
