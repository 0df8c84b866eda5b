package model

// User roles
const (
	RoleResident = "resident"
	RoleAdmin    = "admin"
)

// User represents a registered resident or admin.
type User struct {
	Base
	Name         string `json:"name" db:"name"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	Mobile       string `json:"mobile" db:"mobile"`
	Role         string `json:"role" db:"role"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,notblank"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Mobile   string `json:"mobile" binding:"required"`
	Role     string `json:"role" binding:"omitempty,oneof=resident admin"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=8"`
	Mobile   *string `json:"mobile"`
}
