package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Role is the numeric account role used by the blog API.
// Only RoleAdmin is special; every other value is an ordinary user.
type Role int

const (
	RoleAdmin Role = 1
	RoleUser  Role = 2
)

// IsAdmin reports whether r grants admin rights.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

func (r Role) String() string {
	if r.IsAdmin() {
		return "Admin"
	}
	return "User"
}

// ParseRole converts a form or flag value to a Role. Anything that is not
// "1" or "admin" maps to RoleUser.
func ParseRole(s string) Role {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "admin") {
		return RoleAdmin
	}
	if n, err := strconv.Atoi(s); err == nil && Role(n) == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// UnmarshalJSON accepts the numeric wire form as well as a quoted number or name.
func (r *Role) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*r = Role(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*r = ParseRole(s)
	return nil
}

type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// CreateUser is the payload for account creation. Password is write-only and
// never appears on User.
type CreateUser struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     *Role  `json:"role,omitempty"`
}

type UpdateUser struct {
	ID    int    `json:"id" validate:"required,gt=0"`
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Role  Role   `json:"role"`
}
