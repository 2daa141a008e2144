package models

import "github.com/uptrace/bun"

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	Name     string `bun:"name,notnull" json:"name"`
	Password string `bun:"password,notnull" json:"-"`
}

type LoginRequest struct {
	Pin string `json:"pin"`
}

// LoginResponse is null-user on a failed lookup.
type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token,omitempty"`
}
