package models

import "time"

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Profile is what a new account submits on registration; it is synced to
// the remote service after the auth provider accepts the credentials.
type Profile struct {
	Email    string `json:"email" form:"email"`
	Name     string `json:"name" form:"name"`
	Phone    string `json:"phone" form:"phone"`
	Location string `json:"location,omitempty" form:"location"`
}
