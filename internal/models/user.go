// Package models defines the client-side data model: users, assignments,
// submissions, lecturer feedback, and locally picked video assets.
package models

// User is the account record as returned by the server.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	IsActive  bool   `json:"is_active"`
}

// UserUpdate carries the editable profile fields for a PATCH.
// Zero-valued fields are omitted from the request body.
type UserUpdate struct {
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Password  string `json:"password,omitempty"`
}
