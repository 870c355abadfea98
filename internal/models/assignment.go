package models

import "time"

// Assignment is immutable from the client's point of view; the currently
// selected assignment id is cached separately in the identity store.
type Assignment struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Lecturer  string    `json:"lecturer"`
	Subject   string    `json:"subject"`
	Name      string    `json:"name"`
	DueDate   time.Time `json:"due_date"`
	Marks     int       `json:"marks"`
	Info      string    `json:"assignment_info"`
}

// PastDue reports whether the submission window has closed at time now.
func (a *Assignment) PastDue(now time.Time) bool {
	return now.After(a.DueDate)
}
