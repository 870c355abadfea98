package models

import "time"

// Submission is the remote record tying a user, an assignment and an
// uploaded video together. The server enforces at most one submission per
// (user, assignment) pair; the client relies on that.
type Submission struct {
	ID         int64     `json:"id"`
	Datetime   time.Time `json:"datetime"`
	File       string    `json:"file"`
	Comment    string    `json:"comment"`
	User       int64     `json:"user"`
	Assignment int64     `json:"assignment"`
}

// Feedback is written by a lecturer after grading. Its absence is a
// legitimate "not graded yet" state, not an error.
type Feedback struct {
	ID         int64     `json:"id"`
	Submission int64     `json:"submission"`
	CreatedAt  time.Time `json:"created_at"`
	Lecturer   int64     `json:"lecturer"`
	Mark       int       `json:"mark"`
	Comment    string    `json:"comment"`
}
