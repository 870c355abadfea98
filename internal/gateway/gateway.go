// Package gateway is the typed HTTP/JSON client for the assignment
// submission server. It exposes one operation per remote resource and
// decodes raw response shapes once, at this boundary: list lookups map an
// empty result to ErrNotFound, while submission and feedback lookups map
// absence to (nil, nil) so callers never have to inspect HTTP status codes.
package gateway

import (
	"context"

	"github.com/dkarpov/handin/internal/models"
)

// TokenSource yields the current session token. An empty token with a nil
// error means no session is cached; authenticated calls fail with
// ErrUnauthenticated without touching the network.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Gateway defines the remote operations used by the services layer.
//
// GetSubmission and GetFeedback return (nil, nil) when the record does not
// exist yet. All other operations treat missing data as ErrNotFound.
type Gateway interface {
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context) error
	CheckToken(ctx context.Context) error

	FindUser(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, upd models.UserUpdate) (*models.User, error)

	ListAssignments(ctx context.Context) ([]models.Assignment, error)
	GetAssignment(ctx context.Context, id int64) (*models.Assignment, error)

	GetSubmission(ctx context.Context, userID, assignmentID int64) (*models.Submission, error)
	ListUserSubmissions(ctx context.Context, userID int64) ([]models.Submission, error)
	CreateSubmission(ctx context.Context, video models.LocalVideo, comment string, assignmentID int64) (*models.Submission, error)
	UpdateSubmission(ctx context.Context, submissionID int64, video models.LocalVideo, comment string, assignmentID int64) (*models.Submission, error)

	GetFeedback(ctx context.Context, submissionID int64) (*models.Feedback, error)
}
