package services

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/dkarpov/handin/internal/identity"
	"github.com/dkarpov/handin/internal/models"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// newStore builds an in-memory identity store, one database per test.
func newStore(t *testing.T) *identity.SQLiteStore {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS identity (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
DELETE FROM identity;
`)
	require.NoError(t, err)
	return identity.NewSQLiteStore(db)
}

// fakeGateway implements gateway.Gateway for service tests. Every call is
// appended to Calls so tests can assert that a rejected operation issued
// zero network requests.
type fakeGateway struct {
	Calls []string

	LoginToken string
	LoginErr   error

	LogoutErr     error
	CheckTokenErr error

	FindUserRet *models.User
	FindUserErr error

	UpdateUserRet *models.User
	UpdateUserErr error

	AssignmentsRet     []models.Assignment
	ListAssignmentsErr error

	AssignmentByID   map[int64]*models.Assignment
	GetAssignmentErr error

	// SubmissionRet is what GetSubmission answers; Create/Update overwrite
	// it on success, mimicking the server's single-record-per-pair rule.
	SubmissionRet    *models.Submission
	GetSubmissionErr error

	UserSubsRet []models.Submission

	CreateRet *models.Submission
	CreateErr error
	UpdateRet *models.Submission
	UpdateErr error

	FeedbackRet *models.Feedback
	FeedbackErr error

	LastLoginUser        string
	LastGetSubmissionUID int64
	LastGetSubmissionAID int64
	LastCreateVideo      models.LocalVideo
	LastCreateComment    string
	LastCreateAID        int64
	LastUpdateID         int64
	LastUpdateVideo      models.LocalVideo
	LastUpdateComment    string
	LastUpdateAID        int64
	LastFeedbackSubID    int64
}

func (f *fakeGateway) calls(name string) int {
	n := 0
	for _, c := range f.Calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeGateway) Login(ctx context.Context, username, password string) (string, error) {
	f.Calls = append(f.Calls, "login")
	f.LastLoginUser = username
	return f.LoginToken, f.LoginErr
}

func (f *fakeGateway) Logout(ctx context.Context) error {
	f.Calls = append(f.Calls, "logout")
	return f.LogoutErr
}

func (f *fakeGateway) CheckToken(ctx context.Context) error {
	f.Calls = append(f.Calls, "check-token")
	return f.CheckTokenErr
}

func (f *fakeGateway) FindUser(ctx context.Context, username string) (*models.User, error) {
	f.Calls = append(f.Calls, "find-user")
	return f.FindUserRet, f.FindUserErr
}

func (f *fakeGateway) UpdateUser(ctx context.Context, upd models.UserUpdate) (*models.User, error) {
	f.Calls = append(f.Calls, "update-user")
	return f.UpdateUserRet, f.UpdateUserErr
}

func (f *fakeGateway) ListAssignments(ctx context.Context) ([]models.Assignment, error) {
	f.Calls = append(f.Calls, "list-assignments")
	return f.AssignmentsRet, f.ListAssignmentsErr
}

func (f *fakeGateway) GetAssignment(ctx context.Context, id int64) (*models.Assignment, error) {
	f.Calls = append(f.Calls, "get-assignment")
	if f.GetAssignmentErr != nil {
		return nil, f.GetAssignmentErr
	}
	if a, ok := f.AssignmentByID[id]; ok {
		return a, nil
	}
	return nil, f.GetAssignmentErr
}

func (f *fakeGateway) GetSubmission(ctx context.Context, userID, assignmentID int64) (*models.Submission, error) {
	f.Calls = append(f.Calls, "get-submission")
	f.LastGetSubmissionUID = userID
	f.LastGetSubmissionAID = assignmentID
	if f.GetSubmissionErr != nil {
		return nil, f.GetSubmissionErr
	}
	if f.SubmissionRet != nil && f.SubmissionRet.Assignment != assignmentID {
		return nil, nil
	}
	return f.SubmissionRet, nil
}

func (f *fakeGateway) ListUserSubmissions(ctx context.Context, userID int64) ([]models.Submission, error) {
	f.Calls = append(f.Calls, "list-user-submissions")
	return f.UserSubsRet, nil
}

func (f *fakeGateway) CreateSubmission(ctx context.Context, video models.LocalVideo, comment string, assignmentID int64) (*models.Submission, error) {
	f.Calls = append(f.Calls, "create-submission")
	f.LastCreateVideo = video
	f.LastCreateComment = comment
	f.LastCreateAID = assignmentID
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	f.SubmissionRet = f.CreateRet
	return f.CreateRet, nil
}

func (f *fakeGateway) UpdateSubmission(ctx context.Context, submissionID int64, video models.LocalVideo, comment string, assignmentID int64) (*models.Submission, error) {
	f.Calls = append(f.Calls, "update-submission")
	f.LastUpdateID = submissionID
	f.LastUpdateVideo = video
	f.LastUpdateComment = comment
	f.LastUpdateAID = assignmentID
	if f.UpdateErr != nil {
		return nil, f.UpdateErr
	}
	f.SubmissionRet = f.UpdateRet
	return f.UpdateRet, nil
}

func (f *fakeGateway) GetFeedback(ctx context.Context, submissionID int64) (*models.Feedback, error) {
	f.Calls = append(f.Calls, "get-feedback")
	f.LastFeedbackSubID = submissionID
	return f.FeedbackRet, f.FeedbackErr
}
