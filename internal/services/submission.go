package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dkarpov/handin/internal/gateway"
	"github.com/dkarpov/handin/internal/identity"
	"github.com/dkarpov/handin/internal/logging"
	"github.com/dkarpov/handin/internal/models"
)

// Resolution is the client's knowledge about the submission for the
// currently selected assignment. It is the sole determinant of the
// create-vs-update routing decision.
type Resolution string

const (
	ResolutionUnknown Resolution = "unknown"
	ResolutionAbsent  Resolution = "absent"
	ResolutionPresent Resolution = "present"
)

// SubmissionService drives the submission lifecycle for one selected
// assignment at a time: resolve whether a submission exists, route an
// upload to create or update accordingly, and keep the cached submission
// id in step with the server.
//
// All operations serialize on one mutex, so a submit can never race a
// pending resolution into the wrong route.
type SubmissionService interface {
	// SelectAssignment invalidates any previous selection and resolution
	// before fetching the assignment, then caches it as current.
	SelectAssignment(ctx context.Context, id int64) (*models.Assignment, error)

	// RestoreSelection re-selects the assignment persisted from a previous
	// run, if any.
	RestoreSelection(ctx context.Context) (*models.Assignment, error)

	// Selected returns the current assignment, or nil.
	Selected() *models.Assignment

	// State returns the current resolution state.
	State() Resolution

	// Resolve looks up the submission for the current user and assignment.
	// (nil, nil) means resolved-absent.
	Resolve(ctx context.Context) (*models.Submission, error)

	// Submit uploads the video, routing to create or update based on the
	// resolution state. Preconditions are checked before any network I/O:
	// session token, a selected video, and an open submission window.
	Submit(ctx context.Context, video models.LocalVideo, comment string) (*models.Submission, error)

	// History lists all submissions of the logged-in user.
	History(ctx context.Context) ([]models.Submission, error)

	// Feedback returns the lecturer feedback for the current assignment's
	// submission; (nil, nil) when not graded yet or no submission exists.
	Feedback(ctx context.Context) (*models.Feedback, error)
}

type submissionService struct {
	mu  sync.Mutex
	gw  gateway.Gateway
	ids identity.Store
	log logging.Logger
	now func() time.Time

	assignment   *models.Assignment
	state        Resolution
	submissionID int64
}

func NewSubmissionService(gw gateway.Gateway, ids identity.Store, log logging.Logger) SubmissionService {
	return &submissionService{
		gw:    gw,
		ids:   ids,
		log:   log.With("service", "submission"),
		now:   time.Now,
		state: ResolutionUnknown,
	}
}

func (s *submissionService) SelectAssignment(ctx context.Context, id int64) (*models.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectLocked(ctx, id)
}

func (s *submissionService) selectLocked(ctx context.Context, id int64) (*models.Assignment, error) {
	// Invalidate first: the cached submission id is trustworthy only for
	// the assignment it was resolved against.
	s.assignment = nil
	s.state = ResolutionUnknown
	s.submissionID = 0
	if err := s.ids.Delete(ctx, identity.KeySubmission); err != nil {
		return nil, err
	}

	assignment, err := s.gw.GetAssignment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("select assignment %d: %w", id, err)
	}

	if err := identity.SetInt64(ctx, s.ids, identity.KeyAssignment, assignment.ID); err != nil {
		return nil, err
	}
	s.assignment = assignment
	s.log.Debug(ctx, "assignment selected", "assignment_id", assignment.ID)
	return assignment, nil
}

func (s *submissionService) RestoreSelection(ctx context.Context) (*models.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := identity.GetInt64(ctx, s.ids, identity.KeyAssignment)
	if err != nil || id == 0 {
		return nil, err
	}
	return s.selectLocked(ctx, id)
}

func (s *submissionService) Selected() *models.Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assignment
}

func (s *submissionService) State() Resolution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *submissionService) Resolve(ctx context.Context) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveLocked(ctx)
}

// resolveLocked performs the lookup and records its outcome. A (nil, nil)
// gateway result is the legitimate "no submission yet" state; transport and
// auth failures leave the state as it was.
func (s *submissionService) resolveLocked(ctx context.Context) (*models.Submission, error) {
	if s.assignment == nil {
		return nil, ErrNoAssignment
	}
	userID, err := identity.GetInt64(ctx, s.ids, identity.KeyUserID)
	if err != nil {
		return nil, err
	}
	if userID == 0 {
		return nil, gateway.ErrUnauthenticated
	}

	sub, err := s.gw.GetSubmission(ctx, userID, s.assignment.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve submission: %w", err)
	}

	if sub == nil {
		s.state = ResolutionAbsent
		s.submissionID = 0
		if err := s.ids.Delete(ctx, identity.KeySubmission); err != nil {
			return nil, err
		}
		s.log.Debug(ctx, "resolved", "assignment_id", s.assignment.ID, "state", s.state)
		return nil, nil
	}

	s.state = ResolutionPresent
	s.submissionID = sub.ID
	if err := identity.SetInt64(ctx, s.ids, identity.KeySubmission, sub.ID); err != nil {
		return nil, err
	}
	s.log.Debug(ctx, "resolved", "assignment_id", s.assignment.ID, "state", s.state, "submission_id", sub.ID)
	return sub, nil
}

func (s *submissionService) Submit(ctx context.Context, video models.LocalVideo, comment string) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Precondition order: session, video, window. None of these touch
	// the network for the upload itself.
	token, err := s.ids.Token(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, gateway.ErrUnauthenticated
	}
	if video.Path == "" {
		return nil, ErrNoVideo
	}
	if s.assignment == nil {
		return nil, ErrNoAssignment
	}
	if s.assignment.PastDue(s.now()) {
		return nil, ErrWindowClosed
	}

	// An unknown state means resolution has not completed for this
	// selection; finish it now rather than guessing a route.
	if s.state == ResolutionUnknown {
		if _, err := s.resolveLocked(ctx); err != nil {
			return nil, err
		}
	}

	var sub *models.Submission
	switch s.state {
	case ResolutionPresent:
		sub, err = s.gw.UpdateSubmission(ctx, s.submissionID, video, comment, s.assignment.ID)
	default:
		sub, err = s.gw.CreateSubmission(ctx, video, comment, s.assignment.ID)
	}
	if err != nil {
		// The cached id stays untouched; the user retries manually.
		return nil, err
	}

	s.state = ResolutionPresent
	s.submissionID = sub.ID
	if err := identity.SetInt64(ctx, s.ids, identity.KeySubmission, sub.ID); err != nil {
		return nil, err
	}

	// Close the loop: re-resolve so a stale absent state can never cause
	// a duplicate create on the next submit.
	if _, err := s.resolveLocked(ctx); err != nil {
		s.log.Warn(ctx, "post-upload refresh failed", "error", err)
	}

	s.log.Info(ctx, "submitted", "assignment_id", s.assignment.ID, "submission_id", s.submissionID)
	return sub, nil
}

func (s *submissionService) History(ctx context.Context) ([]models.Submission, error) {
	userID, err := identity.GetInt64(ctx, s.ids, identity.KeyUserID)
	if err != nil {
		return nil, err
	}
	if userID == 0 {
		return nil, gateway.ErrUnauthenticated
	}
	return s.gw.ListUserSubmissions(ctx, userID)
}

func (s *submissionService) Feedback(ctx context.Context) (*models.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == ResolutionUnknown {
		if _, err := s.resolveLocked(ctx); err != nil {
			return nil, err
		}
	}
	if s.state == ResolutionAbsent {
		return nil, nil
	}
	return s.gw.GetFeedback(ctx, s.submissionID)
}
