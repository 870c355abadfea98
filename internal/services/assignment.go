package services

import (
	"context"

	"github.com/dkarpov/handin/internal/gateway"
	"github.com/dkarpov/handin/internal/models"
)

// AssignmentService lists the assignments the student is allowed to see.
// Selection of an assignment belongs to SubmissionService, which ties it to
// the submission resolution state.
type AssignmentService interface {
	List(ctx context.Context) ([]models.Assignment, error)
}

type assignmentService struct {
	gw gateway.Gateway
}

func NewAssignmentService(gw gateway.Gateway) AssignmentService {
	return &assignmentService{gw: gw}
}

func (s *assignmentService) List(ctx context.Context) ([]models.Assignment, error) {
	return s.gw.ListAssignments(ctx)
}
