package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dkarpov/handin/internal/models"
	"github.com/dkarpov/handin/internal/services"
)

// Submit uploads a video for the current assignment. The first argument is
// the file path; anything after it becomes the comment.
func (a *App) Submit(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return &services.ValidationError{Reason: "usage: submit <video file> [comment]"}
	}
	video := models.LocalVideo{
		Path:        args[0],
		DisplayName: filepath.Base(args[0]),
	}
	comment := strings.Join(args[1:], " ")

	printlnFn("Uploading", video.DisplayName, "...")
	sub, err := a.submissions.Submit(ctx, video, comment)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Uploaded as submission %d.", sub.ID))
	return nil
}

// Submissions lists every submission the logged-in user has made, across
// all assignments.
func (a *App) Submissions(ctx context.Context) error {
	list, err := a.submissions.History(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		printlnFn("No submissions yet.")
		return nil
	}
	for _, sub := range list {
		line := fmt.Sprintf("%3d  assignment %-4d %s  %s",
			sub.ID, sub.Assignment, sub.Datetime.Local().Format("02 Jan 2006 15:04"), filepath.Base(sub.File))
		if sub.Comment != "" {
			line += "  " + sub.Comment
		}
		printlnFn(line)
	}
	return nil
}

// Feedback prints the lecturer feedback for the current assignment's
// submission, if it has been graded.
func (a *App) Feedback(ctx context.Context) error {
	fb, err := a.submissions.Feedback(ctx)
	if err != nil {
		return err
	}
	if fb == nil {
		printlnFn("No feedback yet.")
		return nil
	}
	printlnFn(fmt.Sprintf("Mark: %d", fb.Mark))
	if fb.Comment != "" {
		printlnFn(fb.Comment)
	}
	printlnFn("Given:", fb.CreatedAt.Local().Format("02 Jan 2006 15:04"))
	return nil
}
