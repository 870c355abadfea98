package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dkarpov/handin/internal/models"
	"github.com/dkarpov/handin/internal/services"
)

func formatDue(t time.Time) string {
	return t.Local().Format("Mon 02 Jan 2006 15:04")
}

// Assignments prints the list of assignments with their due dates.
func (a *App) Assignments(ctx context.Context) error {
	list, err := a.assignments.List(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, asg := range list {
		marker := " "
		if sel := a.submissions.Selected(); sel != nil && sel.ID == asg.ID {
			marker = "*"
		}
		window := "open"
		if asg.PastDue(now) {
			window = "closed"
		}
		printlnFn(fmt.Sprintf("%s %3d  %-30s %-20s due %s (%s)",
			marker, asg.ID, asg.Name, asg.Subject, formatDue(asg.DueDate), window))
	}
	return nil
}

// Select makes an assignment current and immediately resolves whether a
// submission for it already exists.
func (a *App) Select(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return &services.ValidationError{Reason: "usage: select <assignment id>"}
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return &services.ValidationError{Reason: "assignment id must be a number"}
	}

	asg, err := a.submissions.SelectAssignment(ctx, id)
	if err != nil {
		return err
	}
	printlnFn("Selected:", asg.Name)

	sub, err := a.submissions.Resolve(ctx)
	if err != nil {
		printlnFn("Could not check for an existing submission yet:", friendlyError(err))
		return nil
	}
	a.printResolution(sub)
	return nil
}

// Show prints the details of the current assignment.
func (a *App) Show(ctx context.Context) error {
	asg := a.submissions.Selected()
	if asg == nil {
		return services.ErrNoAssignment
	}

	printlnFn(asg.Name)
	printlnFn("Subject: ", asg.Subject)
	printlnFn("Lecturer:", asg.Lecturer)
	printlnFn("Marks:   ", asg.Marks)
	printlnFn("Due:     ", formatDue(asg.DueDate))
	if asg.Info != "" {
		printlnFn(asg.Info)
	}
	if asg.PastDue(time.Now()) {
		printlnFn("The submission window has closed.")
	}
	return nil
}

// Status re-resolves the submission state for the current assignment. Safe
// to repeat; it only reads.
func (a *App) Status(ctx context.Context) error {
	sub, err := a.submissions.Resolve(ctx)
	if err != nil {
		return err
	}
	a.printResolution(sub)
	return nil
}

func (a *App) printResolution(sub *models.Submission) {
	if sub == nil {
		printlnFn("No submission yet; 'submit' will create one.")
		return
	}
	printlnFn(fmt.Sprintf("Submitted %s (submission %d); 'submit' will replace it.",
		sub.Datetime.Local().Format("02 Jan 2006 15:04"), sub.ID))
	if sub.Comment != "" {
		printlnFn("Comment:", sub.Comment)
	}
}
