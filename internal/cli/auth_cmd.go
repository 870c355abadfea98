package cli

import (
	"context"
	"fmt"

	"github.com/dkarpov/handin/internal/models"
)

// Login prompts for credentials and establishes a session. The password
// bytes are wiped as soon as the service call returns.
func (a *App) Login(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer wipeBytes(password)

	user, err := a.auth.Login(ctx, username, password)
	if err != nil {
		return err
	}

	a.setUsername(user.Username)
	a.setMode(ModeOnline)
	printlnFn("Logged in as", user.Username)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	a.setUsername("")
	a.setMode(ModeUnknown)
	printlnFn("Logged out")
	return nil
}

func (a *App) Whoami(ctx context.Context) error {
	user, err := a.auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("%s (id %d)", user.Username, user.ID))
	if user.FirstName != "" || user.LastName != "" {
		printlnFn("Name:", user.FirstName, user.LastName)
	}
	if user.Email != "" {
		printlnFn("Email:", user.Email)
	}
	return nil
}

// Profile walks the editable fields, keeping any the user leaves blank,
// and sends one PATCH with the changes.
func (a *App) Profile(ctx context.Context) error {
	current, err := a.auth.CurrentUser(ctx)
	if err != nil {
		return err
	}

	firstName, err := GetOptionalText(a.reader, "First name", current.FirstName, a.out)
	if err != nil {
		return err
	}
	lastName, err := GetOptionalText(a.reader, "Last name", current.LastName, a.out)
	if err != nil {
		return err
	}
	email, err := GetOptionalText(a.reader, "Email", current.Email, a.out)
	if err != nil {
		return err
	}

	upd := models.UserUpdate{}
	if firstName != current.FirstName {
		upd.FirstName = firstName
	}
	if lastName != current.LastName {
		upd.LastName = lastName
	}
	if email != current.Email {
		upd.Email = email
	}
	if upd == (models.UserUpdate{}) {
		printlnFn("Nothing to change")
		return nil
	}

	user, err := a.auth.UpdateProfile(ctx, upd)
	if err != nil {
		return err
	}
	printlnFn("Profile updated for", user.Username)
	return nil
}
