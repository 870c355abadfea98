// Package identity persists the per-device session state: the auth token,
// the logged-in user, the selected assignment and the last known submission
// id. It is the only shared mutable state in the client.
package identity

import "context"

// Well-known keys. The assignment and submission keys keep the names the
// server-side tooling expects.
const (
	KeyToken      = "token"
	KeyUsername   = "username"
	KeyUserID     = "user_id"
	KeyAssignment = "assignment_pk"
	KeySubmission = "submission_pk"
)

// SessionKeys are the keys cleared on logout. Assignment and submission
// selections are left behind and treated as invalid on next use.
var SessionKeys = []string{KeyToken, KeyUsername, KeyUserID}

// Store is a persisted key-value store. Get returns "" for an absent key;
// values are never legitimately empty. Each key is read and written
// atomically; Clear removes all given keys in one transaction.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context, keys ...string) error

	// Token reads KeyToken; it satisfies gateway.TokenSource.
	Token(ctx context.Context) (string, error)
}
