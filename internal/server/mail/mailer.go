// Package mail sends transactional account emails. Deliveries are
// best-effort: callers fire them in goroutines and only log failures.
package mail

import "context"

// Mailer sends account lifecycle notifications.
type Mailer interface {
	// SendWelcome greets a freshly registered user.
	SendWelcome(ctx context.Context, email, name string) error

	// SendCancellation says goodbye after account deletion.
	SendCancellation(ctx context.Context, email, name string) error
}

// Noop is used when no mail credentials are configured.
type Noop struct{}

func (Noop) SendWelcome(ctx context.Context, email, name string) error      { return nil }
func (Noop) SendCancellation(ctx context.Context, email, name string) error { return nil }
