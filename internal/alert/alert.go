// Package alert is the optional fire-and-forget notification channel for
// operator-visible failures such as a missing metadata sidecar. Absence of a
// configured channel must never affect pipeline correctness.
package alert

import "context"

// Notifier publishes a one-way operator alert.
type Notifier interface {
	Notify(ctx context.Context, subject, message string) error
}

// Nop is used when no alerting channel is configured.
type Nop struct{}

func (Nop) Notify(context.Context, string, string) error { return nil }
