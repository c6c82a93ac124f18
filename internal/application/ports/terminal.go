// Package ports defines the interfaces between the application core and
// its external collaborators: the terminal multiplexer, the chat
// platform, and durable storage.
package ports

import "context"

// TerminalPort wraps one external terminal host addressed by handle name.
// The handle namespace is flat and reused across the process lifetime, so
// Create must displace any stale handle with the same name. Destroying an
// absent handle is not an error; every other failure is surfaced.
type TerminalPort interface {
	// Create makes a fresh handle in workDir, destroying any stale
	// handle of the same name first.
	Create(ctx context.Context, handle, workDir string) error

	// IsAlive probes whether the handle currently exists.
	IsAlive(ctx context.Context, handle string) bool

	// Recreate rebuilds a dead handle in place with the same name.
	Recreate(ctx context.Context, handle, workDir string) error

	// SendKeys injects text into the handle. With submit true a trailing
	// activation key is appended so the program running inside executes
	// the input.
	SendKeys(ctx context.Context, handle, text string, submit bool) error

	// SendInterrupt injects the interrupt key, clearing any pending
	// partial input.
	SendInterrupt(ctx context.Context, handle string) error

	// CapturePane returns the last lines of the handle's rendered screen.
	CapturePane(ctx context.Context, handle string, lines int) (string, error)

	// Kill destroys the handle. Killing an absent handle succeeds.
	Kill(ctx context.Context, handle string) error
}
