// Package browser owns headless browser sessions for import runs.
//
// Each Session is an isolated browsing context with its own cookie and
// storage jar, so concurrent imports for different clients can never
// contaminate each other. Close is idempotent; callers pair every Open
// with a deferred Close so no exit path can leak a context.
package browser

import (
	"context"
	"errors"
	"time"
)

// ErrNoSelectorMatch means none of a field's candidate selectors matched
// a visible, enabled element before the wait expired.
var ErrNoSelectorMatch = errors.New("browser: no candidate selector matched")

// ErrTimeout is wrapped around any bounded wait that expired, whether it
// came from the driver or from context cancellation.
var ErrTimeout = errors.New("browser: operation timed out")

type Launcher interface {
	Open(ctx context.Context) (Session, error)
}

type Session interface {
	// Navigate loads url and waits for the DOM to be ready, up to timeout.
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	CurrentURL() string
	// FindVisible tries each selector in order and returns the first one
	// matching a visible, enabled element. The timeout is split across
	// the candidates. Returns ErrNoSelectorMatch on exhaustion.
	FindVisible(ctx context.Context, selectors []string, timeout time.Duration) (string, error)
	Fill(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	// Content returns the serialized DOM of the current page.
	Content(ctx context.Context) (string, error)
	// VisibleText returns the rendered text of the page body.
	VisibleText(ctx context.Context) (string, error)
	Evaluate(ctx context.Context, js string) (any, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}
