package importer

import (
	"context"
	"errors"
	"fmt"

	"creditwatch-backend/lib/browser"
	"creditwatch-backend/lib/vault"
	"creditwatch-backend/services/credentials"
	"creditwatch-backend/services/registry"
)

// Category is the failure taxonomy surfaced to operators. Categories are
// never collapsed: "site structure changed" and "credentials wrong" get
// acted on differently.
type Category string

const (
	CategoryUnknownProvider  Category = "unknown_provider"
	CategoryNotLinked        Category = "not_linked"
	CategoryDecryption       Category = "decryption"
	CategorySelectorNotFound Category = "selector_not_found"
	CategoryLoginRejected    Category = "login_rejected"
	CategoryTimeout          Category = "timeout"
	CategoryNoScores         Category = "no_scores_found"
	CategoryUnexpected       Category = "unexpected"
)

// Step tags timeouts and unexpected failures with the phase that was in
// progress.
type Step string

const (
	StepLogin      Step = "login"
	StepNavigation Step = "navigation"
	StepExtraction Step = "extraction"
)

type Error struct {
	Category Category
	Step     Step
	// Field names the form field whose selector candidates were
	// exhausted, for CategorySelectorNotFound.
	Field string
	Err   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("import failed: %s", e.Category)
	if e.Step != "" {
		msg += fmt.Sprintf(" (step: %s)", e.Step)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" (field: %s)", e.Field)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func selectorNotFound(step Step, field string) *Error {
	return &Error{
		Category: CategorySelectorNotFound,
		Step:     step,
		Field:    field,
		Err:      browser.ErrNoSelectorMatch,
	}
}

func loginRejected() *Error {
	return &Error{Category: CategoryLoginRejected, Step: StepLogin}
}

func timeout(step Step, err error) *Error {
	return &Error{Category: CategoryTimeout, Step: step, Err: err}
}

func noScores() *Error {
	return &Error{Category: CategoryNoScores, Step: StepExtraction}
}

// classify converts an arbitrary inner failure into the taxonomy. Used
// at the orchestrator boundary; inner components return typed failures
// directly where they can.
func classify(step Step, err error) *Error {
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	switch {
	case errors.Is(err, registry.ErrUnknownProvider):
		return &Error{Category: CategoryUnknownProvider, Err: err}
	case errors.Is(err, credentials.ErrNotLinked):
		return &Error{Category: CategoryNotLinked, Err: err}
	case errors.Is(err, vault.ErrDecrypt):
		return &Error{Category: CategoryDecryption, Err: err}
	case errors.Is(err, browser.ErrTimeout),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return timeout(step, err)
	case errors.Is(err, browser.ErrNoSelectorMatch):
		return &Error{Category: CategorySelectorNotFound, Step: step, Err: err}
	}
	return &Error{Category: CategoryUnexpected, Step: step, Err: err}
}
