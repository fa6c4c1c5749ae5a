package importer

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"creditwatch-backend/lib/browser"
	"creditwatch-backend/services/credentials"
	"creditwatch-backend/services/registry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type loginState int

const (
	loginNotStarted loginState = iota
	loginFieldsLocated
	loginCredentialsEntered
	loginSubmitted
	loginConfirmed
	loginFailed
)

func (s loginState) String() string {
	switch s {
	case loginNotStarted:
		return "not_started"
	case loginFieldsLocated:
		return "fields_located"
	case loginCredentialsEntered:
		return "credentials_entered"
	case loginSubmitted:
		return "submitted"
	case loginConfirmed:
		return "confirmed"
	case loginFailed:
		return "failed"
	}
	return "unknown"
}

// loginSequencer drives the authentication step, one pass per import.
// Each field iterates the provider's selector candidates in order; the
// markup belongs to a third party and changes without notice, so a
// single brittle selector would silently break the whole provider.
type loginSequencer struct {
	session     browser.Session
	cfg         registry.ServiceConfig
	creds       credentials.Decrypted
	elementWait time.Duration
	confirmWait time.Duration

	state loginState
}

func (l *loginSequencer) fail(err *Error) *Error {
	l.state = loginFailed
	return err
}

func (l *loginSequencer) run(ctx context.Context) *Error {
	ctx, span := tracer.Start(ctx, "login")
	defer span.End()
	defer func() {
		span.SetAttributes(attribute.String("final_state", l.state.String()))
	}()

	err := l.session.Navigate(ctx, l.cfg.LoginURL, l.confirmWait)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to reach login page")
		return l.fail(classify(StepLogin, err))
	}

	type field struct {
		name      string
		selectors registry.FieldSelectors
		value     string
	}
	fields := []field{
		{"username", l.cfg.Username, l.creds.Username},
		{"password", l.cfg.Password, l.creds.Password},
	}
	// some providers only render the SSN prompt for a subset of members;
	// it participates only when both selectors and a stored value exist
	if len(l.cfg.SSNLast4) > 0 && l.creds.SSNLast4 != "" {
		fields = append(fields, field{"ssn_last4", l.cfg.SSNLast4, l.creds.SSNLast4})
	}

	located := make([]string, len(fields))
	for i, f := range fields {
		selector, err := l.session.FindVisible(ctx, f.selectors, l.elementWait)
		if errors.Is(err, browser.ErrNoSelectorMatch) {
			span.SetStatus(codes.Error, "selector candidates exhausted")
			return l.fail(selectorNotFound(StepLogin, f.name))
		}
		if err != nil {
			return l.fail(classify(StepLogin, err))
		}
		located[i] = selector
	}
	submit, err := l.session.FindVisible(ctx, l.cfg.Submit, l.elementWait)
	if errors.Is(err, browser.ErrNoSelectorMatch) {
		span.SetStatus(codes.Error, "selector candidates exhausted")
		return l.fail(selectorNotFound(StepLogin, "submit"))
	}
	if err != nil {
		return l.fail(classify(StepLogin, err))
	}
	l.state = loginFieldsLocated

	for i, f := range fields {
		err := l.session.Fill(ctx, located[i], f.value)
		if err != nil {
			return l.fail(classify(StepLogin, err))
		}
	}
	l.state = loginCredentialsEntered

	err = l.session.Click(ctx, submit)
	if err != nil {
		return l.fail(classify(StepLogin, err))
	}
	l.state = loginSubmitted

	ferr := l.confirm(ctx)
	if ferr != nil {
		return l.fail(ferr)
	}
	l.state = loginConfirmed
	return nil
}

// confirm decides whether the submission succeeded: navigation away
// from the login page, or the provider's error indicator staying absent
// for the whole bounded wait. An indicator that shows up means the
// provider rejected the credentials, which is a different operator
// problem than changed markup.
func (l *loginSequencer) confirm(ctx context.Context) *Error {
	deadline := time.Now().Add(l.confirmWait)
	for {
		if l.cfg.ErrorIndicator != "" {
			_, err := l.session.FindVisible(ctx, []string{l.cfg.ErrorIndicator}, time.Second)
			if err == nil {
				return loginRejected()
			}
			if !errors.Is(err, browser.ErrNoSelectorMatch) {
				return classify(StepLogin, err)
			}
		}
		if !sameURL(l.session.CurrentURL(), l.cfg.LoginURL) {
			return nil
		}
		if time.Now().After(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return timeout(StepLogin, ctx.Err())
		case <-time.After(500 * time.Millisecond):
		}
	}

	if l.cfg.ErrorIndicator != "" {
		// still on the login url, but the provider re-renders in place
		// and its rejection banner never appeared
		slog.DebugContext(ctx, "login confirmed by absent error indicator",
			"provider", l.cfg.Provider)
		return nil
	}
	return timeout(StepLogin, errors.New("no navigation away from login page"))
}

func sameURL(a, b string) bool {
	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return a == b
	}
	trim := func(p string) string {
		return strings.TrimSuffix(p, "/")
	}
	return ua.Host == ub.Host && trim(ua.Path) == trim(ub.Path)
}
