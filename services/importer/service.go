// Package importer runs end-to-end score imports: open a browser
// session, log in with the client's stored credentials, position on the
// report page, extract per-bureau scores, persist the snapshot and the
// raw report artifact. One Run is one attempt against one provider for
// one client; every exit path closes the session it opened.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"creditwatch-backend/lib/browser"
	"creditwatch-backend/lib/timezone"
	"creditwatch-backend/services/credentials"
	"creditwatch-backend/services/registry"
	"creditwatch-backend/services/scorehistory"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/importer")

// Options bounds each phase of a run. Provider sites hang in ways that
// look exactly like slow pages, so every wait is finite.
type Options struct {
	// OverallTimeout caps the entire run, login through extraction.
	OverallTimeout time.Duration
	// ElementWait caps locating one element across all its selector
	// candidates.
	ElementWait time.Duration
	// NavigationWait caps page loads and the post-submit confirmation
	// window.
	NavigationWait time.Duration
}

func DefaultOptions() Options {
	return Options{
		OverallTimeout: 2 * time.Minute,
		ElementWait:    20 * time.Second,
		NavigationWait: 30 * time.Second,
	}
}

type Service struct {
	registry    registry.Registry
	credentials credentials.Service
	history     scorehistory.Service
	launcher    browser.Launcher
	artifacts   ArtifactStore
	diagnostics DiagnosticsCapture
	opts        Options
}

func NewService(
	reg registry.Registry,
	creds credentials.Service,
	history scorehistory.Service,
	launcher browser.Launcher,
	artifacts ArtifactStore,
	diagnostics DiagnosticsCapture,
	opts Options,
) Service {
	if opts.OverallTimeout == 0 {
		opts.OverallTimeout = DefaultOptions().OverallTimeout
	}
	if opts.ElementWait == 0 {
		opts.ElementWait = DefaultOptions().ElementWait
	}
	if opts.NavigationWait == 0 {
		opts.NavigationWait = DefaultOptions().NavigationWait
	}
	return Service{
		registry:    reg,
		credentials: creds,
		history:     history,
		launcher:    launcher,
		artifacts:   artifacts,
		diagnostics: diagnostics,
		opts:        opts,
	}
}

// ImportResult is the full outcome of one run, success or failure.
// Category and Step are set only on failure.
type ImportResult struct {
	RunID    string `json:"run_id"`
	ClientID string `json:"client_id"`
	Provider string `json:"provider"`

	Success bool                     `json:"success"`
	Outcome credentials.ImportStatus `json:"outcome"`
	// Scores may be non-empty even when Success is false: a partial
	// extraction still persists what it recovered.
	Scores       map[string]int `json:"scores,omitempty"`
	ArtifactPath string         `json:"artifact_path,omitempty"`

	Category Category `json:"category,omitempty"`
	Step     Step     `json:"step,omitempty"`
	Error    string   `json:"error,omitempty"`

	Elapsed     time.Duration   `json:"elapsed_ns"`
	Diagnostics DiagnosticFiles `json:"diagnostics"`
}

// Run executes one import attempt. Registry and credential lookups
// happen before any browser resource is touched, so an unknown provider
// or unlinked client costs nothing.
func (s Service) Run(ctx context.Context, clientID, provider string) ImportResult {
	start := timezone.Now()
	runID, err := random.String(8)
	if err != nil {
		runID = fmt.Sprintf("%x", start.UnixNano())
	}

	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", runID),
		attribute.String("client", clientID),
		attribute.String("provider", provider),
	)

	result := ImportResult{
		RunID:    runID,
		ClientID: clientID,
		Provider: provider,
		Outcome:  credentials.StatusFailed,
	}
	finish := func() ImportResult {
		result.Elapsed = time.Since(start)
		return result
	}
	fail := func(ferr *Error) ImportResult {
		result.Category = ferr.Category
		result.Step = ferr.Step
		result.Error = ferr.Error()
		span.RecordError(ferr)
		span.SetStatus(codes.Error, string(ferr.Category))
		slog.ErrorContext(ctx, "import failed",
			"run_id", runID,
			"client", clientID,
			"provider", provider,
			"category", ferr.Category,
			"step", ferr.Step,
			"field", ferr.Field,
		)
		return finish()
	}

	cfg, err := s.registry.Lookup(provider)
	if err != nil {
		return fail(classify("", err))
	}
	creds, err := s.credentials.Fetch(ctx, clientID, provider)
	if err != nil {
		ferr := classify("", err)
		s.recordOutcome(ctx, result, start)
		return fail(ferr)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.OverallTimeout)
	defer cancel()

	sess, err := s.launcher.Open(ctx)
	if err != nil {
		ferr := classify("", err)
		s.recordOutcome(ctx, result, start)
		return fail(ferr)
	}
	defer func() {
		err := sess.Close()
		if err != nil {
			slog.WarnContext(ctx, "browser session close failed",
				"run_id", runID, "error", err)
		}
	}()

	scores, artifactPath, ferr := s.runImport(ctx, sess, cfg, creds, clientID, start)
	result.Scores = scores
	result.ArtifactPath = artifactPath

	if len(scores) > 0 {
		err := s.history.Push(ctx, scorehistory.PushRequest{
			ClientID: clientID,
			Provider: provider,
			Time:     start,
			Scores:   scores,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to persist score snapshots",
				"run_id", runID, "error", err)
		}
	}

	switch {
	case ferr != nil:
		result.Outcome = credentials.StatusFailed
		if len(scores) > 0 {
			result.Outcome = credentials.StatusPartial
		}
	case len(scores) == len(registry.Bureaus) && artifactPath != "":
		result.Success = true
		result.Outcome = credentials.StatusSuccess
	default:
		// scores came back but not all three, or the artifact write
		// failed under a full extraction
		result.Outcome = credentials.StatusPartial
	}
	s.recordOutcome(ctx, result, start)

	if ferr != nil {
		result.Diagnostics = s.diagnostics.Capture(ctx, sess, clientID, runID, start)
		return fail(ferr)
	}

	slog.InfoContext(ctx, "import finished",
		"run_id", runID,
		"client", clientID,
		"provider", provider,
		"outcome", result.Outcome,
		"scores", len(scores),
	)
	return finish()
}

// runImport is the browser-facing portion of a run. A panic from the
// driver is converted into an unexpected failure so the deferred close
// and outcome bookkeeping in Run still happen.
func (s Service) runImport(
	ctx context.Context,
	sess browser.Session,
	cfg registry.ServiceConfig,
	creds credentials.Decrypted,
	clientID string,
	start time.Time,
) (scores map[string]int, artifactPath string, ferr *Error) {
	defer func() {
		if r := recover(); r != nil {
			ferr = &Error{
				Category: CategoryUnexpected,
				Err:      fmt.Errorf("driver panic: %v", r),
			}
		}
	}()

	login := &loginSequencer{
		session:     sess,
		cfg:         cfg,
		creds:       creds,
		elementWait: s.opts.ElementWait,
		confirmWait: s.opts.NavigationWait,
	}
	ferr = login.run(ctx)
	if ferr != nil {
		return nil, "", ferr
	}

	ferr = s.position(ctx, sess, cfg)
	if ferr != nil {
		return nil, "", ferr
	}

	// the report page has been reached; from here the artifact is saved
	// no matter what extraction finds
	html, err := sess.Content(ctx)
	if err != nil {
		return nil, "", classify(StepExtraction, err)
	}
	artifactPath, err = s.artifacts.SaveReport(ctx, clientID, cfg.Provider, start, html)
	if err != nil {
		slog.ErrorContext(ctx, "failed to save report artifact",
			"client", clientID, "provider", cfg.Provider, "error", err)
		artifactPath = ""
	}

	scores, ferr = s.extract(ctx, sess, cfg)
	if ferr != nil {
		return nil, artifactPath, ferr
	}
	if len(scores) == 0 {
		return nil, artifactPath, noScores()
	}
	return scores, artifactPath, nil
}

func (s Service) recordOutcome(ctx context.Context, result ImportResult, at time.Time) {
	err := s.credentials.RecordOutcome(
		context.WithoutCancel(ctx),
		result.ClientID,
		result.Provider,
		result.Outcome,
		at,
		result.ArtifactPath,
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to record import outcome",
			"run_id", result.RunID,
			"client", result.ClientID,
			"provider", result.Provider,
			"error", err,
		)
	}
}
