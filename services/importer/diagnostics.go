package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"creditwatch-backend/lib/browser"
)

// DiagnosticsCapture grabs a screenshot and DOM snapshot from a failing
// session before it is torn down. Everything here is best effort: a
// diagnostics problem must never mask the failure being diagnosed.
type DiagnosticsCapture struct {
	dir string
}

func NewDiagnosticsCapture(dir string) DiagnosticsCapture {
	return DiagnosticsCapture{dir: dir}
}

type DiagnosticFiles struct {
	Screenshot string `json:"screenshot,omitempty"`
	DOM        string `json:"dom,omitempty"`
}

// Capture runs even when the import's context already expired; the
// session is usually still alive and the page state is exactly what the
// operator needs to see.
func (d DiagnosticsCapture) Capture(ctx context.Context, sess browser.Session, clientID, runID string, at time.Time) DiagnosticFiles {
	ctx = context.WithoutCancel(ctx)
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	dir := filepath.Join(d.dir, clientID)
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		slog.WarnContext(ctx, "failed to create diagnostics dir", "error", err)
		return DiagnosticFiles{}
	}
	prefix := filepath.Join(dir, fmt.Sprintf("diag-%d-%s", at.Unix(), runID))

	var out DiagnosticFiles
	png, err := sess.Screenshot(ctx)
	if err != nil {
		slog.WarnContext(ctx, "diagnostic screenshot failed", "error", err)
	} else {
		path := prefix + ".png"
		err = os.WriteFile(path, png, 0o644)
		if err != nil {
			slog.WarnContext(ctx, "failed to write diagnostic screenshot", "error", err)
		} else {
			out.Screenshot = path
		}
	}

	html, err := sess.Content(ctx)
	if err != nil {
		slog.WarnContext(ctx, "diagnostic dom capture failed", "error", err)
	} else {
		path := prefix + ".html"
		err = os.WriteFile(path, []byte(html), 0o644)
		if err != nil {
			slog.WarnContext(ctx, "failed to write diagnostic dom", "error", err)
		} else {
			out.DOM = path
		}
	}
	return out
}
