package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ArtifactStore writes raw report HTML to disk. Artifacts are legal
// evidence for dispute filings, so a save happens on every run that
// reaches the report page, whether or not extraction produced scores.
type ArtifactStore struct {
	dir string
}

func NewArtifactStore(dir string) ArtifactStore {
	return ArtifactStore{dir: dir}
}

func (a ArtifactStore) SaveReport(ctx context.Context, clientID, provider string, at time.Time, html string) (string, error) {
	_, span := tracer.Start(ctx, "SaveReport")
	defer span.End()

	dir := filepath.Join(a.dir, clientID, provider)
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("failed to create artifact dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("report-%d.html", at.Unix()))
	err = os.WriteFile(path, []byte(html), 0o644)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	span.SetAttributes(attribute.String("path", path))
	return path, nil
}
