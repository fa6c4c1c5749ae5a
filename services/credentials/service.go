// Package credentials stores each client's monitoring-site logins with
// secrets encrypted at rest. Decrypted values are handed out only for
// the duration of a single import and never retained here.
package credentials

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"creditwatch-backend/lib/vault"
	"creditwatch-backend/services/credentials/db"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/credentials")

// ErrNotLinked means the client has no stored login for the provider.
var ErrNotLinked = errors.New("credentials: client has not linked this provider")

// ImportStatus is the last-import outcome persisted on the credential
// record. Downstream consumers must handle all three terminal states,
// not a success/failure pair.
type ImportStatus string

const (
	StatusPending ImportStatus = "pending"
	StatusSuccess ImportStatus = "success"
	StatusPartial ImportStatus = "partial"
	StatusFailed  ImportStatus = "failed"
)

type Service struct {
	db    *sql.DB
	qry   *db.Queries
	vault *vault.Vault
}

func NewService(database *sql.DB, v *vault.Vault) Service {
	return Service{
		db:    database,
		qry:   db.New(database),
		vault: v,
	}
}

type LinkRequest struct {
	ClientID string
	Provider string
	Username string
	Password string
	SSNLast4 string
}

// Link encrypts the login and upserts the record with status pending.
// Re-linking overwrites the secrets but the record itself is never
// auto-deleted; history stays for audit and re-import.
func (s Service) Link(ctx context.Context, req LinkRequest) error {
	ctx, span := tracer.Start(ctx, "Link")
	defer span.End()
	span.SetAttributes(
		attribute.String("client", req.ClientID),
		attribute.String("provider", req.Provider),
	)

	username, err := s.vault.Encrypt(req.Username)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	password, err := s.vault.Encrypt(req.Password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	ssnLast4 := ""
	if req.SSNLast4 != "" {
		ssnLast4, err = s.vault.Encrypt(req.SSNLast4)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	err = s.qry.UpsertCredential(ctx, db.UpsertCredentialParams{
		ClientID: req.ClientID,
		Provider: req.Provider,
		Username: username,
		Password: password,
		SsnLast4: ssnLast4,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Decrypted is a credential with secrets in the clear, scoped to one
// import run. Callers must not store it.
type Decrypted struct {
	Username string
	Password string
	SSNLast4 string
}

func (s Service) Fetch(ctx context.Context, clientID, provider string) (Decrypted, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()
	span.SetAttributes(
		attribute.String("client", clientID),
		attribute.String("provider", provider),
	)

	row, err := s.qry.GetCredential(ctx, db.GetCredentialParams{
		ClientID: clientID,
		Provider: provider,
	})
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, ErrNotLinked.Error())
		return Decrypted{}, ErrNotLinked
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Decrypted{}, err
	}

	var out Decrypted
	out.Username, err = s.vault.Decrypt(row.Username)
	if err != nil {
		span.SetStatus(codes.Error, "username ciphertext unreadable")
		return Decrypted{}, err
	}
	out.Password, err = s.vault.Decrypt(row.Password)
	if err != nil {
		span.SetStatus(codes.Error, "password ciphertext unreadable")
		return Decrypted{}, err
	}
	if row.SsnLast4 != "" {
		out.SSNLast4, err = s.vault.Decrypt(row.SsnLast4)
		if err != nil {
			span.SetStatus(codes.Error, "ssn ciphertext unreadable")
			return Decrypted{}, err
		}
	}
	return out, nil
}

// RecordOutcome is the single idempotent write performed at the end of
// every import run; last writer wins.
func (s Service) RecordOutcome(ctx context.Context, clientID, provider string, status ImportStatus, at time.Time, artifactPath string) error {
	ctx, span := tracer.Start(ctx, "RecordOutcome")
	defer span.End()
	span.SetAttributes(
		attribute.String("client", clientID),
		attribute.String("provider", provider),
		attribute.String("status", string(status)),
	)

	err := s.qry.UpdateImportOutcome(ctx, db.UpdateImportOutcomeParams{
		LastImportAt:     at.Unix(),
		LastImportStatus: string(status),
		LastArtifactPath: artifactPath,
		ClientID:         clientID,
		Provider:         provider,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// LinkStatus is the non-secret view of a stored credential, for the
// operator CLI and the trigger API.
type LinkStatus struct {
	ClientID         string       `json:"client_id"`
	Provider         string       `json:"provider"`
	LastImportAt     time.Time    `json:"last_import_at"`
	LastImportStatus ImportStatus `json:"last_import_status"`
	LastArtifactPath string       `json:"last_artifact_path,omitempty"`
}

func (s Service) List(ctx context.Context) ([]LinkStatus, error) {
	ctx, span := tracer.Start(ctx, "List")
	defer span.End()

	rows, err := s.qry.ListCredentials(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	out := make([]LinkStatus, 0, len(rows))
	for _, r := range rows {
		out = append(out, LinkStatus{
			ClientID:         r.ClientID,
			Provider:         r.Provider,
			LastImportAt:     time.Unix(r.LastImportAt, 0),
			LastImportStatus: ImportStatus(r.LastImportStatus),
			LastArtifactPath: r.LastArtifactPath,
		})
	}
	return out, nil
}
