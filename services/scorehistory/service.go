// Package scorehistory keeps the append-only per-bureau score time
// series. Records are created once per successful or partial import and
// never mutated or deleted; trend reporting downstream depends on the
// history staying intact.
package scorehistory

import (
	"context"
	"database/sql"
	"time"

	"creditwatch-backend/services/scorehistory/db"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/scorehistory")

type Service struct {
	db  *sql.DB
	qry *db.Queries
}

func NewService(database *sql.DB) Service {
	return Service{
		db:  database,
		qry: db.New(database),
	}
}

type PushRequest struct {
	ClientID string
	Provider string
	Time     time.Time
	// Scores maps bureau name to score; partial imports push fewer than
	// three entries.
	Scores map[string]int
}

func (s Service) Push(ctx context.Context, req PushRequest) error {
	ctx, span := tracer.Start(ctx, "Push")
	defer span.End()
	span.SetAttributes(
		attribute.String("client", req.ClientID),
		attribute.String("provider", req.Provider),
		attribute.Int("scores", len(req.Scores)),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	for bureau, score := range req.Scores {
		err := txqry.CreateScoreSnapshot(ctx, db.CreateScoreSnapshotParams{
			ClientID:   req.ClientID,
			Provider:   req.Provider,
			Bureau:     bureau,
			Score:      int64(score),
			CapturedAt: req.Time.Unix(),
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

type Snapshot struct {
	Provider   string    `json:"provider"`
	Score      int       `json:"score"`
	CapturedAt time.Time `json:"captured_at"`
}

type BureauHistory struct {
	Bureau    string     `json:"bureau"`
	Snapshots []Snapshot `json:"snapshots"`
}

func (s Service) Pull(ctx context.Context, clientID string) ([]BureauHistory, error) {
	ctx, span := tracer.Start(ctx, "Pull")
	defer span.End()
	span.SetAttributes(attribute.String("client", clientID))

	rows, err := s.qry.GetScoreSnapshots(ctx, clientID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var bureaus []BureauHistory
	var last *BureauHistory

	for _, r := range rows {
		// rows are sorted by bureau so all snapshots for one bureau are
		// adjacent; a bureau change starts a new group
		if last == nil || r.Bureau != last.Bureau {
			if last != nil {
				bureaus = append(bureaus, *last)
			}
			last = &BureauHistory{Bureau: r.Bureau}
		}
		last.Snapshots = append(last.Snapshots, Snapshot{
			Provider:   r.Provider,
			Score:      int(r.Score),
			CapturedAt: time.Unix(r.CapturedAt, 0),
		})
	}
	if last != nil {
		bureaus = append(bureaus, *last)
	}

	return bureaus, nil
}
