// Package healthcheck periodically probes each registered provider's
// login page over plain HTTP. It cannot prove a login flow still works,
// but it catches outages and blocking cheaply, before an operator burns
// a full browser run finding out.
package healthcheck

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"creditwatch-backend/lib/telemetry"
	"creditwatch-backend/lib/timezone"
	"creditwatch-backend/services/registry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("services/healthcheck")

type ProviderStatus struct {
	Provider   string    `json:"provider"`
	Reachable  bool      `json:"reachable"`
	StatusCode int       `json:"status_code,omitempty"`
	Error      string    `json:"error,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
}

type Service struct {
	registry registry.Registry
	client   *resty.Client

	mutex    sync.RWMutex
	statuses map[string]ProviderStatus
}

func NewService(reg registry.Registry) *Service {
	client := resty.New()
	client.SetTimeout(15 * time.Second)
	// monitoring sites sit behind cloudflare and reject default Go UAs
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	telemetry.InstrumentResty(client, "services/healthcheck")

	return &Service{
		registry: reg,
		client:   client,
		statuses: map[string]ProviderStatus{},
	}
}

// CheckAll probes every registered provider once and records the
// results. Probes run sequentially; there are only a handful of
// providers and hammering them in parallel invites blocking.
func (s *Service) CheckAll(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "CheckAll")
	defer span.End()

	for _, provider := range s.registry.Providers() {
		cfg, err := s.registry.Lookup(provider)
		if err != nil {
			continue
		}
		status := s.probe(ctx, cfg)

		s.mutex.Lock()
		s.statuses[provider] = status
		s.mutex.Unlock()

		if !status.Reachable {
			slog.WarnContext(ctx, "provider unreachable",
				"provider", provider,
				"status_code", status.StatusCode,
				"error", status.Error,
			)
		}
	}
}

func (s *Service) probe(ctx context.Context, cfg registry.ServiceConfig) ProviderStatus {
	ctx, span := tracer.Start(ctx, "probe")
	defer span.End()
	span.SetAttributes(attribute.String("provider", cfg.Provider))

	status := ProviderStatus{
		Provider:  cfg.Provider,
		CheckedAt: timezone.Now(),
	}
	res, err := s.client.R().SetContext(ctx).Get(cfg.LoginURL)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.StatusCode = res.StatusCode()
	// 4xx still proves the site is up; login pages often 403 plain
	// clients while serving browsers fine
	status.Reachable = res.StatusCode() < 500
	return status
}

// Snapshot returns the latest probe results sorted by provider name.
// Providers never probed yet are absent.
func (s *Service) Snapshot() []ProviderStatus {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]ProviderStatus, 0, len(s.statuses))
	for _, status := range s.statuses {
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Provider < out[j].Provider
	})
	return out
}

// RunDaemon probes on startup and then on every tick until the context
// is cancelled.
func (s *Service) RunDaemon(ctx context.Context, interval time.Duration) {
	slog.InfoContext(ctx, "starting healthcheck daemon", "interval", interval)
	s.CheckAll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "healthcheck daemon stopped")
			return
		case <-ticker.C:
			s.CheckAll(ctx)
		}
	}
}
