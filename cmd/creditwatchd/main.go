package main

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"creditwatch-backend/lib/browser"
	"creditwatch-backend/lib/configutil"
	"creditwatch-backend/lib/serviceutil"
	"creditwatch-backend/lib/storage"
	"creditwatch-backend/lib/telemetry"
	"creditwatch-backend/lib/vault"
	"creditwatch-backend/services/credentials"
	credentialsdb "creditwatch-backend/services/credentials/db"
	"creditwatch-backend/services/healthcheck"
	"creditwatch-backend/services/importer"
	"creditwatch-backend/services/registry"
	"creditwatch-backend/services/scorehistory"
	scorehistorydb "creditwatch-backend/services/scorehistory/db"
)

type Config struct {
	Port            int            `json:"port"`
	VaultPassphrase string         `json:"vault_passphrase"`
	Database        storage.Config `json:"database"`
	ArtifactDir     string         `json:"artifact_dir"`
	DiagnosticDir   string         `json:"diagnostic_dir"`
	// Headful shows the browser window, for debugging provider flows on
	// a workstation.
	Headful                    bool `json:"headful"`
	HealthcheckIntervalMinutes int  `json:"healthcheck_interval_minutes"`
}

func main() {
	ctx := serviceutil.SignalContext()

	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if config.Port == 0 {
		config.Port = 8410
	}
	if config.ArtifactDir == "" {
		config.ArtifactDir = "artifacts"
	}
	if config.DiagnosticDir == "" {
		config.DiagnosticDir = "diagnostics"
	}
	if config.HealthcheckIntervalMinutes == 0 {
		config.HealthcheckIntervalMinutes = 30
	}

	telemetry.InitSlog(false)
	t, err := telemetry.SetupFromEnv(ctx, "creditwatchd")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer t.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx)

	db, err := config.Database.OpenDB()
	if err != nil {
		serviceutil.Fatal("failed to open database", err)
	}
	for _, schema := range []string{credentialsdb.Schema, scorehistorydb.Schema} {
		_, err := db.Exec(schema)
		if err != nil && !strings.Contains(err.Error(), "already exists") {
			serviceutil.Fatal("failed to apply schema", err)
		}
	}

	v, err := vault.New(config.VaultPassphrase)
	if err != nil {
		serviceutil.Fatal("failed to initialize vault", err)
	}

	reg := registry.BuiltIn()

	launcher, err := browser.NewPlaywrightLauncher(!config.Headful)
	if err != nil {
		serviceutil.Fatal("failed to start browser", err)
	}
	defer launcher.Shutdown()

	credentialsService := credentials.NewService(db, v)
	historyService := scorehistory.NewService(db)
	importerService := importer.NewService(
		reg,
		credentialsService,
		historyService,
		launcher,
		importer.NewArtifactStore(config.ArtifactDir),
		importer.NewDiagnosticsCapture(config.DiagnosticDir),
		importer.DefaultOptions(),
	)

	healthService := healthcheck.NewService(reg)
	go healthService.RunDaemon(
		ctx,
		time.Duration(config.HealthcheckIntervalMinutes)*time.Minute,
	)

	mux := http.NewServeMux()
	api{
		importer:    importerService,
		credentials: credentialsService,
		history:     historyService,
		registry:    reg,
		health:      healthService,
	}.register(mux)
	go serviceutil.StartHttpServer(config.Port, mux)

	<-ctx.Done()
}
