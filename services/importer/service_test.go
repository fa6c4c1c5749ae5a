package importer

import (
	"context"
	"os"
	"testing"
	"time"

	"creditwatch-backend/lib/browser"
	"creditwatch-backend/lib/testutil"
	"creditwatch-backend/lib/vault"
	"creditwatch-backend/services/credentials"
	credsdb "creditwatch-backend/services/credentials/db"
	"creditwatch-backend/services/registry"
	"creditwatch-backend/services/scorehistory"
	historydb "creditwatch-backend/services/scorehistory/db"

	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) registry.Registry {
	reg, err := registry.New(
		registry.ServiceConfig{
			Provider:       "directcredit",
			LoginURL:       "https://direct.test/login",
			LandingURL:     "https://direct.test/home",
			ReportURL:      "https://direct.test/report",
			Username:       registry.FieldSelectors{"#email", "input[name='email']"},
			Password:       registry.FieldSelectors{"#password"},
			Submit:         registry.FieldSelectors{"button[type='submit']"},
			ErrorIndicator: ".login-error",
			Scores: map[string]registry.FieldSelectors{
				"transunion": {".score-tu"},
				"experian":   {".score-exp", ".score-ex"},
				"equifax":    {".score-eq"},
			},
			Flow: registry.FlowDirect,
		},
		registry.ServiceConfig{
			Provider:       "searchcredit",
			LoginURL:       "https://search.test/login",
			LandingURL:     "https://search.test/dashboard",
			Username:       registry.FieldSelectors{"#user", "input[name='user']"},
			Password:       registry.FieldSelectors{"#pass"},
			SSNLast4:       registry.FieldSelectors{"#ssn4"},
			Submit:         registry.FieldSelectors{"#signin"},
			ErrorIndicator: ".alert-danger",
			ReportLinkText: []string{"viewreport", "creditreport"},
			Scores: map[string]registry.FieldSelectors{
				"transunion": {".tu"},
				"experian":   {".exp"},
				"equifax":    {".eq"},
			},
			Flow: registry.FlowSearch,
		},
		registry.ServiceConfig{
			Provider:   "heuristiccredit",
			LoginURL:   "https://heur.test/login",
			LandingURL: "https://heur.test/member",
			Username:   registry.FieldSelectors{"#login-email"},
			Password:   registry.FieldSelectors{"#login-password"},
			Submit:     registry.FieldSelectors{"#login-submit"},
			ScoreScripts: map[string]string{
				"transunion": "state.scores.tuc",
				"experian":   "state.scores.exp",
				"equifax":    "state.scores.eqf",
			},
			Flow: registry.FlowHeuristic,
		},
	)
	require.NoError(t, err)
	return reg
}

type testEnv struct {
	reg         registry.Registry
	creds       credentials.Service
	history     scorehistory.Service
	artifactDir string
	diagDir     string
	setup       testutil.ServiceResult
}

func setupEnv(t *testing.T) (testEnv, func()) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/importer",
		DbSchema: credsdb.Schema + "\n" + historydb.Schema,
	})

	v, err := vault.New("importer-test-key")
	require.NoError(t, err)

	return testEnv{
		reg:         testRegistry(t),
		creds:       credentials.NewService(setup.DB, v),
		history:     scorehistory.NewService(setup.DB),
		artifactDir: t.TempDir(),
		diagDir:     t.TempDir(),
		setup:       setup,
	}, cleanup
}

func (e testEnv) service(launcher browser.Launcher, opts Options) Service {
	return NewService(
		e.reg, e.creds, e.history, launcher,
		NewArtifactStore(e.artifactDir),
		NewDiagnosticsCapture(e.diagDir),
		opts,
	)
}

func quickOpts() Options {
	return Options{
		OverallTimeout: 5 * time.Second,
		ElementWait:    100 * time.Millisecond,
		NavigationWait: 250 * time.Millisecond,
	}
}

func link(t *testing.T, e testEnv, clientID, provider string) {
	err := e.creds.Link(context.Background(), credentials.LinkRequest{
		ClientID: clientID,
		Provider: provider,
		Username: "user@example.com",
		Password: "hunter2",
		SSNLast4: "1234",
	})
	require.NoError(t, err)
}

// directPages scripts directcredit's site. The experian score is only
// reachable through the second selector candidate.
func directPages() map[string]*fakePage {
	return map[string]*fakePage{
		"https://direct.test/login": {
			selectors: map[string]bool{
				"#email":                true,
				"#password":             true,
				"button[type='submit']": true,
			},
		},
		"https://direct.test/home": {selectors: map[string]bool{}},
		"https://direct.test/report": {
			html: `<html><body>
				<div class="score-tu">TransUnion 650</div>
				<div class="score-ex">Experian 712</div>
				<div class="score-eq">Equifax 699</div>
			</body></html>`,
		},
	}
}

func wireSubmit(sess *fakeSession, selector, destination string) {
	sess.onClick[selector] = func(s *fakeSession) {
		s.currentURL = destination
	}
}

func TestUnknownProviderOpensNoBrowser(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	launcher := &fakeLauncher{}
	service := env.service(launcher, quickOpts())

	result := service.Run(context.Background(), "client-1", "foocredit")
	require.False(t, result.Success)
	require.Equal(t, CategoryUnknownProvider, result.Category)
	require.Equal(t, 0, launcher.opens)
}

func TestNotLinkedOpensNoBrowser(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	launcher := &fakeLauncher{}
	service := env.service(launcher, quickOpts())

	result := service.Run(context.Background(), "client-1", "directcredit")
	require.False(t, result.Success)
	require.Equal(t, CategoryNotLinked, result.Category)
	require.Equal(t, 0, launcher.opens)
}

func TestDecryptionFailure(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	link(t, env, "client-1", "directcredit")

	// same rows, different key: simulates rotation without re-encryption
	rotated, err := vault.New("some-other-key")
	require.NoError(t, err)
	staleCreds := credentials.NewService(env.setup.DB, rotated)

	launcher := &fakeLauncher{}
	service := NewService(
		env.reg, staleCreds, env.history, launcher,
		NewArtifactStore(env.artifactDir),
		NewDiagnosticsCapture(env.diagDir),
		quickOpts(),
	)

	result := service.Run(context.Background(), "client-1", "directcredit")
	require.False(t, result.Success)
	require.Equal(t, CategoryDecryption, result.Category)
	require.Equal(t, 0, launcher.opens)
}

func TestDirectFlowSuccess(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	link(t, env, "client-1", "directcredit")

	sess := newFakeSession(directPages())
	wireSubmit(sess, "button[type='submit']", "https://direct.test/home")
	launcher := &fakeLauncher{session: sess}
	service := env.service(launcher, quickOpts())

	result := service.Run(context.Background(), "client-1", "directcredit")
	require.True(t, result.Success)
	require.Equal(t, credentials.StatusSuccess, result.Outcome)
	require.Equal(t, map[string]int{
		"transunion": 650,
		"experian":   712,
		"equifax":    699,
	}, result.Scores)

	require.Equal(t, "user@example.com", sess.filled["#email"])
	require.Equal(t, "hunter2", sess.filled["#password"])

	require.NotEmpty(t, result.ArtifactPath)
	saved, err := os.ReadFile(result.ArtifactPath)
	require.NoError(t, err)
	require.Contains(t, string(saved), "score-tu")

	history, err := env.history.Pull(context.Background(), "client-1")
	require.NoError(t, err)
	require.Len(t, history, 3)

	links, err := env.creds.List(context.Background())
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.Equal(t, credentials.StatusSuccess, links[0].LastImportStatus)
	require.Equal(t, result.ArtifactPath, links[0].LastArtifactPath)

	require.Equal(t, 1, launcher.opens)
	require.Equal(t, 1, sess.closes)
}

func TestSearchFlowFollowsReportLink(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	link(t, env, "client-1", "searchcredit")

	pages := map[string]*fakePage{
		"https://search.test/login": {
			// only the fallback username selector exists
			selectors: map[string]bool{
				"input[name='user']": true,
				"#pass":              true,
				"#ssn4":              true,
				"#signin":            true,
			},
		},
		"https://search.test/dashboard": {
			html: `<html><body>
				<a href="/billing">Billing &amp; Plans</a>
				<a href="/reports/latest">View Reports</a>
			</body></html>`,
		},
		"https://search.test/reports/latest": {
			html: `<html><body>
				<span class="tu">641</span>
				<span class="exp">688</span>
				<span class="eq">655</span>
			</body></html>`,
		},
	}
	sess := newFakeSession(pages)
	wireSubmit(sess, "#signin", "https://search.test/dashboard")
	launcher := &fakeLauncher{session: sess}
	service := env.service(launcher, quickOpts())

	result := service.Run(context.Background(), "client-1", "searchcredit")
	require.True(t, result.Success)
	require.Equal(t, map[string]int{
		"transunion": 641,
		"experian":   688,
		"equifax":    655,
	}, result.Scores)
	require.Equal(t, "1234", sess.filled["#ssn4"])
	require.Equal(t, "https://search.test/reports/latest", sess.CurrentURL())
	require.Equal(t, 1, sess.closes)
}

func TestSearchFlowMissingLink(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	link(t, env, "client-1", "searchcredit")

	pages := map[string]*fakePage{
		"https://search.test/login": {
			selectors: map[string]bool{
				"#user": true, "#pass": true, "#ssn4": true, "#signin": true,
			},
		},
		"https://search.test/dashboard": {
			html: `<html><body><a href="/billing">Billing</a></body></html>`,
		},
	}
	sess := newFakeSession(pages)
	wireSubmit(sess, "#signin", "https://search.test/dashboard")
	launcher := &fakeLauncher{session: sess}
	service := env.service(launcher, quickOpts())

	result := service.Run(context.Background(), "client-1", "searchcredit")
	require.False(t, result.Success)
	require.Equal(t, CategorySelectorNotFound, result.Category)
	require.Equal(t, StepNavigation, result.Step)
	require.Equal(t, 1, sess.closes)
}

func TestHeuristicFlowScansLandingText(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	link(t, env, "client-1", "heuristiccredit")

	pages := map[string]*fakePage{
		"https://heur.test/login": {
			selectors: map[string]bool{
				"#login-email": true, "#login-password": true, "#login-submit": true,
			},
		},
		"https://heur.test/member": {
			text: "Welcome back! Your scores: 650 712 699. Page 2 of 9.",
		},
	}
	sess := newFakeSession(pages)
	wireSubmit(sess, "#login-submit", "https://heur.test/member")
	launcher := &fakeLauncher{session: sess}
	service := env.service(launcher, quickOpts())

	result := service.Run(context.Background(), "client-1", "heuristiccredit")
	require.True(t, result.Success)
	require.Equal(t, map[string]int{
		"transunion": 650,
		"experian":   712,
		"equifax":    699,
	}, result.Scores)
	require.Equal(t, 1, sess.closes)
}

func TestScriptedExtractionBeatsTextScan(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	link(t, env, "client-1", "heuristiccredit")

	// the app state holds the real scores; the rendered text leads with
	// marketing numbers that a text scan would misread
	pages := map[string]*fakePage{
		"https://heur.test/login": {
			selectors: map[string]bool{
				"#login-email": true, "#login-password": true, "#login-submit": true,
			},
		},
		"https://heur.test/member": {
			text: "Join 500 thousand members! Rated 4.8 by 320 reviewers.",
			evals: map[string]any{
				"state.scores.tuc": float64(641),
				"state.scores.exp": float64(688),
				"state.scores.eqf": "655",
			},
		},
	}
	sess := newFakeSession(pages)
	wireSubmit(sess, "#login-submit", "https://heur.test/member")
	launcher := &fakeLauncher{session: sess}
	service := env.service(launcher, quickOpts())

	result := service.Run(context.Background(), "client-1", "heuristiccredit")
	require.True(t, result.Success)
	require.Equal(t, map[string]int{
		"transunion": 641,
		"experian":   688,
		"equifax":    655,
	}, result.Scores)
	require.Equal(t, 1, sess.closes)
}

func TestLoginRejected(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	link(t, env, "client-1", "directcredit")

	pages := directPages()
	sess := newFakeSession(pages)
	// provider re-renders the login page with its rejection banner
	sess.onClick["button[type='submit']"] = func(s *fakeSession) {
		pages["https://direct.test/login"].selectors[".login-error"] = true
	}
	launcher := &fakeLauncher{session: sess}
	service := env.service(launcher, quickOpts())

	result := service.Run(context.Background(), "client-1", "directcredit")
	require.False(t, result.Success)
	require.Equal(t, CategoryLoginRejected, result.Category)
	require.Equal(t, StepLogin, result.Step)
	require.Equal(t, credentials.StatusFailed, result.Outcome)
	require.Equal(t, 1, sess.closes)
}

func TestSelectorNotFoundCapturesDiagnostics(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	link(t, env, "client-1", "directcredit")

	pages := directPages()
	delete(pages["https://direct.test/login"].selectors, "#password")
	sess := newFakeSession(pages)
	launcher := &fakeLauncher{session: sess}
	service := env.service(launcher, quickOpts())

	result := service.Run(context.Background(), "client-1", "directcredit")
	require.False(t, result.Success)
	require.Equal(t, CategorySelectorNotFound, result.Category)
	require.Equal(t, StepLogin, result.Step)
	require.Contains(t, result.Error, "password")

	require.NotEmpty(t, result.Diagnostics.Screenshot)
	require.NotEmpty(t, result.Diagnostics.DOM)
	_, err := os.Stat(result.Diagnostics.Screenshot)
	require.NoError(t, err)
	_, err = os.Stat(result.Diagnostics.DOM)
	require.NoError(t, err)

	require.Equal(t, 1, sess.closes)
}

func TestPartialExtraction(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	link(t, env, "client-1", "directcredit")

	pages := directPages()
	pages["https://direct.test/report"].html = `<html><body>
		<div class="score-tu">650</div>
		<div class="score-eq">699</div>
	</body></html>`
	sess := newFakeSession(pages)
	wireSubmit(sess, "button[type='submit']", "https://direct.test/home")
	launcher := &fakeLauncher{session: sess}
	service := env.service(launcher, quickOpts())

	result := service.Run(context.Background(), "client-1", "directcredit")
	require.False(t, result.Success)
	require.Equal(t, credentials.StatusPartial, result.Outcome)
	require.Equal(t, Category(""), result.Category)
	require.Equal(t, map[string]int{"transunion": 650, "equifax": 699}, result.Scores)
	require.NotEmpty(t, result.ArtifactPath)

	history, err := env.history.Pull(context.Background(), "client-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, 1, sess.closes)
}

func TestNoScoresStillSavesArtifact(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	link(t, env, "client-1", "directcredit")

	pages := directPages()
	pages["https://direct.test/report"].html =
		`<html><body><p>We are updating your report.</p></body></html>`
	pages["https://direct.test/report"].text = "We are updating your report. Page 2 of 9."
	sess := newFakeSession(pages)
	wireSubmit(sess, "button[type='submit']", "https://direct.test/home")
	launcher := &fakeLauncher{session: sess}
	service := env.service(launcher, quickOpts())

	result := service.Run(context.Background(), "client-1", "directcredit")
	require.False(t, result.Success)
	require.Equal(t, CategoryNoScores, result.Category)
	require.Equal(t, credentials.StatusFailed, result.Outcome)
	require.Empty(t, result.Scores)

	// the page was reached, so evidence is kept even without scores
	require.NotEmpty(t, result.ArtifactPath)
	_, err := os.Stat(result.ArtifactPath)
	require.NoError(t, err)

	history, err := env.history.Pull(context.Background(), "client-1")
	require.NoError(t, err)
	require.Len(t, history, 0)
	require.Equal(t, 1, sess.closes)
}

func TestOverallTimeoutClosesSession(t *testing.T) {
	env, cleanup := setupEnv(t)
	defer cleanup()
	link(t, env, "client-1", "directcredit")

	sess := newFakeSession(directPages())
	sess.navDelay = 100 * time.Millisecond
	launcher := &fakeLauncher{session: sess}

	opts := quickOpts()
	opts.OverallTimeout = 20 * time.Millisecond
	service := env.service(launcher, opts)

	result := service.Run(context.Background(), "client-1", "directcredit")
	require.False(t, result.Success)
	require.Equal(t, CategoryTimeout, result.Category)
	require.Equal(t, 1, sess.closes)
}
