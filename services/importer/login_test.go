package importer

import (
	"context"
	"testing"
	"time"

	"creditwatch-backend/services/credentials"
	"creditwatch-backend/services/registry"

	"github.com/stretchr/testify/require"
)

func loginTestConfig() registry.ServiceConfig {
	return registry.ServiceConfig{
		Provider:       "directcredit",
		LoginURL:       "https://direct.test/login",
		LandingURL:     "https://direct.test/home",
		Username:       registry.FieldSelectors{"#email"},
		Password:       registry.FieldSelectors{"#password"},
		Submit:         registry.FieldSelectors{"button[type='submit']"},
		ErrorIndicator: ".login-error",
		Flow:           registry.FlowHeuristic,
	}
}

func newLoginSequencer(sess *fakeSession, cfg registry.ServiceConfig) *loginSequencer {
	return &loginSequencer{
		session: sess,
		cfg:     cfg,
		creds: credentials.Decrypted{
			Username: "user@example.com",
			Password: "hunter2",
		},
		elementWait: 100 * time.Millisecond,
		confirmWait: 300 * time.Millisecond,
	}
}

func TestLoginSequenceConfirmedByNavigation(t *testing.T) {
	sess := newFakeSession(directPages())
	wireSubmit(sess, "button[type='submit']", "https://direct.test/home")
	seq := newLoginSequencer(sess, loginTestConfig())

	ferr := seq.run(context.Background())
	require.Nil(t, ferr)
	require.Equal(t, loginConfirmed, seq.state)
	require.Equal(t, "user@example.com", sess.filled["#email"])
	require.Equal(t, "hunter2", sess.filled["#password"])
}

func TestLoginSequenceMissingSubmit(t *testing.T) {
	pages := directPages()
	delete(pages["https://direct.test/login"].selectors, "button[type='submit']")
	sess := newFakeSession(pages)
	seq := newLoginSequencer(sess, loginTestConfig())

	ferr := seq.run(context.Background())
	require.NotNil(t, ferr)
	require.Equal(t, CategorySelectorNotFound, ferr.Category)
	require.Equal(t, "submit", ferr.Field)
	require.Equal(t, loginFailed, seq.state)
}

func TestLoginConfirmedByAbsentIndicator(t *testing.T) {
	// provider re-renders in place on success: same url, no banner
	sess := newFakeSession(directPages())
	seq := newLoginSequencer(sess, loginTestConfig())

	ferr := seq.run(context.Background())
	require.Nil(t, ferr)
	require.Equal(t, loginConfirmed, seq.state)
}

func TestLoginTimesOutWithoutIndicator(t *testing.T) {
	cfg := loginTestConfig()
	cfg.ErrorIndicator = ""
	sess := newFakeSession(directPages())
	seq := newLoginSequencer(sess, cfg)

	ferr := seq.run(context.Background())
	require.NotNil(t, ferr)
	require.Equal(t, CategoryTimeout, ferr.Category)
	require.Equal(t, StepLogin, ferr.Step)
	require.Equal(t, loginFailed, seq.state)
}

func TestSameURL(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"https://direct.test/login", "https://direct.test/login", true},
		{"https://direct.test/login/", "https://direct.test/login", true},
		{"https://direct.test/login?attempt=2", "https://direct.test/login", true},
		{"https://direct.test/home", "https://direct.test/login", false},
		{"https://other.test/login", "https://direct.test/login", false},
	}
	for _, c := range cases {
		require.Equal(t, c.want, sameURL(c.a, c.b), "%s vs %s", c.a, c.b)
	}
}
