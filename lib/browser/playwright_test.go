package browser

import (
	"errors"
	"fmt"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"
)

func TestWrapTimeout(t *testing.T) {
	require.NoError(t, wrapTimeout(nil))

	expired := fmt.Errorf("locator.WaitFor: %w", playwright.ErrTimeout)
	require.ErrorIs(t, wrapTimeout(expired), ErrTimeout)

	refused := errors.New("page.goto: net::ERR_CONNECTION_REFUSED")
	wrapped := wrapTimeout(refused)
	require.Equal(t, refused, wrapped)
	require.NotErrorIs(t, wrapped, ErrTimeout)
}
