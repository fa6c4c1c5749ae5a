package importer

import (
	"context"
	"errors"
	"time"

	"creditwatch-backend/lib/browser"
)

// fakePage is one navigable page in the scripted site: which selectors
// resolve to visible elements, what the DOM serializes to, what the
// rendered text looks like, and what the page's javascript answers
// when evaluated.
type fakePage struct {
	selectors map[string]bool
	html      string
	text      string
	evals     map[string]any
}

type fakeLauncher struct {
	session *fakeSession
	openErr error
	opens   int
}

func (l *fakeLauncher) Open(ctx context.Context) (browser.Session, error) {
	l.opens++
	if l.openErr != nil {
		return nil, l.openErr
	}
	return l.session, nil
}

// fakeSession scripts a provider site as a url-keyed page map. Clicking
// a selector runs the registered hook, which is how tests model the
// post-submit redirect or an in-place rejection banner.
type fakeSession struct {
	pages      map[string]*fakePage
	currentURL string

	filled  map[string]string
	onClick map[string]func(s *fakeSession)

	// navDelay makes every navigation take this long, to exercise the
	// overall deadline
	navDelay time.Duration

	closes int
}

func newFakeSession(pages map[string]*fakePage) *fakeSession {
	return &fakeSession{
		pages:   pages,
		filled:  map[string]string{},
		onClick: map[string]func(s *fakeSession){},
	}
}

func (s *fakeSession) page() *fakePage {
	p, ok := s.pages[s.currentURL]
	if !ok {
		return &fakePage{}
	}
	return p
}

func (s *fakeSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if s.navDelay > 0 {
		if s.navDelay > timeout {
			return browser.ErrTimeout
		}
		select {
		case <-ctx.Done():
			return browser.ErrTimeout
		case <-time.After(s.navDelay):
		}
	}
	s.currentURL = url
	return nil
}

func (s *fakeSession) CurrentURL() string {
	return s.currentURL
}

func (s *fakeSession) FindVisible(ctx context.Context, selectors []string, timeout time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", browser.ErrTimeout
	}
	for _, sel := range selectors {
		if s.page().selectors[sel] {
			return sel, nil
		}
	}
	return "", browser.ErrNoSelectorMatch
}

func (s *fakeSession) Fill(ctx context.Context, selector, value string) error {
	if !s.page().selectors[selector] {
		return errors.New("fake: fill target not on page")
	}
	s.filled[selector] = value
	return nil
}

func (s *fakeSession) Click(ctx context.Context, selector string) error {
	if !s.page().selectors[selector] {
		return errors.New("fake: click target not on page")
	}
	if hook := s.onClick[selector]; hook != nil {
		hook(s)
	}
	return nil
}

func (s *fakeSession) Content(ctx context.Context) (string, error) {
	return s.page().html, nil
}

func (s *fakeSession) VisibleText(ctx context.Context) (string, error) {
	return s.page().text, nil
}

func (s *fakeSession) Evaluate(ctx context.Context, js string) (any, error) {
	value, ok := s.page().evals[js]
	if !ok {
		return nil, errors.New("fake: expression threw")
	}
	return value, nil
}

func (s *fakeSession) Screenshot(ctx context.Context) ([]byte, error) {
	return []byte("\x89PNG fake"), nil
}

func (s *fakeSession) Close() error {
	s.closes++
	return nil
}
