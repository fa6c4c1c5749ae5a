package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("creditwatch.lib.browser")

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// PlaywrightLauncher keeps one browser process alive and hands out an
// isolated context per Open call.
type PlaywrightLauncher struct {
	pw      *playwright.Playwright
	browser playwright.Browser
}

func NewPlaywrightLauncher(headless bool) (*PlaywrightLauncher, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	return &PlaywrightLauncher{pw: pw, browser: b}, nil
}

func (l *PlaywrightLauncher) Open(ctx context.Context) (Session, error) {
	ctx, span := tracer.Start(ctx, "Open")
	defer span.End()

	browserCtx, err := l.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(userAgent),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to allocate browser context")
		return nil, err
	}
	page, err := browserCtx.NewPage()
	if err != nil {
		browserCtx.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open page")
		return nil, err
	}
	return &playwrightSession{browserCtx: browserCtx, page: page}, nil
}

func (l *PlaywrightLauncher) Shutdown() error {
	err := l.browser.Close()
	stopErr := l.pw.Stop()
	if err != nil {
		return err
	}
	return stopErr
}

type playwrightSession struct {
	browserCtx playwright.BrowserContext
	page       playwright.Page

	closeOnce sync.Once
	closeErr  error
}

func wrapTimeout(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %s", ErrTimeout, err.Error())
	}
	return err
}

func (s *playwrightSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	ctx, span := tracer.Start(ctx, "Navigate")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s", ErrTimeout, err.Error())
	}
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "navigation failed")
	}
	return wrapTimeout(err)
}

func (s *playwrightSession) CurrentURL() string {
	return s.page.URL()
}

func (s *playwrightSession) FindVisible(ctx context.Context, selectors []string, timeout time.Duration) (string, error) {
	ctx, span := tracer.Start(ctx, "FindVisible")
	defer span.End()

	if len(selectors) == 0 {
		return "", ErrNoSelectorMatch
	}
	perCandidate := timeout / time.Duration(len(selectors))

	for _, selector := range selectors {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %s", ErrTimeout, err.Error())
		}

		loc := s.page.Locator(selector).First()
		err := loc.WaitFor(playwright.LocatorWaitForOptions{
			State:   playwright.WaitForSelectorStateVisible,
			Timeout: playwright.Float(float64(perCandidate.Milliseconds())),
		})
		if err != nil {
			span.AddEvent("selector missed", attributeEvent(selector))
			continue
		}
		enabled, err := loc.IsEnabled()
		if err != nil || !enabled {
			span.AddEvent("selector disabled", attributeEvent(selector))
			continue
		}

		span.SetAttributes(attribute.String("matched", selector))
		return selector, nil
	}

	span.SetStatus(codes.Error, "selector candidates exhausted")
	return "", ErrNoSelectorMatch
}

func (s *playwrightSession) Fill(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s", ErrTimeout, err.Error())
	}
	return wrapTimeout(s.page.Locator(selector).First().Fill(value))
}

func (s *playwrightSession) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s", ErrTimeout, err.Error())
	}
	return wrapTimeout(s.page.Locator(selector).First().Click())
}

func (s *playwrightSession) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %s", ErrTimeout, err.Error())
	}
	content, err := s.page.Content()
	return content, wrapTimeout(err)
}

func (s *playwrightSession) VisibleText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %s", ErrTimeout, err.Error())
	}
	text, err := s.page.Locator("body").InnerText()
	return text, wrapTimeout(err)
}

func (s *playwrightSession) Evaluate(ctx context.Context, js string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTimeout, err.Error())
	}
	result, err := s.page.Evaluate(js)
	return result, wrapTimeout(err)
}

func (s *playwrightSession) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTimeout, err.Error())
	}
	buf, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
	})
	return buf, wrapTimeout(err)
}

func (s *playwrightSession) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.browserCtx.Close()
	})
	return s.closeErr
}

func attributeEvent(selector string) trace.SpanStartEventOption {
	return trace.WithAttributes(attribute.String("selector", selector))
}
