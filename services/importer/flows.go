package importer

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"creditwatch-backend/lib/browser"
	"creditwatch-backend/lib/htmlutil"
	"creditwatch-backend/lib/textutil"
	"creditwatch-backend/services/registry"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// how many edits of slack to give report-link labels; providers reword
// these constantly ("View Report", "View Reports", "My Credit Report")
const linkMatchTolerance = 2

// position moves the session from the post-login landing page to the
// report view, according to the provider's flow tag. Dispatch happens
// on the closed flow set: supporting a new provider is a registry data
// change unless its markup genuinely needs a new strategy.
func (s Service) position(ctx context.Context, sess browser.Session, cfg registry.ServiceConfig) *Error {
	ctx, span := tracer.Start(ctx, "position")
	defer span.End()
	span.SetAttributes(attribute.String("flow", string(cfg.Flow)))

	switch cfg.Flow {
	case registry.FlowDirect:
		err := sess.Navigate(ctx, cfg.ReportURL, s.opts.NavigationWait)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to reach report page")
			return classify(StepNavigation, err)
		}
		return nil

	case registry.FlowSearch:
		return s.followReportLink(ctx, sess, cfg)

	case registry.FlowHeuristic:
		if cfg.ReportURL == "" {
			// scores live on the landing page itself
			return nil
		}
		err := sess.Navigate(ctx, cfg.ReportURL, s.opts.NavigationWait)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to reach report page")
			return classify(StepNavigation, err)
		}
		return nil
	}

	// unreachable for validated configs
	return &Error{Category: CategoryUnexpected, Step: StepNavigation}
}

// followReportLink finds the "credit report" affordance on the landing
// page by text match and follows it.
func (s Service) followReportLink(ctx context.Context, sess browser.Session, cfg registry.ServiceConfig) *Error {
	ctx, span := tracer.Start(ctx, "followReportLink")
	defer span.End()

	html, err := sess.Content(ctx)
	if err != nil {
		return classify(StepNavigation, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return classify(StepNavigation, err)
	}

	base, err := url.Parse(sess.CurrentURL())
	if err != nil {
		base = nil
	}
	anchors := htmlutil.GetAnchors(ctx, doc.Find("a"), base)

	for _, anchor := range anchors {
		if anchor.Href == "" {
			continue
		}
		if !textutil.FuzzyMatchName(anchor.Name, cfg.ReportLinkText, linkMatchTolerance) {
			continue
		}
		slog.DebugContext(ctx, "found report link",
			"provider", cfg.Provider,
			"name", anchor.Name,
			"href", anchor.Href,
		)
		err := sess.Navigate(ctx, anchor.Href, s.opts.NavigationWait)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to follow report link")
			return classify(StepNavigation, err)
		}
		return nil
	}

	// the affordance itself is part of the provider's markup; losing it
	// is the same operator signal as a lost form field
	span.SetStatus(codes.Error, "no report link matched")
	return selectorNotFound(StepNavigation, "report_link")
}

// extract runs the strategy chain in descending order of confidence:
// structural DOM queries, then targeted script evaluation, then
// heuristic text scanning. May return an empty map; the orchestrator
// decides what zero scores means.
func (s Service) extract(ctx context.Context, sess browser.Session, cfg registry.ServiceConfig) (map[string]int, *Error) {
	ctx, span := tracer.Start(ctx, "extract")
	defer span.End()

	html, err := sess.Content(ctx)
	if err != nil {
		return nil, classify(StepExtraction, err)
	}
	scores, err := extractStructural(cfg, html)
	if err != nil {
		return nil, classify(StepExtraction, err)
	}
	if len(scores) > 0 {
		span.SetAttributes(
			attribute.String("strategy", "structural"),
			attribute.Int("scores", len(scores)),
		)
		return scores, nil
	}

	scores = extractScripted(ctx, sess, cfg)
	if len(scores) > 0 {
		span.SetAttributes(
			attribute.String("strategy", "scripted"),
			attribute.Int("scores", len(scores)),
		)
		return scores, nil
	}

	text, err := sess.VisibleText(ctx)
	if err != nil {
		return nil, classify(StepExtraction, err)
	}
	scores = extractHeuristicText(text)
	span.SetAttributes(
		attribute.String("strategy", "heuristic_text"),
		attribute.Int("scores", len(scores)),
	)
	return scores, nil
}
