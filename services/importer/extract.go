package importer

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"creditwatch-backend/lib/browser"
	"creditwatch-backend/lib/htmlutil"
	"creditwatch-backend/services/registry"

	"github.com/PuerkitoBio/goquery"
)

// valid FICO-range bounds; anything outside is rejected at this layer
// so page numbers and dollar amounts can never reach persistence
const (
	minScore = 300
	maxScore = 850
)

func validScore(n int) bool {
	return n >= minScore && n <= maxScore
}

var threeDigits = regexp.MustCompile(`\b(\d{3})\b`)

// extractStructural pulls per-bureau scores out of the serialized page
// using the provider's configured DOM patterns, trying each candidate
// selector in order. Higher confidence than text scanning, so it always
// runs first.
func extractStructural(cfg registry.ServiceConfig, html string) (map[string]int, error) {
	if len(cfg.Scores) == 0 {
		return nil, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	scores := map[string]int{}
	for bureau, selectors := range cfg.Scores {
		for _, selector := range selectors {
			sel := doc.Find(selector).First()
			if sel.Length() == 0 {
				continue
			}
			text := htmlutil.CleanText(sel.Text())
			match := threeDigits.FindString(text)
			if match == "" {
				continue
			}
			n, err := strconv.Atoi(match)
			if err != nil || !validScore(n) {
				continue
			}
			scores[bureau] = n
			break
		}
	}
	return scores, nil
}

// extractScripted evaluates per-bureau JavaScript in the live page.
// Sits between structural queries and text scanning in confidence: it
// reads real application state, but depends on provider internals that
// change without notice. A script that throws or returns something
// unusable costs that bureau only, never the run.
func extractScripted(ctx context.Context, sess browser.Session, cfg registry.ServiceConfig) map[string]int {
	scores := map[string]int{}
	for bureau, script := range cfg.ScoreScripts {
		value, err := sess.Evaluate(ctx, script)
		if err != nil {
			slog.DebugContext(ctx, "score script failed",
				"provider", cfg.Provider, "bureau", bureau, "error", err)
			continue
		}
		n, ok := scoreValue(value)
		if !ok || !validScore(n) {
			continue
		}
		scores[bureau] = n
	}
	return scores
}

// scoreValue coerces whatever the page's javascript returned into an
// integer. Drivers hand numbers back as float64; some providers keep
// scores as strings in their state objects.
func scoreValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	case string:
		match := threeDigits.FindString(n)
		if match == "" {
			return 0, false
		}
		parsed, err := strconv.Atoi(match)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

// extractHeuristicText scans rendered page text for distinct three-digit
// numbers in the valid score range and assigns the first three to the
// bureaus in their canonical display order. Deliberately approximate:
// it trades precision for resilience against markup churn, and it will
// misattribute scores if a provider ever reorders its display. That is
// a known accuracy limitation, not something to fix here without
// verifying the live site.
func extractHeuristicText(text string) map[string]int {
	matches := threeDigits.FindAllString(text, -1)

	seen := map[int]bool{}
	var found []int
	for _, m := range matches {
		n, err := strconv.Atoi(m)
		if err != nil || !validScore(n) {
			continue
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		found = append(found, n)
		if len(found) == len(registry.Bureaus) {
			break
		}
	}

	scores := map[string]int{}
	for i, n := range found {
		scores[registry.Bureaus[i]] = n
	}
	return scores
}
