// Package registry holds the static per-provider configuration used to
// drive monitoring-site imports. The table is immutable once built;
// supporting a new provider means adding one entry here (and, only when
// no existing flow fits its markup, one new extraction flow).
package registry

import (
	"errors"
	"fmt"
	"sort"
)

// Flow names the extraction strategy assigned to a provider. The set is
// closed; dispatch happens on this tag, never on provider name.
type Flow string

const (
	// FlowDirect navigates straight to a known report page URL and runs
	// structural extraction.
	FlowDirect Flow = "direct"
	// FlowSearch locates a report link on the landing page by text match,
	// follows it, then runs structural extraction.
	FlowSearch Flow = "search"
	// FlowHeuristic scans rendered page text for in-range scores. Used
	// for providers whose component-rendered markup has no stable hooks.
	FlowHeuristic Flow = "heuristic"
)

// Bureaus is the canonical display order the monitored sites use for
// the three national bureaus. Heuristic extraction assigns scores in
// this order.
var Bureaus = []string{"transunion", "experian", "equifax"}

// ErrUnknownProvider is returned by Lookup before any browser or
// credential resource is touched.
var ErrUnknownProvider = errors.New("registry: unknown provider")

// FieldSelectors is an ordered fallback list of CSS selectors for one
// form field or page element. Candidates are tried in order and the
// first visible, enabled match wins; third-party markup changes without
// notice, so a single selector is never enough.
type FieldSelectors []string

type ServiceConfig struct {
	Provider string
	// LoginURL is the page carrying the credential form.
	LoginURL string
	// LandingURL is where the site drops the user after login.
	LandingURL string
	// ReportURL is the known report page, when the provider has a stable
	// one. Required for FlowDirect, optional hint for FlowHeuristic.
	ReportURL string

	Username FieldSelectors
	Password FieldSelectors
	// SSNLast4 is empty for providers that do not ask for it.
	SSNLast4 FieldSelectors
	Submit   FieldSelectors

	// ErrorIndicator matches the provider's invalid-credentials banner,
	// used to tell a genuine rejection from a markup change.
	ErrorIndicator string

	// ReportLinkText holds normalized substrings identifying the report
	// affordance for FlowSearch.
	ReportLinkText []string

	// Scores maps bureau name to selector candidates for structural
	// extraction. Providers served purely by FlowHeuristic leave it empty.
	Scores map[string]FieldSelectors

	// ScoreScripts maps bureau name to a JavaScript expression evaluated
	// in the report page when the DOM selectors come up empty. Used for
	// providers that render scores into component state instead of
	// stable markup.
	ScoreScripts map[string]string

	Flow Flow
}

func (c ServiceConfig) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("config has empty provider name")
	}
	if c.LoginURL == "" {
		return fmt.Errorf("%s: empty login url", c.Provider)
	}
	required := map[string]FieldSelectors{
		"username": c.Username,
		"password": c.Password,
		"submit":   c.Submit,
	}
	for field, selectors := range required {
		if len(selectors) == 0 {
			return fmt.Errorf("%s: field %q has no candidate selectors", c.Provider, field)
		}
	}
	switch c.Flow {
	case FlowDirect:
		if c.ReportURL == "" {
			return fmt.Errorf("%s: direct flow requires a report url", c.Provider)
		}
	case FlowSearch:
		if len(c.ReportLinkText) == 0 {
			return fmt.Errorf("%s: search flow requires report link matchers", c.Provider)
		}
	case FlowHeuristic:
	default:
		return fmt.Errorf("%s: unknown flow %q", c.Provider, c.Flow)
	}
	for bureau := range c.Scores {
		if len(c.Scores[bureau]) == 0 {
			return fmt.Errorf("%s: bureau %q has no score selectors", c.Provider, bureau)
		}
	}
	for bureau := range c.ScoreScripts {
		if c.ScoreScripts[bureau] == "" {
			return fmt.Errorf("%s: bureau %q has an empty score script", c.Provider, bureau)
		}
	}
	return nil
}

type Registry struct {
	configs map[string]ServiceConfig
}

func New(configs ...ServiceConfig) (Registry, error) {
	m := make(map[string]ServiceConfig, len(configs))
	for _, c := range configs {
		err := c.Validate()
		if err != nil {
			return Registry{}, err
		}
		if _, exists := m[c.Provider]; exists {
			return Registry{}, fmt.Errorf("duplicate provider %q", c.Provider)
		}
		m[c.Provider] = c
	}
	return Registry{configs: m}, nil
}

func (r Registry) Lookup(provider string) (ServiceConfig, error) {
	c, ok := r.configs[provider]
	if !ok {
		return ServiceConfig{}, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	return c, nil
}

func (r Registry) Providers() []string {
	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
