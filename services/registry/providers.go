package registry

// BuiltIn returns the provider table shipped with the engine. Selector
// lists are ordered: the first entry is the markup observed most
// recently, later entries are older variants kept as fallbacks since
// these sites roll markup changes out gradually.
func BuiltIn() Registry {
	r, err := New(
		ServiceConfig{
			Provider:   "smartcredit",
			LoginURL:   "https://www.smartcredit.com/login/",
			LandingURL: "https://www.smartcredit.com/member/",
			ReportURL:  "https://www.smartcredit.com/member/credit-report/full",
			Username: FieldSelectors{
				"input#j_username",
				"input[name='j_username']",
				"input[type='email']",
			},
			Password: FieldSelectors{
				"input#j_password",
				"input[name='j_password']",
				"input[type='password']",
			},
			Submit: FieldSelectors{
				"button#loginButton",
				"button[type='submit']",
				"input[type='submit']",
			},
			ErrorIndicator: "div.alert-danger",
			Scores: map[string]FieldSelectors{
				"transunion": {"div[data-bureau='TU'] span.score", "div.score-transunion span"},
				"experian":   {"div[data-bureau='EXP'] span.score", "div.score-experian span"},
				"equifax":    {"div[data-bureau='EQF'] span.score", "div.score-equifax span"},
			},
			Flow: FlowDirect,
		},
		ServiceConfig{
			Provider:   "identityiq",
			LoginURL:   "https://member.identityiq.com/login.aspx",
			LandingURL: "https://member.identityiq.com/dashboard.aspx",
			Username: FieldSelectors{
				"input#Username",
				"input[name='Username']",
				"input[ng-model='username']",
			},
			Password: FieldSelectors{
				"input#Password",
				"input[name='Password']",
				"input[ng-model='password']",
			},
			SSNLast4: FieldSelectors{
				"input#SsnLast4",
				"input[name='SsnLast4']",
			},
			Submit: FieldSelectors{
				"button#btnLogin",
				"input[type='submit']",
			},
			ErrorIndicator: "span.validation-summary-errors",
			ReportLinkText: []string{"creditreport", "viewreport", "myreport"},
			Scores: map[string]FieldSelectors{
				"transunion": {"td.score-tuc", "div#tucScore span.score-value"},
				"experian":   {"td.score-exp", "div#expScore span.score-value"},
				"equifax":    {"td.score-eqf", "div#eqfScore span.score-value"},
			},
			Flow: FlowSearch,
		},
		ServiceConfig{
			Provider:   "myscoreiq",
			LoginURL:   "https://member.myscoreiq.com/login.aspx",
			LandingURL: "https://member.myscoreiq.com/dashboard.aspx",
			Username: FieldSelectors{
				"input#Username",
				"input[name='Username']",
			},
			Password: FieldSelectors{
				"input#Password",
				"input[name='Password']",
			},
			SSNLast4: FieldSelectors{
				"input#SsnLast4",
				"input[name='SsnLast4']",
			},
			Submit: FieldSelectors{
				"button#btnLogin",
				"input[type='submit']",
			},
			ErrorIndicator: "span.validation-summary-errors",
			ReportLinkText: []string{"creditreport", "viewreport"},
			Scores: map[string]FieldSelectors{
				"transunion": {"td.score-tuc"},
				"experian":   {"td.score-exp"},
				"equifax":    {"td.score-eqf"},
			},
			Flow: FlowSearch,
		},
		ServiceConfig{
			Provider:   "myfreescorenow",
			LoginURL:   "https://member.myfreescorenow.com/login",
			LandingURL: "https://member.myfreescorenow.com/member",
			ReportURL:  "https://member.myfreescorenow.com/member/credit-report",
			Username: FieldSelectors{
				"input#email",
				"input[name='email']",
				"input[type='email']",
			},
			Password: FieldSelectors{
				"input#password",
				"input[name='password']",
				"input[type='password']",
			},
			Submit: FieldSelectors{
				"button[type='submit']",
				"button.btn-login",
			},
			ErrorIndicator: "div.invalid-feedback",
			// react-rendered score widgets with generated class names; no
			// attribute hook has survived more than a few weeks. The app
			// state object has been stable, so probe it before falling
			// back to scanning rendered text.
			ScoreScripts: map[string]string{
				"transunion": "window.__INITIAL_STATE__?.member?.scores?.tuc ?? null",
				"experian":   "window.__INITIAL_STATE__?.member?.scores?.exp ?? null",
				"equifax":    "window.__INITIAL_STATE__?.member?.scores?.eqf ?? null",
			},
			Flow: FlowHeuristic,
		},
		ServiceConfig{
			Provider:   "privacyguard",
			LoginURL:   "https://www.privacyguard.com/member/login",
			LandingURL: "https://www.privacyguard.com/member/home",
			Username: FieldSelectors{
				"input#loginId",
				"input[name='loginId']",
			},
			Password: FieldSelectors{
				"input#password",
				"input[name='password']",
			},
			Submit: FieldSelectors{
				"button#signIn",
				"button[type='submit']",
			},
			ErrorIndicator: "p.error-message",
			ReportLinkText: []string{"creditreport", "viewmyreport", "creditscores"},
			Flow:           FlowSearch,
		},
	)
	if err != nil {
		// the built-in table is validated by tests; reaching this means a
		// bad edit shipped
		panic(err)
	}
	return r
}
