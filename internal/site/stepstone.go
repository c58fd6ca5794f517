package site

import "go-autoapply/internal/models"

// StepStone is the German job board's vocabulary.
func StepStone() *Adapter {
	return &Adapter{
		Site:      models.SiteStepStone,
		Origins:   []string{"stepstone.de"},
		SearchURL: "https://www.stepstone.de/jobs/golang-developer",

		ApplyNow: []Rule{
			{Selector: `[data-at="apply-button"]`},
			{Selector: `[data-testid="harmonised-apply-button"]`},
			{Selector: "button, a", Texts: []string{"Ich bin interessiert", "Jetzt bewerben", "Apply now"}},
		},
		ContinueApplication: []Rule{
			{Selector: `[data-testid="continue-application"]`},
			{Selector: "button, a", Texts: []string{"Bewerbung fortsetzen", "Continue application"}},
		},
		NextStep: []Rule{
			{Selector: `[data-testid="next-step"]`},
			{Selector: `[data-testid="sc-next-button"]`},
			{Selector: "button", Texts: []string{"Weiter", "Next", "Continue"}},
		},
		FinalSubmit: []Rule{
			{Selector: `[data-testid="submit-application"]`},
			{Selector: `[data-testid="sc-submit-button"]`},
			{Selector: "button[type=submit]", Texts: []string{"Bewerbung senden", "Absenden", "Submit", "Send application"}},
			{Selector: "button", Texts: []string{"Bewerbung senden", "Absenden", "Submit application", "Send application"}},
		},

		AlreadyApplied: []Rule{
			{Selector: `[data-testid="already-applied"]`},
			{Selector: `[data-at="applied-badge"]`},
			{Selector: "p, span, div[role=status]", Texts: []string{"bereits beworben", "already applied"}},
		},
		Unavailable: []Rule{
			{Selector: `[data-testid="job-expired"]`},
			{Selector: "h1, h2, p", Texts: []string{"nicht mehr verfügbar", "no longer available"}},
		},

		QuestionContainers: []string{
			`[data-testid="question"]`,
			`[data-testid*="question-container"]`,
			"fieldset",
			".form-group",
			"form div",
		},
		ValidationFeedback: []string{
			`[id$="-feedback"]`,
			".invalid-feedback",
			`[data-testid="error-message"]`,
			`[role="alert"]`,
		},
		FormIndicators: []string{
			`[data-testid="application-form"]`,
			"form input:not([type=hidden])",
			"form select",
			"form textarea",
		},

		SkipList: []string{
			"vorname", "nachname", "first name", "last name", "full name",
			"e-mail", "email",
			"telefon", "phone", "mobil",
			"landervorwahl", "vorwahl", "country code",
		},

		ApplicationPath:    "/application/",
		ConfirmationPath:   "/application/confirmation/success",
		ApplicationIDParam: "applicationId",

		Listing: ListingSelectors{
			Card:      `article[data-at="job-item"]`,
			Link:      `a[data-at="job-item-title"]`,
			Title:     `[data-at="job-item-title"]`,
			Company:   `[data-at="job-item-company-name"]`,
			Location:  `[data-at="job-item-location"]`,
			IDAttr:    "id",
			NextPage:  `a[aria-label="Nächste"], a[data-at="pagination-next"]`,
			LastPage:  `[data-at="pagination"] li:last-child`,
			PageParam: "page",
		},
	}
}
