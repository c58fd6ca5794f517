package site

import "go-autoapply/internal/models"

// LinkedIn is the Easy Apply vocabulary.
func LinkedIn() *Adapter {
	return &Adapter{
		Site:      models.SiteLinkedIn,
		Origins:   []string{"linkedin.com"},
		SearchURL: "https://www.linkedin.com/jobs/search/?keywords=golang&f_AL=true",

		ApplyNow: []Rule{
			{Selector: "button.jobs-apply-button"},
			{Selector: "button", Texts: []string{"Easy Apply", "Einfach bewerben"}},
		},
		ContinueApplication: []Rule{
			{Selector: "button", Texts: []string{"Continue applying", "Continue application", "Bewerbung fortsetzen"}},
		},
		NextStep: []Rule{
			{Selector: `button[aria-label="Continue to next step"]`},
			{Selector: `button[aria-label="Review your application"]`},
			{Selector: "button", Texts: []string{"Next", "Review", "Weiter", "Überprüfen"}},
		},
		FinalSubmit: []Rule{
			{Selector: `button[aria-label="Submit application"]`},
			{Selector: "button", Texts: []string{"Submit application", "Bewerbung senden"}},
		},

		AlreadyApplied: []Rule{
			{Selector: ".jobs-s-apply .artdeco-inline-feedback--success"},
			{Selector: ".post-apply-timeline__entity, .jobs-details-top-card__apply-status", Texts: []string{"Applied", "Beworben"}},
		},
		Unavailable: []Rule{
			{Selector: ".jobs-details-top-card__apply-error"},
			{Selector: ".artdeco-inline-feedback--error", Texts: []string{"No longer accepting applications", "Nimmt keine Bewerbungen mehr an"}},
		},

		QuestionContainers: []string{
			".jobs-easy-apply-form-section__grouping",
			".fb-dash-form-element",
			"fieldset",
			".jobs-easy-apply-form-element",
			"form div",
		},
		ValidationFeedback: []string{
			`[id$="-error"]`,
			".artdeco-inline-feedback__message",
			`[role="alert"]`,
		},
		FormIndicators: []string{
			".jobs-easy-apply-modal",
			".jobs-easy-apply-content",
			"form input:not([type=hidden])",
			"form select",
		},

		SkipList: []string{
			"first name", "last name", "email", "e-mail",
			"phone", "mobile", "country code", "landervorwahl",
		},

		ApplicationPath:    "/apply/",
		ConfirmationPath:   "/post-apply",
		ApplicationIDParam: "applicationId",

		Listing: ListingSelectors{
			Card:      "li.scaffold-layout__list-item, li.jobs-search-results__list-item",
			Link:      "a.job-card-container__link",
			Title:     ".job-card-list__title, a.job-card-container__link",
			Company:   ".artdeco-entity-lockup__subtitle",
			Location:  ".job-card-container__metadata-wrapper",
			IDAttr:    "data-occludable-job-id",
			NextPage:  `button[aria-label="View next page"]`,
			LastPage:  ".artdeco-pagination__pages li:last-child",
			PageParam: "start",
			PageSize:  25,
		},
	}
}
