package answer

import (
	"strings"
	"time"

	"go-autoapply/internal/dom"
	"go-autoapply/internal/form"
	"go-autoapply/internal/models"
)

var (
	startDateWords  = []string{"start date", "startdatum", "eintrittstermin", "eintrittsdatum", "fruhest", "earliest start", "when can you start", "available to start", "ab wann", "verfugbar ab", "starttermin"}
	experienceWords = []string{"years of experience", "years of professional experience", "years experience", "jahre berufserfahrung", "jahre erfahrung", "jahren erfahrung", "how many years", "wie viele jahre", "wie viel jahre"}
	commuteWords    = []string{"commut", "pendeln", "pendel", "anfahrt"}
	immediateWords  = []string{"immediately", "immediate", "sofort"}
	salutationWords = []string{"salutation", "anrede"}
	salaryWords     = []string{"salary", "gehalt", "compensation", "vergutung", "jahresbrutto", "brutto"}
	negotiableWords = []string{"negotiab", "verhandelbar", "verhandlungs", "verhandeln", "flexib"}
	germanWords     = []string{" sie ", " du ", " bist ", " sind ", " bereit", " ihre ", " deine ", "pendeln", "konnen", "wie viele", "jahre"}

	affirmatives = []string{"yes", "ja", "oui", "si", "true", "y"}
	negativesSet = []string{"no", "nein", "non", "false", "n"}
)

// Rule is a hard-coded answer keyed on question wording.
type Rule string

const (
	RuleNone       Rule = ""
	RuleStartDate  Rule = "start-date"
	RuleExperience Rule = "years-of-experience"
	RuleCommute    Rule = "commute"
	RuleImmediate  Rule = "immediate-availability"
	RuleSalutation Rule = "salutation"
	RuleSalary     Rule = "salary-figure"
	RuleNegotiable Rule = "salary-negotiability"
)

// MatchRule returns the first hard-coded rule the question falls under.
func MatchRule(question string) Rule {
	q := " " + dom.Fold(dom.CollapseSpace(question)) + " "
	salary := containsAny(q, salaryWords)
	switch {
	case containsAny(q, startDateWords):
		return RuleStartDate
	case containsAny(q, experienceWords):
		return RuleExperience
	case containsAny(q, commuteWords):
		return RuleCommute
	case containsAny(q, immediateWords):
		return RuleImmediate
	case containsAny(q, salutationWords):
		return RuleSalutation
	case salary && !containsAny(q, negotiableWords):
		return RuleSalary
	case salary:
		return RuleNegotiable
	}
	return RuleNone
}

// hardcoded produces the rule's answer for the field.
func (a *Answerer) hardcoded(rule Rule, f models.FieldDescriptor) string {
	p := a.Policy
	switch rule {
	case RuleStartDate:
		return form.AddMonths(a.now(), p.StartDateMonths).Format("2006-01-02")
	case RuleExperience:
		return p.YearsOfExperience
	case RuleCommute:
		if i := polarOption(f.OptionTexts(), true); i >= 0 {
			return f.Options[i].Text
		}
		if looksGerman(f.Question) {
			return p.CommuteAnswerDE
		}
		return p.CommuteAnswer
	case RuleImmediate:
		if i := polarOption(f.OptionTexts(), true); i >= 0 {
			return f.Options[i].Text
		}
		return p.Availability
	case RuleSalutation:
		return p.Salutation
	case RuleSalary:
		if a.Profile.SalaryExpectation != "" {
			return a.Profile.SalaryExpectation
		}
		return p.SalaryDefault
	case RuleNegotiable:
		if i := polarOption(f.OptionTexts(), true); i >= 0 {
			return f.Options[i].Text
		}
		return p.NegotiableFallback
	}
	return ""
}

// Categorize labels a question for the QA record.
func Categorize(question string) models.QuestionCategory {
	q := dom.Fold(question)
	switch {
	case containsAny(q, commuteWords), containsAny(q, []string{"relocat", "umzug", "umziehen"}):
		return models.CategoryCommute
	case containsAny(q, salaryWords):
		return models.CategorySalary
	case containsAny(q, []string{"experience", "erfahrung", "years", "jahre"}):
		return models.CategoryExperience
	case containsAny(q, startDateWords), containsAny(q, []string{"date", "datum", "verfugbar", "available", "notice"}):
		return models.CategoryDate
	case containsAny(q, []string{"motivation", "why ", "warum", "cover letter", "anschreiben", "interest"}):
		return models.CategoryMotivation
	}
	return models.CategoryOther
}

// FormatSpecFor derives the answer shape the oracle must produce.
func FormatSpecFor(f models.FieldDescriptor) models.AnswerFormatSpec {
	spec := models.AnswerFormatSpec{Type: models.AnswerText}
	switch f.Kind {
	case models.KindNumber:
		spec.Type = models.AnswerNumber
	case models.KindDate:
		spec.Type = models.AnswerDate
	case models.KindEmail:
		spec.Type = models.AnswerEmail
	case models.KindTelephone:
		spec.Type = models.AnswerPhone
	case models.KindCheckbox:
		spec.Type = models.AnswerBoolean
	case models.KindSelect, models.KindRadioGroup, models.KindCheckboxGroup:
		spec.Options = f.OptionTexts()
		spec.Type = models.AnswerSelection
		if IsBoolean(spec.Options) {
			spec.Type = models.AnswerBoolean
		}
	}

	var notes []string
	if f.Constraints.Required {
		notes = append(notes, "Required.")
	}
	if f.Constraints.Min != "" {
		notes = append(notes, "Minimum "+f.Constraints.Min+".")
	}
	if f.Constraints.Max != "" {
		notes = append(notes, "Maximum "+f.Constraints.Max+".")
	}
	if f.Constraints.Pattern != "" {
		notes = append(notes, "Pattern: "+f.Constraints.Pattern+".")
	}
	switch f.Kind {
	case models.KindDate:
		notes = append(notes, "Use YYYY-MM-DD.")
	case models.KindNumber:
		notes = append(notes, "Digits only.")
	case models.KindCheckboxGroup:
		notes = append(notes, "Several options may be chosen, comma separated.")
	}
	spec.Constraints = strings.Join(notes, " ")
	return spec
}

// IsBoolean reports whether an option set of at most three entries holds a
// yes/no pair in any supported language.
func IsBoolean(options []string) bool {
	if len(options) == 0 || len(options) > 3 {
		return false
	}
	return polarOption(options, true) >= 0 && polarOption(options, false) >= 0
}

// polarOption finds the affirmative (or negative) option.
func polarOption(options []string, positive bool) int {
	set := negativesSet
	if positive {
		set = affirmatives
	}
	for i, o := range options {
		word := firstWord(o)
		for _, s := range set {
			if word == s {
				return i
			}
		}
	}
	return -1
}

// polarity classifies a free answer as yes (1), no (-1) or neither (0).
func polarity(answer string) int {
	w := firstWord(answer)
	for _, s := range affirmatives {
		if w == s {
			return 1
		}
	}
	for _, s := range negativesSet {
		if w == s {
			return -1
		}
	}
	return 0
}

func firstWord(s string) string {
	fields := strings.FieldsFunc(dom.Fold(s), func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '!' || r == '(' || r == ')' || r == '/' || r == '-'
	})
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func looksGerman(question string) bool {
	q := " " + dom.Fold(dom.CollapseSpace(question)) + " "
	return containsAny(q, germanWords) || strings.ContainsAny(question, "äöüÄÖÜß")
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func (a *Answerer) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}
