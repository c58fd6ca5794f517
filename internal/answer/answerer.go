// Package answer decides, per field, whether to skip it, answer it from a
// hard-coded rule or ask the oracle, then writes the answer and applies a
// one-shot correction from the site's validation feedback.
package answer

import (
	"context"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"

	"go-autoapply/internal/ai"
	"go-autoapply/internal/config"
	"go-autoapply/internal/dom"
	"go-autoapply/internal/form"
	"go-autoapply/internal/models"
	"go-autoapply/internal/site"
)

const fallbackConfidence = 0.5

type Answerer struct {
	Adapter    *site.Adapter
	Oracle     ai.Oracle
	Writer     *form.Writer
	Policy     config.PolicyConfig
	Profile    models.Profile
	ProfileKey string
	Logger     arbor.ILogger
	Now        func() time.Time
}

// Handle answers one field. It returns nil when the field is skipped.
// A retry asks the oracle afresh; hard-coded questions keep their rule.
func (a *Answerer) Handle(ctx context.Context, page dom.Page, f *form.Field, retry bool) *models.QAEntry {
	d := f.Descriptor
	if a.Adapter.ShouldSkip(d.Question) {
		a.Logger.Debug().Str("question", d.Question).Msg("⏭️ skipped, site pre-fills it")
		return nil
	}

	entry := &models.QAEntry{
		Question: d.Question,
		Category: Categorize(d.Question),
	}

	if rule := MatchRule(d.Question); rule != RuleNone {
		entry.Answer = a.hardcoded(rule, d)
		entry.Source = models.SourceHardcoded
		entry.Confidence = 1
		a.Logger.Debug().Str("question", d.Question).Str("rule", string(rule)).Str("answer", entry.Answer).Msg("hard-coded answer")
	} else {
		a.ask(ctx, d, entry, retry)
	}

	if entry.Answer == "" {
		a.correct(ctx, page, f, entry, form.Result{Error: "no answer available", ConstraintType: form.ConstraintRequired})
		return entry
	}

	res := a.Writer.Write(ctx, page, f, entry.Answer)
	if res.OK {
		return entry
	}
	a.correct(ctx, page, f, entry, res)
	return entry
}

// ask fills entry from the oracle, or from the category fallback when the
// oracle fails.
func (a *Answerer) ask(ctx context.Context, d models.FieldDescriptor, entry *models.QAEntry, retry bool) {
	spec := FormatSpecFor(d)
	resp, err := a.Oracle.Answer(ctx, ai.Request{
		Question:   d.Question,
		Options:    spec.Options,
		FormatSpec: spec.String(),
		ProfileKey: a.ProfileKey,
	})
	if err != nil {
		a.Logger.Warn().Err(err).Str("question", d.Question).Bool("retry", retry).Msg("oracle failed, using fallback")
		entry.Answer = fallback(d, entry.Category)
		entry.Source = models.SourceFallback
		entry.Confidence = fallbackConfidence
		return
	}

	entry.Answer = a.normalize(d, spec, resp.Answer)
	entry.Source = models.SourceOracle
	entry.Confidence = resp.Confidence
	entry.Model = resp.Model
}

// normalize shapes an oracle answer to the field's type.
func (a *Answerer) normalize(d models.FieldDescriptor, spec models.AnswerFormatSpec, answer string) string {
	switch d.Kind {
	case models.KindDate:
		iso, _ := form.NormalizeDate(answer, a.now(), a.Policy.StartDateMonths)
		return iso
	case models.KindSelect, models.KindRadioGroup:
		opts := d.OptionTexts()
		if spec.Type == models.AnswerBoolean {
			if p := polarity(answer); p != 0 {
				if i := polarOption(opts, p > 0); i >= 0 {
					return opts[i]
				}
			}
		}
		if i := form.MatchSelectOption(answer, d.Options); i >= 0 {
			return opts[i]
		}
	}
	return answer
}

// fallback picks an option by category when the oracle is unavailable.
func fallback(d models.FieldDescriptor, category models.QuestionCategory) string {
	opts := d.OptionTexts()
	if d.Kind == models.KindCheckbox {
		return "Yes"
	}
	if len(opts) == 0 {
		return ""
	}
	switch category {
	case models.CategoryExperience:
		return opts[len(opts)/2]
	case models.CategoryCommute:
		if i := polarOption(opts, true); i >= 0 {
			return opts[i]
		}
	}
	return opts[0]
}

// correct applies at most one rewrite driven by the feedback constraint.
func (a *Answerer) correct(ctx context.Context, page dom.Page, f *form.Field, entry *models.QAEntry, res form.Result) {
	replacement, reason := "", ""
	switch res.ConstraintType {
	case form.ConstraintMin:
		floor, err := strconv.ParseFloat(res.ConstraintValue, 64)
		got, ok := form.ParseNumber(entry.Answer)
		if ok && err == nil {
			if n, err := strconv.ParseFloat(got, 64); err == nil && n < floor {
				replacement = res.ConstraintValue
				reason = "minimum " + res.ConstraintValue
			}
		}
	case form.ConstraintRequired:
		if entry.Answer == "" && len(f.Descriptor.Options) > 0 {
			replacement = f.Descriptor.Options[0].Text
			reason = "required"
		}
	}

	if replacement == "" {
		entry.ValidationNote = res.Error
		a.Logger.Warn().Str("question", entry.Question).Str("feedback", res.Error).Msg("validation error kept")
		return
	}

	a.Logger.Info().Str("question", entry.Question).Str("from", entry.Answer).Str("to", replacement).Msg("🔧 correcting answer")
	entry.WasCorrected = true
	entry.OriginalAnswer = entry.Answer
	entry.CorrectionReason = reason
	entry.Answer = replacement

	if again := a.Writer.Write(ctx, page, f, replacement); !again.OK {
		entry.ValidationNote = again.Error
	}
}
