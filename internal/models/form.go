package models

import "strings"

// ControlKind is the tagged variant over writable form controls.
type ControlKind string

const (
	KindText          ControlKind = "text"
	KindLongText      ControlKind = "long-text"
	KindNumber        ControlKind = "number"
	KindDate          ControlKind = "date"
	KindEmail         ControlKind = "email"
	KindTelephone     ControlKind = "telephone"
	KindSelect        ControlKind = "select-one"
	KindRadioGroup    ControlKind = "radio-group"
	KindCheckbox      ControlKind = "single-checkbox"
	KindCheckboxGroup ControlKind = "checkbox-group"
)

// Selectable reports whether the kind carries an option set.
func (k ControlKind) Selectable() bool {
	return k == KindSelect || k == KindRadioGroup || k == KindCheckboxGroup
}

// Grouped reports whether the kind is made of one control per option.
func (k ControlKind) Grouped() bool {
	return k == KindRadioGroup || k == KindCheckboxGroup
}

type Option struct {
	Text  string `json:"text"`
	Value string `json:"value"`
}

type Constraints struct {
	Required bool   `json:"required,omitempty"`
	Min      string `json:"min,omitempty"`
	Max      string `json:"max,omitempty"`
	Step     string `json:"step,omitempty"`
	Pattern  string `json:"pattern,omitempty"`
}

// FieldDescriptor is the runtime view of one question inside a wizard step.
type FieldDescriptor struct {
	Question    string      `json:"question"`
	Kind        ControlKind `json:"kind"`
	Options     []Option    `json:"options,omitempty"`
	Constraints Constraints `json:"constraints"`
	Prefilled   bool        `json:"prefilled,omitempty"`
	InputID     string      `json:"input_id,omitempty"`
}

func (f FieldDescriptor) OptionTexts() []string {
	out := make([]string, 0, len(f.Options))
	for _, o := range f.Options {
		out = append(out, o.Text)
	}
	return out
}

// AnswerType is the shape the oracle must produce.
type AnswerType string

const (
	AnswerText      AnswerType = "text"
	AnswerNumber    AnswerType = "number"
	AnswerDate      AnswerType = "date"
	AnswerEmail     AnswerType = "email"
	AnswerPhone     AnswerType = "phone"
	AnswerSelection AnswerType = "selection"
	AnswerBoolean   AnswerType = "boolean"
)

type AnswerFormatSpec struct {
	Type        AnswerType `json:"type"`
	Options     []string   `json:"options,omitempty"`
	Constraints string     `json:"constraints,omitempty"`
}

// String renders the spec for the oracle prompt.
func (s AnswerFormatSpec) String() string {
	var b strings.Builder
	b.WriteString("Answer format: ")
	b.WriteString(string(s.Type))
	b.WriteString(".")
	if len(s.Options) > 0 {
		b.WriteString(" Must be one of: ")
		b.WriteString(strings.Join(s.Options, ", "))
		b.WriteString(".")
	}
	if s.Constraints != "" {
		b.WriteString(" ")
		b.WriteString(s.Constraints)
	}
	return b.String()
}

type QuestionCategory string

const (
	CategoryExperience QuestionCategory = "experience"
	CategoryDate       QuestionCategory = "date"
	CategorySalary     QuestionCategory = "salary"
	CategoryCommute    QuestionCategory = "commute"
	CategoryMotivation QuestionCategory = "motivation"
	CategoryOther      QuestionCategory = "other"
)

type AnswerSource string

const (
	SourceHardcoded AnswerSource = "hardcoded"
	SourceOracle    AnswerSource = "oracle"
	SourceFallback  AnswerSource = "fallback"
)

// QAEntry is one collected answer for the current job.
type QAEntry struct {
	Question         string           `json:"question"`
	Answer           string           `json:"answer"`
	Category         QuestionCategory `json:"category"`
	Source           AnswerSource     `json:"source"`
	Confidence       float64          `json:"confidence"`
	Model            string           `json:"model,omitempty"`
	Skipped          bool             `json:"skipped,omitempty"`
	WasCorrected     bool             `json:"was_corrected,omitempty"`
	OriginalAnswer   string           `json:"original_answer,omitempty"`
	CorrectionReason string           `json:"correction_reason,omitempty"`
	ValidationNote   string           `json:"validation_note,omitempty"`
}
