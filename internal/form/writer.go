package form

import (
	"context"
	"fmt"
	"time"

	"go-autoapply/internal/dom"
	"go-autoapply/internal/models"
	"go-autoapply/internal/site"
)

// Writer writes answers using each control kind's input protocol and reads
// the site's feedback afterwards.
type Writer struct {
	Adapter *site.Adapter
	// Settle is the pause between writing and reading feedback.
	Settle time.Duration
	// IntraField separates clicks inside one checkbox group.
	IntraField time.Duration
	// DateFallbackMonths is used when a date answer cannot be parsed.
	DateFallbackMonths int
	Now                func() time.Time
}

// Write applies answer to the field and reports the resulting feedback.
// Failures are reported in the result, never returned.
func (w *Writer) Write(ctx context.Context, page dom.Page, f *Field, answer string) Result {
	if err := w.write(ctx, f, answer); err != nil {
		return Result{OK: false, Error: err.Error()}
	}
	if err := sleep(ctx, w.Settle); err != nil {
		return Result{OK: false, Error: err.Error()}
	}
	return w.Feedback(page, f)
}

// Feedback reads the live validation message for the field.
func (w *Writer) Feedback(page dom.Page, f *Field) Result {
	if w.Adapter == nil {
		return Result{OK: true}
	}
	return ResultFromFeedback(w.Adapter.FeedbackFor(page, f.Container, f.Primary()))
}

func (w *Writer) write(ctx context.Context, f *Field, answer string) error {
	primary := f.Primary()
	if primary == nil {
		return fmt.Errorf("field %q has no control", f.Descriptor.Question)
	}

	switch f.Descriptor.Kind {
	case models.KindText, models.KindLongText, models.KindEmail, models.KindTelephone:
		return primary.Fill(ctx, answer)

	case models.KindNumber:
		n, ok := ParseNumber(answer)
		if !ok {
			return fmt.Errorf("answer %q is not a number", answer)
		}
		return primary.Fill(ctx, n)

	case models.KindDate:
		d, _ := NormalizeDate(answer, w.now(), w.DateFallbackMonths)
		return primary.SetValue(ctx, d)

	case models.KindSelect:
		i := MatchSelectOption(answer, f.Descriptor.Options)
		if i < 0 {
			return fmt.Errorf("no option matches %q", answer)
		}
		return primary.SelectOption(ctx, f.Descriptor.Options[i].Value)

	case models.KindRadioGroup:
		i := MatchSelectOption(answer, f.Descriptor.Options)
		if i < 0 || i >= len(f.Controls) {
			return fmt.Errorf("no option matches %q", answer)
		}
		return f.Controls[i].Click(ctx)

	case models.KindCheckbox:
		return primary.SetChecked(ctx, !IsNegative(answer))

	case models.KindCheckboxGroup:
		fragments := SplitChoices(answer)
		for i, c := range f.Controls {
			if i >= len(f.Descriptor.Options) {
				break
			}
			want := ChoiceSelected(f.Descriptor.Options[i].Text, fragments)
			if c.Checked() == want {
				continue
			}
			if err := c.SetChecked(ctx, want); err != nil {
				return err
			}
			if err := sleep(ctx, w.IntraField); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unsupported control kind %q", f.Descriptor.Kind)
}

func (w *Writer) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
