package reporter

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ternarybob/arbor"

	"go-autoapply/internal/models"
)

// Telegram posts job results and run summaries to one chat. Plain status
// updates are left to the log and the websocket stream.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger arbor.ILogger
}

func NewTelegram(token string, chatID int64, logger arbor.ILogger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID, logger: logger}, nil
}

// NewTelegramWithEndpoint talks to a Bot API compatible server, e.g. a local
// bot server. endpoint has the form "https://host/bot%s/%s".
func NewTelegramWithEndpoint(token, endpoint string, chatID int64, client tgbotapi.HTTPClient, logger arbor.ILogger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID, logger: logger}, nil
}

func (t *Telegram) Notify(_ context.Context, ev Event) {
	var msg tgbotapi.MessageConfig
	switch ev.Type {
	case EventJobDone:
		if ev.Result.Outcome == models.OutcomeSkipped {
			return
		}
		msg = t.jobMessage(*ev.Result)
	case EventComplete:
		msg = tgbotapi.NewMessage(t.chatID, summaryText(*ev.Summary))
		msg.ParseMode = tgbotapi.ModeMarkdownV2
	default:
		return
	}
	if _, err := t.bot.Send(msg); err != nil {
		t.logger.Warn().Err(err).Str("event", string(ev.Type)).Msg("⚠️ Failed to send Telegram message")
	}
}

func (t *Telegram) jobMessage(r models.JobResult) tgbotapi.MessageConfig {
	icon := map[models.JobOutcome]string{
		models.OutcomeSuccess:      "✅",
		models.OutcomeExternalForm: "↗️",
		models.OutcomeStopped:      "⏸️",
	}[r.Outcome]
	if icon == "" {
		icon = "❌"
	}

	text := fmt.Sprintf("%s *%s*\n", icon, escapeMarkdown(r.Job.Title))
	text += fmt.Sprintf("🏢 %s\n", escapeMarkdown(orNA(r.Job.Company)))
	text += fmt.Sprintf("📍 %s\n", escapeMarkdown(orNA(r.Job.Location)))
	text += fmt.Sprintf("🔖 %s\n", escapeMarkdown(string(r.Outcome)))
	if r.ApplicationID != "" {
		text += fmt.Sprintf("🆔 %s\n", escapeMarkdown(r.ApplicationID))
	}
	if r.WasRetry {
		text += escapeMarkdown("🔁 confirmed on the second submit") + "\n"
	}
	if r.Reason != "" {
		text += fmt.Sprintf("📝 %s\n", escapeMarkdown(r.Reason))
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if r.Job.URL != "" {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("🔗 View Job", r.Job.URL)),
		)
	}
	return msg
}

func summaryText(s Summary) string {
	body := fmt.Sprintf("Processed: %d\nApplied: %d\nSkipped: %d\nExternal: %d\nFailed: %d",
		s.Processed, s.Success, s.Skipped, s.ExternalForm, s.Failed)
	if s.Stopped {
		body += "\n⏸️ stopped by user"
	}
	return "🏁 *Run finished*\n" + escapeMarkdown(body)
}

// escapeMarkdown escapes the MarkdownV2 reserved characters, "*" included,
// so bold markers are added after escaping.
func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
		")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
		"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
		"}", "\\}", ".", "\\.", "!", "\\!",
	)
	return replacer.Replace(text)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
