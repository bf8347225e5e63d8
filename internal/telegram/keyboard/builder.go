package keyboard

import (
	"strconv"

	"github.com/futig/jd-assessment/internal/entity"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Builder creates inline keyboards
type Builder struct {
	counts []int
}

// NewBuilder creates a keyboard builder offering the given batch sizes.
func NewBuilder(counts ...int) *Builder {
	if len(counts) == 0 {
		counts = []int{5, 10, 15, 20}
	}
	return &Builder{counts: counts}
}

// StartKeyboard creates the initial start button
func (b *Builder) StartKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚀 Start assessment", EncodeCallback(ActionControl, "start")),
		),
	)
}

// QuestionCountKeyboard offers the batch sizes in one row.
func (b *Builder) QuestionCountKeyboard() tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(b.counts))
	for _, n := range b.counts {
		v := strconv.Itoa(n)
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(v, EncodeCallback(ActionCount, v)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

// QuestionKeyboard creates the per-question buttons
func (b *Builder) QuestionKeyboard(questionID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💡 Sample answer", EncodeCallback(ActionGenerate, questionID)),
			tgbotapi.NewInlineKeyboardButtonData("⏭ Skip", EncodeCallback(ActionSkip, questionID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Start over", EncodeCallback(ActionControl, "reset")),
		),
	)
}

// ResultsKeyboard creates report download and restart buttons
func (b *Builder) ResultsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📄 .md", EncodeCallback(ActionDownload, string(entity.FormatMarkdown))),
			tgbotapi.NewInlineKeyboardButtonData("📕 .pdf", EncodeCallback(ActionDownload, string(entity.FormatPDF))),
			tgbotapi.NewInlineKeyboardButtonData("📘 .docx", EncodeCallback(ActionDownload, string(entity.FormatDOCX))),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 New assessment", EncodeCallback(ActionControl, "reset")),
		),
	)
}
