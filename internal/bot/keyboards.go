package bot

import (
	"errors"
	"html"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-tabs/internal/model"
	"todo-tabs/internal/store"
)

const (
	menuLabelNewTask    = "➕ New task"
	menuLabelTasks      = "📋 Tasks"
	menuLabelTodos      = "📝 Todos"
	menuLabelCategories = "🗂 Categories"
	menuLabelReport     = "📊 Report"
	menuLabelHelp       = "ℹ️ Help"
	btnSkip             = "⏭️ Skip"
	btnCancel           = "⏪ Cancel"

	cbToggle = "toggle"
	cbDelete = "delete"
)

func mainMenuKeyboard(withCategories bool) tgbotapi.ReplyKeyboardMarkup {
	second := []tgbotapi.KeyboardButton{tgbotapi.NewKeyboardButton(menuLabelReport)}
	if withCategories {
		second = append(second, tgbotapi.NewKeyboardButton(menuLabelCategories))
	}
	second = append(second, tgbotapi.NewKeyboardButton(menuLabelHelp))

	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewTask),
			tgbotapi.NewKeyboardButton(menuLabelTasks),
			tgbotapi.NewKeyboardButton(menuLabelTodos),
		),
		tgbotapi.NewKeyboardButtonRow(second...),
	)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancel)),
	)
	keyboard.ResizeKeyboard = true
	keyboard.OneTimeKeyboard = true
	return keyboard
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	keyboard.ResizeKeyboard = true
	keyboard.OneTimeKeyboard = true
	return keyboard
}

// categoryKeyboard offers existing categories as one button per row.
func categoryKeyboard(categories []model.Category) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(categories)+1)
	for _, c := range categories {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(c.Name)))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnSkip),
		tgbotapi.NewKeyboardButton(btnCancel),
	))
	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.ResizeKeyboard = true
	keyboard.OneTimeKeyboard = true
	return keyboard
}

// taskButtons renders toggle/delete buttons for each listed task.
func taskButtons(key string, tasks []model.Task) *tgbotapi.InlineKeyboardMarkup {
	if len(tasks) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(tasks))
	for _, t := range tasks {
		mark := "✅"
		if t.Completed {
			mark = "↩️"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(mark+" "+shortTitle(t.Title, 24), callbackData(cbToggle, key, t.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑", callbackData(cbDelete, key, t.ID)),
		))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

func callbackData(action, key, id string) string {
	return action + ":" + key + ":" + id
}

func parseCallbackData(data string) (action, key, id string, ok bool) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) != 3 || parts[2] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// splitArgs splits command arguments into the first word and the rest.
func splitArgs(args string) (first, rest string) {
	args = strings.TrimSpace(args)
	if i := strings.IndexAny(args, " \t\n"); i >= 0 {
		return args[:i], strings.TrimSpace(args[i+1:])
	}
	return args, ""
}

// resolveRef finds an item by id or by 1-based position in items.
func resolveRef[T model.Record](items []T, ref string) (T, bool) {
	var zero T
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return zero, false
	}
	for _, item := range items {
		if item.GetID() == ref {
			return item, true
		}
	}
	n, err := strconv.Atoi(ref)
	if err != nil || n < 1 || n > len(items) {
		return zero, false
	}
	return items[n-1], true
}

func shortTitle(title string, limit int) string {
	if utf8.RuneCountInString(title) <= limit {
		return title
	}
	runes := []rune(title)
	return string(runes[:limit-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}

func isCancel(text string) bool {
	t := strings.TrimSpace(text)
	return t == btnCancel || strings.EqualFold(t, "cancel")
}

func isSkip(text string) bool {
	t := strings.TrimSpace(text)
	return t == btnSkip || strings.EqualFold(t, "skip") || t == "-"
}

// errorText turns a service error into a plain-text message for the user.
func errorText(err error) string {
	var verr *store.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, store.ErrNotFound):
		return "That item no longer exists."
	case errors.Is(err, store.ErrStorageUnavailable):
		return "Storage is unavailable right now, nothing was saved. Please try again later."
	default:
		return "Something went wrong, please try again."
	}
}
