package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-tabs/internal/model"
	"todo-tabs/internal/service"
	"todo-tabs/internal/view"
)

const (
	filterAll     = "all"
	filterPending = "pending"
	filterDone    = "done"
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancel(msg.Text) {
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled. Nothing was saved.")
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	if state := b.getConversation(msg.From.ID); state != nil {
		log.Printf("[info] conversation step %d from %d", state.stage, msg.From.ID)
		return b.handleConversation(ctx, msg, state)
	}

	return b.sendText(msg.Chat.ID, "I didn't get that. Send /newtask to add a task or /help for the list of commands.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		b.clearConversation(msg.From.ID)
		return b.sendText(chatID, "👋 Hi! I keep your tasks, todos and categories.\n\n"+b.helpText())
	case "help":
		return b.sendText(chatID, b.helpText())
	case "cancel":
		b.clearConversation(msg.From.ID)
		return b.sendText(chatID, "⏪ Cancelled. Nothing was saved.")
	case "newtask":
		return b.startNewTaskConversation(msg, args)
	case "tasks":
		return b.sendTaskList(chatID, b.deps.Tasks, args)
	case "done":
		return b.handleDone(ctx, chatID, args)
	case "rename":
		return b.handleRename(ctx, chatID, args)
	case "setcat":
		return b.handleSetCategory(ctx, chatID, args)
	case "delete":
		return b.handleDelete(ctx, chatID, args)
	case "todo":
		return b.handleNewTodo(ctx, chatID, args)
	case "todos":
		return b.sendTaskList(chatID, b.deps.Todos, args)
	case "categories":
		return b.handleCategories(chatID)
	case "newcategory":
		return b.handleNewCategory(ctx, chatID, args)
	case "renamecategory":
		return b.handleRenameCategory(ctx, chatID, args)
	case "deletecategory":
		return b.handleDeleteCategory(ctx, chatID, args)
	case "report":
		return b.sendText(chatID, b.deps.Reminder.Summary(time.Now()))
	default:
		return b.sendText(chatID, "Unknown command. Send /help for the list of commands.")
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.TrimSpace(msg.Text) {
	case menuLabelNewTask:
		return true, b.startNewTaskConversation(msg, "")
	case menuLabelTasks:
		return true, b.sendTaskList(msg.Chat.ID, b.deps.Tasks, "")
	case menuLabelTodos:
		return true, b.sendTaskList(msg.Chat.ID, b.deps.Todos, "")
	case menuLabelCategories:
		return true, b.handleCategories(msg.Chat.ID)
	case menuLabelReport:
		return true, b.sendText(msg.Chat.ID, b.deps.Reminder.Summary(time.Now()))
	case menuLabelHelp:
		return true, b.sendText(msg.Chat.ID, b.helpText())
	}
	return false, nil
}

func (b *Bot) helpText() string {
	var sb strings.Builder
	sb.WriteString("<b>Tasks</b>\n")
	sb.WriteString("/newtask [title] - add a task step by step\n")
	sb.WriteString("/tasks [pending|done] - list tasks\n")
	sb.WriteString("/done &lt;ref&gt; - mark a task as done\n")
	sb.WriteString("/rename &lt;ref&gt; &lt;title&gt; - change a task title\n")
	sb.WriteString("/delete &lt;ref&gt; - delete a task\n")
	if b.categoriesEnabled() {
		sb.WriteString("/setcat &lt;ref&gt; &lt;category|-&gt; - set or clear a task category\n")
	}
	sb.WriteString("\n<b>Todos</b>\n")
	sb.WriteString("/todo &lt;text&gt; - add a todo\n")
	sb.WriteString("/todos - list todos\n")
	if b.categoriesEnabled() {
		sb.WriteString("\n<b>Categories</b>\n")
		sb.WriteString("/categories - list categories\n")
		sb.WriteString("/newcategory &lt;name&gt; - add a category\n")
		sb.WriteString("/renamecategory &lt;ref&gt; &lt;name&gt; - rename a category\n")
		sb.WriteString("/deletecategory &lt;ref&gt; - delete a category\n")
	}
	sb.WriteString("\n/report - summary right now\n")
	sb.WriteString("/cancel - stop the current dialog\n\n")
	sb.WriteString("&lt;ref&gt; is the number shown in the list or the item id.")
	return sb.String()
}

func (b *Bot) startNewTaskConversation(msg *tgbotapi.Message, title string) error {
	state := &conversationState{stage: stageTitle}
	if title != "" {
		state.input.Title = title
		state.stage = stageDescription
	}
	b.setConversation(msg.From.ID, state)

	if state.stage == stageDescription {
		return b.sendWithReplyMarkup(msg.Chat.ID, "Add a description or press Skip.", skipKeyboard())
	}
	return b.sendWithReplyMarkup(msg.Chat.ID, "What's the task? Send its title.", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	text := strings.TrimSpace(msg.Text)
	chatID := msg.Chat.ID

	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(chatID, "The title can't be empty. Send the task title.", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageDescription
		return b.sendWithReplyMarkup(chatID, "Add a description or press Skip.", skipKeyboard())
	case stageDescription:
		if !isSkip(text) {
			state.input.Description = text
		}
		if b.categoriesEnabled() {
			state.stage = stageCategory
			return b.sendWithReplyMarkup(chatID, "Pick a category, type a new one or press Skip.", categoryKeyboard(b.deps.Categories.All()))
		}
		return b.finishNewTask(ctx, chatID, msg.From.ID, state)
	case stageCategory:
		if !isSkip(text) {
			category, err := b.deps.Categories.GetOrCreate(ctx, text)
			if err != nil {
				return b.sendWithReplyMarkup(chatID, escape(errorText(err)), categoryKeyboard(b.deps.Categories.All()))
			}
			state.input.CategoryID = category.ID
		}
		return b.finishNewTask(ctx, chatID, msg.From.ID, state)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(chatID, "Let's start over: /newtask")
	}
}

func (b *Bot) finishNewTask(ctx context.Context, chatID, userID int64, state *conversationState) error {
	b.clearConversation(userID)

	task, err := b.deps.Tasks.Create(ctx, state.input)
	if err != nil {
		log.Printf("create task: %v", err)
		return b.sendText(chatID, escape(errorText(err)))
	}

	text := fmt.Sprintf("✅ Task <b>%s</b> added.", escape(task.Title))
	if b.categoriesEnabled() {
		text += fmt.Sprintf("\nCategory: <i>%s</i>", escape(b.deps.Categories.Name(task.CategoryID)))
	}
	return b.sendText(chatID, text)
}

func (b *Bot) sendTaskList(chatID int64, svc *service.TaskService, filter string) error {
	all := svc.All()
	shown, heading, ok := b.filterTasks(all, svc.Key(), filter)
	if !ok {
		return b.sendText(chatID, "Use one of: all, pending, done.")
	}
	if len(shown) == 0 {
		return b.sendText(chatID, heading+"\n\nNothing here yet.")
	}

	position := make(map[string]int, len(all))
	for i, t := range all {
		position[t.ID] = i + 1
	}
	withCategory := svc.Key() == model.KeyTasks && b.categoriesEnabled()

	var sb strings.Builder
	sb.WriteString(heading)
	sb.WriteString("\n")
	for _, t := range shown {
		mark := "⬜️"
		if t.Completed {
			mark = "✅"
		}
		fmt.Fprintf(&sb, "\n%d. %s %s", position[t.ID], mark, escape(t.Title))
		if withCategory {
			fmt.Fprintf(&sb, " · <i>%s</i>", escape(b.deps.Categories.Name(t.CategoryID)))
		}
		if t.Description != "" {
			fmt.Fprintf(&sb, "\n    %s", escape(t.Description))
		}
	}
	return b.sendWithReplyMarkup(chatID, sb.String(), taskButtons(svc.Key(), shown))
}

// filterTasks applies a list filter: all, pending, done, or a category name.
func (b *Bot) filterTasks(all []model.Task, key, filter string) ([]model.Task, string, bool) {
	title := "📋 <b>Tasks</b>"
	if key == model.KeyTodos {
		title = "📝 <b>Todos</b>"
	}

	switch strings.ToLower(strings.TrimSpace(filter)) {
	case "", filterAll:
		return all, title, true
	case filterPending:
		return view.FilterPending(all), title + " (pending)", true
	case filterDone:
		return view.FilterCompleted(all), title + " (done)", true
	}

	if key == model.KeyTasks && b.categoriesEnabled() {
		if c, found := b.deps.Categories.FindByName(filter); found {
			return view.FilterByCategory(all, c.ID), title + " · " + escape(c.Name), true
		}
	}
	return nil, title, false
}

func (b *Bot) handleDone(ctx context.Context, chatID int64, args string) error {
	task, ok := resolveRef(b.deps.Tasks.All(), args)
	if !ok {
		return b.sendText(chatID, "Task not found. Usage: /done &lt;ref&gt;")
	}
	done := true
	if _, err := b.deps.Tasks.Update(ctx, task.ID, service.TaskPatch{Completed: &done}); err != nil {
		return b.sendText(chatID, escape(errorText(err)))
	}
	return b.sendText(chatID, fmt.Sprintf("✅ <b>%s</b> is done.", escape(task.Title)))
}

func (b *Bot) handleRename(ctx context.Context, chatID int64, args string) error {
	ref, title := splitArgs(args)
	task, ok := resolveRef(b.deps.Tasks.All(), ref)
	if !ok {
		return b.sendText(chatID, "Task not found. Usage: /rename &lt;ref&gt; &lt;title&gt;")
	}
	updated, err := b.deps.Tasks.Update(ctx, task.ID, service.TaskPatch{Title: &title})
	if err != nil {
		return b.sendText(chatID, escape(errorText(err)))
	}
	return b.sendText(chatID, fmt.Sprintf("✏️ Renamed to <b>%s</b>.", escape(updated.Title)))
}

func (b *Bot) handleSetCategory(ctx context.Context, chatID int64, args string) error {
	if !b.categoriesEnabled() {
		return b.sendText(chatID, "Categories are turned off.")
	}
	ref, name := splitArgs(args)
	task, ok := resolveRef(b.deps.Tasks.All(), ref)
	if !ok || name == "" {
		return b.sendText(chatID, "Usage: /setcat &lt;ref&gt; &lt;category|-&gt;")
	}

	categoryID := ""
	if !isSkip(name) {
		category, err := b.resolveCategory(ctx, name)
		if err != nil {
			return b.sendText(chatID, escape(errorText(err)))
		}
		categoryID = category.ID
	}

	updated, err := b.deps.Tasks.SetCategory(ctx, task.ID, categoryID)
	if err != nil {
		return b.sendText(chatID, escape(errorText(err)))
	}
	return b.sendText(chatID, fmt.Sprintf("🗂 <b>%s</b> → <i>%s</i>", escape(updated.Title), escape(b.deps.Categories.Name(updated.CategoryID))))
}

// resolveCategory finds a category by id, position or name and creates
// it when nothing matches.
func (b *Bot) resolveCategory(ctx context.Context, ref string) (model.Category, error) {
	if c, ok := resolveRef(b.deps.Categories.All(), ref); ok {
		return c, nil
	}
	return b.deps.Categories.GetOrCreate(ctx, ref)
}

func (b *Bot) handleDelete(ctx context.Context, chatID int64, args string) error {
	task, ok := resolveRef(b.deps.Tasks.All(), args)
	if !ok {
		return b.sendText(chatID, "Task not found. Usage: /delete &lt;ref&gt;")
	}
	if err := b.deps.Tasks.Delete(ctx, task.ID); err != nil {
		return b.sendText(chatID, escape(errorText(err)))
	}
	return b.sendText(chatID, fmt.Sprintf("🗑 <b>%s</b> deleted.", escape(task.Title)))
}

func (b *Bot) handleNewTodo(ctx context.Context, chatID int64, text string) error {
	if text == "" {
		return b.sendText(chatID, "Usage: /todo &lt;text&gt;")
	}
	todo, err := b.deps.Todos.Create(ctx, service.TaskInput{Title: text})
	if err != nil {
		return b.sendText(chatID, escape(errorText(err)))
	}
	return b.sendText(chatID, fmt.Sprintf("📝 Todo <b>%s</b> added.", escape(todo.Title)))
}

func (b *Bot) handleCategories(chatID int64) error {
	if !b.categoriesEnabled() {
		return b.sendText(chatID, "Categories are turned off.")
	}
	categories := b.deps.Categories.All()
	if len(categories) == 0 {
		return b.sendText(chatID, "No categories yet. Add one with /newcategory &lt;name&gt;.")
	}

	tasks := b.deps.Tasks.All()
	var sb strings.Builder
	sb.WriteString("🗂 <b>Categories</b>\n")
	for i, c := range categories {
		icon := c.Icon
		if icon == "" {
			icon = "•"
		}
		fmt.Fprintf(&sb, "\n%d. %s %s (%d)", i+1, icon, escape(c.Name), len(view.FilterByCategory(tasks, c.ID)))
	}
	return b.sendText(chatID, sb.String())
}

func (b *Bot) handleNewCategory(ctx context.Context, chatID int64, name string) error {
	if !b.categoriesEnabled() {
		return b.sendText(chatID, "Categories are turned off.")
	}
	category, err := b.deps.Categories.Create(ctx, name, "", "")
	if err != nil {
		return b.sendText(chatID, escape(errorText(err)))
	}
	return b.sendText(chatID, fmt.Sprintf("🗂 Category <b>%s</b> added.", escape(category.Name)))
}

func (b *Bot) handleRenameCategory(ctx context.Context, chatID int64, args string) error {
	if !b.categoriesEnabled() {
		return b.sendText(chatID, "Categories are turned off.")
	}
	ref, name := splitArgs(args)
	category, ok := resolveRef(b.deps.Categories.All(), ref)
	if !ok {
		return b.sendText(chatID, "Category not found. Usage: /renamecategory &lt;ref&gt; &lt;name&gt;")
	}
	updated, err := b.deps.Categories.Rename(ctx, category.ID, name)
	if err != nil {
		return b.sendText(chatID, escape(errorText(err)))
	}
	return b.sendText(chatID, fmt.Sprintf("✏️ Category renamed to <b>%s</b>.", escape(updated.Name)))
}

func (b *Bot) handleDeleteCategory(ctx context.Context, chatID int64, args string) error {
	if !b.categoriesEnabled() {
		return b.sendText(chatID, "Categories are turned off.")
	}
	category, ok := resolveRef(b.deps.Categories.All(), args)
	if !ok {
		return b.sendText(chatID, "Category not found. Usage: /deletecategory &lt;ref&gt;")
	}
	if err := b.deps.Categories.Delete(ctx, category.ID); err != nil {
		return b.sendText(chatID, escape(errorText(err)))
	}

	orphaned := len(view.FilterByCategory(b.deps.Tasks.All(), category.ID))
	text := fmt.Sprintf("🗑 Category <b>%s</b> deleted.", escape(category.Name))
	if orphaned > 0 {
		text += fmt.Sprintf("\n%d task(s) now show under <i>%s</i>.", orphaned, service.NoCategory)
	}
	return b.sendText(chatID, text)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	action, key, id, ok := parseCallbackData(cb.Data)
	svc := b.collection(key)
	if !ok || svc == nil {
		b.answerCallback(cb.ID, "")
		return nil
	}

	var err error
	switch action {
	case cbToggle:
		_, err = svc.ToggleCompleted(ctx, id)
	case cbDelete:
		err = svc.Delete(ctx, id)
	default:
		b.answerCallback(cb.ID, "")
		return nil
	}
	if err != nil {
		b.answerCallback(cb.ID, errorText(err))
		return err
	}
	b.answerCallback(cb.ID, "👌")

	if cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	b.rememberChat(cb.Message.Chat.ID)
	return b.sendTaskList(cb.Message.Chat.ID, svc, "")
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.send.Request(tgbotapi.NewCallback(id, text)); err != nil {
		log.Printf("answer callback: %v", err)
	}
}

func (b *Bot) collection(key string) *service.TaskService {
	switch key {
	case model.KeyTasks:
		return b.deps.Tasks
	case model.KeyTodos:
		return b.deps.Todos
	}
	return nil
}
