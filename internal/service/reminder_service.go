package service

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"todo-tabs/internal/model"
	"todo-tabs/internal/view"
)

// ReminderService builds human-readable summaries for periodic notifications.
type ReminderService struct {
	tasks      *TaskService
	todos      *TaskService
	categories *CategoryService
}

// NewReminderService wires the summary sources. todos may be nil.
func NewReminderService(tasks, todos *TaskService, categories *CategoryService) *ReminderService {
	return &ReminderService{tasks: tasks, todos: todos, categories: categories}
}

// Summary renders pending work grouped by category, as Telegram HTML.
func (s *ReminderService) Summary(now time.Time) string {
	all := s.tasks.All()
	pending := view.FilterPending(all)
	done := len(view.FilterCompleted(all))

	var builder strings.Builder
	builder.WriteString("📋 <b>Task summary</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("2006-01-02")))

	builder.WriteString("🔥 <b>Pending tasks</b>\n")
	if len(pending) == 0 {
		builder.WriteString("— nothing open\n")
	} else {
		for _, group := range s.groupByCategory(pending) {
			builder.WriteString(fmt.Sprintf("\n<i>%s</i>\n", html.EscapeString(group.name)))
			for _, task := range group.tasks {
				builder.WriteString(formatTask(task, now))
			}
		}
	}
	builder.WriteString(fmt.Sprintf("\n✅ Completed: %d of %d\n", done, len(all)))

	if s.todos != nil {
		todos := view.FilterPending(s.todos.All())
		if len(todos) > 0 {
			builder.WriteString("\n📝 <b>Todos</b>\n")
			for _, todo := range todos {
				builder.WriteString(fmt.Sprintf("• %s\n", html.EscapeString(todo.Title)))
			}
		}
	}

	return strings.TrimSpace(builder.String())
}

type taskGroup struct {
	name  string
	tasks []model.Task
}

// groupByCategory groups by resolved category name. Dangling references
// land in the NoCategory group, which sorts last.
func (s *ReminderService) groupByCategory(tasks []model.Task) []taskGroup {
	index := make(map[string]int)
	var groups []taskGroup
	for _, task := range tasks {
		name := s.categories.Name(task.CategoryID)
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, taskGroup{name: name})
		}
		groups[i].tasks = append(groups[i].tasks, task)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		switch {
		case groups[i].name == NoCategory:
			return false
		case groups[j].name == NoCategory:
			return true
		default:
			return strings.ToLower(groups[i].name) < strings.ToLower(groups[j].name)
		}
	})
	return groups
}

func formatTask(task model.Task, now time.Time) string {
	var sb strings.Builder

	title := html.EscapeString(strings.TrimSpace(task.Title))
	sb.WriteString(fmt.Sprintf("🟢 %s", title))

	age := now.Sub(time.UnixMilli(task.CreatedAt))
	if days := int(age.Hours() / 24); days > 0 {
		sb.WriteString(fmt.Sprintf(" · %d d. old", days))
	}

	if task.Description != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(strings.TrimSpace(task.Description))))
	}

	sb.WriteByte('\n')
	return sb.String()
}
