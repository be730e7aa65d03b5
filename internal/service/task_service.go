package service

import (
	"context"
	"strings"

	"todo-tabs/internal/model"
	"todo-tabs/internal/store"
	"todo-tabs/internal/view"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title       string
	Description string
	CategoryID  string
}

// TaskPatch lists the fields to change; nil means keep. An empty
// CategoryID clears the category.
type TaskPatch struct {
	Title       *string
	Description *string
	CategoryID  *string
	Completed   *bool
}

// TaskService wraps task-related business logic. The same service backs
// the "tasks" and the "todos" collections.
type TaskService struct {
	coll *store.Collection[model.Task]
}

// NewTaskService builds a task collection stored under key (model.KeyTasks
// or model.KeyTodos).
func NewTaskService(key string, opts store.Options[model.Task]) *TaskService {
	opts.Key = key
	opts.Validate = validateTask
	return &TaskService{coll: store.New(opts)}
}

func validateTask(candidate model.Task, _ *model.Task, _ []model.Task) error {
	if candidate.Title == "" {
		return &store.ValidationError{Kind: store.EmptyRequiredField, Field: "title", Message: "Task title is required"}
	}
	return nil
}

// Ready waits for the persisted tasks to be loaded.
func (s *TaskService) Ready(ctx context.Context) error {
	return s.coll.Ready(ctx)
}

// Close ends all observers.
func (s *TaskService) Close() {
	s.coll.Close()
}

// Key names the collection ("tasks" or "todos").
func (s *TaskService) Key() string {
	return s.coll.Key()
}

func (s *TaskService) Create(ctx context.Context, input TaskInput) (model.Task, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	categoryID := strings.TrimSpace(input.CategoryID)
	return s.coll.Insert(ctx, func(id string, now int64) model.Task {
		return model.Task{
			ID:          id,
			Title:       title,
			Description: description,
			CategoryID:  categoryID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	})
}

func (s *TaskService) Update(ctx context.Context, id string, patch TaskPatch) (model.Task, error) {
	return s.coll.Update(ctx, id, func(t *model.Task, now int64) error {
		if patch.Title != nil {
			t.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Description != nil {
			t.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.CategoryID != nil {
			t.CategoryID = strings.TrimSpace(*patch.CategoryID)
		}
		if patch.Completed != nil {
			t.Completed = *patch.Completed
		}
		t.UpdatedAt = now
		return nil
	})
}

// ToggleCompleted flips the completed flag.
func (s *TaskService) ToggleCompleted(ctx context.Context, id string) (model.Task, error) {
	return s.coll.Update(ctx, id, func(t *model.Task, now int64) error {
		t.Completed = !t.Completed
		t.UpdatedAt = now
		return nil
	})
}

// SetCategory points the task at categoryID, or clears it when empty.
func (s *TaskService) SetCategory(ctx context.Context, id, categoryID string) (model.Task, error) {
	return s.Update(ctx, id, TaskPatch{CategoryID: &categoryID})
}

// Delete removes a task; unknown ids are ignored.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	return s.coll.Delete(ctx, id)
}

func (s *TaskService) Get(id string) (model.Task, bool) {
	return s.coll.Get(id)
}

func (s *TaskService) All() []model.Task {
	return s.coll.All()
}

func (s *TaskService) Observe() *store.Subscription[model.Task] {
	return s.coll.Subscribe()
}

// ByCategory streams the tasks of one category. Call stop to end the
// stream.
func (s *TaskService) ByCategory(categoryID string) (tasks <-chan []model.Task, stop func()) {
	sub := s.coll.Subscribe()
	return view.ByCategory(sub.C(), categoryID), sub.Close
}

// Completed streams completed tasks.
func (s *TaskService) Completed() (tasks <-chan []model.Task, stop func()) {
	sub := s.coll.Subscribe()
	return view.Completed(sub.C()), sub.Close
}

// Pending streams tasks that are not completed.
func (s *TaskService) Pending() (tasks <-chan []model.Task, stop func()) {
	sub := s.coll.Subscribe()
	return view.Pending(sub.C()), sub.Close
}
