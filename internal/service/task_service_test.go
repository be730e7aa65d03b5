package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"todo-tabs/internal/model"
	"todo-tabs/internal/store"
)

func TestScenarioCategoriesAndTasks(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t)
	categories := newCategories(t, backend)
	tasks := newTasks(t, model.KeyTasks, backend)

	work, err := categories.Create(ctx, "Work", "", "")
	if err != nil {
		t.Fatalf("Create(Work) error = %v", err)
	}
	if _, err := categories.Create(ctx, "work", "", ""); !store.IsValidation(err, store.DuplicateName) {
		t.Fatalf("Create(work) error = %v, want DuplicateName", err)
	}

	milk, err := tasks.Create(ctx, TaskInput{Title: "Buy milk"})
	if err != nil {
		t.Fatalf("Create(Buy milk) error = %v", err)
	}
	toggled, err := tasks.ToggleCompleted(ctx, milk.ID)
	if err != nil {
		t.Fatalf("ToggleCompleted() error = %v", err)
	}
	got, ok := tasks.Get(milk.ID)
	if !ok || !got.Completed {
		t.Fatalf("Get() = %+v, %v; want completed", got, ok)
	}
	if got.UpdatedAt <= milk.UpdatedAt || toggled.UpdatedAt != got.UpdatedAt {
		t.Errorf("UpdatedAt = %d, want > %d", got.UpdatedAt, milk.UpdatedAt)
	}

	report, err := tasks.Create(ctx, TaskInput{Title: "Report", CategoryID: work.ID})
	if err != nil {
		t.Fatal(err)
	}
	if err := categories.Delete(ctx, work.ID); err != nil {
		t.Fatalf("Delete(Work) error = %v", err)
	}
	still, ok := tasks.Get(report.ID)
	if !ok {
		t.Fatal("task disappeared with its category")
	}
	if still.CategoryID != work.ID {
		t.Errorf("CategoryID = %q, want dangling %q kept", still.CategoryID, work.ID)
	}
	if name := categories.Name(still.CategoryID); name != NoCategory {
		t.Errorf("Name() = %q, want %q", name, NoCategory)
	}
}

func TestTaskCreateValidation(t *testing.T) {
	ctx := context.Background()
	tasks := newTasks(t, model.KeyTasks, newBackend(t))

	if _, err := tasks.Create(ctx, TaskInput{Title: " \t "}); !store.IsValidation(err, store.EmptyRequiredField) {
		t.Errorf("Create(blank) error = %v, want EmptyRequiredField", err)
	}
	task, err := tasks.Create(ctx, TaskInput{Title: "  Write  ", Description: "  draft  "})
	if err != nil {
		t.Fatal(err)
	}
	if task.Title != "Write" || task.Description != "draft" || task.Completed {
		t.Errorf("Create() = %+v", task)
	}
}

func TestTaskUpdate(t *testing.T) {
	ctx := context.Background()
	tasks := newTasks(t, model.KeyTasks, newBackend(t))
	task, _ := tasks.Create(ctx, TaskInput{Title: "Old", Description: "keep"})

	title := "New"
	got, err := tasks.Update(ctx, task.ID, TaskPatch{Title: &title})
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "New" || got.Description != "keep" {
		t.Errorf("Update() = %+v, want title changed and description kept", got)
	}

	blank := "   "
	if _, err := tasks.Update(ctx, task.ID, TaskPatch{Title: &blank}); !store.IsValidation(err, store.EmptyRequiredField) {
		t.Errorf("Update(blank title) error = %v, want EmptyRequiredField", err)
	}
	if _, err := tasks.ToggleCompleted(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("ToggleCompleted(missing) error = %v, want ErrNotFound", err)
	}
}

func TestTaskCategorySelectionPersists(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t)
	tasks := newTasks(t, model.KeyTasks, backend)
	task, _ := tasks.Create(ctx, TaskInput{Title: "Edit me"})

	if _, err := tasks.SetCategory(ctx, task.ID, "cat-1"); err != nil {
		t.Fatal(err)
	}
	reloaded := newTasks(t, model.KeyTasks, backend)
	if got, _ := reloaded.Get(task.ID); got.CategoryID != "cat-1" {
		t.Errorf("CategoryID after reload = %q, want cat-1", got.CategoryID)
	}

	if _, err := tasks.SetCategory(ctx, task.ID, ""); err != nil {
		t.Fatal(err)
	}
	if got, _ := tasks.Get(task.ID); got.HasCategory() {
		t.Errorf("CategoryID = %q, want cleared", got.CategoryID)
	}
}

func TestTasksAndTodosAreSeparate(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t)
	tasks := newTasks(t, model.KeyTasks, backend)
	todos := newTasks(t, model.KeyTodos, backend)

	if _, err := tasks.Create(ctx, TaskInput{Title: "task"}); err != nil {
		t.Fatal(err)
	}
	if _, err := todos.Create(ctx, TaskInput{Title: "todo"}); err != nil {
		t.Fatal(err)
	}
	if len(tasks.All()) != 1 || len(todos.All()) != 1 {
		t.Errorf("tasks=%v todos=%v, want one each", tasks.All(), todos.All())
	}
	if todos.Key() != model.KeyTodos {
		t.Errorf("Key() = %q", todos.Key())
	}
}

func TestTaskStreams(t *testing.T) {
	ctx := context.Background()
	tasks := newTasks(t, model.KeyTasks, newBackend(t))

	pending, stopPending := tasks.Pending()
	defer stopPending()
	completed, stopCompleted := tasks.Completed()
	defer stopCompleted()
	work, stopWork := tasks.ByCategory("work")
	defer stopWork()

	a, _ := tasks.Create(ctx, TaskInput{Title: "a", CategoryID: "work"})
	if _, err := tasks.Create(ctx, TaskInput{Title: "b"}); err != nil {
		t.Fatal(err)
	}
	if _, err := tasks.ToggleCompleted(ctx, a.ID); err != nil {
		t.Fatal(err)
	}

	waitFor := func(name string, ch <-chan []model.Task, ok func([]model.Task) bool) {
		t.Helper()
		deadline := time.After(2 * time.Second)
		for {
			select {
			case snap := <-ch:
				if ok(snap) {
					return
				}
			case <-deadline:
				t.Fatalf("%s stream never reached the expected state", name)
			}
		}
	}

	waitFor("pending", pending, func(s []model.Task) bool {
		return len(s) == 1 && s[0].Title == "b"
	})
	waitFor("completed", completed, func(s []model.Task) bool {
		return len(s) == 1 && s[0].ID == a.ID
	})
	waitFor("work", work, func(s []model.Task) bool {
		return len(s) == 1 && s[0].ID == a.ID && s[0].Completed
	})
}
