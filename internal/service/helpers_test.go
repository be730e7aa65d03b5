package service

import (
	"context"
	"testing"

	"todo-tabs/internal/idgen"
	"todo-tabs/internal/model"
	"todo-tabs/internal/repository"
	"todo-tabs/internal/store"
)

func newBackend(t *testing.T) repository.Backend {
	t.Helper()
	fs, err := repository.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	return fs
}

func options[T model.Record](backend repository.Backend) store.Options[T] {
	return store.Options[T]{Backend: backend, IDs: idgen.New()}
}

func newCategories(t *testing.T, backend repository.Backend) *CategoryService {
	t.Helper()
	s := NewCategoryService(options[model.Category](backend))
	t.Cleanup(s.Close)
	if err := s.Ready(context.Background()); err != nil {
		t.Fatalf("Ready() error = %v", err)
	}
	return s
}

func newTasks(t *testing.T, key string, backend repository.Backend) *TaskService {
	t.Helper()
	s := NewTaskService(key, options[model.Task](backend))
	t.Cleanup(s.Close)
	if err := s.Ready(context.Background()); err != nil {
		t.Fatalf("Ready() error = %v", err)
	}
	return s
}

// brokenBackend loads fine but refuses every write.
type brokenBackend struct{}

func (brokenBackend) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (brokenBackend) Set(context.Context, string, []byte) error {
	return repository.ErrStorageUnavailable
}
