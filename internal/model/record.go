package model

// Record is implemented by every entity kept in a collection.
type Record interface {
	GetID() string
	GetUpdatedAt() int64
}

// Blob keys, one per collection.
const (
	KeyTasks      = "tasks"
	KeyCategories = "categories"
	KeyTodos      = "todos"
)
