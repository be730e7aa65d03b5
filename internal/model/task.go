package model

// Task represents a single item in a task list.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Completed   bool   `json:"completed"`
	CategoryID  string `json:"categoryId,omitempty"` // soft reference, may dangle
	CreatedAt   int64  `json:"createdAt"`
	UpdatedAt   int64  `json:"updatedAt"`
}

// Todo is the record of the single-list app. It shares the Task shape and
// is stored under its own key.
type Todo = Task

func (t Task) GetID() string         { return t.ID }
func (t Task) GetUpdatedAt() int64   { return t.UpdatedAt }
func (t Task) GetCategoryID() string { return t.CategoryID }
func (t Task) IsCompleted() bool     { return t.Completed }

// HasCategory reports whether the task points at a category at all.
func (t Task) HasCategory() bool {
	return t.CategoryID != ""
}
