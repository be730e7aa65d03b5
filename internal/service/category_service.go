package service

import (
	"context"
	"math/rand/v2"
	"strings"

	"todo-tabs/internal/model"
	"todo-tabs/internal/store"
)

// NoCategory is shown for tasks without a category or with a dangling one.
const NoCategory = "No category"

var categoryPalette = []string{
	"#3880ff", "#3dc2ff", "#2dd36f",
	"#ffc409", "#eb445a", "#92949c",
	"#f4f5f8", "#222428",
}

// CategoryPatch lists the fields to change; nil means keep.
type CategoryPatch struct {
	Name  *string
	Color *string
	Icon  *string
}

// CategoryService owns the category collection and its naming rules.
type CategoryService struct {
	coll *store.Collection[model.Category]
}

// NewCategoryService builds the category collection. opts supplies the
// backend, id source and clock; key and validation are fixed here.
func NewCategoryService(opts store.Options[model.Category]) *CategoryService {
	opts.Key = model.KeyCategories
	opts.Validate = validateCategory
	return &CategoryService{coll: store.New(opts)}
}

// Ready waits for the persisted categories to be loaded.
func (s *CategoryService) Ready(ctx context.Context) error {
	return s.coll.Ready(ctx)
}

// Close ends all observers.
func (s *CategoryService) Close() {
	s.coll.Close()
}

// validateCategory requires a name unique among the other categories. An
// update that keeps the stored name is not re-checked, so legacy data with
// case-only duplicates stays editable.
func validateCategory(candidate model.Category, previous *model.Category, others []model.Category) error {
	if candidate.Name == "" {
		return &store.ValidationError{Kind: store.EmptyRequiredField, Field: "name", Message: "Category name is required"}
	}
	if previous != nil && previous.Name == candidate.Name {
		return nil
	}
	for _, other := range others {
		if strings.EqualFold(other.Name, candidate.Name) {
			return &store.ValidationError{Kind: store.DuplicateName, Field: "name", Message: "A category with that name already exists"}
		}
	}
	return nil
}

// Create adds a category. An empty color picks one from the palette.
func (s *CategoryService) Create(ctx context.Context, name, color, icon string) (model.Category, error) {
	name = strings.TrimSpace(name)
	color = strings.TrimSpace(color)
	if color == "" {
		color = categoryPalette[rand.IntN(len(categoryPalette))]
	}
	return s.coll.Insert(ctx, func(id string, now int64) model.Category {
		return model.Category{
			ID:        id,
			Name:      name,
			Color:     color,
			Icon:      strings.TrimSpace(icon),
			CreatedAt: now,
			UpdatedAt: now,
		}
	})
}

// Update changes the given fields. A new name must still be unique among
// the other categories.
func (s *CategoryService) Update(ctx context.Context, id string, patch CategoryPatch) (model.Category, error) {
	return s.coll.Update(ctx, id, func(c *model.Category, now int64) error {
		if patch.Name != nil {
			c.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Color != nil {
			if color := strings.TrimSpace(*patch.Color); color != "" {
				c.Color = color
			}
		}
		if patch.Icon != nil {
			c.Icon = strings.TrimSpace(*patch.Icon)
		}
		c.UpdatedAt = now
		return nil
	})
}

// Rename is Update with only a new name.
func (s *CategoryService) Rename(ctx context.Context, id, name string) (model.Category, error) {
	return s.Update(ctx, id, CategoryPatch{Name: &name})
}

// Delete removes the category. Tasks referencing it are left alone.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	return s.coll.Delete(ctx, id)
}

func (s *CategoryService) Get(id string) (model.Category, bool) {
	return s.coll.Get(id)
}

func (s *CategoryService) All() []model.Category {
	return s.coll.All()
}

func (s *CategoryService) Observe() *store.Subscription[model.Category] {
	return s.coll.Subscribe()
}

// Name resolves a soft category reference for display.
func (s *CategoryService) Name(id string) string {
	if id == "" {
		return NoCategory
	}
	if c, ok := s.coll.Get(id); ok {
		return c.Name
	}
	return NoCategory
}

// FindByName looks a category up case-insensitively.
func (s *CategoryService) FindByName(name string) (model.Category, bool) {
	name = strings.TrimSpace(name)
	for _, c := range s.coll.All() {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return model.Category{}, false
}

// GetOrCreate returns the category with that name, creating it if needed.
func (s *CategoryService) GetOrCreate(ctx context.Context, name string) (model.Category, error) {
	if c, ok := s.FindByName(name); ok {
		return c, nil
	}
	c, err := s.Create(ctx, name, "", "")
	if store.IsValidation(err, store.DuplicateName) {
		// Created by someone else between the lookup and the insert.
		if existing, ok := s.FindByName(name); ok {
			return existing, nil
		}
	}
	return c, err
}
