package model

// Category groups tasks by area (work, health, study, etc.).
type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Icon      string `json:"icon,omitempty"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

func (c Category) GetID() string       { return c.ID }
func (c Category) GetUpdatedAt() int64 { return c.UpdatedAt }
