package model

import "time"

// Blob is a named value in the primary key-value table.
type Blob struct {
	Key       string `gorm:"primaryKey;column:name"`
	Value     []byte
	UpdatedAt time.Time
}
