// Package view derives read-only projections from collection snapshots.
// Nothing here stores or validates data; every result is recomputed from
// the latest snapshot.
package view

// Item is a record that can be filtered by category and completion.
type Item interface {
	GetCategoryID() string
	IsCompleted() bool
}

// FilterByCategory keeps items whose category id equals categoryID.
func FilterByCategory[T Item](items []T, categoryID string) []T {
	return filter(items, func(item T) bool { return item.GetCategoryID() == categoryID })
}

// FilterCompleted keeps completed items.
func FilterCompleted[T Item](items []T) []T {
	return filter(items, func(item T) bool { return item.IsCompleted() })
}

// FilterPending keeps items that are not completed.
func FilterPending[T Item](items []T) []T {
	return filter(items, func(item T) bool { return !item.IsCompleted() })
}

// ByCategory re-filters every snapshot from src by category.
func ByCategory[T Item](src <-chan []T, categoryID string) <-chan []T {
	return Map(src, func(items []T) []T { return FilterByCategory(items, categoryID) })
}

// Completed re-filters every snapshot from src down to completed items.
func Completed[T Item](src <-chan []T) <-chan []T {
	return Map(src, FilterCompleted[T])
}

// Pending re-filters every snapshot from src down to pending items.
func Pending[T Item](src <-chan []T) <-chan []T {
	return Map(src, FilterPending[T])
}

// Map applies fn to every snapshot from src. The returned channel keeps
// only the newest result if the reader falls behind, and is closed when
// src is closed.
func Map[T, U any](src <-chan []T, fn func([]T) []U) <-chan []U {
	out := make(chan []U, 1)
	go func() {
		defer close(out)
		for items := range src {
			result := fn(items)
			select {
			case out <- result:
				continue
			default:
			}
			select {
			case <-out:
			default:
			}
			out <- result
		}
	}()
	return out
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
