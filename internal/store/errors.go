package store

import "errors"

var (
	// ErrInvalidReference is returned when a category, location or parent
	// reference points at a row that does not exist.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrCycle is returned when a parent change would make a node its own ancestor.
	ErrCycle = errors.New("parent would create a cycle")

	// ErrHasChildren is returned when deleting a node that still has children.
	ErrHasChildren = errors.New("node has children")

	// ErrSameLocation is returned when moving an item to the location it is already in.
	ErrSameLocation = errors.New("item is already in that location")
)
