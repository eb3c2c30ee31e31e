package catalog

import "errors"

var (
	// ErrEmptyID is returned when neither the README nor the folder name
	// yields a usable identifier.
	ErrEmptyID = errors.New("catalog: empty record id")

	// ErrNoDocuments is returned for folders without any PDF document.
	ErrNoDocuments = errors.New("catalog: folder has no documents")

	// ErrLocked is returned when another run holds the catalog lock.
	ErrLocked = errors.New("catalog: locked by another run")
)
