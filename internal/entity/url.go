// Package entity defines the entities and errors used in the application.
// It includes the URL struct, which represents a shortened URL, along with its
// associated metadata, the listing types, and any relevant error definitions.
package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrShortCodeExists is returned when attempting to create a URL with a short code that already exists.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrURLNotFound is returned when a URL with the specified short code cannot be found.
	// Decode and redirect also return it for inactive URLs.
	ErrURLNotFound = errors.New("url not found")
	// ErrInvalidStatus is returned when a status value is neither ACTIVE nor INACTIVE.
	ErrInvalidStatus = errors.New("invalid url status")
	// ErrCodeSpaceExhausted is returned when no free short code could be found.
	ErrCodeSpaceExhausted = errors.New("short code space exhausted")
)

// Status tells whether a URL resolves on decode and redirect.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// URL represents a shortened URL.
type URL struct {
	ID          uuid.UUID // ID is the unique identifier assigned at creation.
	ShortCode   string    // ShortCode is the generated code used to shorten the original URL.
	OriginalURL string    // OriginalURL is the full URL that the short code resolves to.
	URLStats              // URLStats contains statistics about the URL.
	Status      Status    // Status gates whether the URL resolves.
	CreatedAt   time.Time // CreatedAt is the timestamp when the URL was created.
}

// IsActive reports whether the URL resolves on decode and redirect.
func (u *URL) IsActive() bool {
	return u.Status == StatusActive
}

// URLStats contains statistics related to a shortened URL.
type URLStats struct {
	VisitCount  int64 // VisitCount is the number of redirects and statistics lookups.
	SearchCount int64 // SearchCount is the number of times the URL appeared in search results.
}

// ShortLink is the result of shortening a URL.
type ShortLink struct {
	ShortURL string
	Code     string
}
