package domain

import "errors"

var (
	// ErrDuplicateArticle means an article with the same externalId exists.
	ErrDuplicateArticle = errors.New("article already imported")
	// ErrSlugTaken means the slug unique constraint rejected the insert.
	ErrSlugTaken = errors.New("slug already taken")
	// ErrNotFound is returned by lookups that found nothing.
	ErrNotFound = errors.New("not found")
	// ErrZoneNotFound means the (zone, page) pair has no row.
	ErrZoneNotFound = errors.New("zone not found")
	// ErrNoSources means nothing is configured to fetch from.
	ErrNoSources = errors.New("no article sources configured")
	// ErrInvalidCategory means the category is not served by any source.
	ErrInvalidCategory = errors.New("invalid category")
)
