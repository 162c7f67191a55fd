package models

import "time"

// Category groups vault links for display.
type Category string

const (
	CategoryPhotos     Category = "photos"
	CategoryVideos     Category = "videos"
	CategoryFiles      Category = "files"
	CategoryRecordings Category = "recordings"
)

// Categories lists every category in display order
var Categories = []Category{CategoryPhotos, CategoryVideos, CategoryFiles, CategoryRecordings}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Link is a reference to externally hosted media. Only the link is stored;
// the file itself stays with the hosting provider.
type Link struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	AddedDate      time.Time `json:"addedDate"`
	AddedTimestamp int64     `json:"addedTimestamp"`
	ThumbnailURL   string    `json:"thumbnailUrl,omitempty"`
	DirectURL      string    `json:"directUrl,omitempty"`
	ViewURL        string    `json:"viewUrl,omitempty"`
	EmbedURL       string    `json:"embedUrl,omitempty"`
	Size           string    `json:"size,omitempty"`
}

// CategoryMap holds every category's links
type CategoryMap map[Category][]Link

// NewCategoryMap returns a map with an empty slice for every category
func NewCategoryMap() CategoryMap {
	m := make(CategoryMap, len(Categories))
	for _, c := range Categories {
		m[c] = []Link{}
	}
	return m
}

// Total counts links across all categories
func (m CategoryMap) Total() int {
	n := 0
	for _, links := range m {
		n += len(links)
	}
	return n
}
