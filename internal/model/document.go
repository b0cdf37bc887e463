package model

// Category names one of the per-identity documents held by the canonical store.
type Category string

const (
	CategoryIdentity       Category = "id"
	CategorySnapshot       Category = "scrape"
	CategoryBadges         Category = "badges"
	CategoryRecentlyPlayed Category = "recently-played"
	CategorySummary        Category = "summary"
)

// Categories lists every document kind in a partition.
var Categories = []Category{
	CategoryIdentity,
	CategorySnapshot,
	CategoryBadges,
	CategoryRecentlyPlayed,
	CategorySummary,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// FileName returns the document file name inside a partition.
func (c Category) FileName() string {
	return string(c) + ".json"
}
