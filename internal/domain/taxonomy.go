package domain

// Category groups articles on a category page.
type Category struct {
	ID    string
	Slug  string
	Name  string
	Color string
}

// Tag is a keyword shared between articles.
type Tag struct {
	ID   string
	Slug string
	Name string
}
