package domain

// Category is a registry entry holding a category name and its display position.
// OrderIndex values are not required to be unique or contiguous in storage.
type Category struct {
	ID         string `json:"_id"`
	Name       string `json:"name"`
	OrderIndex int    `json:"orderIndex"`
}

// CategoryOrder assigns an orderIndex to the category identified by ID.
type CategoryOrder struct {
	ID         string `json:"id"`
	OrderIndex int    `json:"orderIndex"`
}
