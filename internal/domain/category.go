package domain

import (
	"strings"
	"time"
)

// UncategorizedName labels transactions whose category cannot be resolved
const UncategorizedName = "uncategorized"

// UncategorizedID is the aggregation key for unresolved categories
const UncategorizedID = ""

type Category struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Color     string          `json:"color"`
	Type      TransactionType `json:"type"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (c Category) EntityID() string       { return c.ID }
func (c Category) Collection() Collection { return CollectionCategories }
func (c Category) LastUpdated() time.Time { return c.UpdatedAt }

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrNameRequired
	}
	if len(c.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if !c.Type.Valid() {
		return ErrInvalidTransactionType
	}
	return nil
}

// CategoryIndex resolves category ids. Collections sync independently, so a
// transaction may reference a category that is not (yet) present.
type CategoryIndex map[string]Category

// NewCategoryIndex indexes categories by id
func NewCategoryIndex(categories []Category) CategoryIndex {
	idx := make(CategoryIndex, len(categories))
	for _, c := range categories {
		idx[c.ID] = c
	}
	return idx
}

// Resolve looks up a category by id
func (idx CategoryIndex) Resolve(id string) (Category, bool) {
	if id == "" {
		return Category{}, false
	}
	c, ok := idx[id]
	return c, ok
}

// NameOf returns the category name or UncategorizedName
func (idx CategoryIndex) NameOf(id string) string {
	if c, ok := idx.Resolve(id); ok {
		return c.Name
	}
	return UncategorizedName
}
