package domain

import "sort"

// CatalogSection is one category heading on the storefront with its products.
type CatalogSection struct {
	Category string    `json:"category"`
	Products []Product `json:"products"`
}

// GroupByCategory buckets products by their category name, preserving the
// input order inside each bucket. Products without a category are dropped.
func GroupByCategory(products []Product) map[string][]Product {
	groups := make(map[string][]Product)
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		groups[p.Category] = append(groups[p.Category], p)
	}
	return groups
}

// DisplayOrder computes the order in which category sections are shown.
//
// Registry order wins for every category that currently has products. Categories
// that have products but no registry entry follow, sorted lexicographically, so a
// product is never hidden because its category was not synced yet. Registry
// entries without live products are left out.
func DisplayOrder(products []Product, registry []Category) []string {
	groups := GroupByCategory(products)

	order := make([]string, 0, len(groups))
	registered := make(map[string]struct{}, len(registry))
	for _, c := range registry {
		if _, dup := registered[c.Name]; dup {
			continue
		}
		registered[c.Name] = struct{}{}
		if _, live := groups[c.Name]; live {
			order = append(order, c.Name)
		}
	}

	missing := make([]string, 0)
	for name := range groups {
		if _, ok := registered[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)

	return append(order, missing...)
}

// BuildCatalog groups products and arranges the groups in display order.
// registry is expected in registry order (ascending orderIndex).
func BuildCatalog(products []Product, registry []Category) []CatalogSection {
	groups := GroupByCategory(products)
	names := DisplayOrder(products, registry)

	sections := make([]CatalogSection, 0, len(names))
	for _, name := range names {
		sections = append(sections, CatalogSection{Category: name, Products: groups[name]})
	}
	return sections
}

// SortCategories orders registry entries by ascending orderIndex. Ties keep
// their relative input order.
func SortCategories(categories []Category) {
	sort.SliceStable(categories, func(i, j int) bool {
		return categories[i].OrderIndex < categories[j].OrderIndex
	})
}
