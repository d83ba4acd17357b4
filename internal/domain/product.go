package domain

// Product is a single catalog entry. Identity is the UPC; instances are
// created once during catalog load and never mutated afterwards.
type Product struct {
	Name         string `json:"name"`
	UPC          string `json:"upc"`
	MainCategory string `json:"main_category,omitempty"`
	Subcategory  string `json:"subcategory,omitempty"`
}

// CatalogEntry is one product row as it appears in the catalog file,
// before category metadata is attached.
type CatalogEntry struct {
	Name string `json:"name"`
	UPC  string `json:"upc"`
}

// CatalogData is the nested main category -> subcategory -> entries shape
// produced by the catalog loader and consumed by the index builder.
type CatalogData map[string]map[string][]CatalogEntry
