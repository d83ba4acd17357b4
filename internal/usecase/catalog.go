package usecase

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/barcodelens/backend/internal/domain"
)

// CatalogIndex holds the full product list plus O(1) lookup structures and
// the two-level category tree. It is built once at startup and shared
// read-only across all sessions, so no locking is needed.
type CatalogIndex struct {
	products []domain.Product

	tree  map[string]map[string][]domain.Product
	mains []string            // main category names, sorted
	subs  map[string][]string // subcategory names per main, sorted

	byCode map[string]domain.Product
	byName map[string]domain.Product // keyed by lowercased name
}

// CategoryStats describes one main category for the stats endpoint.
type CategoryStats struct {
	Subcategories int            `json:"subcategories"`
	Products      int            `json:"products"`
	Breakdown     map[string]int `json:"breakdown"`
}

// CatalogStats is an aggregate view over the whole catalog.
type CatalogStats struct {
	TotalProducts  int                      `json:"total_products"`
	MainCategories int                      `json:"main_categories"`
	Categories     map[string]CategoryStats `json:"categories"`
}

// BuildCatalogIndex constructs the index from nested catalog data. Entries
// with a missing name or UPC are skipped with a warning. Category levels are
// walked in sorted order and products keep their per-leaf load order, so
// every traversal of the index is deterministic. Duplicate UPCs are not an
// error; the last entry wins in both indices.
func BuildCatalogIndex(data domain.CatalogData) (*CatalogIndex, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: nil catalog data", domain.ErrCatalogUnavailable)
	}

	idx := &CatalogIndex{
		tree:   make(map[string]map[string][]domain.Product),
		subs:   make(map[string][]string),
		byCode: make(map[string]domain.Product),
		byName: make(map[string]domain.Product),
	}

	for main := range data {
		idx.mains = append(idx.mains, main)
	}
	sort.Strings(idx.mains)

	for _, main := range idx.mains {
		subTree := make(map[string][]domain.Product)

		var subNames []string
		for sub := range data[main] {
			subNames = append(subNames, sub)
		}
		sort.Strings(subNames)

		for _, sub := range subNames {
			var leaf []domain.Product
			for _, entry := range data[main][sub] {
				if entry.Name == "" || entry.UPC == "" {
					log.Printf("[CATALOG] Skipping invalid product in %s/%s: %+v", main, sub, entry)
					continue
				}
				product := domain.Product{
					Name:         entry.Name,
					UPC:          entry.UPC,
					MainCategory: main,
					Subcategory:  sub,
				}
				leaf = append(leaf, product)
				idx.products = append(idx.products, product)
			}
			subTree[sub] = leaf
		}

		idx.tree[main] = subTree
		idx.subs[main] = subNames
	}

	for _, p := range idx.products {
		idx.byCode[p.UPC] = p
		idx.byName[strings.ToLower(p.Name)] = p
	}

	log.Printf("[CATALOG] Indexed %d products across %d main categories", len(idx.products), len(idx.mains))
	return idx, nil
}

// FindByCode returns the product with the given UPC.
func (idx *CatalogIndex) FindByCode(code string) (domain.Product, bool) {
	p, ok := idx.byCode[code]
	return p, ok
}

// FindByName returns the product with the given name, case-insensitively.
func (idx *CatalogIndex) FindByName(name string) (domain.Product, bool) {
	p, ok := idx.byName[strings.ToLower(name)]
	return p, ok
}

// FindByCategory returns products scoped by category. With both main and sub
// it returns that leaf; with only main, all of its subcategory lists in tree
// order; with neither, the full product list. The result is always a copy.
func (idx *CatalogIndex) FindByCategory(main, sub string) []domain.Product {
	if main != "" && sub != "" {
		leaf := idx.tree[main][sub]
		return append([]domain.Product(nil), leaf...)
	}

	if main != "" {
		var out []domain.Product
		for _, s := range idx.subs[main] {
			out = append(out, idx.tree[main][s]...)
		}
		return out
	}

	return append([]domain.Product(nil), idx.products...)
}

// Products returns a copy of the full product list in load order.
func (idx *CatalogIndex) Products() []domain.Product {
	return append([]domain.Product(nil), idx.products...)
}

// AllCodes returns every catalog UPC, deduplicated, in load order.
func (idx *CatalogIndex) AllCodes() []string {
	seen := make(map[string]struct{}, len(idx.products))
	codes := make([]string, 0, len(idx.products))
	for _, p := range idx.products {
		if _, ok := seen[p.UPC]; ok {
			continue
		}
		seen[p.UPC] = struct{}{}
		codes = append(codes, p.UPC)
	}
	return codes
}

// Categories returns main category -> subcategory names for discovery.
func (idx *CatalogIndex) Categories() map[string][]string {
	out := make(map[string][]string, len(idx.mains))
	for _, main := range idx.mains {
		out[main] = append([]string(nil), idx.subs[main]...)
	}
	return out
}

// Size returns the number of indexed products.
func (idx *CatalogIndex) Size() int {
	return len(idx.products)
}

// Stats returns per-category product and subcategory counts.
func (idx *CatalogIndex) Stats() CatalogStats {
	stats := CatalogStats{
		TotalProducts:  len(idx.products),
		MainCategories: len(idx.mains),
		Categories:     make(map[string]CategoryStats, len(idx.mains)),
	}

	for _, main := range idx.mains {
		cs := CategoryStats{
			Subcategories: len(idx.subs[main]),
			Breakdown:     make(map[string]int, len(idx.subs[main])),
		}
		for _, sub := range idx.subs[main] {
			n := len(idx.tree[main][sub])
			cs.Breakdown[sub] = n
			cs.Products += n
		}
		stats.Categories[main] = cs
	}

	return stats
}
