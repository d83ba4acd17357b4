package usecase

import (
	"log"
	"strings"

	"github.com/barcodelens/backend/internal/domain"
)

// ResolvedProduct pairs a catalog product with how its query matched. The
// match type lives here, never on the shared Product, so concurrent
// resolutions cannot race on catalog state.
type ResolvedProduct struct {
	Product   domain.Product
	MatchType domain.MatchType
}

// MatchResolver resolves free-text queries (names or UPCs) against the
// catalog using tiered matching: exact UPC, then exact name, then first
// substring hit on the name.
type MatchResolver struct {
	index              *CatalogIndex
	enableDebugLogging bool
}

// NewMatchResolver creates a resolver over the given index.
func NewMatchResolver(index *CatalogIndex, enableDebugLogging bool) *MatchResolver {
	return &MatchResolver{
		index:              index,
		enableDebugLogging: enableDebugLogging,
	}
}

// Resolve maps each query to at most one product within the category scope.
// Blank queries are skipped and non-matching queries are dropped, never an
// error. A UPC already accepted for an earlier query is not accepted again,
// so the result contains each product at most once, tagged by the first
// query that reached it.
func (r *MatchResolver) Resolve(queries []string, mainCategory, subcategory string) []ResolvedProduct {
	candidates := r.index.FindByCategory(mainCategory, subcategory)
	if len(candidates) == 0 {
		log.Printf("[RESOLVE] No products in category %s/%s", mainCategory, subcategory)
		return nil
	}

	inScope := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		inScope[c.UPC] = struct{}{}
	}

	var results []ResolvedProduct
	seen := make(map[string]struct{})

	accept := func(p domain.Product, mt domain.MatchType) {
		results = append(results, ResolvedProduct{Product: p, MatchType: mt})
		seen[p.UPC] = struct{}{}
	}

	for _, raw := range queries {
		query := strings.TrimSpace(raw)
		if query == "" {
			continue
		}

		matched := false

		// Tier 1: exact UPC. Tier 2 (exact name) is only attempted when
		// the UPC lookup finds nothing at all; a UPC hit rejected by the
		// category scope still suppresses the name tier.
		if p, ok := r.index.FindByCode(query); ok {
			if _, scoped := inScope[p.UPC]; scoped {
				if _, dup := seen[p.UPC]; !dup {
					accept(p, domain.MatchFull)
					matched = true
					if r.enableDebugLogging {
						log.Printf("[RESOLVE] UPC match: %q -> %q", query, p.Name)
					}
				}
			}
		} else if p, ok := r.index.FindByName(query); ok {
			if _, scoped := inScope[p.UPC]; scoped {
				if _, dup := seen[p.UPC]; !dup {
					accept(p, domain.MatchFull)
					matched = true
					if r.enableDebugLogging {
						log.Printf("[RESOLVE] Name match: %q -> %q", query, p.Name)
					}
				}
			}
		}
		if matched {
			continue
		}

		// Tier 3: first substring hit in candidate order, either direction
		lowerQuery := strings.ToLower(query)
		for _, p := range candidates {
			if _, dup := seen[p.UPC]; dup {
				continue
			}
			lowerName := strings.ToLower(p.Name)
			if strings.Contains(lowerName, lowerQuery) || strings.Contains(lowerQuery, lowerName) {
				accept(p, domain.MatchPartial)
				if r.enableDebugLogging {
					log.Printf("[RESOLVE] Partial match: %q -> %q", query, p.Name)
				}
				matched = true
				break
			}
		}

		if !matched {
			log.Printf("[RESOLVE] No match for query %q", query)
		}
	}

	return results
}
