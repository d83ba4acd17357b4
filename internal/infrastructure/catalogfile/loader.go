package catalogfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/barcodelens/backend/internal/domain"
)

// Load reads a product catalog file into the nested category shape. The file
// is a JSON object of main category -> subcategory -> entry list, where each
// entry has a name and a upc (string or number). A top-level shape that
// cannot be parsed is fatal; malformed categories, subcategories and entries
// are skipped with a warning.
func Load(path string) (domain.CatalogData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes catalog bytes into the nested category shape.
func Parse(raw []byte) (domain.CatalogData, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	data := make(domain.CatalogData, len(top))

	for main, subsRaw := range top {
		var subs map[string]json.RawMessage
		if err := json.Unmarshal(subsRaw, &subs); err != nil {
			log.Printf("[CATALOG] Skipping invalid category %q: %v", main, err)
			continue
		}

		tree := make(map[string][]domain.CatalogEntry, len(subs))
		for sub, listRaw := range subs {
			entries, err := parseEntries(listRaw)
			if err != nil {
				log.Printf("[CATALOG] Skipping invalid subcategory %q.%q: %v", main, sub, err)
				continue
			}
			tree[sub] = entries
		}
		data[main] = tree
	}

	return data, nil
}

func parseEntries(listRaw json.RawMessage) ([]domain.CatalogEntry, error) {
	// UseNumber keeps long UPCs exact; float64 would round them.
	dec := json.NewDecoder(bytes.NewReader(listRaw))
	dec.UseNumber()

	var items []map[string]interface{}
	if err := dec.Decode(&items); err != nil {
		return nil, err
	}

	var entries []domain.CatalogEntry
	for _, item := range items {
		name, _ := item["name"].(string)
		upc := stringifyUPC(item["upc"])
		if name == "" || upc == "" {
			log.Printf("[CATALOG] Skipping invalid product entry: %v", item)
			continue
		}
		entries = append(entries, domain.CatalogEntry{Name: name, UPC: upc})
	}
	return entries, nil
}

func stringifyUPC(v interface{}) string {
	switch upc := v.(type) {
	case string:
		return upc
	case json.Number:
		return upc.String()
	default:
		return ""
	}
}
