package usecase

import (
	"reflect"
	"testing"

	"github.com/barcodelens/backend/internal/domain"
)

func testCatalogData() domain.CatalogData {
	return domain.CatalogData{
		"ambient": {
			"Biscuits": {
				{Name: "ChocoBar", UPC: "11111"},
				{Name: "Choco Bar Mini", UPC: "22222"},
				{Name: "Choco Bar", UPC: "33333"},
			},
			"Crisps": {
				{Name: "Salted Crisps", UPC: "29377107"},
			},
		},
		"frozen": {
			"Dessert": {
				{Name: "Ice Dream", UPC: "99999"},
			},
		},
	}
}

func mustIndex(t *testing.T, data domain.CatalogData) *CatalogIndex {
	t.Helper()
	idx, err := BuildCatalogIndex(data)
	if err != nil {
		t.Fatalf("BuildCatalogIndex() error = %v", err)
	}
	return idx
}

func TestBuildCatalogIndex(t *testing.T) {
	t.Run("fails on nil data", func(t *testing.T) {
		if _, err := BuildCatalogIndex(nil); err == nil {
			t.Error("BuildCatalogIndex(nil) error = nil, want error")
		}
	})

	t.Run("indexes all valid products", func(t *testing.T) {
		idx := mustIndex(t, testCatalogData())
		if idx.Size() != 5 {
			t.Errorf("Size() = %d, want 5", idx.Size())
		}
	})

	t.Run("skips entries missing name or code", func(t *testing.T) {
		data := domain.CatalogData{
			"ambient": {
				"Biscuits": {
					{Name: "", UPC: "11111"},
					{Name: "No Code", UPC: ""},
					{Name: "Valid", UPC: "22222"},
				},
			},
		}
		idx := mustIndex(t, data)
		if idx.Size() != 1 {
			t.Errorf("Size() = %d, want 1 (invalid entries skipped)", idx.Size())
		}
	})

	t.Run("duplicate code keeps the last entry", func(t *testing.T) {
		data := domain.CatalogData{
			"ambient": {
				"Biscuits": {
					{Name: "First", UPC: "11111"},
					{Name: "Second", UPC: "11111"},
				},
			},
		}
		idx := mustIndex(t, data)
		p, ok := idx.FindByCode("11111")
		if !ok || p.Name != "Second" {
			t.Errorf("FindByCode = %+v, %v, want the later entry", p, ok)
		}
	})
}

func TestCatalogIndexLookups(t *testing.T) {
	idx := mustIndex(t, testCatalogData())

	t.Run("find by code", func(t *testing.T) {
		p, ok := idx.FindByCode("29377107")
		if !ok || p.Name != "Salted Crisps" {
			t.Errorf("FindByCode = %+v, %v", p, ok)
		}
		if p.MainCategory != "ambient" || p.Subcategory != "Crisps" {
			t.Errorf("category metadata = %s/%s, want ambient/Crisps", p.MainCategory, p.Subcategory)
		}
	})

	t.Run("find by name is case-insensitive", func(t *testing.T) {
		p, ok := idx.FindByName("cHoCoBaR")
		if !ok || p.UPC != "11111" {
			t.Errorf("FindByName = %+v, %v", p, ok)
		}
	})

	t.Run("unknown lookups miss", func(t *testing.T) {
		if _, ok := idx.FindByCode("00000"); ok {
			t.Error("FindByCode(unknown) = found")
		}
		if _, ok := idx.FindByName("nope"); ok {
			t.Error("FindByName(unknown) = found")
		}
	})
}

func TestFindByCategory(t *testing.T) {
	idx := mustIndex(t, testCatalogData())

	t.Run("main and sub returns the leaf", func(t *testing.T) {
		got := idx.FindByCategory("ambient", "Crisps")
		if len(got) != 1 || got[0].UPC != "29377107" {
			t.Errorf("FindByCategory(ambient, Crisps) = %+v", got)
		}
	})

	t.Run("main only concatenates subcategories in tree order", func(t *testing.T) {
		got := idx.FindByCategory("ambient", "")
		want := []string{"11111", "22222", "33333", "29377107"}
		var codes []string
		for _, p := range got {
			codes = append(codes, p.UPC)
		}
		if !reflect.DeepEqual(codes, want) {
			t.Errorf("codes = %v, want %v", codes, want)
		}
	})

	t.Run("no scope returns everything", func(t *testing.T) {
		if got := idx.FindByCategory("", ""); len(got) != 5 {
			t.Errorf("len = %d, want 5", len(got))
		}
	})

	t.Run("unknown category is empty", func(t *testing.T) {
		if got := idx.FindByCategory("nope", ""); len(got) != 0 {
			t.Errorf("len = %d, want 0", len(got))
		}
	})

	t.Run("traversal is deterministic", func(t *testing.T) {
		first := idx.FindByCategory("", "")
		for i := 0; i < 10; i++ {
			if !reflect.DeepEqual(idx.FindByCategory("", ""), first) {
				t.Fatal("FindByCategory order changed between calls")
			}
		}
	})
}

func TestCategoriesAndStats(t *testing.T) {
	idx := mustIndex(t, testCatalogData())

	t.Run("categories map", func(t *testing.T) {
		got := idx.Categories()
		want := map[string][]string{
			"ambient": {"Biscuits", "Crisps"},
			"frozen":  {"Dessert"},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Categories() = %v, want %v", got, want)
		}
	})

	t.Run("all codes in load order", func(t *testing.T) {
		got := idx.AllCodes()
		want := []string{"11111", "22222", "33333", "29377107", "99999"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("AllCodes() = %v, want %v", got, want)
		}
	})

	t.Run("stats", func(t *testing.T) {
		stats := idx.Stats()
		if stats.TotalProducts != 5 || stats.MainCategories != 2 {
			t.Errorf("stats = %+v", stats)
		}
		if stats.Categories["ambient"].Products != 4 {
			t.Errorf("ambient products = %d, want 4", stats.Categories["ambient"].Products)
		}
		if stats.Categories["ambient"].Breakdown["Biscuits"] != 3 {
			t.Errorf("Biscuits breakdown = %d, want 3", stats.Categories["ambient"].Breakdown["Biscuits"])
		}
	})
}
