package composer

import (
	"testing"

	"github.com/eugenenazirov/kerkoapp/internal/config"
)

func testSettings() config.KerkoSettings {
	return config.KerkoSettings{
		Meta: config.MetaSettings{Title: "Library"},
		Search: config.SearchSettings{
			ResultPageSize: 15,
			DefaultSort:    "unknown",
			Sorts: []config.SortSettings{
				{Key: "score", Label: "Relevance"},
				{Key: "date_desc", Label: "Newest first"},
			},
		},
		Facets: map[string]config.FacetSettings{
			"tag":       {Title: "Topic", Field: "tag", Enabled: true, Position: 30},
			"item_type": {Title: "Item type", Field: "item_type", Enabled: true, Position: 10},
			"link":      {Title: "Online resource", Field: "link", Enabled: false, Position: 5},
			"year":      {Title: "Year", Field: "year", Enabled: true, Position: 10},
		},
	}
}

func TestUpdateDerivesSettings(t *testing.T) {
	c := New(testSettings())
	Update(c)

	if len(c.Facets) != 3 {
		t.Fatalf("expected disabled facet to be dropped, got %+v", c.Facets)
	}
	want := []string{"item_type", "year", "tag"}
	for i, key := range want {
		if c.Facets[i].Key != key {
			t.Fatalf("unexpected facet order: %+v", c.Facets)
		}
	}
	if c.DefaultSort != "score" {
		t.Fatalf("expected fallback to first sort, got %s", c.DefaultSort)
	}
	if _, ok := c.Facet("link"); ok {
		t.Fatalf("disabled facet should not be found")
	}
}

func TestUpdateIsIdempotent(t *testing.T) {
	c := New(testSettings())
	Update(c)
	Update(c)

	if c.DefaultSort != "score" {
		t.Fatalf("unexpected default sort after second update: %s", c.DefaultSort)
	}
	if len(c.Facets) != 3 {
		t.Fatalf("unexpected facets after second update: %+v", c.Facets)
	}
}

func TestDefaultQuery(t *testing.T) {
	settings := testSettings()
	settings.Search.DefaultSort = "date_desc"
	c := New(settings)
	Update(c)

	q := c.DefaultQuery()
	if q.Get("page-len") != "15" || q.Get("sort") != "date_desc" {
		t.Fatalf("unexpected default query %v", q)
	}
}
