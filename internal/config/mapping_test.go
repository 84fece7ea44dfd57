package config

import "testing"

func TestMappingGetSet(t *testing.T) {
	m := Mapping{}
	m.Set("kerko.meta.title", "Library")
	m.Set("DEBUG", true)

	if v, ok := m.Get("kerko.meta.title"); !ok || v != "Library" {
		t.Fatalf("unexpected value %v (found=%v)", v, ok)
	}
	if _, ok := m.Get("kerko.meta.missing"); ok {
		t.Fatalf("expected missing key")
	}
	if _, ok := m.Get("DEBUG.nested"); ok {
		t.Fatalf("expected lookup through scalar to fail")
	}
	if !m.Bool("DEBUG") {
		t.Fatalf("expected DEBUG flag")
	}
}

func TestMappingMergeIsDeep(t *testing.T) {
	m := Mapping{}
	m.Set("kerko.meta.title", "Defaults")
	m.Set("kerko.search.result_page_size", int64(20))

	layer := Mapping{}
	layer.Set("kerko.meta.title", "Override")

	if err := m.Merge(layer); err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}

	if v, _ := m.Get("kerko.meta.title"); v != "Override" {
		t.Fatalf("expected override, got %v", v)
	}
	if v, _ := m.Get("kerko.search.result_page_size"); v != int64(20) {
		t.Fatalf("expected untouched sibling, got %v", v)
	}
}

func TestMappingMergeReplacesLists(t *testing.T) {
	m := Mapping{"kerkoapp": map[string]any{"locales": []any{"en"}}}
	if err := m.Merge(Mapping{"kerkoapp": map[string]any{"locales": []string{"fr", "de"}}}); err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}

	v, _ := m.Get("kerkoapp.locales")
	list, ok := v.([]any)
	if !ok || len(list) != 2 || list[0] != "fr" {
		t.Fatalf("expected list to be replaced, got %#v", v)
	}
}

func TestMappingClone(t *testing.T) {
	m := Mapping{}
	m.Set("a.b", "c")

	c := m.Clone()
	c.Set("a.b", "changed")

	if v, _ := m.Get("a.b"); v != "c" {
		t.Fatalf("clone shares state with original")
	}
}
