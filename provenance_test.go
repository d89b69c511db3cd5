package formrig

import "testing"

func TestProvenance_Lookup(t *testing.T) {
	prov := newProvenance(map[string]string{
		"name":          "env:FORM_",
		"techs.0.title": "file:input.yaml",
	})

	if len(prov.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(prov.Fields))
	}
	if prov.Fields[0].FieldPath != "name" {
		t.Errorf("fields should be sorted by path, got %q first", prov.Fields[0].FieldPath)
	}

	src, ok := prov.Lookup("techs.0.title")
	if !ok || src != "file:input.yaml" {
		t.Errorf("Lookup(techs.0.title) = %q, %v", src, ok)
	}

	if _, ok := prov.Lookup("email"); ok {
		t.Error("Lookup(email) should not be found")
	}
}

func TestProvenance_NilSafe(t *testing.T) {
	var prov *Provenance
	if _, ok := prov.Lookup("name"); ok {
		t.Error("nil provenance should find nothing")
	}
}
