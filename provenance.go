package formrig

import "sort"

// Provenance records which source supplied each raw input path.
type Provenance struct {
	Fields []FieldProvenance
}

// FieldProvenance describes where a raw value came from.
type FieldProvenance struct {
	FieldPath  string // Dot notation (e.g., "techs.0.title")
	SourceName string // Source identifier (e.g., "env:FORM_TECHS__0__TITLE" or "file:input.yaml")
}

// Lookup returns the source that supplied a field path.
func (p *Provenance) Lookup(path string) (string, bool) {
	if p == nil {
		return "", false
	}
	for _, f := range p.Fields {
		if f.FieldPath == path {
			return f.SourceName, true
		}
	}
	return "", false
}

func newProvenance(origins map[string]string) *Provenance {
	fields := make([]FieldProvenance, 0, len(origins))
	for path, source := range origins {
		fields = append(fields, FieldProvenance{FieldPath: path, SourceName: source})
	}
	sort.Slice(fields, func(i, j int) bool {
		return fields[i].FieldPath < fields[j].FieldPath
	})
	return &Provenance{Fields: fields}
}
