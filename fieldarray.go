package formrig

import "fmt"

// FieldArray edits the records of a list field the way a repeatable field group does:
// records can be appended with schema defaults, edited and removed by index.
// It is not safe for concurrent use.
type FieldArray struct {
	field   FieldSpec
	schema  *Schema
	records []Record
}

// FieldArray returns an editor over the records of a list field, seeded with copies
// of initial.
func (s *Schema) FieldArray(name string, initial ...Record) (*FieldArray, error) {
	f, ok := s.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if f.Kind != KindList {
		return nil, fmt.Errorf("%w: %s", ErrNotList, name)
	}

	a := &FieldArray{field: f, schema: s.nested[name]}
	for _, rec := range initial {
		a.records = append(a.records, copyRecord(rec))
	}
	return a, nil
}

// Name returns the list field name.
func (a *FieldArray) Name() string {
	return a.field.Name
}

// Len returns the number of records.
func (a *FieldArray) Len() int {
	return len(a.records)
}

// Append adds a record holding each record field's default and returns its index.
func (a *FieldArray) Append() int {
	rec := make(Record, len(a.schema.fields))
	for _, f := range a.schema.fields {
		rec[f.Name] = f.zero()
	}
	a.records = append(a.records, rec)
	return len(a.records) - 1
}

// Remove deletes the record at index i. Later records shift down by one.
func (a *FieldArray) Remove(i int) error {
	if i < 0 || i >= len(a.records) {
		return fmt.Errorf("%w: %s.%d", ErrIndexOutOfRange, a.field.Name, i)
	}
	a.records = append(a.records[:i], a.records[i+1:]...)
	return nil
}

// Set stores a raw value for one field of the record at index i.
func (a *FieldArray) Set(i int, field string, value any) error {
	if i < 0 || i >= len(a.records) {
		return fmt.Errorf("%w: %s.%d", ErrIndexOutOfRange, a.field.Name, i)
	}
	if _, ok := a.schema.Lookup(field); !ok {
		return fmt.Errorf("%w: %s.%d.%s", ErrUnknownField, a.field.Name, i, field)
	}
	a.records[i][field] = value
	return nil
}

// Get returns the raw value of one field of the record at index i.
func (a *FieldArray) Get(i int, field string) (any, bool) {
	if i < 0 || i >= len(a.records) {
		return nil, false
	}
	v, ok := a.records[i][field]
	return v, ok
}

// Records returns a copy of the current records, usable as raw list input.
func (a *FieldArray) Records() []Record {
	out := make([]Record, len(a.records))
	for i, rec := range a.records {
		out[i] = copyRecord(rec)
	}
	return out
}

func copyRecord(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
