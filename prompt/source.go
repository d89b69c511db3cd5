// Package prompt collects form input interactively, one question per field.
// List fields are filled record by record until the user declines another entry.
package prompt

import (
	"context"
	"fmt"

	"github.com/spf13/cast"

	"github.com/Azhovan/formrig"
	"github.com/Azhovan/formrig/internal/normalize"
)

// Option configures a prompt source.
type Option func(*source)

// WithDriver replaces the terminal driver.
func WithDriver(d Driver) Option {
	return func(s *source) {
		s.driver = d
	}
}

type source struct {
	schema *formrig.Schema
	driver Driver
}

// New creates a source that asks for every field of the schema.
// Answers are raw strings; file fields expect a local path.
func New(schema *formrig.Schema, opts ...Option) formrig.Source {
	s := &source{schema: schema, driver: SurveyDriver{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns "prompt".
func (s *source) Name() string {
	return "prompt"
}

// Load asks every question and returns the answers as flat field paths.
// Empty top-level answers are omitted so other sources can supply them.
func (s *source) Load(ctx context.Context) (map[string]any, error) {
	out := make(map[string]any)

	for _, f := range s.schema.Fields() {
		if f.Kind == formrig.KindList {
			records, err := s.askList(ctx, s.schema, f)
			if err != nil {
				return nil, err
			}
			flattenRecords(f.Name, records, out)
			continue
		}

		answer, err := s.ask(ctx, f, "")
		if err != nil {
			return nil, err
		}
		if answer != "" {
			out[f.Name] = answer
		}
	}

	return out, nil
}

func (s *source) ask(ctx context.Context, f formrig.FieldSpec, def string) (string, error) {
	cfg := InputConfig{Message: f.DisplayLabel() + ":", Default: def}
	if f.Kind == formrig.KindFile {
		cfg.Help = "path to a local file"
	}

	if f.Kind == formrig.KindPassword || f.Secret {
		return s.driver.Password(ctx, cfg)
	}
	return s.driver.Input(ctx, cfg)
}

// askList fills a list field through a FieldArray, starting each record from the
// record schema defaults.
func (s *source) askList(ctx context.Context, parent *formrig.Schema, f formrig.FieldSpec) ([]formrig.Record, error) {
	arr, err := parent.FieldArray(f.Name)
	if err != nil {
		return nil, err
	}
	nested, _ := parent.Records(f.Name)

	for {
		more, err := s.driver.Confirm(ctx, ConfirmConfig{
			Message: fmt.Sprintf("Add an entry to %s? (%d so far)", f.DisplayLabel(), arr.Len()),
			Default: true,
		})
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}

		i := arr.Append()
		for _, nf := range nested.Fields() {
			var value any
			if nf.Kind == formrig.KindList {
				value, err = s.askList(ctx, nested, nf)
			} else {
				def, _ := arr.Get(i, nf.Name)
				value, err = s.ask(ctx, nf, defaultText(def))
			}
			if err != nil {
				return nil, err
			}
			if err := arr.Set(i, nf.Name, value); err != nil {
				return nil, err
			}
		}
	}

	return arr.Records(), nil
}

func defaultText(v any) string {
	switch v.(type) {
	case nil, formrig.FileList, []formrig.Record:
		return ""
	}
	return cast.ToString(v)
}

func flattenRecords(path string, records []formrig.Record, out map[string]any) {
	for i, rec := range records {
		prefix := normalize.IndexPath(path, i)
		for name, v := range rec {
			key := normalize.ApplyPrefix(prefix, name)
			if nested, ok := v.([]formrig.Record); ok {
				flattenRecords(key, nested, out)
				continue
			}
			out[key] = v
		}
	}
}
