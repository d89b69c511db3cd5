package formrig

import (
	"context"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Decode copies normalized values into out, a pointer to a struct whose fields carry
// `form:"name"` tags. List records decode into slices of structs.
func Decode(values Values, out any) error {
	if values == nil {
		return ErrNilValues
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "form",
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}

	if err := decoder.Decode(map[string]any(values)); err != nil {
		return fmt.Errorf("decode values: %w", err)
	}
	return nil
}

// SubmitFiles uploads the file of every top-level file field, keyed by file name, and
// returns the upload location per field. Uploads run once each, in schema order; the
// first failure stops the submission and is returned as is.
func SubmitFiles(ctx context.Context, schema *Schema, values Values, up Uploader) (map[string]string, error) {
	if schema == nil {
		return nil, ErrNilSchema
	}

	uploads := make(map[string]string)
	for _, f := range schema.fields {
		if f.Kind != KindFile {
			continue
		}
		file, ok := values[f.Name].(FileRef)
		if !ok {
			continue
		}

		location, err := up.Upload(ctx, file.Name, file)
		if err != nil {
			return uploads, fmt.Errorf("upload %s: %w", f.Name, err)
		}
		uploads[f.Name] = location
	}

	return uploads, nil
}
