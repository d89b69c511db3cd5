package formrig

import (
	"context"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// Kind identifies how a field's raw value is coerced.
type Kind int

const (
	KindText Kind = iota
	KindEmail
	KindPassword
	KindNumber
	KindFile
	KindList
)

var kindNames = map[Kind]string{
	KindText:     "text",
	KindEmail:    "email",
	KindPassword: "password",
	KindNumber:   "number",
	KindFile:     "file",
	KindList:     "list",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind maps a kind name (as used in schema files) to a Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// isString reports whether values of this kind are coerced to strings.
func (k Kind) isString() bool {
	return k == KindText || k == KindEmail || k == KindPassword
}

// Input holds raw, untrusted values keyed by top-level field name.
// List fields hold an ordered slice of records.
type Input map[string]any

// Record is one raw or normalized entry of a list field.
type Record map[string]any

// Values holds normalized output keyed by top-level field name.
// List fields hold []Record, file fields hold FileRef, numbers are float64.
type Values map[string]any

// FileRef describes a selected file. Path points at the local content.
type FileRef struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"type,omitempty"`
	Path        string `json:"-"`
}

// Open opens the file content for reading.
func (f FileRef) Open() (*os.File, error) {
	return os.Open(f.Path)
}

// FileList is the raw value of a file control. Only the first entry is used.
type FileList []FileRef

// LocalFile builds a FileRef for a file on disk, sniffing its content type.
func LocalFile(path string) (FileRef, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileRef{}, err
	}

	mime, err := mimetype.DetectFile(path)
	if err != nil {
		return FileRef{}, err
	}

	return FileRef{
		Name:        filepath.Base(path),
		Size:        info.Size(),
		ContentType: mime.String(),
		Path:        path,
	}, nil
}

// Source provides raw form input from a backend (files, env vars, prompts).
// Keys must be dot-separated field paths (e.g., "techs.0.title").
type Source interface {
	// Load returns raw input as a flat map. Missing optional sources should return empty map.
	Load(ctx context.Context) (map[string]any, error)

	// Name identifies the source in provenance records (e.g., "file:input.yaml").
	Name() string
}

// Uploader stores a selected file remotely and returns where it landed.
type Uploader interface {
	Upload(ctx context.Context, key string, f FileRef) (string, error)
}

// UploaderFunc is a function adapter for the Uploader interface.
type UploaderFunc func(ctx context.Context, key string, f FileRef) (string, error)

func (fn UploaderFunc) Upload(ctx context.Context, key string, f FileRef) (string, error) {
	return fn(ctx, key, f)
}
