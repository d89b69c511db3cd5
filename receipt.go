package formrig

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxReceiptSize is the maximum allowed serialized receipt size (10MB).
const MaxReceiptSize = 10 * 1024 * 1024

// ReceiptVersion is the current receipt format version.
const ReceiptVersion = "1.0"

// Receipt errors.
var (
	// ErrReceiptTooLarge is returned when a receipt exceeds MaxReceiptSize.
	ErrReceiptTooLarge = errors.New("formrig: receipt exceeds 10MB size limit")

	// ErrNilValues is returned when NewReceipt receives nil values.
	ErrNilValues = errors.New("formrig: values are nil")
)

// Receipt is a record of one accepted submission.
type Receipt struct {
	// ID uniquely identifies the submission
	ID string `json:"id"`

	// Version is the receipt format version (currently "1.0")
	Version string `json:"version"`

	// Timestamp is when the receipt was created
	Timestamp time.Time `json:"timestamp"`

	// Data contains the normalized values with secrets redacted
	Data map[string]any `json:"data"`

	// Uploads maps file field paths to where the upload landed
	Uploads map[string]string `json:"uploads,omitempty"`
}

// ReceiptOption configures receipt creation behavior.
type ReceiptOption func(*receiptConfig)

// receiptConfig holds internal configuration for receipt creation.
type receiptConfig struct {
	excludeFields []string // Top-level field names to exclude
}

// WithExcludeFields excludes top-level fields from the receipt data.
func WithExcludeFields(names ...string) ReceiptOption {
	return func(cfg *receiptConfig) {
		cfg.excludeFields = append(cfg.excludeFields, names...)
	}
}

// NewReceipt captures an accepted submission.
// Secrets are redacted; the Timestamp is captured at creation time in UTC.
func NewReceipt(schema *Schema, values Values, uploads map[string]string, opts ...ReceiptOption) (*Receipt, error) {
	if schema == nil {
		return nil, ErrNilSchema
	}
	if values == nil {
		return nil, ErrNilValues
	}

	// Apply options
	cfg := &receiptConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	data := buildJSONStructure(schema, values)
	for _, name := range cfg.excludeFields {
		delete(data, strings.ToLower(name))
	}

	return &Receipt{
		ID:        uuid.NewString(),
		Version:   ReceiptVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
		Uploads:   uploads,
	}, nil
}

// ExpandPath expands template variables of a receipt path.
// Replaces {{timestamp}} with the time formatted as 20060102-150405 and {{id}} with the
// receipt ID. Returns the path unchanged if no template variables are present.
func ExpandPath(template string, r *Receipt) string {
	timestamp := r.Timestamp.UTC().Format("20060102-150405")
	out := strings.ReplaceAll(template, "{{timestamp}}", timestamp)
	return strings.ReplaceAll(out, "{{id}}", r.ID)
}

// WriteReceipt persists a receipt to disk with atomic write semantics.
// Supports {{timestamp}} and {{id}} template variables in path; the receipt's own
// timestamp is used so the filename matches its content.
// Returns ErrReceiptTooLarge if serialized size exceeds MaxReceiptSize.
func WriteReceipt(r *Receipt, pathTemplate string) (string, error) {
	if r == nil {
		return "", ErrNilValues
	}

	targetPath := ExpandPath(pathTemplate, r)

	// Marshal receipt to indented JSON
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}

	if len(data) > MaxReceiptSize {
		return "", ErrReceiptTooLarge
	}

	// Create parent directories with 0700 permissions
	dir := filepath.Dir(targetPath)
	if dir != "" && dir != "." {
		if mkdirErr := os.MkdirAll(dir, 0700); mkdirErr != nil {
			return "", mkdirErr
		}
	}

	// Generate temp file name in same directory for atomic rename
	tempPath, err := generateTempFileName(targetPath)
	if err != nil {
		return "", err
	}

	// Ensure temp file is cleaned up on any error
	var tempFileCreated bool
	defer func() {
		if tempFileCreated {
			_ = os.Remove(tempPath)
		}
	}()

	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return "", err
	}
	tempFileCreated = true

	// Atomic rename temp file to target path
	if err := os.Rename(tempPath, targetPath); err != nil {
		return "", err
	}

	// Rename succeeded, don't clean up temp file (it's now the target)
	tempFileCreated = false

	return targetPath, nil
}

// ReadReceipt loads a receipt written by WriteReceipt.
func ReadReceipt(path string) (*Receipt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) > MaxReceiptSize {
		return nil, ErrReceiptTooLarge
	}

	var r Receipt
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// generateTempFileName generates a unique temporary file name for atomic writes.
// Format: targetPath + ".tmp." + randomHex
func generateTempFileName(targetPath string) (string, error) {
	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}
	return targetPath + ".tmp." + hex.EncodeToString(randomBytes), nil
}
