package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azhovan/formrig"
)

func writeInput(t *testing.T, dir, techs string) string {
	t.Helper()
	avatar := filepath.Join(dir, "me.png")
	require.NoError(t, os.WriteFile(avatar, []byte("\x89PNG\r\n\x1a\n"), 0644))

	input := filepath.Join(dir, "signup.yaml")
	content := fmt.Sprintf(`
avatar: %s
name: john doe
email: JOHN@ROCKETSEAT.COM.BR
password: secret123
techs:
%s`, avatar, techs)
	require.NoError(t, os.WriteFile(input, []byte(content), 0644))
	return input
}

func TestRun_Accepted(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := t.TempDir()
	uploads := filepath.Join(dir, "uploads")
	t.Setenv("FORMRIG_UPLOAD_DIR", uploads)

	input := writeInput(t, dir, "  - title: Go\n    knowledge: 80\n  - title: Rust\n    knowledge: 30\n")
	receipt := filepath.Join(dir, "receipts", "{{id}}.json")

	var stdout, stderr bytes.Buffer
	code, err := run(context.Background(), options{inputPath: input, receipt: receipt}, &stdout, &stderr)
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	out := stdout.String()
	assert.Contains(t, out, `name: "John Doe" (source: file:signup.yaml)`)
	assert.Contains(t, out, `email: "john@rocketseat.com.br"`)
	assert.Contains(t, out, "password: ***redacted***")

	_, err = os.Stat(filepath.Join(uploads, "me.png"))
	assert.NoError(t, err, "avatar should be uploaded")

	entries, err := os.ReadDir(filepath.Join(dir, "receipts"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	r, err := formrig.ReadReceipt(filepath.Join(dir, "receipts", entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(uploads, "me.png"), r.Uploads["avatar"])
}

func TestRun_Rejected(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := t.TempDir()
	t.Setenv("FORMRIG_UPLOAD_DIR", filepath.Join(dir, "uploads"))
	input := writeInput(t, dir, "  - title: Go\n    knowledge: 80\n")

	var stdout, stderr bytes.Buffer
	code, err := run(context.Background(), options{inputPath: input}, &stdout, &stderr)
	require.NoError(t, err)
	assert.Equal(t, exitInvalid, code)
	assert.Contains(t, stderr.String(), "techs: at least 2 technologies")
	assert.Empty(t, stdout.String())

	_, err = os.Stat(filepath.Join(dir, "uploads", "me.png"))
	assert.True(t, os.IsNotExist(err), "nothing is uploaded for a rejected submission")
}

func TestRun_UnknownKey(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := t.TempDir()
	t.Setenv("FORMRIG_UPLOAD_DIR", filepath.Join(dir, "uploads"))
	input := filepath.Join(dir, "input.yaml")
	require.NoError(t, os.WriteFile(input, []byte("nickname: jd\n"), 0644))

	var stdout, stderr bytes.Buffer
	code, err := run(context.Background(), options{inputPath: input}, &stdout, &stderr)
	require.NoError(t, err)
	assert.Equal(t, exitInvalid, code)
	assert.Contains(t, stderr.String(), "nickname: unknown form field (strict mode)")
}

func TestRun_MissingInput(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var stdout, stderr bytes.Buffer
	_, err := run(context.Background(), options{inputPath: filepath.Join(t.TempDir(), "none.yaml")}, &stdout, &stderr)
	assert.Error(t, err)
}
