package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"contextai-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDocs struct {
	existing []model.DocumentInfo
	uploaded []string
}

func (r *recordingDocs) Upload(_ context.Context, name string, content []byte) (*model.Document, error) {
	if len(content) == 0 {
		return nil, errors.New("empty")
	}
	r.uploaded = append(r.uploaded, name)
	return &model.Document{DocumentID: "id-" + name, FileName: name}, nil
}

func (r *recordingDocs) List(context.Context) ([]model.DocumentInfo, error) { return r.existing, nil }

func TestSeedDocuments(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("A"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("B"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.txt"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "c.md"), []byte("C"), 0o644))

	docs := &recordingDocs{existing: []model.DocumentInfo{{DocumentID: "old", FileName: "b.txt"}}}
	n := seedDocuments(context.Background(), dir, docs)

	assert.Equal(t, 2, n)
	assert.ElementsMatch(t, []string{"a.pdf", "c.md"}, docs.uploaded)
}

func TestSeedDocuments_MissingDir(t *testing.T) {
	docs := &recordingDocs{}
	assert.Equal(t, 0, seedDocuments(context.Background(), filepath.Join(t.TempDir(), "nope"), docs))
	assert.Equal(t, 0, seedDocuments(context.Background(), "", docs))
	assert.Empty(t, docs.uploaded)
}
