package document_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueprintlab/studio/internal/apperr"
	"github.com/blueprintlab/studio/internal/document"
	"github.com/blueprintlab/studio/internal/store"
)

func setupService(t *testing.T) (*document.Service, *store.FunctionDocument) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "studio-document-test-*")
	require.NoError(t, err)

	s, err := store.Open(filepath.Join(tmpDir, "test.db"), store.Options{})
	require.NoError(t, err)
	require.NoError(t, s.Init())

	ctx := context.Background()
	p := &store.Project{Name: "docs", CreatorID: "alice"}
	require.NoError(t, s.CreateProject(ctx, p))
	app := &store.Node{ProjectID: p.ID, Type: store.NodeTypeApplication, Name: "App"}
	require.NoError(t, s.CreateNode(ctx, app))
	page := &store.Node{ProjectID: p.ID, ParentID: &app.ID, Type: store.NodeTypePage, Name: "Home"}
	require.NoError(t, s.CreateNode(ctx, page))
	fn := &store.Node{ProjectID: p.ID, ParentID: &page.ID, Type: store.NodeTypeFunction, Name: "Login"}
	doc, err := s.CreateFunctionNode(ctx, fn)
	require.NoError(t, err)

	t.Cleanup(func() {
		s.Close()
		os.RemoveAll(tmpDir)
	})
	return document.New(s, nil), doc
}

func TestService_PatchFlow(t *testing.T) {
	svc, doc := setupService(t)
	ctx := context.Background()

	content, err := svc.Content(ctx, doc.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(content))

	out, err := svc.Patch(ctx, doc.ID,
		json.RawMessage(`[{"op":"add","path":"/title","value":"Login"}]`), "bob", "Bob")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Login"}`, string(out))

	content, err = svc.Content(ctx, doc.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Login"}`, string(content))
}

func TestService_PatchMissingDocument(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Patch(context.Background(), 9999,
		json.RawMessage(`[{"op":"add","path":"/a","value":1}]`), "bob", "Bob")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestService_Replace(t *testing.T) {
	svc, doc := setupService(t)
	ctx := context.Background()

	require.NoError(t, svc.Replace(ctx, doc.ID, json.RawMessage(`{"a":1}`), "bob", "Bob"))
	content, err := svc.Content(ctx, doc.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(content))

	err = svc.Replace(ctx, doc.ID, json.RawMessage(`"scalar"`), "bob", "Bob")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestService_InitIdempotent(t *testing.T) {
	svc, doc := setupService(t)
	ctx := context.Background()

	again, err := svc.Init(ctx, doc.FunctionNodeID, "bob", "Bob")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, again.ID)
}
