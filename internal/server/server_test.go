package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueprintlab/studio/internal/config"
	"github.com/blueprintlab/studio/internal/document"
	"github.com/blueprintlab/studio/internal/server"
	"github.com/blueprintlab/studio/internal/store"
	"github.com/blueprintlab/studio/internal/tree"
)

func setupHandler(t *testing.T) http.Handler {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "studio-server-test-*")
	require.NoError(t, err)

	s, err := store.Open(filepath.Join(tmpDir, "test.db"), store.Options{})
	require.NoError(t, err)
	require.NoError(t, s.Init())

	trees, err := tree.New(context.Background(), s, nil)
	require.NoError(t, err)
	docs := document.New(s, nil)

	srv := server.New(&config.Config{}, s, trees, docs, nil)

	t.Cleanup(func() {
		s.Close()
		os.RemoveAll(tmpDir)
	})
	return srv.Handler()
}

// do performs an authenticated request and decodes the JSON response into
// out when non-nil.
func do(t *testing.T, h http.Handler, method, path, body string, out any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-User-Id", "alice")
	req.Header.Set("X-User-Name", "Alice")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out),
			"body: %s", rec.Body.String())
	}
	return rec
}

type nodeResp struct {
	ID          string  `json:"id"`
	ProjectID   int64   `json:"project_id"`
	ParentID    *string `json:"parent_id"`
	NodeType    string  `json:"node_type"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Path        string  `json:"path"`
	Sort        int     `json:"sort"`
	DocumentID  *int64  `json:"document_id"`
}

type errResp struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func TestScenario_ProjectAndApplication(t *testing.T) {
	h := setupHandler(t)

	var proj struct {
		ID int64 `json:"id"`
	}
	rec := do(t, h, "POST", "/projects", `{"name":"P1"}`, &proj)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(1), proj.ID)

	var app nodeResp
	rec = do(t, h, "POST", "/nodes/application", `{"project_id":1,"name":"App"}`, &app)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, app.ID, 36)
	assert.Nil(t, app.ParentID)
	assert.Equal(t, "/node_"+app.ID, app.Path)
	assert.Equal(t, 0, app.Sort)
}

// buildTree creates project 1 with App -> Home -> Login and returns the
// three nodes.
func buildTree(t *testing.T, h http.Handler) (app, page, fn nodeResp) {
	t.Helper()
	rec := do(t, h, "POST", "/projects", `{"name":"P1"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, "POST", "/nodes/application", `{"project_id":1,"name":"App"}`, &app)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = do(t, h, "POST", "/nodes/page",
		`{"project_id":1,"parent_id":"`+app.ID+`","name":"Home"}`, &page)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = do(t, h, "POST", "/nodes/function",
		`{"project_id":1,"parent_id":"`+page.ID+`","name":"Login"}`, &fn)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, fn.DocumentID)
	return app, page, fn
}

func docPath(id int64) string {
	return "/documents/" + jsonInt(id)
}

func jsonInt(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestScenario_ThreeLevelTreeAndDocument(t *testing.T) {
	h := setupHandler(t)
	_, _, fn := buildTree(t, h)

	rec := do(t, h, "GET", docPath(*fn.DocumentID), "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestScenario_PatchDocument(t *testing.T) {
	h := setupHandler(t)
	_, _, fn := buildTree(t, h)

	var ack map[string]bool
	rec := do(t, h, "PUT", docPath(*fn.DocumentID),
		`[{"op":"add","path":"/title","value":"Login screen"}]`, &ack)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ack["success"])

	rec = do(t, h, "GET", docPath(*fn.DocumentID), "", nil)
	assert.JSONEq(t, `{"title":"Login screen"}`, rec.Body.String())
}

func TestScenario_MoveFunctionBetweenPages(t *testing.T) {
	h := setupHandler(t)
	app, _, fn := buildTree(t, h)

	var settings nodeResp
	rec := do(t, h, "POST", "/nodes/page",
		`{"project_id":1,"parent_id":"`+app.ID+`","name":"Settings"}`, &settings)
	require.Equal(t, http.StatusCreated, rec.Code)

	var moved nodeResp
	rec = do(t, h, "POST", "/nodes/"+fn.ID+"/move",
		`{"new_parent_id":"`+settings.ID+`","predecessor_id":null}`, &moved)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, moved.ParentID)
	assert.Equal(t, settings.ID, *moved.ParentID)
	assert.True(t, strings.HasPrefix(moved.Path, settings.Path+"/"))
	assert.Equal(t, 0, moved.Sort)
}

func TestScenario_ConstraintRejections(t *testing.T) {
	h := setupHandler(t)
	_, _, fn := buildTree(t, h)

	var e errResp
	rec := do(t, h, "POST", "/nodes/page",
		`{"project_id":1,"parent_id":"`+fn.ID+`","name":"Bad"}`, &e)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", e.Code)

	rec = do(t, h, "POST", "/nodes/application", `{"project_id":1,"name":"Second"}`, &e)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", e.Code)
}

func TestScenario_ContextAssembly(t *testing.T) {
	h := setupHandler(t)
	app, _, fn := buildTree(t, h)

	var settings nodeResp
	rec := do(t, h, "POST", "/nodes/page",
		`{"project_id":1,"parent_id":"`+app.ID+`","name":"Settings"}`, &settings)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, "PUT", docPath(*fn.DocumentID),
		`[{"op":"add","path":"/title","value":"Login screen"}]`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, "POST", "/nodes/"+fn.ID+"/move",
		`{"new_parent_id":"`+settings.ID+`"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Internal route needs no identity.
	req := httptest.NewRequest("GET", "/internal/nodes/"+fn.ID+"/application-detail", nil)
	recorder := httptest.NewRecorder()
	h.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)

	var detail struct {
		Context []struct {
			Node struct {
				ID string `json:"id"`
			} `json:"node"`
		} `json:"context"`
		ContentToDevelop []struct {
			Node struct {
				ID string `json:"id"`
			} `json:"node"`
			Document     json.RawMessage `json:"document"`
			DocumentText *string         `json:"document_text"`
		} `json:"content_to_develop"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &detail))

	require.Len(t, detail.Context, 2)
	assert.Equal(t, app.ID, detail.Context[0].Node.ID)
	assert.Equal(t, settings.ID, detail.Context[1].Node.ID)

	require.Len(t, detail.ContentToDevelop, 1)
	entry := detail.ContentToDevelop[0]
	assert.Equal(t, fn.ID, entry.Node.ID)
	assert.JSONEq(t, `{"title":"Login screen"}`, string(entry.Document))
	// A plain object with no recognised block types renders as empty text.
	require.NotNil(t, entry.DocumentText)
	assert.Equal(t, "", *entry.DocumentText)
}

func TestAuth_MissingIdentity(t *testing.T) {
	h := setupHandler(t)

	req := httptest.NewRequest("GET", "/projects", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var e errResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.Equal(t, "UNAUTHORIZED", e.Code)
}

func TestAuth_PublicAndInternalPassThrough(t *testing.T) {
	h := setupHandler(t)

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Internal routes skip auth but still 404 on unknown nodes.
	req = httptest.NewRequest("GET", "/internal/nodes/nope/application-detail", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocuments_NotFoundAndBadPatch(t *testing.T) {
	h := setupHandler(t)
	_, _, fn := buildTree(t, h)

	var e errResp
	rec := do(t, h, "GET", "/documents/9999", "", &e)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Failed test op leaves content unchanged.
	rec = do(t, h, "PUT", docPath(*fn.DocumentID),
		`[{"op":"test","path":"/x","value":1}]`, &e)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, "GET", docPath(*fn.DocumentID), "", nil)
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestDocuments_NoOpPatches(t *testing.T) {
	h := setupHandler(t)
	_, _, fn := buildTree(t, h)

	rec := do(t, h, "PUT", docPath(*fn.DocumentID),
		`[{"op":"add","path":"/x","value":1}]`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// A passing test op succeeds and changes nothing.
	rec = do(t, h, "PUT", docPath(*fn.DocumentID),
		`[{"op":"test","path":"/x","value":1}]`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// So does an empty patch.
	rec = do(t, h, "PUT", docPath(*fn.DocumentID), `[]`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, "GET", docPath(*fn.DocumentID), "", nil)
	assert.JSONEq(t, `{"x":1}`, rec.Body.String())
}

func TestNodes_PartialUpdate(t *testing.T) {
	h := setupHandler(t)
	_, page, _ := buildTree(t, h)

	// Absent fields keep their stored values.
	var updated nodeResp
	rec := do(t, h, "PUT", "/nodes/"+page.ID, `{"description":"landing page"}`, &updated)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Home", updated.Name)
	assert.Equal(t, "landing page", updated.Description)

	rec = do(t, h, "PUT", "/nodes/"+page.ID, `{"name":"Start"}`, &updated)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Start", updated.Name)
	assert.Equal(t, "landing page", updated.Description)

	// A supplied empty name is still invalid.
	var e errResp
	rec = do(t, h, "PUT", "/nodes/"+page.ID, `{"name":""}`, &e)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", e.Code)
}

func TestProjects_PartialUpdate(t *testing.T) {
	h := setupHandler(t)
	rec := do(t, h, "POST", "/projects", `{"name":"P1","description":"shop"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var p struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	rec = do(t, h, "PUT", "/projects/1", `{"description":"web shop"}`, &p)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "P1", p.Name)
	assert.Equal(t, "web shop", p.Description)

	rec = do(t, h, "PUT", "/projects/1", `{"name":"P2"}`, &p)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "P2", p.Name)
	assert.Equal(t, "web shop", p.Description)
}

func TestDictionary_Endpoints(t *testing.T) {
	h := setupHandler(t)
	rec := do(t, h, "POST", "/projects", `{"name":"P1"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var entry struct {
		ID int64 `json:"id"`
	}
	rec = do(t, h, "POST", "/dictionary",
		`{"project_id":1,"term":"SKU","definition":"stock keeping unit"}`, &entry)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var e errResp
	rec = do(t, h, "POST", "/dictionary",
		`{"project_id":1,"term":"SKU","definition":"dup"}`, &e)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var entries []json.RawMessage
	rec = do(t, h, "GET", "/dictionary?project_id=1", "", &entries)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, entries, 1)

	rec = do(t, h, "PUT", "/dictionary/"+jsonInt(entry.ID),
		`{"project_id":1,"term":"SKU","definition":"updated"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, "DELETE", "/dictionary/"+jsonInt(entry.ID), "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProjects_ValidationAndRoundTrip(t *testing.T) {
	h := setupHandler(t)

	var e errResp
	rec := do(t, h, "POST", "/projects", `{"name":""}`, &e)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, "POST", "/projects", `{"name":"`+strings.Repeat("x", 129)+`"}`, &e)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Create, list, delete leaves the count unchanged.
	var before []json.RawMessage
	do(t, h, "GET", "/projects", "", &before)

	rec = do(t, h, "POST", "/projects", `{"name":"Ephemeral"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var listed []struct {
		ID int64 `json:"id"`
	}
	do(t, h, "GET", "/projects", "", &listed)
	require.Len(t, listed, len(before)+1)

	rec = do(t, h, "DELETE", "/projects/"+jsonInt(listed[0].ID), "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var after []json.RawMessage
	do(t, h, "GET", "/projects", "", &after)
	assert.Len(t, after, len(before))
}
