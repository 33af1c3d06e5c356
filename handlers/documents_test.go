package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartUpload(t *testing.T, files map[string]string, query string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	if query != "" {
		require.NoError(t, mw.WriteField("query", query))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUpload_SingleFile(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := env.registerUser(t, "alice@example.com")

	body, ct := multipartUpload(t, map[string]string{"notes.txt": "postgres tuning notes"}, "")
	w := env.do(t, "POST", "/api/documents/upload", tok, body, ct)
	requireStatus(t, w, http.StatusOK)

	got := decodeJSON(t, w)
	assert.Contains(t, got["message"], "1 document(s) uploaded")
	docs, ok := got["documents"].([]interface{})
	require.True(t, ok)
	require.Len(t, docs, 1)
	first := docs[0].(map[string]interface{})
	assert.Equal(t, "notes.txt", first["originalName"])
	// content bodies never appear in upload/list responses
	assert.NotContains(t, w.Body.String(), "postgres tuning notes")

	w = env.do(t, "GET", "/api/documents/list", tok, nil, "")
	requireStatus(t, w, http.StatusOK)
	listed := decodeJSON(t, w)
	assert.Equal(t, float64(1), listed["count"])
}

func TestUpload_WithInlineQuery(t *testing.T) {
	ec := &echoCompleter{reply: "Grounded answer."}
	env := newTestEnv(t, ec)
	tok := env.registerUser(t, "alice@example.com")

	body, ct := multipartUpload(t, map[string]string{"italy.txt": "The capital of Italy is Rome."}, "capital of italy")
	w := env.do(t, "POST", "/api/documents/upload", tok, body, ct)
	requireStatus(t, w, http.StatusOK)

	got := decodeJSON(t, w)
	sr, ok := got["searchResult"].(map[string]interface{})
	require.True(t, ok, "upload with query answers inline")
	assert.Equal(t, "Grounded answer.", sr["response"])
}

func TestUpload_RejectsUnsupportedType(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := env.registerUser(t, "alice@example.com")

	body, ct := multipartUpload(t, map[string]string{"archive.zip": "PK..."}, "")
	w := env.do(t, "POST", "/api/documents/upload", tok, body, ct)
	requireStatus(t, w, http.StatusBadRequest)
	assert.Contains(t, w.Body.String(), "Invalid file type")
}

func TestUpload_RejectsTooManyFiles(t *testing.T) {
	env := newTestEnv(t, nil) // MaxFiles is 3 in the test env
	tok := env.registerUser(t, "alice@example.com")

	files := map[string]string{
		"a.txt": "a", "b.txt": "b", "c.txt": "c", "d.txt": "d",
	}
	body, ct := multipartUpload(t, files, "")
	w := env.do(t, "POST", "/api/documents/upload", tok, body, ct)
	requireStatus(t, w, http.StatusBadRequest)
	assert.Contains(t, w.Body.String(), "too many files")
}

func TestUpload_NoFiles(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := env.registerUser(t, "alice@example.com")

	body, ct := multipartUpload(t, nil, "some query")
	w := env.do(t, "POST", "/api/documents/upload", tok, body, ct)
	requireStatus(t, w, http.StatusBadRequest)
}

func TestUpload_SameDayDuplicateSkipped(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := env.registerUser(t, "alice@example.com")

	for i := 0; i < 2; i++ {
		body, ct := multipartUpload(t, map[string]string{"dup.txt": "same content"}, "")
		w := env.do(t, "POST", "/api/documents/upload", tok, body, ct)
		requireStatus(t, w, http.StatusOK)
	}

	w := env.do(t, "GET", "/api/documents/list", tok, nil, "")
	listed := decodeJSON(t, w)
	assert.Equal(t, float64(1), listed["count"], "second same-day upload of the same name is skipped")
}

func TestDeleteDocument(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := env.registerUser(t, "alice@example.com")

	body, ct := multipartUpload(t, map[string]string{"notes.txt": "content"}, "")
	w := env.do(t, "POST", "/api/documents/upload", tok, body, ct)
	requireStatus(t, w, http.StatusOK)
	got := decodeJSON(t, w)
	id := got["documents"].([]interface{})[0].(map[string]interface{})["id"].(string)

	w = env.do(t, "DELETE", "/api/documents/"+id, tok, nil, "")
	requireStatus(t, w, http.StatusOK)

	// second delete: gone
	w = env.do(t, "DELETE", "/api/documents/"+id, tok, nil, "")
	requireStatus(t, w, http.StatusNotFound)
}

func TestDeleteDocument_OtherOwnerCannot(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.registerUser(t, "alice@example.com")
	bob := env.registerUser(t, "bob@example.com")

	body, ct := multipartUpload(t, map[string]string{"private.txt": "secret"}, "")
	w := env.do(t, "POST", "/api/documents/upload", alice, body, ct)
	requireStatus(t, w, http.StatusOK)
	got := decodeJSON(t, w)
	id := got["documents"].([]interface{})[0].(map[string]interface{})["id"].(string)

	w = env.do(t, "DELETE", "/api/documents/"+id, bob, nil, "")
	requireStatus(t, w, http.StatusNotFound)
}

func TestDeleteAll_ClearsDocumentsAndHistory(t *testing.T) {
	ec := &echoCompleter{reply: "answer"}
	env := newTestEnv(t, ec)
	tok := env.registerUser(t, "alice@example.com")

	body, ct := multipartUpload(t, map[string]string{"a.txt": "vault stores secrets safely"}, "")
	w := env.do(t, "POST", "/api/documents/upload", tok, body, ct)
	requireStatus(t, w, http.StatusOK)

	w = env.do(t, "POST", "/api/search/query", tok, strings.NewReader(`{"query":"vault secrets"}`), "application/json")
	requireStatus(t, w, http.StatusOK)

	w = env.do(t, "DELETE", "/api/documents/all", tok, nil, "")
	requireStatus(t, w, http.StatusOK)
	got := decodeJSON(t, w)
	assert.Equal(t, float64(1), got["documentsDeleted"])
	assert.Equal(t, float64(1), got["searchesDeleted"])

	w = env.do(t, "GET", "/api/documents/list", tok, nil, "")
	listed := decodeJSON(t, w)
	assert.Equal(t, float64(0), listed["count"])

	w = env.do(t, "GET", "/api/search/recent", tok, nil, "")
	recent := decodeJSON(t, w)
	assert.Empty(t, recent["searches"])
}

func TestUploadStatus(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := env.registerUser(t, "alice@example.com")

	w := env.do(t, "GET", "/api/documents/upload-status", tok, nil, "")
	requireStatus(t, w, http.StatusOK)
	got := decodeJSON(t, w)
	assert.Equal(t, "unlimited", got["remaining"])
}
