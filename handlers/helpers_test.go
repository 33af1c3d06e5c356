package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/askdocs/askdocs/internal/config"
	docrepo "github.com/askdocs/askdocs/internal/document/repository"
	"github.com/askdocs/askdocs/internal/history"
	"github.com/askdocs/askdocs/internal/llm"
	"github.com/askdocs/askdocs/internal/search"
	"github.com/askdocs/askdocs/internal/tokens"
	"github.com/askdocs/askdocs/internal/users"
	"github.com/askdocs/askdocs/pkg/middleware"
)

// completer with a canned reply
type echoCompleter struct {
	reply string
	last  llm.Request
}

func (e *echoCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	e.last = req
	return e.reply, nil
}

type testEnv struct {
	router  *gin.Engine
	cfg     *config.Config
	docs    docrepo.Repository
	records history.Repository
	userSvc *users.Service
}

func newTestEnv(t *testing.T, completer llm.Completer) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.JWT.Secret = "handlers-test-secret-32-bytes-xx"
	cfg.JWT.AccessTokenTTL = time.Hour
	cfg.Upload.MaxFileBytes = 1 << 20
	cfg.Upload.MaxFiles = 3

	docs := docrepo.NewMemoryRepo()
	records := history.NewMemoryRepo()
	userSvc := users.NewService(users.NewMemoryUserRepository())

	retriever := search.NewRetriever(nil, docs, 0)
	composer := search.NewComposer(retriever, completer, records, nil)
	authmw := middleware.AuthMiddleware(tokens.NewJWTVerifier(cfg.JWT.Secret))

	r := gin.New()
	root := r.Group("/")
	NewAuthHandler(cfg, userSvc, nil).Register(root)
	NewDocumentsHandler(cfg, docs, records, userSvc, nil, nil, composer, nil).Register(root, authmw)
	NewSearchHandler(composer, records, false, completer != nil).Register(root, authmw)

	return &testEnv{router: r, cfg: cfg, docs: docs, records: records, userSvc: userSvc}
}

// registerUser creates an account and returns a bearer token for it
func (e *testEnv) registerUser(t *testing.T, email string) string {
	t.Helper()
	u, err := e.userSvc.Register(context.Background(), email, "Test User", "password1")
	require.NoError(t, err)
	tok, err := tokens.GenerateAccessToken(e.cfg.JWT.Secret, u, e.cfg.JWT.AccessTokenTTL)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	return got
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, w.Code, "body: %s", w.Body.String())
}
