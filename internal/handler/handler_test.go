package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/filecrate/filecrate/internal/bucket"
	"github.com/filecrate/filecrate/internal/file"
	"github.com/filecrate/filecrate/internal/handler"
	"github.com/filecrate/filecrate/internal/project"
	"github.com/filecrate/filecrate/internal/reconcile"
	"github.com/filecrate/filecrate/pkg/blob"
	"github.com/filecrate/filecrate/pkg/health"
	"github.com/filecrate/filecrate/pkg/logger"
)

const adminSecret = "test-admin-secret"

type testAPI struct {
	router http.Handler
	apiKey string
	store  *blob.MemoryStorage
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store := blob.NewMemoryStorage()
	projectRepo := project.NewMemoryRepository()
	bucketRepo := bucket.NewMemoryRepository()
	fileRepo := file.NewMemoryRepository()

	bucketSvc := bucket.NewService(bucketRepo, store, file.NewUsageProvider(fileRepo), logger.NewNope())
	projectSvc := project.NewService(projectRepo, bucketRepo, fileRepo, store, nil, logger.NewNope())
	fileSvc := file.NewService(fileRepo, bucketSvc, store, nil, 0, logger.NewNope())
	engine := reconcile.NewEngine(bucketRepo, fileRepo, store, logger.NewNope())

	p, err := projectSvc.Create(context.Background(), "test-project")
	require.NoError(t, err)

	h := handler.New(projectSvc, bucketSvc, fileSvc, engine, adminSecret, health.Checks{}, logger.NewNope())
	return &testAPI{
		router: h.Routes(),
		apiKey: p.APIKey,
		store:  store,
	}
}

func (a *testAPI) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) authed(key string) map[string]string {
	return map[string]string{"Authorization": key}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
}

func TestProjectAuth(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)

	t.Run("missing key", func(t *testing.T) {
		t.Parallel()
		rec := api.do(t, http.MethodGet, "/buckets", "", nil)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown key", func(t *testing.T) {
		t.Parallel()
		rec := api.do(t, http.MethodGet, "/buckets", "", api.authed("bogus"))
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("bare key accepted", func(t *testing.T) {
		t.Parallel()
		rec := api.do(t, http.MethodGet, "/buckets", "", api.authed(api.apiKey))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("ApiKey prefix accepted", func(t *testing.T) {
		t.Parallel()
		rec := api.do(t, http.MethodGet, "/buckets", "", api.authed("ApiKey "+api.apiKey))
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAdminAuth(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)

	t.Run("missing secret", func(t *testing.T) {
		t.Parallel()
		rec := api.do(t, http.MethodGet, "/admin/projects", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()
		rec := api.do(t, http.MethodGet, "/admin/projects", "", map[string]string{"X-Admin-Secret": "wrong"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid secret", func(t *testing.T) {
		t.Parallel()
		rec := api.do(t, http.MethodGet, "/admin/projects", "", map[string]string{"X-Admin-Secret": adminSecret})
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("tenant key does not open admin routes", func(t *testing.T) {
		t.Parallel()
		rec := api.do(t, http.MethodGet, "/admin/projects", "", api.authed(api.apiKey))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestErrorMapping(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/buckets", `{"name":"docs"}`, api.authed(api.apiKey))
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("duplicate bucket is a conflict", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/buckets", `{"name":"docs"}`, api.authed(api.apiKey))
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("missing bucket is not found", func(t *testing.T) {
		rec := api.do(t, http.MethodDelete, "/buckets/ghost", "", api.authed(api.apiKey))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing name is a validation error", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/buckets", `{}`, api.authed(api.apiKey))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("upload init without bucket", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/upload/init", `{"filename":"a.jpg"}`, api.authed(api.apiKey))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("file url for never-uploaded key", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/file/url", `{"bucket":"docs","object_key":"nope.txt"}`, api.authed(api.apiKey))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("file status requires bucket and key", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/file/status?bucket=docs", "", api.authed(api.apiKey))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUploadRoundTrip(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/buckets", `{"name":"docs"}`, api.authed(api.apiKey))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodPost, "/upload/init",
		`{"filename":"report.pdf","file_type":"application/pdf","file_size":4,"bucket":"docs"}`,
		api.authed(api.apiKey))
	require.Equal(t, http.StatusOK, rec.Code)

	var ticket struct {
		UploadURL string `json:"upload_url"`
		ObjectKey string `json:"object_key"`
		FinalURL  string `json:"final_url"`
		ExpiresIn int64  `json:"expires_in"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ticket))
	require.NotEmpty(t, ticket.UploadURL)
	require.True(t, strings.HasSuffix(ticket.ObjectKey, ".pdf"))
	require.EqualValues(t, 3600, ticket.ExpiresIn)

	// Simulate the client's direct PUT against the backend.
	var bucketInfo struct {
		PhysicalName string `json:"physical_name"`
	}
	listRec := api.do(t, http.MethodGet, "/buckets", "", api.authed(api.apiKey))
	var overviews []json.RawMessage
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &overviews))
	require.Len(t, overviews, 1)
	require.NoError(t, json.Unmarshal(overviews[0], &bucketInfo))
	require.NoError(t, api.store.Put(context.Background(), bucketInfo.PhysicalName, ticket.ObjectKey, strings.NewReader("%PDF"), 4, "application/pdf"))

	rec = api.do(t, http.MethodPost, "/upload/complete",
		`{"object_key":"`+ticket.ObjectKey+`","file_size":4,"file_type":"application/pdf","bucket":"docs"}`,
		api.authed(api.apiKey))
	require.Equal(t, http.StatusOK, rec.Code)

	var completed struct {
		ObjectKey string `json:"object_key"`
		Mime      string `json:"mime"`
		Size      int64  `json:"size"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &completed))
	require.Equal(t, ticket.ObjectKey, completed.ObjectKey)
	require.EqualValues(t, 4, completed.Size)

	rec = api.do(t, http.MethodGet, "/file/status?bucket=docs&key="+ticket.ObjectKey, "", api.authed(api.apiKey))
	require.Equal(t, http.StatusOK, rec.Code)
	var status struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.Equal(t, "pending", status.Status)

	rec = api.do(t, http.MethodPost, "/file/url", `{"bucket":"docs","object_key":"`+ticket.ObjectKey+`"}`, api.authed(api.apiKey))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodPost, "/sync", "", api.authed(api.apiKey))
	require.Equal(t, http.StatusOK, rec.Code)
	var syncResult struct {
		Added   int `json:"added"`
		Removed int `json:"removed"`
		Updated int `json:"updated"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &syncResult))
	require.Zero(t, syncResult.Added)
	require.Zero(t, syncResult.Removed)
}
