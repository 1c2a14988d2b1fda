package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/audit"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/confirm"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/fsclient"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/shared/fserr"
)

type testServer struct {
	router *gin.Engine
	client *fsclient.Client
	root   string
}

func newTestServer(t *testing.T, cfg fsclient.Config) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	base := t.TempDir()
	cfg.Root = filepath.Join(base, "ws")
	require.NoError(t, os.Mkdir(cfg.Root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "secret.txt"), []byte("top secret"), 0o644))

	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	cfg.Metrics = metrics
	client, err := fsclient.New(cfg)
	require.NoError(t, err)

	router := gin.New()
	router.Use(middleware.RequestID())
	NewHandlers(client, metrics, nil).Register(router)
	return &testServer{router: router, client: client, root: client.Root()}
}

func (s *testServer) get(t *testing.T, path string, query url.Values) *httptest.ResponseRecorder {
	t.Helper()
	target := path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) post(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var raw []byte
	switch b := body.(type) {
	case string:
		raw = []byte(b)
	default:
		var err error
		raw, err = json.Marshal(b)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorKind(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	decode(t, w, &resp)
	assert.NotEmpty(t, resp.RequestID)
	return resp.Kind
}

func TestRootAndHealth(t *testing.T) {
	s := newTestServer(t, fsclient.Config{AutoConfirm: true})

	w := s.get(t, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tinyfs")

	w = s.get(t, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]interface{}
	decode(t, w, &health)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, s.root, health["workspace"])
	assert.Equal(t, true, health["auto_confirm"])
}

func TestWriteThenRead(t *testing.T) {
	s := newTestServer(t, fsclient.Config{AutoConfirm: true})

	w := s.post(t, "/fs/write", WriteRequest{Path: "notes/today.md", Content: "héllo"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.get(t, "/fs/read", url.Values{"path": {"notes/today.md"}})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	decode(t, w, &resp)
	assert.Equal(t, "héllo", resp.Content)
	assert.Equal(t, "notes/today.md", resp.Path)
}

func TestEscapesAreForbidden(t *testing.T) {
	s := newTestServer(t, fsclient.Config{AutoConfirm: true})

	tests := []struct {
		name string
		do   func() *httptest.ResponseRecorder
	}{
		{"read", func() *httptest.ResponseRecorder {
			return s.get(t, "/fs/read", url.Values{"path": {"../secret.txt"}})
		}},
		{"write", func() *httptest.ResponseRecorder {
			return s.post(t, "/fs/write", WriteRequest{Path: "../pwned.txt", Content: "x"})
		}},
		{"delete", func() *httptest.ResponseRecorder {
			return s.post(t, "/fs/delete", PathRequest{Path: "../secret.txt"})
		}},
		{"copy", func() *httptest.ResponseRecorder {
			return s.post(t, "/fs/copy", TransferRequest{Source: "../secret.txt", Destination: "stolen.txt"})
		}},
		{"list", func() *httptest.ResponseRecorder {
			return s.get(t, "/fs/list", url.Values{"path": {".."}})
		}},
		{"absolute", func() *httptest.ResponseRecorder {
			return s.get(t, "/fs/info", url.Values{"path": {"/etc/passwd"}})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := tt.do()
			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.Equal(t, "security_violation", errorKind(t, w))
			assert.NotContains(t, w.Body.String(), "top secret")
		})
	}

	_, err := os.Stat(filepath.Join(filepath.Dir(s.root), "pwned.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestConfirmationFlag(t *testing.T) {
	s := newTestServer(t, fsclient.Config{Approver: confirm.DenyAll})
	no := false

	t.Run("confirm defaults to true and the approver denies", func(t *testing.T) {
		w := s.post(t, "/fs/write", WriteRequest{Path: "a.txt", Content: "x"})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "denied", errorKind(t, w))

		_, err := os.Stat(filepath.Join(s.root, "a.txt"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("confirm false skips the approver", func(t *testing.T) {
		w := s.post(t, "/fs/write", WriteRequest{Path: "a.txt", Content: "x", Confirm: &no})
		assert.Equal(t, http.StatusOK, w.Code)

		last := s.client.History()
		require.NotEmpty(t, last)
		assert.Equal(t, confirm.DecisionSkipped, last[len(last)-1].Confirmation)
	})
}

func TestMutatingEndpoints(t *testing.T) {
	s := newTestServer(t, fsclient.Config{AutoConfirm: true})
	require.NoError(t, os.WriteFile(filepath.Join(s.root, "src.txt"), []byte("data"), 0o644))

	w := s.post(t, "/fs/copy", TransferRequest{Source: "src.txt", Destination: "backup/src.txt"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.post(t, "/fs/move", TransferRequest{Source: "backup/src.txt", Destination: "moved.txt"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.post(t, "/fs/mkdir", PathRequest{Path: "a/b/c"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.post(t, "/fs/delete", PathRequest{Path: "moved.txt"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	_, err := os.Stat(filepath.Join(s.root, "moved.txt"))
	assert.True(t, os.IsNotExist(err))
	info, err := os.Stat(filepath.Join(s.root, "a", "b", "c"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestErrorStatuses(t *testing.T) {
	s := newTestServer(t, fsclient.Config{AutoConfirm: true})
	require.NoError(t, os.WriteFile(filepath.Join(s.root, "file.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(s.root, "dir"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.root, "dir", "child"), nil, 0o644))

	tests := []struct {
		name       string
		w          func() *httptest.ResponseRecorder
		wantStatus int
		wantKind   string
	}{
		{"read missing", func() *httptest.ResponseRecorder {
			return s.get(t, "/fs/read", url.Values{"path": {"missing.txt"}})
		}, http.StatusNotFound, "not_found"},
		{"read directory", func() *httptest.ResponseRecorder {
			return s.get(t, "/fs/read", url.Values{"path": {"dir"}})
		}, http.StatusBadRequest, "is_a_directory"},
		{"list file", func() *httptest.ResponseRecorder {
			return s.get(t, "/fs/list", url.Values{"path": {"file.txt"}})
		}, http.StatusBadRequest, "not_a_directory"},
		{"mkdir over file", func() *httptest.ResponseRecorder {
			return s.post(t, "/fs/mkdir", PathRequest{Path: "file.txt"})
		}, http.StatusConflict, "already_exists"},
		{"delete non-empty dir", func() *httptest.ResponseRecorder {
			return s.post(t, "/fs/delete", PathRequest{Path: "dir"})
		}, http.StatusBadRequest, "validation_error"},
		{"info missing", func() *httptest.ResponseRecorder {
			return s.get(t, "/fs/info", url.Values{"path": {"nope"}})
		}, http.StatusNotFound, "not_found"},
		{"malformed body", func() *httptest.ResponseRecorder {
			return s.post(t, "/fs/write", "{not json")
		}, http.StatusBadRequest, "validation_error"},
		{"write without path", func() *httptest.ResponseRecorder {
			return s.post(t, "/fs/write", map[string]string{"content": "x"})
		}, http.StatusBadRequest, "validation_error"},
		{"find without pattern", func() *httptest.ResponseRecorder {
			return s.get(t, "/fs/find", nil)
		}, http.StatusBadRequest, "validation_error"},
		{"find bad pattern", func() *httptest.ResponseRecorder {
			return s.get(t, "/fs/find", url.Values{"pattern": {"[unclosed"}})
		}, http.StatusBadRequest, "validation_error"},
		{"exists bad type", func() *httptest.ResponseRecorder {
			return s.get(t, "/fs/exists", url.Values{"path": {"file.txt"}, "type": {"socket"}})
		}, http.StatusBadRequest, "validation_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := tt.w()
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantKind, errorKind(t, w))
		})
	}
}

func TestReadOnlyEndpoints(t *testing.T) {
	s := newTestServer(t, fsclient.Config{})
	require.NoError(t, os.MkdirAll(filepath.Join(s.root, "docs", "api"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.root, "docs", "readme.md"), []byte("# hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.root, "docs", "api", "openapi.md"), []byte("# api"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.root, "main.go"), []byte("package main\n"), 0o644))

	t.Run("list", func(t *testing.T) {
		w := s.get(t, "/fs/list", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp ListResponse
		decode(t, w, &resp)
		require.Equal(t, 2, resp.Count)
		assert.Equal(t, "docs", resp.Entries[0].Name)
		assert.True(t, resp.Entries[0].IsDir)
		assert.Equal(t, "main.go", resp.Entries[1].Name)
	})

	t.Run("exists", func(t *testing.T) {
		check := func(path, kind string) bool {
			q := url.Values{"path": {path}}
			if kind != "" {
				q.Set("type", kind)
			}
			w := s.get(t, "/fs/exists", q)
			require.Equal(t, http.StatusOK, w.Code)
			var resp struct {
				Exists bool `json:"exists"`
			}
			decode(t, w, &resp)
			return resp.Exists
		}
		assert.True(t, check("docs", ""))
		assert.True(t, check("docs", "directory"))
		assert.False(t, check("docs", "file"))
		assert.True(t, check("main.go", "file"))
		assert.False(t, check("nope", ""))
	})

	t.Run("info", func(t *testing.T) {
		w := s.get(t, "/fs/info", url.Values{"path": {"docs/readme.md"}})
		require.Equal(t, http.StatusOK, w.Code)
		var info fsclient.FileInfo
		decode(t, w, &info)
		assert.Equal(t, "readme.md", info.Name)
		assert.Equal(t, filepath.Join("docs", "readme.md"), info.RelPath)
		assert.Equal(t, int64(4), info.Size)
		assert.Equal(t, "md", info.Extension)
	})

	t.Run("find", func(t *testing.T) {
		w := s.get(t, "/fs/find", url.Values{"dir": {"docs"}, "pattern": {"**/*.md"}})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp ListResponse
		decode(t, w, &resp)
		require.Equal(t, 2, resp.Count)
		assert.Equal(t, filepath.Join("docs", "api", "openapi.md"), resp.Entries[0].RelPath)
		assert.Equal(t, filepath.Join("docs", "readme.md"), resp.Entries[1].RelPath)
	})
}

func TestHistoryEndpoint(t *testing.T) {
	s := newTestServer(t, fsclient.Config{Approver: confirm.DenyAll})
	ctx := context.Background()
	_, _ = s.client.Exists(ctx, "a.txt")
	_ = s.client.Write(ctx, "a.txt", "x", true)
	_ = s.client.Write(ctx, "b.txt", "y", false)
	_, _ = s.client.Read(ctx, "../secret.txt")

	history := func(q url.Values) []audit.Record {
		t.Helper()
		w := s.get(t, "/history", q)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var records []audit.Record
		decode(t, w, &records)
		return records
	}

	all := history(nil)
	require.Len(t, all, 4)
	assert.Equal(t, audit.OutcomeDenied, all[1].Outcome)
	assert.Equal(t, "security_violation", all[3].ErrorKind)

	assert.Len(t, history(url.Values{"operation": {"write"}}), 2)
	assert.Len(t, history(url.Values{"outcome": {"denied", "failed"}}), 2)
	assert.Len(t, history(url.Values{"path": {"b.txt"}}), 1)

	last := history(url.Values{"last": {"1"}})
	require.Len(t, last, 1)
	assert.Equal(t, all[3].Seq, last[0].Seq)

	t.Run("yaml", func(t *testing.T) {
		w := s.get(t, "/history", url.Values{"format": {"yaml"}})
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "application/yaml"))
		assert.Contains(t, w.Body.String(), "outcome: denied")
	})

	for _, bad := range []url.Values{
		{"operation": {"chmod"}},
		{"since": {"yesterday"}},
		{"last": {"many"}},
		{"format": {"xml"}},
	} {
		w := s.get(t, "/history", bad)
		assert.Equal(t, http.StatusBadRequest, w.Code, "%v", bad)
	}
}

func TestStatsEndpoint(t *testing.T) {
	s := newTestServer(t, fsclient.Config{AutoConfirm: true, HistorySize: 3})
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.client.Write(ctx, fmt.Sprintf("f%d.txt", i), "x", true))
	}
	_, _ = s.client.Read(ctx, "../secret.txt")

	w := s.get(t, "/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats StatsResponse
	decode(t, w, &stats)
	assert.Equal(t, 3, stats.HistoryEntries)
	assert.Equal(t, 3, stats.HistoryCapacity)
	assert.Equal(t, uint64(6), stats.HistoryRecorded)
	require.NotNil(t, stats.Metrics)
	assert.Equal(t, int64(6), stats.Metrics.Operations)
	assert.Equal(t, int64(1), stats.Metrics.SecurityViolations)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&fserr.SecurityViolation{AttemptedPath: "../x"}, http.StatusForbidden},
		{fserr.New(fserr.KindDenied, "write", "a", nil), http.StatusConflict},
		{fserr.New(fserr.KindAlreadyExists, "mkdir", "a", nil), http.StatusConflict},
		{fserr.New(fserr.KindNotFound, "read", "a", nil), http.StatusNotFound},
		{fserr.New(fserr.KindValidation, "read", "a", nil), http.StatusBadRequest},
		{fserr.New(fserr.KindNotADirectory, "list", "a", nil), http.StatusBadRequest},
		{fserr.New(fserr.KindIsADirectory, "read", "a", nil), http.StatusBadRequest},
		{fserr.New(fserr.KindIOFailure, "read", "a", nil), http.StatusInternalServerError},
		{fmt.Errorf("walk: %w", context.Canceled), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), "%v", tt.err)
	}
}
