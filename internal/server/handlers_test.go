package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fujishima/keihi/internal/auth"
	"github.com/fujishima/keihi/internal/models"
	"github.com/fujishima/keihi/internal/report"
)

type mockAnalyzer struct {
	records  []*models.Record
	err      error
	lastPath string
}

func (m *mockAnalyzer) Analyze(ctx context.Context, filePath string) ([]*models.Record, error) {
	m.lastPath = filePath
	return m.records, m.err
}

type mockRecordStore struct {
	records   []*models.Record
	saved     []*models.Record
	deleteErr error
}

func (m *mockRecordStore) ListByUser(userID string) ([]*models.Record, error) {
	return m.records, nil
}

func (m *mockRecordStore) CreateBatch(records []*models.Record) error {
	m.saved = append(m.saved, records...)
	return nil
}

func (m *mockRecordStore) Delete(userID, id string) error {
	return m.deleteErr
}

type mockExporter struct {
	excelPath string
	excelErr  error
	csvBody   string
	doc       *report.ListDocument
	lastIDs   []string
}

func (m *mockExporter) Excel(userID string, ids []string) (string, *report.Result, error) {
	m.lastIDs = ids
	if m.excelErr != nil {
		return "", nil, m.excelErr
	}
	return m.excelPath, &report.Result{}, nil
}

func (m *mockExporter) CSV(w io.Writer, userID string, ids []string) error {
	m.lastIDs = ids
	_, err := io.WriteString(w, m.csvBody)
	return err
}

func (m *mockExporter) List(userID string, ids []string) (*report.ListDocument, error) {
	m.lastIDs = ids
	return m.doc, nil
}

type mockUploads struct {
	path    string
	removed []string
}

func (m *mockUploads) SaveUpload(userID, originalName string, content io.Reader) (string, error) {
	io.Copy(io.Discard, content)
	return m.path, nil
}

func (m *mockUploads) Remove(path string) error {
	m.removed = append(m.removed, path)
	return nil
}

type testEnv struct {
	server   *Server
	token    string
	analyzer *mockAnalyzer
	store    *mockRecordStore
	exporter *mockExporter
	uploads  *mockUploads
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		analyzer: &mockAnalyzer{},
		store:    &mockRecordStore{},
		exporter: &mockExporter{},
		uploads:  &mockUploads{path: "/tmp/uploads/u1/receipt.jpg"},
	}

	logger := zap.NewNop()
	tokens := auth.NewTokenService("test-secret", time.Hour)

	token, err := tokens.Issue("u1")
	require.NoError(t, err)
	env.token = token

	handlers := NewHandlers(env.analyzer, env.store, env.exporter, env.uploads, logger)
	env.server = NewServer(Config{Host: "127.0.0.1", Port: 0}, handlers, tokens, logger)

	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, authorize bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if authorize {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	if body != nil && method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.server.Router().ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t)

	t.Run("rejects missing token", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/records", nil, false)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		w := httptest.NewRecorder()
		env.server.Router().ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("accepts token as query parameter", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/records?token="+env.token, nil, false)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("health needs no token", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/health", nil, false)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAnalyzeReceipt(t *testing.T) {
	newUpload := func(t *testing.T, filename string) (*bytes.Buffer, string) {
		t.Helper()
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte("image-bytes"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		return &buf, mw.FormDataContentType()
	}

	t.Run("stores extracted records under the user", func(t *testing.T) {
		env := newTestEnv(t)
		env.analyzer.records = []*models.Record{
			{Date: "2025-07-01", VendorName: "コンビニA", TotalAmount: 500},
		}

		body, contentType := newUpload(t, "receipt.jpg")
		req := httptest.NewRequest(http.MethodPost, "/api/records/analyze", body)
		req.Header.Set("Authorization", "Bearer "+env.token)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		env.server.Router().ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		require.Len(t, env.store.saved, 1)
		assert.Equal(t, "u1", env.store.saved[0].UserID)
		assert.Equal(t, env.uploads.path, env.analyzer.lastPath)
		assert.Equal(t, []string{env.uploads.path}, env.uploads.removed)
	})

	t.Run("missing file is a bad request", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(t, http.MethodPost, "/api/records/analyze", nil, true)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListRecords(t *testing.T) {
	env := newTestEnv(t)
	env.store.records = []*models.Record{
		{ID: "r1", UserID: "u1", VendorName: "A", TotalAmount: 100},
	}

	w := env.do(t, http.MethodGet, "/api/records", nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool             `json:"success"`
		Data    []*models.Record `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "A", resp.Data[0].VendorName)
}

func TestDeleteRecord(t *testing.T) {
	t.Run("missing record is a 404", func(t *testing.T) {
		env := newTestEnv(t)
		env.store.deleteErr = sql.ErrNoRows

		w := env.do(t, http.MethodDelete, "/api/records/r1", nil, true)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("deletes", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(t, http.MethodDelete, "/api/records/r1", nil, true)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestExport(t *testing.T) {
	t.Run("empty store is a 404", func(t *testing.T) {
		env := newTestEnv(t)
		env.exporter.excelErr = report.ErrNoRecords

		w := env.do(t, http.MethodGet, "/api/export/excel", nil, true)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("csv streams with an attachment header", func(t *testing.T) {
		env := newTestEnv(t)
		env.exporter.csvBody = "date,vendor_name\n2025-07-01,A\n"

		w := env.do(t, http.MethodGet, "/api/export/csv", nil, true)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), "records.csv")
		assert.Equal(t, env.exporter.csvBody, w.Body.String())
	})

	t.Run("post forwards the selected ids", func(t *testing.T) {
		env := newTestEnv(t)
		env.exporter.csvBody = "x"

		body := bytes.NewBufferString(`{"record_ids":["id-1","id-2"]}`)
		w := env.do(t, http.MethodPost, "/api/export/csv", body, true)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"id-1", "id-2"}, env.exporter.lastIDs)
	})

	t.Run("list returns the document as json", func(t *testing.T) {
		env := newTestEnv(t)
		env.exporter.doc = &report.ListDocument{
			Title:  "経費一覧 2025/07/15",
			Header: []string{"日付", "店舗名", "金額", "カテゴリ"},
			Rows:   [][]string{{"2025-07-01", "A", "¥500", "その他"}},
			Total:  "¥500",
		}

		w := env.do(t, http.MethodGet, "/api/export/list", nil, true)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data report.ListDocument `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "¥500", resp.Data.Total)
	})
}
