package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chemviz/internal/config"
	apierrors "chemviz/internal/errors"
	"chemviz/internal/security"
	"chemviz/internal/shared/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Driver = "memory"
	cfg.Storage.DataDir = t.TempDir()
	cfg.Security.RateLimit.Enabled = false
	cfg.Observability.TraceExporter = "none"
	cfg.Observability.MetricExporter = "prometheus"
	require.NoError(t, cfg.Validate())
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) (*Application, *httptest.Server) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)

	application, err := New(context.Background(), cfg, logger)
	require.NoError(t, err)

	srv := httptest.NewServer(application.Router)
	t.Cleanup(func() {
		srv.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, application.Stop(ctx))
	})
	return application, srv
}

func upload(t *testing.T, srv *httptest.Server, token, filename, content string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/upload", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestApplication_Health(t *testing.T) {
	_, srv := newTestApp(t, testConfig(t))

	resp, body := get(t, srv, "/api/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"ok"`)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, body = get(t, srv, "/api/health/ready")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"ready"`)
}

func TestApplication_UploadAndReports(t *testing.T) {
	application, srv := newTestApp(t, testConfig(t))

	resp := upload(t, srv, "", "plant.csv", testutil.PlantCSV)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Stats struct {
			TotalRecords     int            `json:"total_records"`
			AvgPressure      float64        `json:"avg_pressure"`
			AvgTemp          float64        `json:"avg_temp"`
			TypeDistribution map[string]int `json:"type_distribution"`
		} `json:"stats"`
		Data      []map[string]interface{} `json:"data"`
		HistoryID int64                    `json:"history_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))

	assert.Equal(t, int64(1), result.HistoryID)
	assert.Equal(t, 3, result.Stats.TotalRecords)
	assert.Equal(t, 5.67, result.Stats.AvgPressure)
	assert.Equal(t, 60.0, result.Stats.AvgTemp)
	assert.Equal(t, map[string]int{"Pump": 2, "Valve": 1}, result.Stats.TypeDistribution)
	require.Len(t, result.Data, 3)
	assert.Equal(t, true, result.Data[1]["is_critical"])

	r, body := get(t, srv, "/api/history")
	require.Equal(t, http.StatusOK, r.StatusCode)
	assert.Contains(t, body, `"filename":"plant.csv"`)

	r, body = get(t, srv, "/api/history/1?thresholds=display")
	require.Equal(t, http.StatusOK, r.StatusCode)
	assert.Contains(t, body, `"history_id":1`)

	r, body = get(t, srv, "/api/report/1/model")
	require.Equal(t, http.StatusOK, r.StatusCode)
	assert.Contains(t, body, `"detail_rows"`)
	assert.Contains(t, body, `"name":"intake"`)

	r, _ = get(t, srv, "/api/report/1/xlsx")
	require.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", r.Header.Get("Content-Type"))
	assert.Contains(t, r.Header.Get("Content-Disposition"), "report_1.xlsx")

	// unknown dataset
	r, body = get(t, srv, "/api/report/999/model")
	assert.Equal(t, http.StatusNotFound, r.StatusCode)
	assert.Contains(t, body, apierrors.TypeDataNotFound)

	// remove every stored source
	entries, err := os.ReadDir(application.Sources.Root())
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	for _, e := range entries {
		require.NoError(t, os.Remove(filepath.Join(application.Sources.Root(), e.Name())))
	}

	r, body = get(t, srv, "/api/report/1/model")
	assert.Equal(t, http.StatusInternalServerError, r.StatusCode)
	assert.Contains(t, body, apierrors.TypeSourceMissing)

	r, body = get(t, srv, "/api/history/1")
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.Contains(t, body, `"source_missing":true`)
	assert.Contains(t, body, `"data":[]`)
}

func TestApplication_RejectsBadInput(t *testing.T) {
	_, srv := newTestApp(t, testConfig(t))

	resp := upload(t, srv, "", "broken.csv", "   ")
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), apierrors.TypeIngestion)

	r, body2 := get(t, srv, "/api/history/1?thresholds=lenient")
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
	assert.Contains(t, body2, apierrors.TypeValidation)

	r, body2 = get(t, srv, "/api/nope")
	assert.Equal(t, http.StatusNotFound, r.StatusCode)
	assert.Contains(t, body2, apierrors.TypeNotFound)
}

func TestApplication_TokenAuth(t *testing.T) {
	hash, err := security.HashPasswordWithParams("s3cret!",
		security.PasswordParams{N: 1024, R: 8, P: 1, SaltLen: 16, KeyLen: 32})
	require.NoError(t, err)

	cfg := testConfig(t)
	cfg.Security.Auth.Enabled = true
	cfg.Security.Auth.Users = map[string]string{"analyst": hash}
	_, srv := newTestApp(t, cfg)

	resp := upload(t, srv, "", "plant.csv", testutil.PlantCSV)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// health stays public
	r, _ := get(t, srv, "/api/health")
	assert.Equal(t, http.StatusOK, r.StatusCode)

	login := func(password string) *http.Response {
		resp, err := http.Post(srv.URL+"/api/login", "application/json",
			strings.NewReader(fmt.Sprintf(`{"username":"analyst","password":%q}`, password)))
		require.NoError(t, err)
		return resp
	}

	bad := login("wrong")
	bad.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, bad.StatusCode)

	good := login("s3cret!")
	defer good.Body.Close()
	require.Equal(t, http.StatusOK, good.StatusCode)
	var token struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(good.Body).Decode(&token))
	require.NotEmpty(t, token.Token)

	resp = upload(t, srv, token.Token, "plant.csv", testutil.PlantCSV)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/logout", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Token "+token.Token)
	out, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	out.Body.Close()
	assert.Equal(t, http.StatusNoContent, out.StatusCode)

	resp = upload(t, srv, token.Token, "plant.csv", testutil.PlantCSV)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestApplication_Metrics(t *testing.T) {
	_, srv := newTestApp(t, testConfig(t))

	resp := upload(t, srv, "", "plant.csv", testutil.PlantCSV)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	r, body := get(t, srv, "/metrics")
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.Contains(t, body, "dataset_uploads_total")
	assert.Contains(t, body, "http_requests_total")
}

func TestApplication_WebSocketUploadEvent(t *testing.T) {
	_, srv := newTestApp(t, testConfig(t))

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	readEvent := func() map[string]interface{} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		var event map[string]interface{}
		require.NoError(t, json.Unmarshal(msg, &event))
		return event
	}

	assert.Equal(t, "connection", readEvent()["type"])

	resp := upload(t, srv, "", "plant.csv", testutil.PlantCSV)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	event := readEvent()
	assert.Equal(t, "dataset:uploaded", event["type"])
	data, ok := event["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "plant.csv", data["filename"])
	assert.NotContains(t, data, "source_ref")
}

func TestApplication_FileDriverPersists(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Driver = "file"
	logger, _ := testutil.NewTestLogger(t)

	first, err := New(context.Background(), cfg, logger)
	require.NoError(t, err)
	srv := httptest.NewServer(first.Router)
	resp := upload(t, srv, "", "plant.csv", testutil.PlantCSV)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	srv.Close()
	require.NoError(t, first.Stop(context.Background()))

	_, srv2 := newTestApp(t, cfg)
	r, body := get(t, srv2, "/api/report/1/model")
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.Contains(t, body, `"total_records":3`)
}

func TestNew_RejectsUnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Driver = "cassandra"
	logger, _ := testutil.NewTestLogger(t)

	_, err := New(context.Background(), cfg, logger)
	assert.Error(t, err)
}

func TestApplication_RunStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	cfg := testConfig(t)
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = port
	logger, _ := testutil.NewTestLogger(t)

	application, err := New(context.Background(), cfg, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()

	healthURL := fmt.Sprintf("http://127.0.0.1:%d/api/health", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(healthURL)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
