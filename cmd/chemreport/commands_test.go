package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chemviz/internal/dataprocessing"
	"chemviz/internal/exporter"
	"chemviz/internal/security"
	"chemviz/internal/shared/testutil"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAnalyzeCmd(t *testing.T) {
	path := testutil.WriteCSV(t, "plant.csv", testutil.PlantCSV)

	t.Run("table", func(t *testing.T) {
		out, err := execute(t, "", "analyze", path)
		require.NoError(t, err)
		assert.Contains(t, out, "Total Units: 3")
		assert.Contains(t, out, exporter.CriticalMarker+" Pump-2")
		assert.NotContains(t, out, exporter.CriticalMarker+" Pump-1")
		assert.Contains(t, out, "3 of 3 rows shown")
	})

	t.Run("search", func(t *testing.T) {
		out, err := execute(t, "", "analyze", path, "--search", "VALVE")
		require.NoError(t, err)
		assert.Contains(t, out, "Valve-1")
		assert.NotContains(t, out, "Pump-2")
		assert.Contains(t, out, "1 of 3 rows shown")
	})

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "", "analyze", path, "--json")
		require.NoError(t, err)

		var doc exporter.JSONDocument
		require.NoError(t, json.Unmarshal([]byte(out), &doc))
		assert.Equal(t, "plant.csv", doc.Meta.Filename)
		assert.Equal(t, 3, doc.Report.Summary.TotalRecords)
		assert.Equal(t, "intake", doc.Report.Thresholds.Name)
		require.Len(t, doc.Report.DetailRows, 3)
		assert.True(t, doc.Report.DetailRows[1].Critical)
	})

	t.Run("display thresholds", func(t *testing.T) {
		reactor := testutil.WriteCSV(t, "reactor.csv", testutil.ExtraColumnsCSV)

		out, err := execute(t, "", "analyze", reactor)
		require.NoError(t, err)
		assert.NotContains(t, out, exporter.CriticalMarker+" Reactor-1")

		out, err = execute(t, "", "analyze", reactor, "--thresholds", "display")
		require.NoError(t, err)
		assert.Contains(t, out, exporter.CriticalMarker+" Reactor-1")
	})
}

func TestAnalyzeCmdErrors(t *testing.T) {
	good := testutil.WriteCSV(t, "plant.csv", testutil.PlantCSV)
	empty := testutil.WriteCSV(t, "empty.csv", "  \n")

	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{"missing file", []string{"analyze", filepath.Join(t.TempDir(), "nope.csv")}, ExitNotFound},
		{"unreadable table", []string{"analyze", empty}, ExitInvalidInput},
		{"unknown thresholds", []string{"analyze", good, "--thresholds", "lenient"}, ExitInvalidArg},
		{"directory", []string{"analyze", t.TempDir()}, ExitInvalidArg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, classifyError(err))
		})
	}
}

func TestRenderCmd(t *testing.T) {
	path := testutil.WriteCSV(t, "plant.csv", testutil.PlantCSV)

	t.Run("json next to the csv", func(t *testing.T) {
		out, err := execute(t, "", "render", path, "--format", "JSON")
		require.NoError(t, err)

		want := strings.TrimSuffix(path, ".csv") + ".json"
		assert.Contains(t, out, "wrote "+want)
		data, err := os.ReadFile(want)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"total_records": 3`)
	})

	t.Run("xlsx to --out", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "summary.xlsx")
		_, err := execute(t, "", "render", path, "--format", "xlsx", "--out", dest)
		require.NoError(t, err)

		data, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("PK")), "xlsx is a zip container")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := execute(t, "", "render", path, "--format", "docx")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid --format value")
		assert.Equal(t, ExitInvalidArg, classifyError(err))
	})
}

func TestWatchCmdOnce(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte(testutil.PlantCSV), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.CSV"), []byte(testutil.ExtraColumnsCSV), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.csv"), []byte(" "), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	out, err := execute(t, "", "watch", dir, "--once", "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "processed 2 pending file(s)")

	for _, name := range []string{"a" + ReportSuffix, "b" + ReportSuffix} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
	assert.NoFileExists(t, filepath.Join(dir, "broken"+ReportSuffix))

	// reports are current, so only the broken file is retried
	out, err = execute(t, "", "watch", dir, "--once")
	require.NoError(t, err)
	assert.Contains(t, out, "processed 0 pending file(s)")
}

func TestWatchCmdValidation(t *testing.T) {
	_, err := execute(t, "", "watch", t.TempDir(), "--workers", "0")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidArg, classifyError(err))

	file := testutil.WriteCSV(t, "plant.csv", testutil.PlantCSV)
	_, err = execute(t, "", "watch", file, "--once")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a directory")
}

func TestInboxWatch(t *testing.T) {
	dir := t.TempDir()
	in := &inbox{
		dir:        dir,
		thresholds: dataprocessing.IntakeThresholds(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer watcher.Close()
	require.NoError(t, watcher.Add(dir))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- in.watch(ctx, watcher.Events, watcher.Errors) }()

	tmp := filepath.Join(dir, "incoming.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(testutil.PlantCSV), 0644))
	require.NoError(t, os.Rename(tmp, filepath.Join(dir, "incoming.csv")))

	report := filepath.Join(dir, "incoming"+ReportSuffix)
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(report)
		return err == nil && bytes.Contains(data, []byte(`"filename": "incoming.csv"`))
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestHashPasswordCmd(t *testing.T) {
	out, err := execute(t, "s3cret!\n", "hash-password")
	require.NoError(t, err)

	ok, err := security.VerifyPassword("s3cret!", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = execute(t, "", "hash-password")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidArg, classifyError(err))
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "chemviz 1.0.0")
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{invalidArg("bad flag"), ExitInvalidArg},
		{fmt.Errorf("wrap: %w", dataprocessing.ErrUnknownThresholds), ExitInvalidArg},
		{fmt.Errorf("open: %w", os.ErrNotExist), ExitNotFound},
		{&dataprocessing.IngestionError{Reason: "empty input"}, ExitInvalidInput},
		{errors.New("boom"), ExitInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyError(tt.err), "%v", tt.err)
	}
}
