package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brain2-canvas/internal/application/commands"
	"brain2-canvas/internal/config"
	"brain2-canvas/internal/infrastructure/jsoncanvas"
	"brain2-canvas/internal/infrastructure/observability"
	"brain2-canvas/internal/orchestrator"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRouteCommand(t *testing.T) {
	out, err := run(t, "route", "0", "0", "100", "100", "300", "0", "100", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "sides  right -> left")
	assert.Contains(t, out, "(100, 50)")
	assert.Contains(t, out, "(300, 50)")
}

func TestRouteCommand_FixedSides(t *testing.T) {
	out, err := run(t, "route", "0", "0", "100", "100", "300", "0", "100", "100",
		"--from-side", "bottom", "--to-side", "bottom")
	require.NoError(t, err)
	assert.Contains(t, out, "sides  bottom -> bottom")
}

func TestRouteCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"not a number", []string{"route", "0", "0", "x", "100", "300", "0", "100", "100"}},
		{"unknown side", []string{"route", "0", "0", "100", "100", "300", "0", "100", "100", "--from-side", "up", "--to-side", "left"}},
		{"too few args", []string{"route", "0", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func writeBoard(t *testing.T, doc jsoncanvas.Document) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "board.canvas")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, jsoncanvas.Encode(f, doc))
	require.NoError(t, f.Close())
	return path
}

func readBoard(t *testing.T, path string) jsoncanvas.Document {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	doc, err := jsoncanvas.Decode(f)
	require.NoError(t, err)
	return doc
}

func nodeIDs(doc jsoncanvas.Document) []string {
	ids := make([]string, 0, len(doc.Nodes))
	for _, n := range doc.Nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

func TestExportCommand(t *testing.T) {
	in := writeBoard(t, jsoncanvas.Document{
		Nodes: []jsoncanvas.Node{
			{ID: "a", Type: jsoncanvas.TypeText, X: 0, Y: 0, Width: 200, Height: 100, Text: "kept"},
			{ID: "b", Type: jsoncanvas.TypeText, X: 400, Y: 0, Width: 200, Height: 100, Text: "hidden", ExcludeFromExport: true},
		},
		Edges: []jsoncanvas.Edge{{ID: "e", FromNode: "a", ToNode: "b"}},
	})

	t.Run("drops excluded nodes", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "out.canvas")
		_, err := run(t, "export", in, "-o", out)
		require.NoError(t, err)

		doc := readBoard(t, out)
		assert.Equal(t, []string{"a"}, nodeIDs(doc))
		assert.Empty(t, doc.Edges)
	})

	t.Run("keeps everything with --all", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "out.canvas")
		_, err := run(t, "export", in, "-o", out, "--all")
		require.NoError(t, err)

		doc := readBoard(t, out)
		assert.ElementsMatch(t, []string{"a", "b"}, nodeIDs(doc))
		assert.Len(t, doc.Edges, 1)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := run(t, "export", filepath.Join(t.TempDir(), "nope.canvas"))
		assert.Error(t, err)
	})
}

func TestDemoCommand(t *testing.T) {
	out, err := run(t, "demo", "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "Board")
	assert.Contains(t, out, `"id": "idea"`)
	assert.Contains(t, out, `"label": "Planning"`)
}

func newTestCanvas(t *testing.T) *canvas {
	t.Helper()
	cfg := config.Default(config.Development)
	collector := observability.NewCollector("test")
	o, err := orchestrator.New(orchestrator.NewApp(orchestrator.SettingsFromConfig(cfg), orchestrator.Deps{Metrics: collector}), nil)
	require.NoError(t, err)
	t.Cleanup(o.Close)
	return &canvas{
		Config:       cfg,
		Collector:    collector,
		Orchestrator: o,
	}
}

func TestRouter(t *testing.T) {
	c := newTestCanvas(t)
	require.NoError(t, c.Orchestrator.Dispatch(context.Background(), commands.CreateCard{
		ID: "n1", X: 10, Y: 10, Width: 200, Height: 100, Text: "hello",
	}))
	h := newRouter(c)

	get := func(path string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		return rr
	}

	t.Run("healthz", func(t *testing.T) {
		rr := get("/healthz")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	})

	t.Run("frame", func(t *testing.T) {
		rr := get("/frame")
		require.Equal(t, http.StatusOK, rr.Code)
		var frame orchestrator.Frame
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &frame))
		require.Len(t, frame.Nodes, 1)
		assert.Equal(t, "n1", frame.Nodes[0].ID)
	})

	t.Run("export", func(t *testing.T) {
		rr := get("/export")
		require.Equal(t, http.StatusOK, rr.Code)
		var doc jsoncanvas.Document
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doc))
		assert.Equal(t, []string{"n1"}, nodeIDs(doc))
	})

	t.Run("metrics", func(t *testing.T) {
		rr := get("/metrics")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "test_commands_total")
	})
}
