package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/photo-tools-mcp/internal/preset"
)

// createTestImageFile writes a solid PNG into a temp dir and returns its path.
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "photo.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func callRequest(t *testing.T, id int, tool string, args interface{}) *MCPRequest {
	t.Helper()
	params, err := json.Marshal(map[string]interface{}{
		"name":      tool,
		"arguments": args,
	})
	require.NoError(t, err)
	return &MCPRequest{JSONRPC: "2.0", ID: id, Method: "tools/call", Params: params}
}

// callTool runs a tool and decodes its text content into out.
func callTool(t *testing.T, s *Server, tool string, args interface{}, out interface{}) {
	t.Helper()
	resp := s.handleRequest(context.Background(), callRequest(t, 1, tool, args))
	require.NotNil(t, resp)
	require.Nil(t, resp.Error, "tool error: %+v", resp.Error)

	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	content, ok := result["content"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, content, 1)
	assert.Equal(t, "text", content[0]["type"])
	require.NoError(t, json.Unmarshal([]byte(content[0]["text"].(string)), out))
}

func callToolError(t *testing.T, s *Server, tool string, args interface{}) *MCPError {
	t.Helper()
	resp := s.handleRequest(context.Background(), callRequest(t, 1, tool, args))
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestNew(t *testing.T) {
	s := New()
	require.NotNil(t, s)
	assert.NotNil(t, s.cache)
	assert.NotNil(t, s.catalog)
	assert.NotNil(t, s.processor)
	assert.Nil(t, s.segmenter)
	assert.Positive(t, s.workers)

	s = New(WithBatchWorkers(0), WithVersion(""))
	assert.Positive(t, s.workers)
	assert.Equal(t, "0.1.0", s.version)
}

func TestMCPRequest_Unmarshal(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		wantID     interface{}
		wantMethod string
	}{
		{"string id", `{"jsonrpc":"2.0","id":"test-1","method":"tools/list"}`, "test-1", "tools/list"},
		{"number id", `{"jsonrpc":"2.0","id":42,"method":"ping"}`, float64(42), "ping"},
		{"null id", `{"jsonrpc":"2.0","id":null,"method":"initialize"}`, nil, "initialize"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req MCPRequest
			require.NoError(t, json.Unmarshal([]byte(tt.json), &req))
			assert.Equal(t, tt.wantID, req.ID)
			assert.Equal(t, tt.wantMethod, req.Method)
			assert.Equal(t, "2.0", req.JSONRPC)
		})
	}
}

func TestHandleRequest_Initialize(t *testing.T) {
	s := New(WithVersion("1.2.3"))
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "initialize"})
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)

	result := resp.Result.(map[string]interface{})
	assert.Equal(t, "2024-11-05", result["protocolVersion"])
	info := result["serverInfo"].(map[string]interface{})
	assert.Equal(t, ServerName, info["name"])
	assert.Equal(t, "1.2.3", info["version"])
}

func TestHandleRequest_Methods(t *testing.T) {
	s := New()
	ctx := context.Background()

	assert.Nil(t, s.handleRequest(ctx, &MCPRequest{JSONRPC: "2.0", Method: "notifications/initialized"}))

	resp := s.handleRequest(ctx, &MCPRequest{JSONRPC: "2.0", ID: 2, Method: "ping"})
	require.NotNil(t, resp)
	assert.Nil(t, resp.Error)

	resp = s.handleRequest(ctx, &MCPRequest{JSONRPC: "2.0", ID: 3, Method: "resources/list"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32601, resp.Error.Code)
	assert.Nil(t, resp.Error.Data)

	resp = s.handleRequest(ctx, &MCPRequest{JSONRPC: "2.0", ID: 4, Method: "tools/list"})
	require.Nil(t, resp.Error)
	tools := resp.Result.(map[string]interface{})["tools"].([]Tool)
	assert.Len(t, tools, len(GetToolDefinitions()))
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New()
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: json.RawMessage(`"nope"`),
	})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	e := callToolError(t, New(), "image_ocr_full", map[string]interface{}{})
	assert.Equal(t, -32000, e.Code)
	assert.Contains(t, e.Data, "unknown tool")
}

func TestServe(t *testing.T) {
	s := New()
	in := strings.NewReader(strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		``,
		`not json`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
	}, "\n"))
	var out bytes.Buffer

	require.NoError(t, s.Serve(context.Background(), in, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	var resp MCPResponse
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &resp))
	assert.Equal(t, float64(2), resp.ID)
}

func TestServe_LogsBadRequests(t *testing.T) {
	logger, hook := test.NewNullLogger()
	s := New(WithLogger(logger))

	require.NoError(t, s.Serve(context.Background(), strings.NewReader("{broken\n"), &bytes.Buffer{}))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "Failed to parse request", hook.LastEntry().Message)
}

func TestServe_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New().Serve(ctx, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n"), &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestServe_CancelWhileReadBlocked(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New().Serve(ctx, pr, &bytes.Buffer{})
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestWithCatalog(t *testing.T) {
	s := New(WithCatalog(preset.NewCatalog(preset.Default())))
	var out struct {
		Count int `json:"count"`
	}
	callTool(t, s, "photo_presets", map[string]interface{}{}, &out)
	assert.Equal(t, 1, out.Count)
}
