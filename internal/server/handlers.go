package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/photo-tools-mcp/internal/photo"
	"github.com/ironsheep/photo-tools-mcp/internal/pipeline"
	"github.com/ironsheep/photo-tools-mcp/internal/preset"
	"github.com/ironsheep/photo-tools-mcp/internal/settings"
	"github.com/ironsheep/photo-tools-mcp/internal/subject"
)

// DefaultPreviewSize is the longest side of preview and mask images.
const DefaultPreviewSize = 1024

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "photo_process", "photo_presets").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	started := time.Now()
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	log := s.log.WithField("tool", params.Name).WithField("elapsed", time.Since(started).String())
	if err != nil {
		log.WithError(err).Warn("Tool execution failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	log.Debug("Tool executed")

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Editing
	case "photo_process":
		return s.handlePhotoProcess(ctx, args)
	case "photo_process_batch":
		return s.handlePhotoProcessBatch(ctx, args)
	case "photo_preview":
		return s.handlePhotoPreview(ctx, args)
	case "photo_presets":
		return s.handlePhotoPresets(args)

	// Inspection
	case "photo_load":
		return s.handlePhotoLoad(args)
	case "photo_sample_color":
		return s.handlePhotoSampleColor(args)
	case "photo_subject_mask":
		return s.handlePhotoSubjectMask(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func (s *Server) lookupPreset(id string) (preset.Preset, error) {
	p, ok := s.catalog.Get(id)
	if !ok {
		return preset.Preset{}, fmt.Errorf("%w: unknown preset %q", pipeline.ErrInvalidParameter, id)
	}
	return p, nil
}

func (s *Server) loadPhoto(path string) (image.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: path is required", pipeline.ErrInvalidParameter)
	}
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pipeline.ErrDecodeFailure, err)
	}
	return img, nil
}

// outputFormat resolves an explicit format name, falling back to the
// output path's extension.
func outputFormat(name, path string) (pipeline.Format, error) {
	if name != "" {
		return pipeline.ParseFormat(name)
	}
	return pipeline.FormatForPath(path), nil
}

func writeOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// === Editing Handlers ===

type photoProcessArgs struct {
	Path       string          `json:"path"`
	OutputPath string          `json:"output_path"`
	Preset     string          `json:"preset"`
	Settings   settings.Manual `json:"settings"`
	Format     string          `json:"format"`
}

// ProcessResult describes one written photo.
type ProcessResult struct {
	Path       string `json:"path"`
	OutputPath string `json:"output_path"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Bytes      int    `json:"bytes"`
	Format     string `json:"format"`
	Preset     string `json:"preset"`
	RunID      string `json:"run_id"`
}

func (s *Server) handlePhotoProcess(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a photoProcessArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.OutputPath == "" {
		return nil, fmt.Errorf("%w: output_path is required", pipeline.ErrInvalidParameter)
	}
	format, err := outputFormat(a.Format, a.OutputPath)
	if err != nil {
		return nil, err
	}
	pr, err := s.lookupPreset(a.Preset)
	if err != nil {
		return nil, err
	}
	img, err := s.loadPhoto(a.Path)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	data, err := s.processor.Process(ctx, img, pr, a.Settings,
		pipeline.WithRunID(runID), pipeline.WithOutputFormat(format))
	if err != nil {
		return nil, err
	}
	if err := writeOutput(a.OutputPath, data); err != nil {
		return nil, err
	}
	s.cache.Evict(a.OutputPath)

	b := img.Bounds()
	return &ProcessResult{
		Path:       a.Path,
		OutputPath: a.OutputPath,
		Width:      b.Dx(),
		Height:     b.Dy(),
		Bytes:      len(data),
		Format:     string(format),
		Preset:     pr.ID,
		RunID:      runID,
	}, nil
}

type photoProcessBatchArgs struct {
	Paths     []string        `json:"paths"`
	OutputDir string          `json:"output_dir"`
	Preset    string          `json:"preset"`
	Settings  settings.Manual `json:"settings"`
	Format    string          `json:"format"`
}

// BatchResult lists the photos written by one batch call, in input order.
type BatchResult struct {
	Preset  string          `json:"preset"`
	Count   int             `json:"count"`
	Results []ProcessResult `json:"results"`
}

// handlePhotoProcessBatch runs one independent pipeline per photo. Batch
// photos are read straight from disk rather than through the cache.
func (s *Server) handlePhotoProcessBatch(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a photoProcessBatchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, fmt.Errorf("%w: paths is empty", pipeline.ErrInvalidParameter)
	}
	if a.OutputDir == "" {
		return nil, fmt.Errorf("%w: output_dir is required", pipeline.ErrInvalidParameter)
	}
	format, err := pipeline.ParseFormat(a.Format)
	if err != nil {
		return nil, err
	}
	pr, err := s.lookupPreset(a.Preset)
	if err != nil {
		return nil, err
	}

	results := make([]ProcessResult, len(a.Paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, path := range a.Paths {
		i, path := i, path
		g.Go(func() error {
			res, err := s.processFile(gctx, path, a.OutputDir, format, pr, a.Settings)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &BatchResult{
		Preset:  pr.ID,
		Count:   len(results),
		Results: results,
	}, nil
}

func (s *Server) processFile(ctx context.Context, path, outDir string, format pipeline.Format, pr preset.Preset, manual settings.Manual) (*ProcessResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pipeline.ErrDecodeFailure, err)
	}
	img, err := pipeline.DecodeBytes(data)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	out, err := s.processor.Process(ctx, img, pr, manual,
		pipeline.WithRunID(runID), pipeline.WithOutputFormat(format))
	if err != nil {
		return nil, err
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outPath := filepath.Join(outDir, stem+format.Extension())
	if err := writeOutput(outPath, out); err != nil {
		return nil, err
	}
	s.cache.Evict(outPath)

	b := img.Bounds()
	return &ProcessResult{
		Path:       path,
		OutputPath: outPath,
		Width:      b.Dx(),
		Height:     b.Dy(),
		Bytes:      len(out),
		Format:     string(format),
		Preset:     pr.ID,
		RunID:      runID,
	}, nil
}

type photoPreviewArgs struct {
	Path     string          `json:"path"`
	Preset   string          `json:"preset"`
	Settings settings.Manual `json:"settings"`
	MaxSize  int             `json:"max_size"`
}

// PreviewResult is a downscaled render returned inline.
type PreviewResult struct {
	photo.EncodedImage
	Preset string `json:"preset"`
	RunID  string `json:"run_id"`
}

func (s *Server) handlePhotoPreview(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a photoPreviewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.MaxSize <= 0 {
		a.MaxSize = DefaultPreviewSize
	}
	pr, err := s.lookupPreset(a.Preset)
	if err != nil {
		return nil, err
	}
	img, err := s.loadPhoto(a.Path)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	buf, err := s.processor.Render(ctx, photo.Fit(img, a.MaxSize), pr, a.Settings, pipeline.WithRunID(runID))
	if err != nil {
		return nil, err
	}
	enc, err := photo.EncodeBase64(buf.NRGBA(), true)
	if err != nil {
		return nil, err
	}
	return &PreviewResult{EncodedImage: *enc, Preset: pr.ID, RunID: runID}, nil
}

type photoPresetsArgs struct {
	Category string `json:"category"`
}

// PresetSummary is one catalog entry as listed to clients.
type PresetSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Filters  string `json:"filters"`
}

func (s *Server) handlePhotoPresets(args json.RawMessage) (interface{}, error) {
	var a photoPresetsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	list := s.catalog.List(a.Category)
	out := make([]PresetSummary, len(list))
	for i, p := range list {
		out[i] = PresetSummary{ID: p.ID, Name: p.Name, Category: p.Category, Filters: p.Filters}
	}
	return map[string]interface{}{
		"count":   len(out),
		"presets": out,
	}, nil
}

// === Inspection Handlers ===

type photoLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handlePhotoLoad(args json.RawMessage) (interface{}, error) {
	var a photoLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("%w: path is required", pipeline.ErrInvalidParameter)
	}
	return photo.LoadInfo(s.cache, a.Path)
}

type photoSampleColorArgs struct {
	Path   string               `json:"path"`
	X      int                  `json:"x"`
	Y      int                  `json:"y"`
	Points []photo.LabeledPoint `json:"points"`
}

func (s *Server) handlePhotoSampleColor(args json.RawMessage) (interface{}, error) {
	var a photoSampleColorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.loadPhoto(a.Path)
	if err != nil {
		return nil, err
	}
	if len(a.Points) > 0 {
		return photo.SampleColorsMulti(img, a.Points)
	}
	return photo.SampleColor(img, a.X, a.Y)
}

type photoSubjectMaskArgs struct {
	Path    string `json:"path"`
	MaxSize int    `json:"max_size"`
}

// SubjectMaskResult reports which pixels retouching would treat as subject.
type SubjectMaskResult struct {
	// Strategy is "segmenter" or "heuristic".
	Strategy string             `json:"strategy"`
	Coverage float64            `json:"coverage"`
	Mask     photo.EncodedImage `json:"mask"`
}

func (s *Server) handlePhotoSubjectMask(args json.RawMessage) (interface{}, error) {
	var a photoSubjectMaskArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.MaxSize <= 0 {
		a.MaxSize = DefaultPreviewSize
	}
	img, err := s.loadPhoto(a.Path)
	if err != nil {
		return nil, err
	}

	strategy := "heuristic"
	var mask *subject.Mask
	if s.segmenter != nil {
		b := img.Bounds()
		m, err := s.segmenter.Segment(img)
		if err == nil {
			err = m.Validate(b.Dx(), b.Dy())
		}
		if err != nil {
			s.log.WithError(err).WithField("path", a.Path).Warn("Segmenter failed, using skin heuristic")
		} else {
			mask, strategy = m, "segmenter"
		}
	}
	if mask == nil {
		mask = photo.HeuristicMask(img)
	}

	enc, err := photo.EncodeBase64(photo.Fit(photo.MaskImage(mask), a.MaxSize), false)
	if err != nil {
		return nil, err
	}
	return &SubjectMaskResult{
		Strategy: strategy,
		Coverage: float64(int(mask.Coverage()*10000+0.5)) / 10000,
		Mask:     *enc,
	}, nil
}
