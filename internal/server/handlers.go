package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ironsheep/print-optimizer-mcp/internal/detection"
	"github.com/ironsheep/print-optimizer-mcp/internal/imaging"
	"github.com/ironsheep/print-optimizer-mcp/internal/ocr"
	"github.com/ironsheep/print-optimizer-mcp/internal/session"
)

// flushTimeout bounds how long a tool waits for a pending adjustment.
const flushTimeout = 30 * time.Second

// defaultTextConfidence is the text block cut-off for session_suggest_crop
// in text mode.
const defaultTextConfidence = 0.5

// maxPreviewSize caps each side of a session_preview display size.
const maxPreviewSize = 8192

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "session_load", "session_crop").
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
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		if s.cfg.Debug {
			s.logger.Printf("tool %s failed: %v", params.Name, err)
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

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
//
// Missing or empty arguments are treated as an empty object so tools
// without parameters can be called bare.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 || string(args) == "null" {
		args = json.RawMessage("{}")
	}

	switch name {
	// Loading and adjustment
	case "session_load":
		return s.handleSessionLoad(args)
	case "session_adjust":
		return s.handleSessionAdjust(args)

	// Selection
	case "session_select_begin":
		return s.handleSelectBegin(args)
	case "session_select_move":
		return s.handleSelectMove(args)
	case "session_select_end":
		return s.sessionInfoAfter(s.session.EndSelection())
	case "session_select_clear":
		return s.sessionInfoAfter(s.session.ClearSelection())
	case "session_select":
		return s.handleSelect(args)

	// Cropping
	case "session_crop":
		return s.handleSessionCrop(args)
	case "session_crop_pixels":
		return s.handleSessionCropPixels(args)
	case "session_suggest_crop":
		return s.handleSuggestCrop(args)

	// Viewing and export
	case "session_preview":
		return s.handleSessionPreview(args)
	case "session_export":
		return s.handleSessionExport(args)
	case "session_info":
		return s.session.Info(), nil

	// Analysis
	case "session_stats":
		return s.handleSessionStats(args)
	case "session_sample_color":
		return s.handleSampleColor(args)
	case "session_dominant_colors":
		return s.handleDominantColors(args)
	case "session_ocr":
		return s.handleSessionOCR(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// sessionInfoAfter reports the session state after a mutating call.
func (s *Server) sessionInfoAfter(err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	return s.session.Info(), nil
}

// flush applies any debounced adjustment so reads see the latest values.
func (s *Server) flush() error {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := s.session.Flush(ctx); err != nil {
		return fmt.Errorf("waiting for adjustment: %w", err)
	}
	return nil
}

// buffer returns a copy of the working or original buffer.
func (s *Server) buffer(which string) (*imaging.PixelBuffer, error) {
	switch which {
	case "", "working":
		if err := s.flush(); err != nil {
			return nil, err
		}
		buf, err := s.session.Export()
		if errors.Is(err, session.ErrNothingToExport) {
			return nil, session.ErrNoImageLoaded
		}
		return buf, err
	case "original":
		return s.session.Original()
	default:
		return nil, fmt.Errorf("unknown buffer: %s (want working or original)", which)
	}
}

// === Loading and Adjustment Handlers ===

type sessionLoadArgs struct {
	Path string `json:"path"`
}

type sessionLoadResult struct {
	Path string `json:"path"`
	imaging.ImageInfo
}

func (s *Server) handleSessionLoad(args json.RawMessage) (interface{}, error) {
	var a sessionLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	info, buf, err := imaging.DescribeFile(a.Path)
	if err != nil {
		return nil, err
	}
	if err := s.session.Load(buf); err != nil {
		return nil, err
	}
	if s.cfg.Debug {
		s.logger.Printf("loaded %s (%dx%d %s)", a.Path, info.Width, info.Height, info.Format)
	}
	return sessionLoadResult{Path: a.Path, ImageInfo: *info}, nil
}

type sessionAdjustArgs struct {
	Brightness *float64 `json:"brightness"`
	Contrast   *float64 `json:"contrast"`
	Sharpen    *float64 `json:"sharpen"`
	Total      *float64 `json:"total"`
	Wait       bool     `json:"wait"`
}

func (s *Server) handleSessionAdjust(args json.RawMessage) (interface{}, error) {
	var a sessionAdjustArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	// Sliders start at total 1 after a load or crop. Once any adjustment
	// was requested the current values are kept, including total 0.
	info := s.session.Info()
	p := info.Params
	if !info.Adjusted {
		p.Total = 1
	}
	if a.Brightness != nil {
		p.Brightness = *a.Brightness
	}
	if a.Contrast != nil {
		p.Contrast = *a.Contrast
	}
	if a.Sharpen != nil {
		p.Sharpen = *a.Sharpen
	}
	if a.Total != nil {
		p.Total = *a.Total
	}

	if err := s.session.UpdateAdjustment(p); err != nil {
		return nil, err
	}
	if a.Wait {
		if err := s.flush(); err != nil {
			return nil, err
		}
	}
	return s.session.Info(), nil
}

// === Selection Handlers ===

func (s *Server) handleSelectBegin(args json.RawMessage) (interface{}, error) {
	var p imaging.Point
	if err := json.Unmarshal(args, &p); err != nil {
		return nil, err
	}
	return s.sessionInfoAfter(s.session.BeginSelection(p))
}

func (s *Server) handleSelectMove(args json.RawMessage) (interface{}, error) {
	var p imaging.Point
	if err := json.Unmarshal(args, &p); err != nil {
		return nil, err
	}
	return s.sessionInfoAfter(s.session.MoveSelection(p))
}

func (s *Server) handleSelect(args json.RawMessage) (interface{}, error) {
	var r imaging.SelectionRect
	if err := json.Unmarshal(args, &r); err != nil {
		return nil, err
	}
	return s.sessionInfoAfter(s.session.SetSelection(r))
}

// === Crop Handlers ===

type sessionCropArgs struct {
	DisplayWidth  float64                `json:"display_width"`
	DisplayHeight float64                `json:"display_height"`
	Selection     *imaging.SelectionRect `json:"selection"`
}

// cropResult reports whether a crop was committed. Selections below the
// minimum size are not an error; the image is simply left as it was.
type cropResult struct {
	Cropped bool         `json:"cropped"`
	Reason  string       `json:"reason,omitempty"`
	Session session.Info `json:"session"`
}

func (s *Server) handleSessionCrop(args json.RawMessage) (interface{}, error) {
	var a sessionCropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	g, err := s.session.Geometry(a.DisplayWidth, a.DisplayHeight)
	if err != nil {
		return nil, err
	}

	if a.Selection != nil {
		err = s.session.CropSelection(*a.Selection, g)
	} else {
		err = s.session.Crop(g)
	}
	switch {
	case errors.Is(err, imaging.ErrSelectionTooSmall):
		return cropResult{Reason: err.Error(), Session: s.session.Info()}, nil
	case err != nil:
		return nil, err
	}
	return cropResult{Cropped: true, Session: s.session.Info()}, nil
}

func (s *Server) handleSessionCropPixels(args json.RawMessage) (interface{}, error) {
	var r imaging.PixelRect
	if err := json.Unmarshal(args, &r); err != nil {
		return nil, err
	}
	if err := s.session.CropPixels(r); err != nil {
		return nil, err
	}
	return cropResult{Cropped: true, Session: s.session.Info()}, nil
}

type suggestCropArgs struct {
	Mode          string   `json:"mode"`
	DisplayWidth  float64  `json:"display_width"`
	DisplayHeight float64  `json:"display_height"`
	ThresholdLow  int      `json:"threshold_low"`
	ThresholdHigh int      `json:"threshold_high"`
	Margin        int      `json:"margin"`
	MinConfidence *float64 `json:"min_confidence"`
}

type suggestCropResult struct {
	Rect      imaging.PixelRect      `json:"rect"`
	Selection *imaging.SelectionRect `json:"selection,omitempty"`
	Mode      detection.Mode         `json:"mode"`
}

func (s *Server) handleSuggestCrop(args json.RawMessage) (interface{}, error) {
	var a suggestCropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	buf, err := s.buffer("working")
	if err != nil {
		return nil, err
	}

	opts := detection.Options{
		Mode:          detection.Mode(a.Mode),
		Low:           a.ThresholdLow,
		High:          a.ThresholdHigh,
		Margin:        a.Margin,
		MinConfidence: defaultTextConfidence,
	}
	if opts.Mode == "" {
		opts.Mode = detection.ModeEdges
	}
	if opts.Low == 0 {
		opts.Low = detection.DefaultLowThreshold
	}
	if opts.High == 0 {
		opts.High = detection.DefaultHighThreshold
	}
	if a.MinConfidence != nil {
		opts.MinConfidence = *a.MinConfidence
	}

	r, err := detection.ContentBounds(buf, opts)
	if err != nil {
		return nil, err
	}

	res := suggestCropResult{Rect: r, Mode: opts.Mode}
	if a.DisplayWidth > 0 || a.DisplayHeight > 0 {
		sel, err := imaging.MapSourceToDisplay(r, imaging.GeometryFor(buf, a.DisplayWidth, a.DisplayHeight))
		if err != nil {
			return nil, err
		}
		res.Selection = &sel
	}
	return res, nil
}

// === Preview and Export Handlers ===

type sessionPreviewArgs struct {
	DisplayWidth  int    `json:"display_width"`
	DisplayHeight int    `json:"display_height"`
	Which         string `json:"which"`
	ShowSelection *bool  `json:"show_selection"`
	Background    string `json:"background"`
}

type encodedImage struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

func (s *Server) handleSessionPreview(args json.RawMessage) (interface{}, error) {
	var a sessionPreviewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.DisplayWidth <= 0 || a.DisplayHeight <= 0 {
		return nil, fmt.Errorf("%w: display size %dx%d", imaging.ErrInvalidGeometry, a.DisplayWidth, a.DisplayHeight)
	}
	if a.DisplayWidth > maxPreviewSize || a.DisplayHeight > maxPreviewSize {
		return nil, fmt.Errorf("%w: display size %dx%d exceeds %d", imaging.ErrInvalidGeometry, a.DisplayWidth, a.DisplayHeight, maxPreviewSize)
	}

	buf, err := s.buffer(a.Which)
	if err != nil {
		return nil, err
	}

	var opts imaging.PreviewOptions
	if a.Background != "" {
		c, err := imaging.ParseHexColor(a.Background)
		if err != nil {
			return nil, fmt.Errorf("invalid background: %w", err)
		}
		opts.Background = c
	}
	if a.ShowSelection == nil || *a.ShowSelection {
		if r, ok := s.session.Selection(); ok {
			opts.Selection = &r
		}
	}

	out, err := imaging.RenderPreview(buf, a.DisplayWidth, a.DisplayHeight, opts)
	if err != nil {
		return nil, err
	}
	data, err := imaging.EncodeBytes(out, imaging.FormatPNG, imaging.EncodeOptions{})
	if err != nil {
		return nil, err
	}

	return encodedImage{
		Width:    out.Width,
		Height:   out.Height,
		MimeType: imaging.FormatPNG.MimeType(),
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}

type sessionExportArgs struct {
	Path   string `json:"path"`
	Format string `json:"format"`
}

type exportResult struct {
	Path   string         `json:"path,omitempty"`
	Format imaging.Format `json:"format"`
	Bytes  int            `json:"bytes,omitempty"`
	Image  *encodedImage  `json:"image,omitempty"`
}

func (s *Server) handleSessionExport(args json.RawMessage) (interface{}, error) {
	var a sessionExportArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	name := a.Format
	if name == "" && a.Path != "" {
		name = filepath.Ext(a.Path)
	}
	format, err := imaging.ParseFormat(name)
	if err != nil {
		return nil, err
	}

	if err := s.flush(); err != nil {
		return nil, err
	}
	buf, err := s.session.Export()
	if err != nil {
		return nil, err
	}

	opts := imaging.EncodeOptions{JPEGQuality: s.cfg.JPEGQuality}
	if a.Path != "" {
		if err := imaging.SaveFile(a.Path, buf, format, opts); err != nil {
			return nil, err
		}
		return exportResult{Path: a.Path, Format: format}, nil
	}

	data, err := imaging.EncodeBytes(buf, format, opts)
	if err != nil {
		return nil, err
	}
	return exportResult{
		Format: format,
		Bytes:  len(data),
		Image: &encodedImage{
			Width:    buf.Width,
			Height:   buf.Height,
			MimeType: format.MimeType(),
			Data:     base64.StdEncoding.EncodeToString(data),
		},
	}, nil
}

// === Analysis Handlers ===

type whichArgs struct {
	Which string `json:"which"`
}

func (s *Server) handleSessionStats(args json.RawMessage) (interface{}, error) {
	var a whichArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	buf, err := s.buffer(a.Which)
	if err != nil {
		return nil, err
	}
	return imaging.ComputeStats(buf), nil
}

type sampleColorArgs struct {
	X             *int     `json:"x"`
	Y             *int     `json:"y"`
	DisplayX      *float64 `json:"display_x"`
	DisplayY      *float64 `json:"display_y"`
	DisplayWidth  float64  `json:"display_width"`
	DisplayHeight float64  `json:"display_height"`
}

func (s *Server) handleSampleColor(args json.RawMessage) (interface{}, error) {
	var a sampleColorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	buf, err := s.buffer("working")
	if err != nil {
		return nil, err
	}

	var x, y int
	switch {
	case a.DisplayX != nil && a.DisplayY != nil:
		px, py, ok, err := imaging.MapPointToSource(*a.DisplayX, *a.DisplayY,
			imaging.GeometryFor(buf, a.DisplayWidth, a.DisplayHeight))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("display point (%g,%g) is outside the image", *a.DisplayX, *a.DisplayY)
		}
		x, y = px, py
	case a.X != nil && a.Y != nil:
		x, y = *a.X, *a.Y
	default:
		return nil, fmt.Errorf("either x and y or display_x and display_y are required")
	}

	return imaging.SampleColor(buf, x, y)
}

type dominantColorsArgs struct {
	Count  int                `json:"count"`
	Region *imaging.PixelRect `json:"region"`
}

func (s *Server) handleDominantColors(args json.RawMessage) (interface{}, error) {
	var a dominantColorsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Count <= 0 {
		a.Count = 5
	}

	buf, err := s.buffer("working")
	if err != nil {
		return nil, err
	}
	return imaging.DominantColors(buf, a.Count, a.Region)
}

type sessionOCRArgs struct {
	Language  string `json:"language"`
	Binarize  bool   `json:"binarize"`
	Threshold int    `json:"threshold"`
}

func (s *Server) handleSessionOCR(args json.RawMessage) (interface{}, error) {
	var a sessionOCRArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Threshold < 0 || a.Threshold > 255 {
		return nil, fmt.Errorf("threshold must be between 0 and 255, got %d", a.Threshold)
	}

	buf, err := s.buffer("working")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	return s.reader.Read(ctx, buf, ocr.Options{
		Language:  a.Language,
		Binarize:  a.Binarize,
		Threshold: uint8(a.Threshold),
	})
}
