// Package server implements the MCP (Model Context Protocol) server for
// print preparation.
//
// The server owns one edit session and exposes it as tools: load a scan,
// adjust brightness, contrast and sharpening, select and crop the page,
// then export the result for printing. Analysis tools (statistics, color
// sampling, content detection and OCR) help judge whether the adjusted
// page will print legibly.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Tools
//
// Loading and adjustment:
//   - session_load: Load an image, replacing the current one
//   - session_adjust: Set brightness, contrast, sharpen and total (debounced)
//
// Selection, in display coordinates:
//   - session_select_begin, session_select_move, session_select_end: Drag a selection
//   - session_select: Set the selection directly
//   - session_select_clear: Hide the selection
//
// Cropping:
//   - session_crop: Crop to the selection on a display of a given size
//   - session_crop_pixels: Crop to a pixel rectangle
//   - session_suggest_crop: Detect the content area without cropping
//
// Viewing and export:
//   - session_preview: Letterboxed PNG preview with optional selection outline
//   - session_export: Write the adjusted image to a file or return it as base64
//   - session_info: Session state
//
// Analysis:
//   - session_stats: Channel and luminance statistics
//   - session_sample_color: Color at a pixel or display point
//   - session_dominant_colors: Color palette
//   - session_ocr: Legibility check with Tesseract
//
// Tools that read the working image first flush any debounced adjustment,
// so they always see the latest slider values.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// A crop whose selection is below the minimum size is not an error; the
// result reports cropped=false and the image is unchanged.
//
// # Usage
//
//	cfg, err := server.ConfigFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv := server.New(cfg)
//	defer srv.Close()
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
