package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func numberProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": description,
	}
}

func integerProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

// whichProp selects between the working and original buffers.
var whichProp = map[string]interface{}{
	"type":        "string",
	"enum":        []string{"working", "original"},
	"description": "Buffer to use: 'working' (adjusted, default) or 'original' (unadjusted)",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Loading and adjustment
		{
			Name:        "session_load",
			Description: "Load an image file into the edit session. Replaces any previous image, discarding its adjustments, selection and crops.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "session_adjust",
			Description: "Set brightness, contrast and sharpening. Omitted values keep their current setting. Updates are debounced; pass wait=true to block until the result is applied.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"brightness": numberProp("Brightness delta, 0 is unchanged, 1 is +100%, -1 is -100%"),
					"contrast":   numberProp("Contrast delta, 0 is unchanged, 1 is +100%, -1 is -100%"),
					"sharpen":    numberProp("Sharpening sigma, 0 disables sharpening"),
					"total":      numberProp("Master multiplier for brightness and contrast (default: 1 on first adjustment)"),
					"wait": map[string]interface{}{
						"type":        "boolean",
						"description": "Apply immediately and wait for the result (default: false)",
					},
				},
			},
		},

		// Selection
		{
			Name:        "session_select_begin",
			Description: "Start a drag selection at a display point.",
			InputSchema: pointSchema(),
		},
		{
			Name:        "session_select_move",
			Description: "Extend the drag selection to a display point.",
			InputSchema: pointSchema(),
		},
		{
			Name:        "session_select_end",
			Description: "Finish the drag selection. The rectangle stays visible.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "session_select_clear",
			Description: "Hide the selection.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "session_select",
			Description: "Set the selection directly to a display rectangle.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": numberProp("Left edge in display units"),
					"y": numberProp("Top edge in display units"),
					"w": numberProp("Width in display units"),
					"h": numberProp("Height in display units"),
				},
				"required": []string{"x", "y", "w", "h"},
			},
		},

		// Cropping
		{
			Name:        "session_crop",
			Description: "Crop to the selection as drawn on a display of the given size. The image is letterboxed into the display. The current adjustments are baked into the result and reset. Selections smaller than 5 display units are ignored.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"display_width":  numberProp("Width of the display surface"),
					"display_height": numberProp("Height of the display surface"),
					"selection": map[string]interface{}{
						"type":        "object",
						"description": "Selection to crop to instead of the current one",
						"properties": map[string]interface{}{
							"x": map[string]interface{}{"type": "number"},
							"y": map[string]interface{}{"type": "number"},
							"w": map[string]interface{}{"type": "number"},
							"h": map[string]interface{}{"type": "number"},
						},
						"required": []string{"x", "y", "w", "h"},
					},
				},
				"required": []string{"display_width", "display_height"},
			},
		},
		{
			Name:        "session_crop_pixels",
			Description: "Crop to a rectangle in source pixel coordinates. The rectangle must lie inside the image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": integerProp("Left edge in pixels"),
					"y": integerProp("Top edge in pixels"),
					"w": integerProp("Width in pixels"),
					"h": integerProp("Height in pixels"),
				},
				"required": []string{"x", "y", "w", "h"},
			},
		},
		{
			Name:        "session_suggest_crop",
			Description: "Detect the content area of the working image (page edges or text blocks) and return it as a pixel rectangle, and as a display selection when a display size is given. Does not crop.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"edges", "text"},
						"description": "Detect all edges or only text-like blocks (default: edges)",
					},
					"display_width":  numberProp("Width of the display surface"),
					"display_height": numberProp("Height of the display surface"),
					"threshold_low":  integerProp("Canny low threshold (default: 50)"),
					"threshold_high": integerProp("Canny high threshold (default: 150)"),
					"margin":         integerProp("Pixels of padding around the content (default: 0)"),
					"min_confidence": numberProp("Minimum text block confidence in text mode (default: 0.5)"),
				},
			},
		},

		// Viewing and export
		{
			Name:        "session_preview",
			Description: "Render the image letterboxed into a display of the given size, optionally with the selection outlined. Returns a base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"display_width":  integerProp("Width of the preview in pixels, at most 8192"),
					"display_height": integerProp("Height of the preview in pixels, at most 8192"),
					"which":          whichProp,
					"show_selection": map[string]interface{}{
						"type":        "boolean",
						"description": "Outline the current selection (default: true)",
					},
					"background": map[string]interface{}{
						"type":        "string",
						"description": "Letterbox color as #RRGGBB (default: transparent)",
					},
				},
				"required": []string{"display_width", "display_height"},
			},
		},
		{
			Name:        "session_export",
			Description: "Export the working image with all adjustments applied. Writes to path when given, otherwise returns base64 data.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute output path. The format is taken from the extension unless format is set.",
					},
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"png", "jpeg", "gif", "bmp", "tiff"},
						"description": "Output format (default: png)",
					},
				},
			},
		},
		{
			Name:        "session_info",
			Description: "Report session state: image size, adjustment values, selection, and whether an adjustment is pending or computing.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Analysis
		{
			Name:        "session_stats",
			Description: "Channel and luminance statistics, including clipped shadows and highlights.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"which": whichProp,
				},
			},
		},
		{
			Name:        "session_sample_color",
			Description: "Sample the working image color at a pixel (x, y) or at a display point (display_x, display_y on a display_width x display_height surface).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x":              integerProp("X pixel coordinate"),
					"y":              integerProp("Y pixel coordinate"),
					"display_x":      numberProp("X display coordinate"),
					"display_y":      numberProp("Y display coordinate"),
					"display_width":  numberProp("Width of the display surface"),
					"display_height": numberProp("Height of the display surface"),
				},
			},
		},
		{
			Name:        "session_dominant_colors",
			Description: "Most common colors of the working image, or of a pixel region.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"count": integerProp("Number of colors to return (default: 5)"),
					"region": map[string]interface{}{
						"type":        "object",
						"description": "Optional pixel region",
						"properties": map[string]interface{}{
							"x": map[string]interface{}{"type": "integer"},
							"y": map[string]interface{}{"type": "integer"},
							"w": map[string]interface{}{"type": "integer"},
							"h": map[string]interface{}{"type": "integer"},
						},
						"required": []string{"x", "y", "w", "h"},
					},
				},
			},
		},
		{
			Name:        "session_ocr",
			Description: "Run OCR on the working image to check that text is legible after adjustment.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code (default: server setting, usually 'eng')",
					},
					"binarize": map[string]interface{}{
						"type":        "boolean",
						"description": "Threshold to black and white before recognition (default: false)",
					},
					"threshold": integerProp("Binarization threshold 1-255 (default: 128)"),
				},
			},
		},
	}
}

func pointSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"x": numberProp("X display coordinate"),
			"y": numberProp("Y display coordinate"),
		},
		"required": []string{"x", "y"},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
