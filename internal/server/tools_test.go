package server

import (
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	if len(tools) == 0 {
		t.Fatal("GetToolDefinitions returned empty slice")
	}

	expectedTools := []string{
		"session_load",
		"session_adjust",
		"session_select_begin",
		"session_select_move",
		"session_select_end",
		"session_select_clear",
		"session_select",
		"session_crop",
		"session_crop_pixels",
		"session_suggest_crop",
		"session_preview",
		"session_export",
		"session_info",
		"session_stats",
		"session_sample_color",
		"session_dominant_colors",
		"session_ocr",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("Duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("Tool count: got %d, want %d", len(tools), len(expectedTools))
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	tools := GetToolDefinitions()

	for _, tool := range tools {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Name == "" {
				t.Error("Tool name is empty")
			}
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema == nil {
				t.Fatal("Tool InputSchema is nil")
			}

			if schemaType := tool.InputSchema["type"]; schemaType != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", schemaType)
			}

			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema properties should be a map")
			}

			// Every required parameter must be declared.
			if required, ok := tool.InputSchema["required"].([]string); ok {
				for _, r := range required {
					if _, ok := props[r]; !ok {
						t.Errorf("required parameter %s has no property", r)
					}
				}
			}
		})
	}
}

func TestToolDefinitions_Required(t *testing.T) {
	tests := []struct {
		tool     string
		required []string
	}{
		{"session_load", []string{"path"}},
		{"session_select_begin", []string{"x", "y"}},
		{"session_select_move", []string{"x", "y"}},
		{"session_select", []string{"x", "y", "w", "h"}},
		{"session_crop", []string{"display_width", "display_height"}},
		{"session_crop_pixels", []string{"x", "y", "w", "h"}},
		{"session_preview", []string{"display_width", "display_height"}},
	}

	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			tool, ok := toolMap[tt.tool]
			if !ok {
				t.Fatalf("%s not found", tt.tool)
			}
			required, ok := tool.InputSchema["required"].([]string)
			if !ok {
				t.Fatal("'required' should be a string slice")
			}

			have := make(map[string]bool)
			for _, r := range required {
				have[r] = true
			}
			for _, r := range tt.required {
				if !have[r] {
					t.Errorf("should require '%s'", r)
				}
			}
			if len(required) != len(tt.required) {
				t.Errorf("required: got %v, want %v", required, tt.required)
			}
		})
	}
}

func TestToolDefinitions_WhichEnum(t *testing.T) {
	for _, name := range []string{"session_preview", "session_stats"} {
		t.Run(name, func(t *testing.T) {
			var tool Tool
			for _, tt := range GetToolDefinitions() {
				if tt.Name == name {
					tool = tt
				}
			}
			props := tool.InputSchema["properties"].(map[string]interface{})
			which, ok := props["which"].(map[string]interface{})
			if !ok {
				t.Fatal("which property should exist")
			}
			enum, ok := which["enum"].([]string)
			if !ok || len(enum) != 2 || enum[0] != "working" || enum[1] != "original" {
				t.Errorf("which enum: got %v", which["enum"])
			}
		})
	}
}

func TestHandleToolsList(t *testing.T) {
	s := newTestServer(t)
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
	}

	resp := s.handleToolsList(req)

	if resp == nil {
		t.Fatal("handleToolsList returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}

	toolsList, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatal("tools should be a slice of Tool")
	}
	if len(toolsList) != len(GetToolDefinitions()) {
		t.Errorf("Tool count: got %d, want %d", len(toolsList), len(GetToolDefinitions()))
	}
}
