package server

import (
	"testing"
)

var expectedTools = []string{
	"palm_load",
	"palm_extract_features",
	"palm_edge_map",
	"palm_overlay",
	"palm_list_folder",
	"palm_reading",
	"palm_ask",
	"palm_translate",
	"palm_speak",
}

func toolsByName() map[string]Tool {
	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}
	return toolMap
}

func requiredOf(t *testing.T, tool Tool) []string {
	t.Helper()
	required, ok := tool.InputSchema["required"]
	if !ok {
		return nil
	}
	list, ok := required.([]string)
	if !ok {
		t.Fatalf("%s: 'required' should be a string slice", tool.Name)
	}
	return list
}

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	if len(tools) != len(expectedTools) {
		t.Errorf("got %d tools, want %d", len(tools), len(expectedTools))
	}

	toolMap := toolsByName()
	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
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
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}
			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema properties should be a map")
			}

			// Every required parameter must be declared
			for _, r := range requiredOf(t, tool) {
				if _, ok := props[r]; !ok {
					t.Errorf("required parameter %q has no property", r)
				}
			}
		})
	}
}

func TestToolDefinitions_Required(t *testing.T) {
	tests := map[string][]string{
		"palm_load":             {"path"},
		"palm_extract_features": {"path"},
		"palm_edge_map":         {"path"},
		"palm_overlay":          {"path"},
		"palm_list_folder":      nil,
		"palm_reading":          {"path"},
		"palm_ask":              {"question"},
		"palm_translate":        {"text", "language"},
		"palm_speak":            {"text"},
	}

	toolMap := toolsByName()
	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			got := requiredOf(t, toolMap[name])
			if len(got) != len(want) {
				t.Fatalf("required: got %v, want %v", got, want)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("required[%d]: got %s, want %s", i, got[i], want[i])
				}
			}
		})
	}
}

func TestToolDefinitions_OptionalDefaults(t *testing.T) {
	toolDefaults := map[string]map[string]interface{}{
		"palm_edge_map": {"stage": "edges", "region": "full", "scale": 1.0},
		"palm_overlay":  {"base": "normalized", "all": false, "grid": 0, "labels": false, "region": "full", "scale": 1.0},
		"palm_reading":  {"language": "en", "speak": false},
		"palm_speak":    {"language": "en"},
	}

	toolMap := toolsByName()
	for toolName, expectedDefaults := range toolDefaults {
		props, ok := toolMap[toolName].InputSchema["properties"].(map[string]interface{})
		if !ok {
			t.Errorf("%s: properties should be a map", toolName)
			continue
		}

		for paramName, expected := range expectedDefaults {
			param, ok := props[paramName].(map[string]interface{})
			if !ok {
				t.Errorf("%s.%s: parameter not found or not a map", toolName, paramName)
				continue
			}
			if param["default"] != expected {
				t.Errorf("%s.%s: default got %v, want %v", toolName, paramName, param["default"], expected)
			}
		}
	}
}

func TestToolDefinitions_StageEnum(t *testing.T) {
	props := toolsByName()["palm_edge_map"].InputSchema["properties"].(map[string]interface{})
	stage, ok := props["stage"].(map[string]interface{})
	if !ok {
		t.Fatal("stage property should exist and be a map")
	}
	enum, ok := stage["enum"].([]string)
	if !ok {
		t.Fatal("stage should have enum")
	}
	if len(enum) != 2 || enum[0] != "edges" || enum[1] != "normalized" {
		t.Errorf("stage enum: got %v", enum)
	}
}

func TestToolDefinitions_RegionEnum(t *testing.T) {
	for _, name := range []string{"palm_edge_map", "palm_overlay"} {
		props := toolsByName()[name].InputSchema["properties"].(map[string]interface{})
		region, ok := props["region"].(map[string]interface{})
		if !ok {
			t.Fatalf("%s: region property should exist and be a map", name)
		}
		enum, ok := region["enum"].([]string)
		if !ok {
			t.Fatalf("%s: region should have enum", name)
		}
		enumMap := make(map[string]bool)
		for _, e := range enum {
			enumMap[e] = true
		}
		for _, want := range []string{"full", "top-left", "bottom-right", "center"} {
			if !enumMap[want] {
				t.Errorf("%s: expected region '%s' not in enum", name, want)
			}
		}
	}
}

func TestHandleToolsList(t *testing.T) {
	s := New(Options{})
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
	tools, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatal("tools should be a []Tool")
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("got %d tools, want %d", len(tools), len(expectedTools))
	}
}
