package server

import "github.com/ironsheep/palmreader-mcp/internal/imaging"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the palm photo",
	}
}

// zoomProperties adds the region and scale parameters to props.
func zoomProperties(props map[string]interface{}) map[string]interface{} {
	props["region"] = map[string]interface{}{
		"type":        "string",
		"description": "Part of the 600x800 frame to return",
		"enum":        imaging.Regions,
		"default":     "full",
	}
	props["scale"] = map[string]interface{}{
		"type":        "number",
		"description": "Scale factor applied after cropping (e.g., 2.0 to double size). Default 1.0",
		"default":     1.0,
	}
	return props
}

func languageProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
		"default":     "en",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image and Pipeline
		{
			Name:        "palm_load",
			Description: "Load a palm photo and return its dimensions and format.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "palm_extract_features",
			Description: "Run the palm-line pipeline on a photo. Returns length, enclosed area and polygon vertex count for every detected line, plus summary statistics.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "palm_edge_map",
			Description: "Return an intermediate pipeline raster as base64-encoded PNG: the enhanced 600x800 grayscale frame or its binary edge map.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": zoomProperties(map[string]interface{}{
					"path": pathProperty(),
					"stage": map[string]interface{}{
						"type":        "string",
						"description": "Pipeline stage to render",
						"enum":        []string{"edges", "normalized"},
						"default":     "edges",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "palm_overlay",
			Description: "Draw the detected palm lines over the normalized frame and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": zoomProperties(map[string]interface{}{
					"path": pathProperty(),
					"base": map[string]interface{}{
						"type":        "string",
						"description": "Raster to draw on",
						"enum":        []string{"normalized", "edges"},
						"default":     "normalized",
					},
					"all": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw every traced contour instead of only the accepted lines",
						"default":     false,
					},
					"grid": map[string]interface{}{
						"type":        "integer",
						"description": "Coordinate grid spacing in pixels (0 for no grid)",
						"default":     0,
					},
					"labels": map[string]interface{}{
						"type":        "boolean",
						"description": "Label grid intersections with their coordinates",
						"default":     false,
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "palm_list_folder",
			Description: "List the palm photos in a folder. Photos over four megapixels are reported as downscaled to 800x600.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"folder": map[string]interface{}{
						"type":        "string",
						"description": "Folder to scan. Defaults to the configured sample folder",
					},
				},
			},
		},

		// Readings
		{
			Name:        "palm_reading",
			Description: "Extract palm-line features from a photo and generate a palm reading. Readings are cached per image and language.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty(),
					"language": languageProperty("BCP 47 tag of the reading language"),
					"speak": map[string]interface{}{
						"type":        "boolean",
						"description": "Also render the reading as MP3 speech (English only)",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "palm_ask",
			Description: "Answer a follow-up question about a palm reading.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"reading": map[string]interface{}{
						"type":        "string",
						"description": "The reading the question refers to",
					},
					"question": map[string]interface{}{
						"type":        "string",
						"description": "The user's question",
					},
				},
				"required": []string{"question"},
			},
		},
		{
			Name:        "palm_translate",
			Description: "Translate a reading into another language. Text already in the target language is returned unchanged.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Text to translate",
					},
					"language": map[string]interface{}{
						"type":        "string",
						"description": "BCP 47 tag of the target language (e.g., hi, fr, ja)",
					},
				},
				"required": []string{"text", "language"},
			},
		},
		{
			Name:        "palm_speak",
			Description: "Render text as MP3 speech and return the path of the audio file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Text to speak",
					},
					"language": languageProperty("BCP 47 tag of the voice language"),
				},
				"required": []string{"text"},
			},
		},
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
