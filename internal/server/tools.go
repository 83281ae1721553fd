package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func integerProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

// withOutput adds the optional format and quality properties shared by every
// tool that returns an encoded image.
func withOutput(props map[string]interface{}) map[string]interface{} {
	props["format"] = map[string]interface{}{
		"type":        "string",
		"enum":        []string{"png", "jpeg"},
		"description": "Output format. Defaults to the server's configured format",
	}
	props["quality"] = map[string]interface{}{
		"type":        "integer",
		"minimum":     1,
		"maximum":     100,
		"description": "JPEG quality (1-100). Ignored for PNG",
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and whether it has transparency. The decoded image is cached for later calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_sample_color",
			Description: "Get the exact RGBA value at a specific pixel coordinate, with hex and HSL forms.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
					"x":    integerProperty("X coordinate (0-based, from left)"),
					"y":    integerProperty("Y coordinate (0-based, from top)"),
				},
				"required": []string{"path", "x", "y"},
			},
		},

		// Compositing
		{
			Name:        "image_overlay",
			Description: "Alpha-composite one image over another at an offset and return the result as base64. Pixels falling outside the base are clipped. Neither file is modified.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withOutput(map[string]interface{}{
					"path":         pathProperty("Absolute path to the base image"),
					"overlay_path": pathProperty("Absolute path to the image painted on top"),
					"x":            integerProperty("Left offset of the overlay, may be negative"),
					"y":            integerProperty("Top offset of the overlay, may be negative"),
				}),
				"required": []string{"path", "overlay_path"},
			},
		},
		{
			Name:        "image_merge",
			Description: "Composite a list of layers bottom to top onto a canvas the size of the first layer and return the result as base64.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withOutput(map[string]interface{}{
					"layers": map[string]interface{}{
						"type":        "array",
						"minItems":    1,
						"description": "Layers in paint order. The first sets the canvas size",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"path": pathProperty("Absolute path to the layer image"),
								"x":    integerProperty("Left offset"),
								"y":    integerProperty("Top offset"),
							},
							"required": []string{"path"},
						},
					},
				}),
				"required": []string{"layers"},
			},
		},
		{
			Name:        "image_blend",
			Description: "Blend base64-encoded images bottom to top at the origin of the first and return a PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"buffers": map[string]interface{}{
						"type":        "array",
						"minItems":    1,
						"items":       map[string]interface{}{"type": "string"},
						"description": "Base64-encoded image files, bottom layer first",
					},
				},
				"required": []string{"buffers"},
			},
		},
		{
			Name:        "image_encode",
			Description: "Re-encode an image file as PNG or JPEG and return it as base64.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withOutput(map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
				}),
				"required": []string{"path"},
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
