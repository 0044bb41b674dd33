package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func croppedProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "boolean",
		"description": "Treat the image as an already cropped plate and skip localization. Default false",
		"default":     false,
	}
}

func scaleProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": "Optional scale factor for returned images (e.g., 2.0 to double size). Default 1.0",
		"default":     1.0,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Photo Information
		{
			Name:        "image_load",
			Description: "Load a vehicle photo and return its dimensions, format and the size of the frame the plate localizer works in.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
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
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_crop",
			Description: "Crop a rectangular region from an image and return it as base64-encoded PNG. Use this to inspect a located plate or a single character more closely.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "Left edge X coordinate (0-based)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Top edge Y coordinate (0-based)",
					},
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Region width in pixels",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Region height in pixels",
					},
					"scale": scaleProperty(),
				},
				"required": []string{"path", "x", "y", "width", "height"},
			},
		},

		// Plate Pipeline
		{
			Name:        "plate_locate",
			Description: "Find the license plate in a vehicle photo. Returns the plate bounds in the working frame and in photo coordinates, the ink density used to pick a refinement, and the plate crop as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":  pathProperty(),
					"scale": scaleProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "plate_enhance",
			Description: "Binarize a plate and keep the components shaped like character strokes. Returns the glyph mask, the unfiltered component mask and the component counts.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty(),
					"cropped": croppedProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "plate_segment",
			Description: "Split a plate into character crops ordered left to right. Returns each crop with its offset and bounds, the annotated plate, and whether the character count is plausible (2 to 7).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty(),
					"cropped": croppedProperty(),
					"dump_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory to write intermediate stage images to. Defaults to PLATE_MCP_DUMP_DIR; empty disables dumps",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "plate_recognize",
			Description: "Run the full pipeline and classify each character with Tesseract or a template classifier. Characters are read in the given order and labels are translated to Arabic script.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty(),
					"cropped": croppedProperty(),
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code. Defaults to PLATE_MCP_OCR_LANGUAGE",
					},
					"whitelist": map[string]interface{}{
						"type":        "string",
						"description": "Characters the classifier may return. Defaults to PLATE_MCP_OCR_WHITELIST",
					},
					"reading_order": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"ltr", "rtl"},
						"description": "Order characters are classified in. Defaults to PLATE_MCP_READING_ORDER",
					},
					"classifier": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"tesseract", "template"},
						"description": "Character classifier. template matches HOG descriptors against labeled glyphs. Defaults to PLATE_MCP_CLASSIFIER",
					},
					"templates": map[string]interface{}{
						"type":        "string",
						"description": "Directory with one subdirectory of glyph images per label, for the template classifier. Defaults to PLATE_MCP_TEMPLATE_DIR",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "plate_translate",
			Description: "Translate classifier labels to display symbols, or symbols back to labels when reverse is set. Unknown entries pass through unchanged.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"labels": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Labels (or symbols when reverse is true) in reading order",
					},
					"reverse": map[string]interface{}{
						"type":        "boolean",
						"description": "Map symbols back to labels. Default false",
						"default":     false,
					},
				},
				"required": []string{"labels"},
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
