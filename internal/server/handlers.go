package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/ironsheep/plate-tools-mcp/internal/config"
	"github.com/ironsheep/plate-tools-mcp/internal/detection"
	"github.com/ironsheep/plate-tools-mcp/internal/geometry"
	"github.com/ironsheep/plate-tools-mcp/internal/imaging"
	"github.com/ironsheep/plate-tools-mcp/internal/ocr"
	"github.com/ironsheep/plate-tools-mcp/internal/plate"
)

var errEmptyLabels = errors.New("labels must not be empty")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "plate_segment").
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
// Pipeline failures carry the failing stage as a prefix of the error data.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		log.Printf("Tool %s failed: %v", params.Name, err)
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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Photo Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_crop":
		return s.handleImageCrop(args)

	// Plate Pipeline
	case "plate_locate":
		return s.handlePlateLocate(args)
	case "plate_enhance":
		return s.handlePlateEnhance(args)
	case "plate_segment":
		return s.handlePlateSegment(args)
	case "plate_recognize":
		return s.handlePlateRecognize(args)
	case "plate_translate":
		return s.handlePlateTranslate(args)

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
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Photo Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadPhotoInfo(s.cache, a.Path, detection.WorkingWidth)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

type imageCropArgs struct {
	Path   string  `json:"path"`
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Scale  float64 `json:"scale"`
}

func (s *Server) handleImageCrop(args json.RawMessage) (interface{}, error) {
	var a imageCropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.CropRect(img, geometry.Rect{X: a.X, Y: a.Y, Width: a.Width, Height: a.Height}, a.Scale)
}

// === Plate Pipeline Handlers ===

type plateLocateArgs struct {
	Path  string  `json:"path"`
	Scale float64 `json:"scale"`
}

// PlateLocateResult is returned by plate_locate.
type PlateLocateResult struct {
	RunID      string                `json:"run_id"`
	Bounds     geometry.Rect         `json:"bounds"`
	Source     geometry.Rect         `json:"source"`
	InkDensity float64               `json:"ink_density"`
	Plate      *imaging.EncodedImage `json:"plate"`
}

func (s *Server) handlePlateLocate(args json.RawMessage) (interface{}, error) {
	var a plateLocateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	run := uuid.NewString()
	region, err := detection.LocatePlate(img)
	if err != nil {
		return nil, &plate.StageError{Stage: plate.StageLocate, Err: err}
	}
	s.debugf("run=%s stage=%s bounds=%+v ink=%.4f", run, plate.StageLocate, region.Bounds, region.InkDensity)

	encoded, err := imaging.Encode(region.Image, a.Scale)
	if err != nil {
		return nil, err
	}
	return &PlateLocateResult{
		RunID:      run,
		Bounds:     region.Bounds,
		Source:     region.Source,
		InkDensity: region.InkDensity,
		Plate:      encoded,
	}, nil
}

type plateEnhanceArgs struct {
	Path    string `json:"path"`
	Cropped bool   `json:"cropped"`
}

// PlateEnhanceResult is returned by plate_enhance.
type PlateEnhanceResult struct {
	RunID      string                `json:"run_id"`
	Components int                   `json:"components"`
	Glyphs     int                   `json:"glyphs"`
	Glyph      *imaging.EncodedImage `json:"glyph_mask"`
	Permissive *imaging.EncodedImage `json:"permissive_mask"`
	Plate      *imaging.EncodedImage `json:"plate"`
}

func (s *Server) handlePlateEnhance(args json.RawMessage) (interface{}, error) {
	var a plateEnhanceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	run := uuid.NewString()
	if !a.Cropped {
		region, err := detection.LocatePlate(img)
		if err != nil {
			return nil, &plate.StageError{Stage: plate.StageLocate, Err: err}
		}
		s.debugf("run=%s stage=%s bounds=%+v", run, plate.StageLocate, region.Bounds)
		img = region.Image
	}

	enhanced, err := plate.Enhance(img)
	if err != nil {
		return nil, &plate.StageError{Stage: plate.StageEnhance, Err: err}
	}
	s.debugf("run=%s stage=%s components=%d glyphs=%d", run, plate.StageEnhance, enhanced.Components, enhanced.Glyphs)

	out := &PlateEnhanceResult{
		RunID:      run,
		Components: enhanced.Components,
		Glyphs:     enhanced.Glyphs,
	}
	if out.Glyph, err = imaging.Encode(enhanced.Glyph, 1); err != nil {
		return nil, err
	}
	if out.Permissive, err = imaging.Encode(enhanced.Permissive, 1); err != nil {
		return nil, err
	}
	if out.Plate, err = imaging.Encode(enhanced.Plate, 1); err != nil {
		return nil, err
	}
	return out, nil
}

type plateSegmentArgs struct {
	Path    string  `json:"path"`
	Cropped bool    `json:"cropped"`
	DumpDir *string `json:"dump_dir"`
}

// CropResult is one character crop in a tool response.
type CropResult struct {
	Offset int                   `json:"offset"`
	Bounds geometry.Rect         `json:"bounds"`
	Image  *imaging.EncodedImage `json:"image"`
}

// PlateSegmentResult is returned by plate_segment.
type PlateSegmentResult struct {
	RunID     string                `json:"run_id"`
	Valid     bool                  `json:"valid"`
	Count     int                   `json:"count"`
	Crops     []CropResult          `json:"crops"`
	Region    *plate.RegionInfo     `json:"region,omitempty"`
	Annotated *imaging.EncodedImage `json:"annotated"`
	Dumps     map[string]string     `json:"dumps,omitempty"`
}

func (s *Server) handlePlateSegment(args json.RawMessage) (interface{}, error) {
	var a plateSegmentArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	run := uuid.NewString()
	result, trace, err := s.segment(run, img, a.Cropped)
	if err != nil {
		return nil, err
	}

	out := &PlateSegmentResult{
		RunID:  run,
		Valid:  result.Valid,
		Count:  len(result.Crops),
		Crops:  make([]CropResult, 0, len(result.Crops)),
		Region: result.Region,
	}
	for _, c := range result.Crops {
		encoded, err := imaging.Encode(c.Image, 1)
		if err != nil {
			return nil, fmt.Errorf("crop at x=%d: %w", c.Offset, err)
		}
		out.Crops = append(out.Crops, CropResult{Offset: c.Offset, Bounds: c.Bounds, Image: encoded})
	}
	if out.Annotated, err = imaging.Encode(result.Plate, 1); err != nil {
		return nil, err
	}

	dumpDir := s.cfg.DumpDir
	if a.DumpDir != nil {
		dumpDir = *a.DumpDir
	}
	dumper := imaging.Dumper{Dir: dumpDir, Run: run}
	if out.Dumps, err = dumper.SaveAll(stageImages(result, trace)); err != nil {
		return nil, err
	}
	if dumper.Enabled() {
		s.debugf("run=%s dumped=%d dir=%s", run, len(out.Dumps), dumpDir)
	}
	return out, nil
}

type plateRecognizeArgs struct {
	Path         string `json:"path"`
	Cropped      bool   `json:"cropped"`
	Language     string `json:"language"`
	Whitelist    string `json:"whitelist"`
	ReadingOrder string `json:"reading_order"`
	Classifier   string `json:"classifier"`
	Templates    string `json:"templates"`
}

// PlateRecognizeResult is returned by plate_recognize.
type PlateRecognizeResult struct {
	RunID        string                `json:"run_id"`
	Valid        bool                  `json:"valid"`
	Count        int                   `json:"count"`
	ReadingOrder plate.ReadingOrder    `json:"reading_order"`
	Labels       []string              `json:"labels"`
	Symbols      []string              `json:"symbols"`
	Confidences  []float64             `json:"confidences"`
	Text         string                `json:"text"`
	Region       *plate.RegionInfo     `json:"region,omitempty"`
	Annotated    *imaging.EncodedImage `json:"annotated"`
}

func (s *Server) handlePlateRecognize(args json.RawMessage) (interface{}, error) {
	var a plateRecognizeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	order := s.cfg.ReadingOrder
	if a.ReadingOrder != "" {
		parsed, err := plate.ParseReadingOrder(a.ReadingOrder)
		if err != nil {
			return nil, err
		}
		order = parsed
	}
	classifier, err := s.classifier(&a)
	if err != nil {
		return nil, err
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	run := uuid.NewString()
	recognizer := &plate.Recognizer{
		Pipeline:   s.pipeline,
		Classifier: classifier,
		Table:      s.table,
		Order:      order,
	}
	var rec *plate.Recognition
	if a.Cropped {
		rec, err = recognizer.RecognizePlate(img)
	} else {
		rec, err = recognizer.Recognize(img)
	}
	if err != nil {
		return nil, err
	}
	result := rec.Result
	s.debugf("run=%s stage=%s crops=%d valid=%v", run, plate.StageSegment, len(result.Crops), result.Valid)
	s.debugf("run=%s stage=%s classifier=%s order=%s labels=%s", run, plate.StageClassify, a.Classifier, rec.Order, strings.Join(rec.Labels, ","))

	out := &PlateRecognizeResult{
		RunID:        run,
		Valid:        result.Valid,
		Count:        len(result.Crops),
		ReadingOrder: rec.Order,
		Labels:       rec.Labels,
		Symbols:      rec.Symbols,
		Text:         rec.Text,
		Region:       result.Region,
	}
	for _, p := range rec.Predictions {
		out.Confidences = append(out.Confidences, p.Confidence)
	}

	var annotated image.Image = result.Plate
	if rec.Annotated != nil {
		annotated = rec.Annotated
	}
	if out.Annotated, err = imaging.Encode(annotated, 1); err != nil {
		return nil, err
	}
	return out, nil
}

// classifier builds the classifier a plate_recognize call asks for, filling
// unset arguments from the configuration.
func (s *Server) classifier(a *plateRecognizeArgs) (ocr.Classifier, error) {
	if a.Classifier == "" {
		a.Classifier = s.cfg.Classifier
	}

	switch a.Classifier {
	case "", config.ClassifierTesseract:
		a.Classifier = config.ClassifierTesseract
		if a.Language == "" {
			a.Language = s.cfg.OCRLanguage
		}
		if a.Whitelist == "" {
			a.Whitelist = s.cfg.OCRWhitelist
		}
		return ocr.NewTesseractClassifier(a.Language, a.Whitelist), nil

	case config.ClassifierTemplate:
		if a.Templates == "" {
			a.Templates = s.cfg.TemplateDir
		}
		if a.Templates == "" {
			return nil, fmt.Errorf("templates directory required for the %s classifier", config.ClassifierTemplate)
		}
		c, err := ocr.LoadTemplates(a.Templates)
		if err != nil {
			return nil, err
		}
		s.debugf("templates dir=%s glyphs=%d", a.Templates, c.Len())
		return c, nil

	default:
		return nil, fmt.Errorf("unknown classifier %q (want %s or %s)", a.Classifier, config.ClassifierTesseract, config.ClassifierTemplate)
	}
}

type plateTranslateArgs struct {
	Labels  []string `json:"labels"`
	Reverse bool     `json:"reverse"`
}

// PlateTranslateResult is returned by plate_translate.
type PlateTranslateResult struct {
	Input  []string `json:"input"`
	Output []string `json:"output"`
	Text   string   `json:"text"`
}

func (s *Server) handlePlateTranslate(args json.RawMessage) (interface{}, error) {
	var a plateTranslateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Labels) == 0 {
		return nil, &plate.StageError{Stage: plate.StageTranslate, Err: errEmptyLabels}
	}

	var output []string
	if a.Reverse {
		output = s.table.ReverseAll(a.Labels)
	} else {
		output = s.table.TranslateAll(a.Labels)
	}
	return &PlateTranslateResult{
		Input:  a.Labels,
		Output: output,
		Text:   strings.Join(output, " "),
	}, nil
}

// segment runs the pipeline on a vehicle photo, or on a plate when cropped
// is set, and logs each stage.
func (s *Server) segment(run string, img image.Image, cropped bool) (*plate.PlateResult, *plate.Trace, error) {
	var (
		result *plate.PlateResult
		trace  *plate.Trace
		err    error
	)
	if cropped {
		result, trace, err = s.pipeline.ProcessTrace(img)
	} else {
		result, trace, err = s.pipeline.RunTrace(img)
	}
	if err != nil {
		return nil, nil, err
	}

	if trace.Region != nil {
		s.debugf("run=%s stage=%s bounds=%+v ink=%.4f", run, plate.StageLocate, trace.Region.Bounds, trace.Region.InkDensity)
	}
	s.debugf("run=%s stage=%s components=%d glyphs=%d", run, plate.StageEnhance, trace.Enhanced.Components, trace.Enhanced.Glyphs)
	s.debugf("run=%s stage=%s crops=%d valid=%v", run, plate.StageSegment, len(result.Crops), result.Valid)
	return result, trace, nil
}

// stageImages names every intermediate image of a run for dumping.
func stageImages(result *plate.PlateResult, trace *plate.Trace) map[string]image.Image {
	stages := map[string]image.Image{
		"3-candidates": result.Candidates,
		"4-segmented":  result.Plate,
	}
	if trace.Region != nil {
		stages["0-plate"] = trace.Region.Image
		stages["0-plate-mask"] = trace.Region.Mask
	}
	if e := trace.Enhanced; e != nil {
		stages["1-enhanced"] = e.Plate
		stages["2-glyph"] = e.Glyph
		stages["2-permissive"] = e.Permissive
	}
	for i, c := range result.Crops {
		stages[fmt.Sprintf("5-char-%02d", i)] = c.Image
	}
	return stages
}
