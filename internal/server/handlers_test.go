package server

import (
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/plate-tools-mcp/internal/config"
	"github.com/ironsheep/plate-tools-mcp/internal/plate"
)

// writePNG saves img under the test's temp dir and returns its path.
func writePNG(t *testing.T, name string, img image.Image) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func fill(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// createPlateImage draws a 200x60 white plate with four dark L strokes that
// segment into four characters.
func createPlateImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 200, 60))
	fill(img, img.Bounds(), color.White)
	for i := 0; i < 4; i++ {
		x := 20 + i*45
		fill(img, image.Rect(x, 14, x+6, 46), color.Black)
		fill(img, image.Rect(x, 44, x+18, 46), color.Black)
	}
	return img
}

// createVehicleImage draws a gray scene with a white plate in its lower half.
func createVehicleImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 1000, 600))
	fill(img, img.Bounds(), color.Gray{Y: 128})
	fill(img, image.Rect(400, 400, 600, 470), color.White)
	for i := 0; i < 6; i++ {
		x := 420 + i*28
		fill(img, image.Rect(x, 415, x+4, 455), color.Black)
		fill(img, image.Rect(x+10, 415, x+14, 455), color.Black)
	}
	return img
}

func createUniformImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fill(img, img.Bounds(), c)
	return img
}

// callTool sends a tools/call request through handleRequest.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// decodeResult unpacks the JSON text content of a successful tool response.
func decodeResult(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()

	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("content: got %#v", result["content"])
	}
	text, _ := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("failed to decode result %q: %v", text, err)
	}
}

// wantToolError checks for a -32000 error whose data contains substr.
func wantToolError(t *testing.T, resp *MCPResponse, substr string) {
	t.Helper()

	if resp.Error == nil {
		t.Fatal("expected an error response")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
	}
	data, _ := resp.Error.Data.(string)
	if !strings.Contains(data, substr) {
		t.Errorf("error data %q should contain %q", data, substr)
	}
}

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	s := New(nil)
	path := writePNG(t, "photo.png", createUniformImage(500, 300, color.RGBA{255, 0, 0, 255}))

	var info struct {
		Width         int    `json:"width"`
		Height        int    `json:"height"`
		Format        string `json:"format"`
		WorkingWidth  int    `json:"working_width"`
		WorkingHeight int    `json:"working_height"`
	}
	decodeResult(t, callTool(t, s, "image_load", map[string]interface{}{"path": path}), &info)

	if info.Width != 500 || info.Height != 300 || info.Format != "png" {
		t.Errorf("info: got %+v", info)
	}
	// 300 rows scale to 600 at width 1000; the top 240 are dropped.
	if info.WorkingWidth != 1000 || info.WorkingHeight != 360 {
		t.Errorf("working frame: got %dx%d, want 1000x360", info.WorkingWidth, info.WorkingHeight)
	}
}

func TestHandleToolsCall_ImageDimensions(t *testing.T) {
	s := New(nil)
	path := writePNG(t, "dims.png", createUniformImage(200, 150, color.RGBA{0, 255, 0, 255}))

	var dims struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	decodeResult(t, callTool(t, s, "image_dimensions", map[string]interface{}{"path": path}), &dims)

	if dims.Width != 200 || dims.Height != 150 {
		t.Errorf("dimensions: got %dx%d, want 200x150", dims.Width, dims.Height)
	}
}

func TestHandleToolsCall_ImageCrop(t *testing.T) {
	s := New(nil)
	path := writePNG(t, "crop.png", createPlateImage())

	tests := []struct {
		name    string
		args    map[string]interface{}
		wantW   int
		wantH   int
		wantErr bool
	}{
		{"native", map[string]interface{}{"path": path, "x": 20, "y": 14, "width": 18, "height": 32}, 18, 32, false},
		{"scaled", map[string]interface{}{"path": path, "x": 0, "y": 0, "width": 50, "height": 30, "scale": 2}, 100, 60, false},
		{"outside", map[string]interface{}{"path": path, "x": 190, "y": 0, "width": 50, "height": 30}, 0, 0, true},
		{"empty", map[string]interface{}{"path": path, "x": 0, "y": 0, "width": 0, "height": 30}, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, "image_crop", tt.args)
			if tt.wantErr {
				wantToolError(t, resp, "crop region")
				return
			}

			var out struct {
				Width       int    `json:"width"`
				Height      int    `json:"height"`
				ImageBase64 string `json:"image_base64"`
			}
			decodeResult(t, resp, &out)
			if out.Width != tt.wantW || out.Height != tt.wantH {
				t.Errorf("size: got %dx%d, want %dx%d", out.Width, out.Height, tt.wantW, tt.wantH)
			}
			if out.ImageBase64 == "" {
				t.Error("image should be encoded")
			}
		})
	}
}

func TestHandleToolsCall_PlateLocate(t *testing.T) {
	s := New(nil)
	path := writePNG(t, "vehicle.png", createVehicleImage())

	var out PlateLocateResult
	decodeResult(t, callTool(t, s, "plate_locate", map[string]interface{}{"path": path}), &out)

	if out.RunID == "" {
		t.Error("run_id should be set")
	}
	if out.Bounds.Width == 0 || out.Bounds.Height == 0 {
		t.Errorf("bounds: got %+v", out.Bounds)
	}
	if out.Plate == nil || out.Plate.Width != out.Bounds.Width {
		t.Errorf("plate image does not match bounds %+v", out.Bounds)
	}
	if out.InkDensity <= 0 {
		t.Errorf("ink_density: got %v", out.InkDensity)
	}
}

func TestHandleToolsCall_PlateLocate_NoPlate(t *testing.T) {
	s := New(nil)
	path := writePNG(t, "gray.png", createUniformImage(400, 300, color.Gray{Y: 128}))

	wantToolError(t, callTool(t, s, "plate_locate", map[string]interface{}{"path": path}), "locate:")
}

func TestExecuteTool_StageErrors(t *testing.T) {
	s := New(nil)
	gray := writePNG(t, "gray.png", createUniformImage(400, 300, color.Gray{Y: 128}))
	black := writePNG(t, "black.png", createUniformImage(200, 60, color.Black))

	tests := []struct {
		name      string
		tool      string
		args      map[string]interface{}
		wantStage string
		wantErr   error
	}{
		{"locate no plate", "plate_locate", map[string]interface{}{"path": gray}, plate.StageLocate, plate.ErrNoPlate},
		{"enhance via locate", "plate_enhance", map[string]interface{}{"path": gray}, plate.StageLocate, plate.ErrNoPlate},
		{"enhance blank", "plate_enhance", map[string]interface{}{"path": black, "cropped": true}, plate.StageEnhance, plate.ErrBlankInput},
		{"segment blank", "plate_segment", map[string]interface{}{"path": black, "cropped": true}, plate.StageEnhance, plate.ErrBlankInput},
		{"translate empty", "plate_translate", map[string]interface{}{"labels": []string{}}, plate.StageTranslate, errEmptyLabels},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := json.Marshal(tt.args)
			if err != nil {
				t.Fatalf("failed to marshal args: %v", err)
			}

			result, err := s.executeTool(tt.tool, args)
			if result != nil {
				t.Error("result should be nil on failure")
			}
			var se *plate.StageError
			if !errors.As(err, &se) {
				t.Fatalf("got %T %v, want *plate.StageError", err, err)
			}
			if se.Stage != tt.wantStage {
				t.Errorf("Stage: got %q, want %q", se.Stage, tt.wantStage)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestHandleToolsCall_PlateEnhance(t *testing.T) {
	s := New(nil)
	path := writePNG(t, "plate.png", createPlateImage())

	var out PlateEnhanceResult
	decodeResult(t, callTool(t, s, "plate_enhance", map[string]interface{}{"path": path, "cropped": true}), &out)

	if out.Components != 4 || out.Glyphs != 4 {
		t.Errorf("components/glyphs: got %d/%d, want 4/4", out.Components, out.Glyphs)
	}
	for name, img := range map[string]interface{}{"glyph": out.Glyph, "permissive": out.Permissive, "plate": out.Plate} {
		if img == nil {
			t.Errorf("%s image missing", name)
		}
	}
	if out.Glyph != nil && out.Glyph.Width != 200 {
		t.Errorf("glyph width: got %d, want 200", out.Glyph.Width)
	}
}

func TestHandleToolsCall_PlateEnhance_Blank(t *testing.T) {
	s := New(nil)
	path := writePNG(t, "black.png", createUniformImage(200, 60, color.Black))

	wantToolError(t, callTool(t, s, "plate_enhance", map[string]interface{}{"path": path, "cropped": true}), "enhance:")
}

func TestHandleToolsCall_PlateSegment(t *testing.T) {
	s := New(nil)
	path := writePNG(t, "plate.png", createPlateImage())
	dumpDir := t.TempDir()

	var out PlateSegmentResult
	decodeResult(t, callTool(t, s, "plate_segment", map[string]interface{}{
		"path":     path,
		"cropped":  true,
		"dump_dir": dumpDir,
	}), &out)

	if !out.Valid || out.Count != 4 || len(out.Crops) != 4 {
		t.Fatalf("segmentation: valid=%v count=%d crops=%d", out.Valid, out.Count, len(out.Crops))
	}
	for i, c := range out.Crops {
		if want := 20 + i*45; c.Offset != want {
			t.Errorf("crop %d offset: got %d, want %d", i, c.Offset, want)
		}
		if c.Image == nil || c.Image.Width != c.Bounds.Width {
			t.Errorf("crop %d image does not match bounds %+v", i, c.Bounds)
		}
	}
	if out.Region != nil {
		t.Error("cropped input should not report a region")
	}

	// Stages: enhanced, glyph, permissive, candidates, segmented, 4 chars.
	if len(out.Dumps) != 9 {
		t.Errorf("dumps: got %d, want 9: %v", len(out.Dumps), out.Dumps)
	}
	for stage, p := range out.Dumps {
		if !strings.HasPrefix(filepath.Base(p), out.RunID+"-") {
			t.Errorf("dump %s not named after run: %s", stage, p)
		}
		if _, err := os.Stat(p); err != nil {
			t.Errorf("dump %s missing: %v", stage, err)
		}
	}
}

func TestHandleToolsCall_PlateSegment_Vehicle(t *testing.T) {
	s := New(nil)
	path := writePNG(t, "vehicle.png", createVehicleImage())

	var out PlateSegmentResult
	decodeResult(t, callTool(t, s, "plate_segment", map[string]interface{}{"path": path}), &out)

	if out.Region == nil {
		t.Fatal("region should be reported for a vehicle photo")
	}
	if out.Dumps != nil {
		t.Errorf("dumps should be disabled by default: %v", out.Dumps)
	}
	if out.Valid != (out.Count >= 2 && out.Count <= 7) {
		t.Errorf("valid=%v inconsistent with count=%d", out.Valid, out.Count)
	}
}

func TestHandleToolsCall_PlateRecognize(t *testing.T) {
	s := New(nil)
	path := writePNG(t, "plate.png", createPlateImage())

	resp := callTool(t, s, "plate_recognize", map[string]interface{}{
		"path":          path,
		"cropped":       true,
		"reading_order": "ltr",
		"whitelist":     "0123456789",
	})
	if resp.Error != nil {
		data, _ := resp.Error.Data.(string)
		if strings.Contains(data, "tesseract") || strings.Contains(data, "language") {
			t.Skip("Tesseract not available")
		}
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}

	var out PlateRecognizeResult
	decodeResult(t, resp, &out)
	if out.ReadingOrder != "ltr" {
		t.Errorf("reading_order: got %q, want ltr", out.ReadingOrder)
	}
	if len(out.Labels) != 4 || len(out.Symbols) != 4 || len(out.Confidences) != 4 {
		t.Errorf("labels/symbols/confidences: got %d/%d/%d, want 4 each",
			len(out.Labels), len(out.Symbols), len(out.Confidences))
	}
	if out.Annotated == nil || out.Annotated.Height <= 60 {
		t.Error("annotated plate should carry a caption")
	}
}

func TestHandleToolsCall_PlateRecognize_InvalidPlate(t *testing.T) {
	s := New(nil)
	// A white plate has no characters, so nothing reaches the classifier.
	path := writePNG(t, "empty.png", createUniformImage(200, 60, color.White))

	var out PlateRecognizeResult
	decodeResult(t, callTool(t, s, "plate_recognize", map[string]interface{}{"path": path, "cropped": true}), &out)

	if out.Valid || out.Count != 0 {
		t.Errorf("valid=%v count=%d, want invalid with no crops", out.Valid, out.Count)
	}
	if len(out.Labels) != 0 || out.Text != "" {
		t.Errorf("labels: got %v, want none", out.Labels)
	}
	if out.ReadingOrder != "rtl" {
		t.Errorf("default reading_order: got %q, want rtl", out.ReadingOrder)
	}
}

// writeTemplateDir stores an L glyph cut from createPlateImage as "seen" and a
// horizontal dash as "alf".
func writeTemplateDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	dash := createUniformImage(18, 40, color.White)
	fill(dash, image.Rect(0, 18, 18, 23), color.Black)

	for label, img := range map[string]image.Image{
		"seen": createPlateImage().SubImage(image.Rect(20, 10, 38, 50)),
		"alf":  dash,
	} {
		if err := os.Mkdir(filepath.Join(dir, label), 0o755); err != nil {
			t.Fatal(err)
		}
		f, err := os.Create(filepath.Join(dir, label, "0.png"))
		if err != nil {
			t.Fatal(err)
		}
		if err := png.Encode(f, img); err != nil {
			t.Fatal(err)
		}
		f.Close()
	}
	return dir
}

func TestHandleToolsCall_PlateRecognize_Template(t *testing.T) {
	s := New(nil)
	path := writePNG(t, "plate.png", createPlateImage())

	var out PlateRecognizeResult
	decodeResult(t, callTool(t, s, "plate_recognize", map[string]interface{}{
		"path":       path,
		"cropped":    true,
		"classifier": "template",
		"templates":  writeTemplateDir(t),
	}), &out)

	if !out.Valid || len(out.Labels) != 4 {
		t.Fatalf("valid=%v labels=%v, want 4 labels", out.Valid, out.Labels)
	}
	for i, l := range out.Labels {
		if l != "seen" {
			t.Errorf("label %d: got %q, want seen", i, l)
		}
		if out.Symbols[i] != "س" {
			t.Errorf("symbol %d: got %q, want س", i, out.Symbols[i])
		}
		if out.Confidences[i] <= 0 {
			t.Errorf("confidence %d: got %v", i, out.Confidences[i])
		}
	}
}

func TestHandleToolsCall_PlateRecognize_TemplateFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Classifier = config.ClassifierTemplate
	cfg.TemplateDir = writeTemplateDir(t)
	s := New(cfg)
	path := writePNG(t, "plate.png", createPlateImage())

	var out PlateRecognizeResult
	decodeResult(t, callTool(t, s, "plate_recognize", map[string]interface{}{"path": path, "cropped": true}), &out)
	if len(out.Labels) != 4 {
		t.Errorf("labels: got %v, want 4", out.Labels)
	}
}

func TestHandleToolsCall_PlateRecognize_ClassifierErrors(t *testing.T) {
	s := New(nil)
	path := writePNG(t, "plate.png", createPlateImage())

	tests := []struct {
		name   string
		args   map[string]interface{}
		substr string
	}{
		{"unknown", map[string]interface{}{"path": path, "classifier": "svm"}, "unknown classifier"},
		{"template without dir", map[string]interface{}{"path": path, "classifier": "template"}, "templates directory required"},
		{"empty templates", map[string]interface{}{"path": path, "classifier": "template", "templates": t.TempDir()}, "no templates"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantToolError(t, callTool(t, s, "plate_recognize", tt.args), tt.substr)
		})
	}
}

func TestHandleToolsCall_PlateRecognize_BadOrder(t *testing.T) {
	s := New(nil)
	path := writePNG(t, "plate.png", createPlateImage())

	wantToolError(t, callTool(t, s, "plate_recognize", map[string]interface{}{
		"path":          path,
		"reading_order": "sideways",
	}), "reading order")
}

func TestHandleToolsCall_PlateTranslate(t *testing.T) {
	s := New(nil)

	tests := []struct {
		name    string
		args    map[string]interface{}
		want    []string
		text    string
		wantErr bool
	}{
		{
			name: "forward",
			args: map[string]interface{}{"labels": []string{"alf", "7", "seen"}},
			want: []string{"ا", "7", "س"},
			text: "ا 7 س",
		},
		{
			name: "reverse",
			args: map[string]interface{}{"labels": []string{"ب", "3"}, "reverse": true},
			want: []string{"ba'", "3"},
			text: "ba' 3",
		},
		{
			name: "unknown passes through",
			args: map[string]interface{}{"labels": []string{"zz"}},
			want: []string{"zz"},
			text: "zz",
		},
		{
			name:    "empty",
			args:    map[string]interface{}{"labels": []string{}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, "plate_translate", tt.args)
			if tt.wantErr {
				wantToolError(t, resp, "translate:")
				return
			}

			var out PlateTranslateResult
			decodeResult(t, resp, &out)
			if strings.Join(out.Output, "|") != strings.Join(tt.want, "|") {
				t.Errorf("output: got %v, want %v", out.Output, tt.want)
			}
			if out.Text != tt.text {
				t.Errorf("text: got %q, want %q", out.Text, tt.text)
			}
		})
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := New(nil)
	wantToolError(t, callTool(t, s, "image_ocr_full", map[string]interface{}{}), "unknown tool")
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New(nil)
	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})

	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("expected -32602, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_MissingFile(t *testing.T) {
	s := New(nil)
	for _, name := range []string{"image_load", "plate_locate", "plate_segment"} {
		t.Run(name, func(t *testing.T) {
			wantToolError(t, callTool(t, s, name, map[string]interface{}{"path": "/nonexistent/photo.png"}), "failed to load image")
		})
	}
}
