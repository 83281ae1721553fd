package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/imgblend/internal/codec"
	"github.com/ironsheep/imgblend/internal/raster"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_blend").
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
// Argument validation errors return code -32602; other tool failures -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Info("tool failed", "tool", params.Name, "error", err)
		if isArgumentError(err) {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
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

var errBadArguments = errors.New("invalid arguments")

func isArgumentError(err error) bool {
	return errors.Is(err, errBadArguments) ||
		errors.Is(err, raster.ErrInvalidArgument) ||
		errors.Is(err, raster.ErrEmptyInput) ||
		errors.Is(err, raster.ErrInvalidElement)
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(ctx, args)
	case "image_dimensions":
		return s.handleImageDimensions(ctx, args)
	case "image_sample_color":
		return s.handleImageSampleColor(ctx, args)

	case "image_overlay":
		return s.handleImageOverlay(ctx, args)
	case "image_merge":
		return s.handleImageMerge(ctx, args)
	case "image_blend":
		return s.handleImageBlend(ctx, args)
	case "image_encode":
		return s.handleImageEncode(ctx, args)

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
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errBadArguments, err)
	}
	return nil
}

// EncodedImage is the result of every tool that produces an image.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
	SizeBytes   int    `json:"size_bytes"`
}

func encodedImage(data []byte, format codec.Format) (*EncodedImage, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("inspect encoded image: %w", err)
	}
	mime := "image/png"
	if format == codec.JPEG {
		mime = "image/jpeg"
	}
	return &EncodedImage{
		Width:       cfg.Width,
		Height:      cfg.Height,
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    mime,
		SizeBytes:   len(data),
	}, nil
}

// outputArgs is embedded by every tool that encodes.
type outputArgs struct {
	Format  string `json:"format"`
	Quality int    `json:"quality"`
}

// options overlays the call's format and quality on the server defaults.
func (o outputArgs) options(defaults codec.Options) (codec.Options, error) {
	opts := defaults
	if o.Format != "" {
		f, err := codec.ParseFormat(o.Format)
		if err != nil {
			return opts, fmt.Errorf("%w: %v", errBadArguments, err)
		}
		opts.Format = f
	}
	if o.Quality != 0 {
		if o.Quality < 1 || o.Quality > 100 {
			return opts, fmt.Errorf("%w: quality must be between 1 and 100", errBadArguments)
		}
		opts.JPEG.Quality = o.Quality
	}
	return opts, nil
}

func (s *Server) encode(ctx context.Context, img *raster.Image, out outputArgs) (*EncodedImage, error) {
	opts, err := out.options(s.encoding)
	if err != nil {
		return nil, err
	}
	data, err := img.EncodeAs(ctx, opts)
	if err != nil {
		return nil, err
	}
	return encodedImage(data, opts.Format)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	return raster.LoadInfo(ctx, s.cache, a.Path)
}

// DimensionsResult holds image width and height
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s *Server) handleImageDimensions(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(ctx, a.Path)
	if err != nil {
		return nil, err
	}
	return &DimensionsResult{Width: img.Width(), Height: img.Height()}, nil
}

// === Color Handlers ===

// RGBAColor represents an RGBA color with 8-bit components including alpha.
type RGBAColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// HSLColor represents a color in HSL space: hue in degrees, saturation and
// lightness in percent.
type HSLColor struct {
	H int `json:"h"`
	S int `json:"s"`
	L int `json:"l"`
}

// ColorResult contains a sampled pixel in several representations. Hex
// excludes alpha.
type ColorResult struct {
	Hex  string    `json:"hex"`
	RGBA RGBAColor `json:"rgba"`
	HSL  HSLColor  `json:"hsl"`
}

type imageSampleColorArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handleImageSampleColor(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageSampleColorArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(ctx, a.Path)
	if err != nil {
		return nil, err
	}
	c, err := img.At(a.X, a.Y)
	if err != nil {
		return nil, err
	}

	cf := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	h, sat, l := cf.Hsl()
	if math.IsNaN(h) {
		h = 0
	}
	return &ColorResult{
		Hex:  cf.Hex(),
		RGBA: RGBAColor{R: c.R, G: c.G, B: c.B, A: c.A},
		HSL: HSLColor{
			H: int(math.Round(h)) % 360,
			S: int(math.Round(sat * 100)),
			L: int(math.Round(l * 100)),
		},
	}, nil
}

// === Compositing Handlers ===

type imageOverlayArgs struct {
	Path        string `json:"path"`
	OverlayPath string `json:"overlay_path"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	outputArgs
}

// handleImageOverlay composites overlay_path onto path. Cached images are
// shared between calls, so the result is built as a two-layer merge rather
// than painting into the cached destination.
func (s *Server) handleImageOverlay(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageOverlayArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	dst, err := s.cache.Load(ctx, a.Path)
	if err != nil {
		return nil, err
	}
	src, err := s.cache.Load(ctx, a.OverlayPath)
	if err != nil {
		return nil, err
	}

	out := raster.Merge([]raster.Placement{
		{Image: dst},
		{Image: src, X: a.X, Y: a.Y},
	}, s.opts...)
	return s.encode(ctx, out, a.outputArgs)
}

type layerArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

type imageMergeArgs struct {
	Layers []layerArgs `json:"layers"`
	outputArgs
}

func (s *Server) handleImageMerge(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageMergeArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Layers) == 0 {
		return nil, fmt.Errorf("%w: layers", raster.ErrEmptyInput)
	}

	placements := make([]raster.Placement, len(a.Layers))
	for i, l := range a.Layers {
		img, err := s.cache.Load(ctx, l.Path)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		placements[i] = raster.Placement{Image: img, X: l.X, Y: l.Y}
	}
	return s.encode(ctx, raster.Merge(placements, s.opts...), a.outputArgs)
}

type imageBlendArgs struct {
	// Buffers is decoded loosely so that raster.Buffers reports the shape
	// errors: not an array, empty, or an element that is not a buffer.
	Buffers interface{} `json:"buffers"`
}

func (s *Server) handleImageBlend(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageBlendArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	input := a.Buffers
	if list, ok := a.Buffers.([]interface{}); ok {
		converted := make([]any, len(list))
		for i, e := range list {
			str, ok := e.(string)
			if !ok {
				converted[i] = e
				continue
			}
			data, err := base64.StdEncoding.DecodeString(str)
			if err != nil {
				return nil, fmt.Errorf("%w: element %d is not base64: %v", raster.ErrInvalidElement, i, err)
			}
			converted[i] = data
		}
		input = converted
	}

	data, err := raster.Blend(ctx, input, s.opts...)
	if err != nil {
		return nil, err
	}
	return encodedImage(data, codec.PNG)
}

type imageEncodeArgs struct {
	Path string `json:"path"`
	outputArgs
}

func (s *Server) handleImageEncode(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageEncodeArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(ctx, a.Path)
	if err != nil {
		return nil, err
	}
	return s.encode(ctx, img, a.outputArgs)
}
