package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"strings"

	"golang.org/x/text/language"

	"github.com/ironsheep/palmreader-mcp/internal/detection"
	"github.com/ironsheep/palmreader-mcp/internal/imaging"
	"github.com/ironsheep/palmreader-mcp/internal/oracle"
	"github.com/ironsheep/palmreader-mcp/internal/palm"
	"github.com/ironsheep/palmreader-mcp/internal/store"
)

var (
	errNoOracle      = fmt.Errorf("readings are unavailable: %w", oracle.ErrMissingAPIKey)
	errNoSynthesizer = errors.New("speech is unavailable: no synthesizer configured")
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "palm_load", "palm_reading").
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
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
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
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Image and pipeline
	case "palm_load":
		return s.handlePalmLoad(args)
	case "palm_extract_features":
		return s.handleExtractFeatures(args)
	case "palm_edge_map":
		return s.handleEdgeMap(args)
	case "palm_overlay":
		return s.handleOverlay(args)
	case "palm_list_folder":
		return s.handleListFolder(ctx, args)

	// Generated text and speech
	case "palm_reading":
		return s.handleReading(ctx, args)
	case "palm_ask":
		return s.handleAsk(ctx, args)
	case "palm_translate":
		return s.handleTranslate(ctx, args)
	case "palm_speak":
		return s.handleSpeak(ctx, args)

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

// decodeArgs unmarshals tool arguments into v. Absent arguments decode as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// parseLanguage parses an optional BCP 47 tag, defaulting to English.
func parseLanguage(s string) (language.Tag, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return language.English, nil
	}
	tag, err := language.Parse(s)
	if err != nil {
		return language.Und, fmt.Errorf("invalid language %q: %w", s, err)
	}
	return tag, nil
}

func isEnglish(tag language.Tag) bool {
	base, _ := tag.Base()
	return base.String() == "en"
}

// === Image and Pipeline Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handlePalmLoad(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// analyze runs the extractor on the cached image at path. It also returns
// the digest of the exact bytes that were analyzed.
func (s *Server) analyze(path string) (*palm.Analysis, string, error) {
	img, digest, err := s.cache.LoadDigest(path)
	if err != nil {
		return nil, "", err
	}
	analysis, err := s.opts.Extractor.Analyze(img)
	if err != nil {
		return nil, "", err
	}
	return analysis, digest, nil
}

// FeaturesResult is the result of palm_extract_features.
type FeaturesResult struct {
	Path     string                  `json:"path"`
	Count    int                     `json:"count"`
	Features []detection.LineFeature `json:"features"`
	Summary  detection.Summary       `json:"summary"`
}

func (s *Server) handleExtractFeatures(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	analysis, _, err := s.analyze(a.Path)
	if err != nil {
		return nil, err
	}
	return &FeaturesResult{
		Path:     a.Path,
		Count:    len(analysis.Features),
		Features: analysis.Features,
		Summary:  detection.Summarize(analysis.Features),
	}, nil
}

// zoomArgs selects part of a rendered frame.
type zoomArgs struct {
	Region string  `json:"region"`
	Scale  float64 `json:"scale"`
}

func (z zoomArgs) encode(img image.Image) (*imaging.EncodedImage, error) {
	zoomed, err := imaging.Zoom(img, z.Region, z.Scale)
	if err != nil {
		return nil, err
	}
	return imaging.EncodePNG(zoomed)
}

type edgeMapArgs struct {
	Path  string `json:"path"`
	Stage string `json:"stage"`
	zoomArgs
}

func (s *Server) handleEdgeMap(args json.RawMessage) (interface{}, error) {
	var a edgeMapArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	analysis, _, err := s.analyze(a.Path)
	if err != nil {
		return nil, err
	}

	switch a.Stage {
	case "", "edges":
		return a.encode(analysis.Edges)
	case "normalized":
		return a.encode(analysis.Normalized)
	default:
		return nil, fmt.Errorf("invalid stage %q: must be edges or normalized", a.Stage)
	}
}

// OverlayResult is the result of palm_overlay.
type OverlayResult struct {
	*imaging.EncodedImage
	Lines int `json:"lines"`
}

type overlayArgs struct {
	Path   string `json:"path"`
	Base   string `json:"base"`
	All    bool   `json:"all"`
	Grid   int    `json:"grid"`
	Labels bool   `json:"labels"`
	zoomArgs
}

func (s *Server) handleOverlay(args json.RawMessage) (interface{}, error) {
	var a overlayArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Grid < 0 {
		return nil, fmt.Errorf("invalid grid spacing %d: must not be negative", a.Grid)
	}
	analysis, _, err := s.analyze(a.Path)
	if err != nil {
		return nil, err
	}

	var base image.Image
	switch a.Base {
	case "", "normalized":
		base = analysis.Normalized
	case "edges":
		base = analysis.Edges
	default:
		return nil, fmt.Errorf("invalid base %q: must be normalized or edges", a.Base)
	}

	contours := analysis.Lines
	if a.All {
		contours = analysis.Contours
	}
	polylines := make([][]image.Point, len(contours))
	for i, c := range contours {
		polylines[i] = c.ImagePoints()
	}

	// The grid goes on before zooming so labels keep frame coordinates.
	out := imaging.Overlay(base, polylines)
	imaging.DrawGrid(out, a.Grid, a.Labels)

	enc, err := a.encode(out)
	if err != nil {
		return nil, err
	}
	return &OverlayResult{EncodedImage: enc, Lines: len(polylines)}, nil
}

// FolderResult is the result of palm_list_folder.
type FolderResult struct {
	Folder string                `json:"folder"`
	Count  int                   `json:"count"`
	Images []imaging.FolderImage `json:"images"`
}

type listFolderArgs struct {
	Folder string `json:"folder"`
}

func (s *Server) handleListFolder(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a listFolderArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Folder == "" {
		a.Folder = s.opts.Folder
	}
	if a.Folder == "" {
		return nil, errors.New("folder is required")
	}

	images, err := imaging.ListFolder(ctx, a.Folder, s.log)
	if err != nil {
		return nil, err
	}
	return &FolderResult{Folder: a.Folder, Count: len(images), Images: images}, nil
}

// === Reading Handlers ===

// ReadingResult is the result of palm_reading.
//
// Translation and speech failures are reported in their own fields; the
// reading itself is still returned.
type ReadingResult struct {
	Path             string                  `json:"path" yaml:"path"`
	Features         []detection.LineFeature `json:"features" yaml:"features"`
	Summary          detection.Summary       `json:"summary" yaml:"summary"`
	Language         string                  `json:"language" yaml:"language"`
	Reading          string                  `json:"reading" yaml:"reading"`
	Cached           bool                    `json:"cached" yaml:"cached"`
	TranslationError string                  `json:"translation_error,omitempty" yaml:"translation_error,omitempty"`
	AudioPath        string                  `json:"audio_path,omitempty" yaml:"audio_path,omitempty"`
	SpeechError      string                  `json:"speech_error,omitempty" yaml:"speech_error,omitempty"`
}

type readingArgs struct {
	Path     string `json:"path"`
	Language string `json:"language"`
	Speak    bool   `json:"speak"`
}

func (s *Server) handleReading(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a readingArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.Reading(ctx, a.Path, a.Language, a.Speak)
}

// Reading extracts the features of the photo at path and returns its
// reading in lang (a BCP 47 tag, English when empty).
//
// The English reading is generated first and translated when another
// language is requested. A failed translation falls back to English and is
// reported in TranslationError. When speak is set, English readings are
// rendered as speech; speech problems are reported in SpeechError.
func (s *Server) Reading(ctx context.Context, path, lang string, speak bool) (*ReadingResult, error) {
	tag, err := parseLanguage(lang)
	if err != nil {
		return nil, err
	}
	if s.opts.Oracle == nil {
		return nil, errNoOracle
	}

	analysis, hash, err := s.analyze(path)
	if err != nil {
		return nil, err
	}
	// English variants share one cached reading.
	key := tag.String()
	if isEnglish(tag) {
		key = language.English.String()
	}
	res := &ReadingResult{
		Path:     path,
		Features: analysis.Features,
		Summary:  detection.Summarize(analysis.Features),
		Language: key,
	}

	if cached := s.cachedReading(ctx, hash, res.Language); cached != "" {
		res.Reading, res.Cached = cached, true
	} else {
		english := s.cachedReading(ctx, hash, language.English.String())
		if english == "" {
			if english, err = s.opts.Oracle.Reading(ctx, analysis.Features); err != nil {
				return nil, err
			}
			s.storeReading(ctx, hash, language.English.String(), analysis.Features, english)
		}
		res.Reading = english

		if !isEnglish(tag) {
			translated, err := s.opts.Oracle.Translate(ctx, english, tag)
			if err != nil {
				res.TranslationError = err.Error()
				res.Language = language.English.String()
			} else {
				res.Reading = translated
				s.storeReading(ctx, hash, res.Language, analysis.Features, translated)
			}
		}
	}

	// Voice output is English only.
	if speak {
		switch {
		case !isEnglish(tag):
			res.SpeechError = "speech is only available for English readings"
		case s.opts.Synthesizer == nil:
			res.SpeechError = errNoSynthesizer.Error()
		default:
			path, err := s.opts.Synthesizer.Synthesize(ctx, res.Reading, "en")
			if err != nil {
				res.SpeechError = err.Error()
			} else {
				res.AudioPath = path
			}
		}
	}
	return res, nil
}

func (s *Server) cachedReading(ctx context.Context, hash, lang string) string {
	if s.opts.Store == nil {
		return ""
	}
	r, err := s.opts.Store.GetReading(ctx, hash, lang)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Warn("reading cache lookup failed", "error", err)
		}
		return ""
	}
	s.log.Debug("reading cache hit", "hash", hash, "language", lang)
	return r.Text
}

func (s *Server) storeReading(ctx context.Context, hash, lang string, features []detection.LineFeature, text string) {
	if s.opts.Store == nil {
		return
	}
	err := s.opts.Store.PutReading(ctx, store.Reading{
		ImageHash: hash,
		Language:  lang,
		Model:     s.opts.Model,
		Features:  features,
		Text:      text,
	})
	if err != nil {
		s.log.Warn("failed to cache reading", "error", err)
	}
}

type askArgs struct {
	Reading  string `json:"reading"`
	Question string `json:"question"`
}

func (s *Server) handleAsk(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a askArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if s.opts.Oracle == nil {
		return nil, errNoOracle
	}
	answer, err := s.opts.Oracle.Ask(ctx, a.Reading, a.Question)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"question": strings.TrimSpace(a.Question),
		"answer":   answer,
	}, nil
}

type translateArgs struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func (s *Server) handleTranslate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a translateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if strings.TrimSpace(a.Language) == "" {
		return nil, errors.New("language is required")
	}
	tag, err := parseLanguage(a.Language)
	if err != nil {
		return nil, err
	}
	if s.opts.Oracle == nil {
		return nil, errNoOracle
	}

	out, err := s.opts.Oracle.Translate(ctx, a.Text, tag)
	if err != nil {
		return nil, err
	}
	result := map[string]interface{}{
		"language":      tag.String(),
		"language_name": oracle.LanguageName(tag),
		"text":          out,
	}
	if src, ok := s.opts.Oracle.DetectLanguage(a.Text); ok {
		result["source_language"] = src.String()
	}
	return result, nil
}

type speakArgs struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func (s *Server) handleSpeak(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a speakArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Language == "" {
		a.Language = s.opts.SpeechLanguage
	}
	tag, err := parseLanguage(a.Language)
	if err != nil {
		return nil, err
	}
	if s.opts.Synthesizer == nil {
		return nil, errNoSynthesizer
	}

	base, _ := tag.Base()
	path, err := s.opts.Synthesizer.Synthesize(ctx, a.Text, base.String())
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"audio_path": path,
		"language":   base.String(),
		"mime_type":  "audio/mpeg",
	}, nil
}
