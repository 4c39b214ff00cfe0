// Package speech converts reading text into an MP3 file.
package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// DefaultEndpoint is the Google Translate text-to-speech endpoint.
	DefaultEndpoint = "https://translate.google.com/translate_tts"

	// MaxChunkLength is the longest text, in characters, sent in one request.
	MaxChunkLength = 100

	// DefaultTimeout bounds each chunk request.
	DefaultTimeout = 30 * time.Second

	userAgent = "Mozilla/5.0 (X11; Linux x86_64) palmreader-mcp"
)

var (
	// ErrEmptyText is returned when there is nothing to speak.
	ErrEmptyText = errors.New("no text to synthesize")

	// ErrSynthesis wraps failures of the speech service.
	ErrSynthesis = errors.New("speech synthesis failed")
)

// Synthesizer renders text as speech and returns the path of an audio file.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) (string, error)
}

// Config configures a GoogleTTS.
type Config struct {
	// Endpoint is the TTS URL. Empty means DefaultEndpoint.
	Endpoint string

	// OutputDir receives the MP3 files. Empty means os.TempDir().
	OutputDir string

	// Timeout bounds each chunk request. Zero means DefaultTimeout.
	Timeout time.Duration
}

// GoogleTTS synthesizes speech through the Google Translate TTS endpoint.
//
// Text is split into chunks of at most MaxChunkLength characters, each chunk
// is fetched as MP3, and the chunks are concatenated into one file. MP3
// frames are self-delimiting, so the concatenation plays back as one clip.
type GoogleTTS struct {
	endpoint  string
	outputDir string
	client    *http.Client
	logger    *slog.Logger
}

// NewGoogleTTS creates a synthesizer from cfg.
func NewGoogleTTS(cfg Config, logger *slog.Logger) *GoogleTTS {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = os.TempDir()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GoogleTTS{
		endpoint:  cfg.Endpoint,
		outputDir: cfg.OutputDir,
		client:    &http.Client{Timeout: cfg.Timeout},
		logger:    logger,
	}
}

// Synthesize writes the speech for text in language lang (for example "en")
// to a new MP3 file and returns its path. The caller owns the file.
//
// Returns ErrEmptyText for blank text. On failure no file is left behind.
func (g *GoogleTTS) Synthesize(ctx context.Context, text, lang string) (string, error) {
	chunks := SplitText(text, MaxChunkLength)
	if len(chunks) == 0 {
		return "", ErrEmptyText
	}
	if lang == "" {
		lang = "en"
	}

	path := filepath.Join(g.outputDir, "palm-reading-"+uuid.NewString()+".mp3")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create audio file: %w", err)
	}

	for i, chunk := range chunks {
		if err := g.fetchChunk(ctx, f, chunk, lang, i, len(chunks)); err != nil {
			f.Close()
			os.Remove(path)
			return "", err
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write audio file: %w", err)
	}

	g.logger.Debug("synthesized speech", "path", path, "chunks", len(chunks), "lang", lang)
	return path, nil
}

func (g *GoogleTTS) fetchChunk(ctx context.Context, w io.Writer, chunk, lang string, idx, total int) error {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("q", chunk)
	q.Set("tl", lang)
	q.Set("client", "tw-ob")
	q.Set("total", strconv.Itoa(total))
	q.Set("idx", strconv.Itoa(idx))
	q.Set("textlen", strconv.Itoa(utf8.RuneCountInString(chunk)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: chunk %d: %w", ErrSynthesis, idx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: chunk %d: status %d", ErrSynthesis, idx, resp.StatusCode)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("%w: chunk %d: %w", ErrSynthesis, idx, err)
	}
	return nil
}

// SplitText breaks text into chunks of at most limit characters.
//
// Breaks prefer the positions after sentence and clause punctuation, then
// spaces between words. Short clauses are joined while they fit. A single
// word longer than limit is split inside the word. Chunks are trimmed and
// never empty.
func SplitText(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxChunkLength
	}
	var chunks []string
	for _, piece := range splitAfterPunct(text) {
		for _, part := range packWords(strings.Fields(piece), limit) {
			n := len(chunks)
			if n > 0 && utf8.RuneCountInString(chunks[n-1])+1+utf8.RuneCountInString(part) <= limit {
				chunks[n-1] += " " + part
				continue
			}
			chunks = append(chunks, part)
		}
	}
	return chunks
}

// splitAfterPunct cuts text after each punctuation rune that ends a clause.
func splitAfterPunct(text string) []string {
	var pieces []string
	start := 0
	for i, r := range text {
		if isBreak(r) {
			end := i + utf8.RuneLen(r)
			pieces = append(pieces, text[start:end])
			start = end
		}
	}
	if start < len(text) {
		pieces = append(pieces, text[start:])
	}
	return pieces
}

func isBreak(r rune) bool {
	switch r {
	case '.', '!', '?', ';', ':', ',', '\n', '।', '。', '！', '？':
		return true
	}
	return false
}

// packWords greedily joins words with single spaces into chunks of at most
// limit characters.
func packWords(words []string, limit int) []string {
	var chunks []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if s := strings.TrimFunc(cur.String(), unicode.IsSpace); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
		curLen = 0
	}

	for _, w := range words {
		wLen := utf8.RuneCountInString(w)
		for wLen > limit {
			flush()
			runes := []rune(w)
			chunks = append(chunks, string(runes[:limit]))
			w = string(runes[limit:])
			wLen -= limit
		}
		if curLen > 0 && curLen+1+wLen > limit {
			flush()
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(w)
		curLen += wLen
	}
	flush()
	return chunks
}
