package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/ironsheep/palmreader-mcp/internal/detection"
)

// DefaultUserAge is the age given to the model when none is configured.
const DefaultUserAge = 20

// detectableLanguages limits source-language detection to the languages a
// reading is realistically written or translated into.
var detectableLanguages = []lingua.Language{
	lingua.English,
	lingua.Hindi,
	lingua.Marathi,
	lingua.Bengali,
	lingua.Tamil,
	lingua.Telugu,
	lingua.Gujarati,
	lingua.Punjabi,
	lingua.Urdu,
	lingua.Spanish,
	lingua.French,
	lingua.German,
	lingua.Portuguese,
	lingua.Italian,
	lingua.Russian,
	lingua.Arabic,
	lingua.Chinese,
	lingua.Japanese,
}

// Oracle writes palm readings and answers follow-up questions.
// It is safe for concurrent use if its Generator is.
type Oracle struct {
	gen     Generator
	userAge int
	logger  *slog.Logger

	detectorOnce sync.Once
	detector     lingua.LanguageDetector
}

// New creates an Oracle backed by gen. A non-positive userAge selects
// DefaultUserAge.
func New(gen Generator, userAge int, logger *slog.Logger) *Oracle {
	if userAge <= 0 {
		userAge = DefaultUserAge
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Oracle{gen: gen, userAge: userAge, logger: logger}
}

// Reading generates a palm reading from extracted features.
//
// Only the first MaxPromptLines features are described to the model. An
// empty feature list still produces a reading.
func (o *Oracle) Reading(ctx context.Context, features []detection.LineFeature) (string, error) {
	text, err := o.generate(ctx, readingPrompt(features))
	if err != nil {
		return "", fmt.Errorf("failed to generate reading: %w", err)
	}
	o.logger.Info("generated reading", "features", len(features), "chars", len(text))
	return text, nil
}

// Ask answers a follow-up question about an existing reading.
// Returns ErrEmptyQuestion if question is blank.
func (o *Oracle) Ask(ctx context.Context, reading, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	text, err := o.generate(ctx, askPrompt(reading, question, o.userAge))
	if err != nil {
		return "", fmt.Errorf("failed to answer question: %w", err)
	}
	return text, nil
}

// Translate renders text in the target language.
//
// The source language is detected locally. Text already in the target
// language, and blank text, are returned unchanged without calling the
// generator.
func (o *Oracle) Translate(ctx context.Context, text string, target language.Tag) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	targetBase, _ := target.Base()
	source, detected := o.DetectLanguage(text)
	sourceName := ""
	if detected {
		sourceBase, _ := source.Base()
		if sourceBase == targetBase {
			o.logger.Debug("text already in target language", "language", targetBase.String())
			return text, nil
		}
		sourceName = LanguageName(source)
	}

	out, err := o.generate(ctx, translatePrompt(text, sourceName, LanguageName(target)))
	if err != nil {
		return "", fmt.Errorf("failed to translate to %s: %w", target, err)
	}
	return out, nil
}

// DetectLanguage reports the language text is written in, if it can be
// told with reasonable confidence.
func (o *Oracle) DetectLanguage(text string) (language.Tag, bool) {
	o.detectorOnce.Do(func() {
		o.detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(detectableLanguages...).
			WithMinimumRelativeDistance(0.1).
			Build()
	})

	lang, ok := o.detector.DetectLanguageOf(text)
	if !ok {
		return language.Und, false
	}
	tag, err := language.Parse(strings.ToLower(lang.IsoCode639_1().String()))
	if err != nil {
		return language.Und, false
	}
	return tag, true
}

// LanguageName returns the English name of tag, e.g. "Hindi" for "hi".
func LanguageName(tag language.Tag) string {
	if name := display.Languages(language.English).Name(tag); name != "" {
		return name
	}
	return tag.String()
}

func (o *Oracle) generate(ctx context.Context, prompt string) (string, error) {
	text, err := o.gen.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, ErrGeneration) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty response", ErrGeneration)
	}
	return text, nil
}
