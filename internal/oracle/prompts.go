package oracle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ironsheep/palmreader-mcp/internal/detection"
)

// MaxPromptLines is the number of features included in a reading prompt.
const MaxPromptLines = 7

const readingInstructions = `Now write a palm reading in simple, easy-to-understand language.

Instructions:
- Use short, simple sentences.
- Avoid complex or magical language.
- Clearly explain the Life Line, Head Line, Heart Line, Fate Line, and Sun Line.
- Talk about the person's childhood, present, and future.
- Describe personality traits.
- Give realistic advice on health, relationships, and career.

Make it friendly and human-like. Write 3 to 4 paragraphs.`

const askGuidelines = `Guidelines:
- Give a clear, specific answer.
- If the user asks about marriage, estimate the likely age range or specific year when marriage is most probable (e.g., "around age 24-25", "in late 2026").
- Use the palm features like Life Line, Heart Line, and Fate Line to justify your answer.
- Be realistic and grounded. Avoid vague phrases like "whenever you're ready" or "fate will decide".
- Don't be overly spiritual or magical. Be wise and practical.
- Keep the answer short: 1-2 paragraphs maximum.`

// FormatFeatures renders up to MaxPromptLines features, one per line,
// under a fixed heading.
func FormatFeatures(features []detection.LineFeature) string {
	var sb strings.Builder
	sb.WriteString("These are the palm line features extracted from the hand image:\n")
	for i, f := range features {
		if i == MaxPromptLines {
			break
		}
		fmt.Fprintf(&sb, "Line %d: Length = %s, Area = %s, Points = %d\n",
			i+1, formatNumber(f.Length), formatNumber(f.Area), f.Points)
	}
	return sb.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func readingPrompt(features []detection.LineFeature) string {
	var sb strings.Builder
	sb.WriteString("You are an expert palm reader.\n\n")
	sb.WriteString(FormatFeatures(features))

	if len(features) == 0 {
		sb.WriteString("No distinct lines were detected; the palm lines are faint.\n")
	} else {
		s := detection.Summarize(features)
		fmt.Fprintf(&sb, "Overall: %d lines, total length %s, mean length %s, longest %s.\n",
			s.Count, formatNumber(s.TotalLength), formatNumber(s.MeanLength), formatNumber(s.MaxLength))
	}

	sb.WriteString("\n")
	sb.WriteString(readingInstructions)
	return sb.String()
}

func askPrompt(reading, question string, age int) string {
	var sb strings.Builder
	sb.WriteString("You are a palmistry expert AI.\n\n")
	sb.WriteString("Below is the palm reading of a user:\n")
	sb.WriteString(reading)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Now answer this specific question from the user: %q\n\n", question)
	sb.WriteString(askGuidelines)
	fmt.Fprintf(&sb, "\n\nUser's current age is: %d\n", age)
	return sb.String()
}

func translatePrompt(text, source, target string) string {
	if source == "" {
		return fmt.Sprintf("Translate the following text to %s in a simple, friendly tone:\n\n%s", target, text)
	}
	return fmt.Sprintf("Translate the following %s text to %s in a simple, friendly tone:\n\n%s", source, target, text)
}
