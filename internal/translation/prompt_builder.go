package translation

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const systemPromptTemplate = `You are a professional literary translator of Japanese web novels.

Rules:
1. Translate %s text to %s.
2. Use the vocabulary and punctuation of Taiwan for Traditional Chinese output.
3. Keep the paragraph structure: one output paragraph for each input paragraph, in the same order.
4. Copy every marker line such as [[SEP]] and every placeholder like {{g_1}} exactly as-is.
5. Keep character names consistent across paragraphs.
6. Output ONLY the translation, nothing else.
7. Do NOT add explanations, notes, or extra text.`

// BuildSystemPrompt returns the system prompt for a translation direction.
func BuildSystemPrompt(source, target language.Tag) string {
	return fmt.Sprintf(systemPromptTemplate, languageName(source), languageName(target))
}

// BuildUserPrompt wraps a text, possibly a delimiter-joined batch, for translation.
func BuildUserPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString("Text to translate:\n")
	sb.WriteString(text)
	return sb.String()
}

func languageName(tag language.Tag) string {
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return tag.String()
}
