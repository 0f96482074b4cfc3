package moderation

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

const minDetectableLength = 12

// DetectLanguage returns the ISO 639-1 code of the text language,
// or an empty string when the text is too short or the guess is unreliable.
func DetectLanguage(text string) string {
	text = strings.TrimSpace(text)
	if len([]rune(text)) < minDetectableLength {
		return ""
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}
