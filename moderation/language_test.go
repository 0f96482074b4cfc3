package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectLanguage(t *testing.T) {
	req := require.New(t)

	req.Equal("en", DetectLanguage("The weather is lovely today, shall we go for a walk in the park?"))
	req.Equal("fr", DetectLanguage("Bonjour, est-ce que tu veux venir manger avec nous ce soir à la maison ?"))

	// Too short to say anything
	req.Empty(DetectLanguage("ok"))
	req.Empty(DetectLanguage("   "))
}
