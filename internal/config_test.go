package internal

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("BADGER_FILEPATH", "/tmp/badger")
	t.Setenv("BLUGE_FILEPATH", "/tmp/bluge")
	t.Setenv("IMAGE_DIR", "/tmp/uploads")
	t.Setenv("JWT_SECRET", "a_test_secret_long_enough_for_hs256")
}

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)
	setRequired(t)

	config, err := Load()
	req.NoError(err)
	req.Equal(8080, config.HTTPPort)
	req.Equal(9090, config.GRPCPort)
	req.Equal(250*time.Millisecond, config.SinkTimeout)
	req.Equal(int64(5242880), config.MaxImageSize)
	req.Nil(config.LimitMessages)
	req.Empty(config.CensoredWordList())
}

func TestLoad_Overrides(t *testing.T) {
	req := require.New(t)
	setRequired(t)
	t.Setenv("LIMIT_MESSAGES", "50")
	t.Setenv("CENSORED_WORDS", " badger, ,weasel ")
	t.Setenv("CHARACTER_REPLACEMENT", "#")

	config, err := Load()
	req.NoError(err)
	req.Equal(50, *config.LimitMessages)
	req.Equal([]string{"badger", "weasel"}, config.CensoredWordList())
}

func TestLoad_Rejects(t *testing.T) {
	t.Run("missing required", func(t *testing.T) {
		setRequired(t)
		require.NoError(t, os.Unsetenv("BADGER_FILEPATH"))
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("bad replacement", func(t *testing.T) {
		setRequired(t)
		t.Setenv("CHARACTER_REPLACEMENT", "**")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("zero limit", func(t *testing.T) {
		setRequired(t)
		t.Setenv("LIMIT_MESSAGES", "0")
		_, err := Load()
		require.Error(t, err)
	})
}

func TestCharacterRune(t *testing.T) {
	r, err := CharacterRune("€")
	require.NoError(t, err)
	require.Equal(t, '€', r)
}
