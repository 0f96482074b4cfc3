package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/samber/lo"
)

type Config struct {
	LogLevel string `env:"LOG_LEVEL,default=INFO"`
	Host     string `env:"HOST,default=0.0.0.0"`
	HTTPPort int    `env:"HTTP_PORT,default=8080"`
	GRPCPort int    `env:"GRPC_PORT,default=9090"`
	// DebugPort serves the Badger inspector when the log level is DEBUG, 0 disables it.
	DebugPort int `env:"DEBUG_PORT,default=0"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`
	LimitMessages  *int   `env:"LIMIT_MESSAGES"`

	ImageDir     string `env:"IMAGE_DIR,required=true"`
	ImageBaseURL string `env:"IMAGE_BASE_URL,default=/uploads"`
	MaxImageSize int64  `env:"MAX_IMAGE_SIZE,default=5242880"`

	UserServiceURL     string        `env:"USER_SERVICE_URL"`
	UserServiceTimeout time.Duration `env:"USER_SERVICE_TIMEOUT,default=2s"`

	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`

	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	BroadcastBufferSize  int           `env:"BROADCAST_BUFFER_SIZE,default=256"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=250ms"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=15s"`

	CensoredWords    string `env:"CENSORED_WORDS"`
	CensoredWordsDir string `env:"CENSORED_WORDS_DIR"`
	CharReplacement  string `env:"CHARACTER_REPLACEMENT,default=*"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := config.validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) validate() error {
	if c.ConnectionBufferSize <= 0 || c.BroadcastBufferSize <= 0 {
		return fmt.Errorf("buffer sizes must be positive, got %d and %d", c.ConnectionBufferSize, c.BroadcastBufferSize)
	}
	if c.LimitMessages != nil && *c.LimitMessages <= 0 {
		return fmt.Errorf("LIMIT_MESSAGES must be positive, got %d", *c.LimitMessages)
	}
	if c.MaxImageSize <= 0 {
		return fmt.Errorf("MAX_IMAGE_SIZE must be positive, got %d", c.MaxImageSize)
	}
	_, err := CharacterRune(c.CharReplacement)
	return err
}

// CensoredWordList splits CENSORED_WORDS on commas.
func (c Config) CensoredWordList() []string {
	words := lo.Map(strings.Split(c.CensoredWords, ","), func(w string, _ int) string {
		return strings.TrimSpace(w)
	})
	return lo.Compact(words)
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
