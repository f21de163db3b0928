// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allisson/go-env"
	validation "github.com/jellydator/validation"
	"github.com/jellydator/validation/is"
	"github.com/joho/godotenv"
)

const (
	DefaultTokenURL   = "https://discord.com/api/v10/oauth2/token"
	DefaultAuthURL    = "https://discord.com/oauth2/authorize"
	DefaultAPIBaseURL = "https://discord.com/api/v10"
)

// Config holds all application configuration.
type Config struct {
	// ClientID and ClientSecret are the credentials issued by the provider.
	ClientID     string
	ClientSecret string
	// RedirectURL must match the URL registered with the provider.
	RedirectURL string
	// RedirectPath is the local path the callback dispatcher listens on.
	RedirectPath string
	// Scopes requested on the consent screen.
	Scopes []string

	TokenURL string
	AuthURL  string
	// APIBaseURL is the provider REST API root used for account lookups.
	APIBaseURL string

	ServerHost string
	ServerPort int

	LogLevel string

	UserAgent string
	// HTTPTimeout bounds each token request; zero means no client-side timeout.
	HTTPTimeout time.Duration

	RateLimitEnabled        bool
	RateLimitRequestsPerSec float64
	RateLimitBurst          int

	// StateRequired makes the callback reject codes without a state issued by /login.
	StateRequired bool
	StateTTL      time.Duration

	MetricsEnabled   bool
	MetricsNamespace string
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	loadDotEnv()

	return &Config{
		ClientID:     env.GetString("CLIENT_ID", ""),
		ClientSecret: env.GetString("CLIENT_SECRET", ""),
		RedirectURL:  env.GetString("REDIRECT_URL", ""),
		RedirectPath: env.GetString("REDIRECT_PATH", "/oauth/callback"),
		Scopes:       splitScopes(env.GetString("OAUTH_SCOPES", "identify")),

		TokenURL:   env.GetString("TOKEN_URL", DefaultTokenURL),
		AuthURL:    env.GetString("AUTH_URL", DefaultAuthURL),
		APIBaseURL: env.GetString("API_BASE_URL", DefaultAPIBaseURL),

		ServerHost: env.GetString("SERVER_HOST", "0.0.0.0"),
		ServerPort: env.GetInt("SERVER_PORT", 3000),

		LogLevel: env.GetString("LOG_LEVEL", "info"),

		UserAgent:   env.GetString("USER_AGENT", "discordauth/1.0"),
		HTTPTimeout: env.GetDuration("HTTP_TIMEOUT_SECONDS", 0, time.Second),

		RateLimitEnabled:        env.GetBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequestsPerSec: env.GetFloat64("RATE_LIMIT_REQUESTS_PER_SEC", 5.0),
		RateLimitBurst:          env.GetInt("RATE_LIMIT_BURST", 10),

		StateRequired: env.GetBool("STATE_REQUIRED", false),
		StateTTL:      env.GetDuration("STATE_TTL_SECONDS", 600, time.Second),

		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "discordauth"),
	}
}

// Validate checks the values the token client cannot work without.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ClientID, validation.Required),
		validation.Field(&c.ClientSecret, validation.Required),
		validation.Field(&c.RedirectURL, validation.Required, is.URL),
		validation.Field(&c.RedirectPath,
			validation.Required,
			validation.By(startsWithSlash),
		),
		validation.Field(&c.TokenURL, validation.Required, is.URL),
		validation.Field(&c.AuthURL, validation.Required, is.URL),
		validation.Field(&c.ServerPort, validation.Min(1), validation.Max(65535)),
	)
}

func startsWithSlash(value interface{}) error {
	s, _ := value.(string)
	if !strings.HasPrefix(s, "/") {
		return validation.NewError("validation_path_prefix", "must start with /")
	}
	return nil
}

func splitScopes(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ','
	})
}

// loadDotEnv searches for a .env file from the current directory up to the
// root directory and loads the first one found.
func loadDotEnv() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
}
