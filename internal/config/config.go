// Package config loads run configuration from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
)

const (
	// DefaultPath is the configuration file read when no --config flag is given.
	DefaultPath = "config.yml"

	DefaultAPIBaseURL       = "https://api.spotify.com/v1"
	DefaultRefreshTokenPath = "refresh_token.txt"
	DefaultOutputDir        = "."
	DefaultWriteMode        = "overwrite"
	DefaultPlaylistName     = "Świat Top 50"
	DefaultRequestTimeout   = 30 * time.Second
	DefaultLogLevel         = "info"

	envPrefix = "SPOTIFY_EXPORT"
)

// Keys as they appear in config.yml.
const (
	keyClientID          = "clientId"
	keyClientSecret      = "clientSecret"
	keyAuthorizationCode = "authorizationCode"
	keyRedirectURL       = "redirectUrl"
	keyTokenEndpoint     = "tokenEndpoint"
	keyAPIBaseURL        = "apiBaseUrl"
	keyRefreshTokenPath  = "refreshTokenPath"
	keyOutputDir         = "outputDir"
	keyWriteMode         = "writeMode"
	keyPlaylistName      = "playlistName"
	keyRequestTimeout    = "requestTimeout"
	keyLogLevel          = "logLevel"
)

var (
	// ErrMissingCredentials is returned when clientId or clientSecret is not configured.
	ErrMissingCredentials = errors.New("missing clientId or clientSecret in configuration")

	// ErrInvalidConfig is returned when a configured value cannot be used.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Credentials identify the client against the token endpoint.
// They are read once per run and never modified.
type Credentials struct {
	ClientID          string
	ClientSecret      string
	AuthorizationCode string
	RedirectURL       string
	TokenEndpoint     string
}

// Config holds everything a run needs.
type Config struct {
	Credentials Credentials

	APIBaseURL       string
	RefreshTokenPath string
	OutputDir        string
	WriteMode        string
	PlaylistName     string
	RequestTimeout   time.Duration
	LogLevel         string
}

// Load reads configuration from the YAML file at path, with SPOTIFY_EXPORT_*
// environment variables taking precedence. A .env file in the working
// directory is loaded into the environment first when present.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault(keyTokenEndpoint, spotifyauth.TokenURL)
	v.SetDefault(keyAPIBaseURL, DefaultAPIBaseURL)
	v.SetDefault(keyRefreshTokenPath, DefaultRefreshTokenPath)
	v.SetDefault(keyOutputDir, DefaultOutputDir)
	v.SetDefault(keyWriteMode, DefaultWriteMode)
	v.SetDefault(keyPlaylistName, DefaultPlaylistName)
	v.SetDefault(keyRequestTimeout, DefaultRequestTimeout)
	v.SetDefault(keyLogLevel, DefaultLogLevel)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	cfg := &Config{
		Credentials: Credentials{
			ClientID:          v.GetString(keyClientID),
			ClientSecret:      v.GetString(keyClientSecret),
			AuthorizationCode: v.GetString(keyAuthorizationCode),
			RedirectURL:       v.GetString(keyRedirectURL),
			TokenEndpoint:     v.GetString(keyTokenEndpoint),
		},
		APIBaseURL:       v.GetString(keyAPIBaseURL),
		RefreshTokenPath: v.GetString(keyRefreshTokenPath),
		OutputDir:        v.GetString(keyOutputDir),
		WriteMode:        v.GetString(keyWriteMode),
		PlaylistName:     v.GetString(keyPlaylistName),
		RequestTimeout:   v.GetDuration(keyRequestTimeout),
		LogLevel:         v.GetString(keyLogLevel),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports whether the configuration is usable for a run.
func (c *Config) Validate() error {
	if c.Credentials.ClientID == "" || c.Credentials.ClientSecret == "" {
		return ErrMissingCredentials
	}
	if c.Credentials.TokenEndpoint == "" {
		return fmt.Errorf("%w: tokenEndpoint is empty", ErrInvalidConfig)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("%w: requestTimeout must not be negative", ErrInvalidConfig)
	}
	return nil
}
