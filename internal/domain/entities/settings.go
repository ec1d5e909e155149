package entities

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	// ProviderTypeBitbucket is the only provider type shipped with this tool.
	ProviderTypeBitbucket = "bitbucket"

	// PrecedenceToken prefers BITBUCKET_TOKEN/BB_TOKEN over username and password.
	PrecedenceToken = "token"
	// PrecedenceBasic prefers username and password over a token.
	PrecedenceBasic = "basic"

	DefaultBitbucketURL     = "https://bitbucket.org"
	DefaultBitbucketAPI     = "https://api.bitbucket.org/2.0"
	DefaultRequestTimeout   = 30 * time.Second
	DefaultRateLimitRetries = 3
)

// Settings is the top-level configuration.
type Settings struct {
	Providers []ProviderConfig `yaml:"providers"`
}

// ProviderConfig describes a single provider instance.
type ProviderConfig struct {
	Type                 string               `yaml:"type"`
	Name                 string               `yaml:"name"`
	URL                  string               `yaml:"url"`
	API                  string               `yaml:"api"`
	Priority             int                  `yaml:"priority"`
	Authentication       AuthenticationConfig `yaml:"authentication"`
	CredentialPrecedence string               `yaml:"credential_precedence"`
	RequestTimeout       time.Duration        `yaml:"request_timeout"`
	RateLimitRetries     *int                 `yaml:"rate_limit_retries"`

	// FromEnvironment marks configurations derived from environment
	// variables; their credentials are re-read on refresh.
	FromEnvironment bool `yaml:"-"`
}

// AuthenticationConfig holds the raw credential material of a provider.
// Every value may be inline, a ${ENV_VAR} reference or a path to a file.
type AuthenticationConfig struct {
	Token        string `yaml:"token"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// UsesOAuth reports whether an OAuth consumer is configured.
func (a AuthenticationConfig) UsesOAuth() bool {
	return a.ClientID != "" && a.ClientSecret != ""
}

// Credentials picks token or basic material according to the precedence policy.
func (a AuthenticationConfig) Credentials(precedence string) Credentials {
	token := Credentials{Token: a.Token}
	basic := Credentials{Username: a.Username, Password: a.Password}
	hasBasic := a.Username != "" && a.Password != ""

	if precedence == PrecedenceBasic {
		if hasBasic {
			return basic
		}
		return token
	}
	if a.Token != "" {
		return token
	}
	if hasBasic {
		return basic
	}
	return Credentials{}
}

// Timeout returns the configured request timeout or the default.
func (p ProviderConfig) Timeout() time.Duration {
	if p.RequestTimeout <= 0 {
		return DefaultRequestTimeout
	}
	return p.RequestTimeout
}

// Retries returns the configured number of rate-limit retries or the default.
func (p ProviderConfig) Retries() int {
	if p.RateLimitRetries == nil {
		return DefaultRateLimitRetries
	}
	return *p.RateLimitRetries
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// NewSettings reads and parses a configuration file, expanding environment
// variables, resolving file references and applying defaults.
func NewSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var settings Settings
	if unmarshalErr := yaml.Unmarshal(data, &settings); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	for i := range settings.Providers {
		auth := &settings.Providers[i].Authentication
		auth.Token = resolveToken(auth.Token)
		auth.Username = resolveToken(auth.Username)
		auth.Password = resolveToken(auth.Password)
		auth.ClientID = resolveToken(auth.ClientID)
		auth.ClientSecret = resolveToken(auth.ClientSecret)
		applyDefaults(&settings.Providers[i], i)
	}

	if validateErr := validate(&settings); validateErr != nil {
		return nil, validateErr
	}

	return &settings, nil
}

// NewSettingsFromEnvironment builds a single Bitbucket provider from the
// well-known environment variables. It returns nil when no Bitbucket related
// variable is set.
func NewSettingsFromEnvironment(env map[string]string) *Settings {
	auth := AuthenticationConfig{
		Token:        firstNonEmpty(env["BB_TOKEN"], env["BITBUCKET_TOKEN"]),
		Username:     env["BITBUCKET_USERNAME"],
		Password:     env["BITBUCKET_PASSWORD"],
		ClientID:     env["BITBUCKET_CLIENT_ID"],
		ClientSecret: env["BITBUCKET_CLIENT_SECRET"],
	}
	if auth == (AuthenticationConfig{}) && env["BITBUCKET_API"] == "" {
		return nil
	}

	provider := ProviderConfig{
		Type:                 ProviderTypeBitbucket,
		API:                  env["BITBUCKET_API"],
		Authentication:       auth,
		CredentialPrecedence: env["BITBUCKET_CREDENTIAL_PRECEDENCE"],
		FromEnvironment:      true,
	}
	applyDefaults(&provider, 0)

	return &Settings{Providers: []ProviderConfig{provider}}
}

// EnvironMap converts os.Environ() into a lookup map.
func EnvironMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, entry := range environ {
		if key, value, ok := strings.Cut(entry, "="); ok {
			env[key] = value
		}
	}
	return env
}

// FindConfigFile searches for a configuration file in standard locations.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
		"configs",
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".bitbucket-provider.yaml",
		".bitbucket-provider.yml",
		"bitbucket-provider.yaml",
		"bitbucket-provider.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// resolveToken expands environment variable references (${VAR}) and, if the
// resulting string is a path to an existing file, reads the value from the file.
func resolveToken(raw string) string {
	if raw == "" {
		return raw
	}

	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})

	if info, statErr := os.Stat(resolved); statErr == nil && !info.IsDir() {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			logger.Warnf("Failed to read credential file %q: %v", resolved, readErr)
			return resolved
		}
		logger.Infof("Read credential from file %q", resolved)
		return strings.TrimSpace(string(data))
	}

	return resolved
}

func applyDefaults(p *ProviderConfig, index int) {
	if p.Type == "" {
		p.Type = ProviderTypeBitbucket
	}
	if p.Name == "" {
		if index == 0 {
			p.Name = p.Type
		} else {
			p.Name = fmt.Sprintf("%s-%d", p.Type, index)
		}
	}
	if p.URL == "" {
		p.URL = DefaultBitbucketURL
	}
	if p.CredentialPrecedence == "" {
		p.CredentialPrecedence = PrecedenceToken
	}
}

// validate checks for required configuration values.
func validate(settings *Settings) error {
	if len(settings.Providers) == 0 {
		return errors.New("at least one provider must be configured")
	}

	names := make(map[string]bool, len(settings.Providers))
	for i, p := range settings.Providers {
		if p.Type == "" {
			return fmt.Errorf("providers[%d].type is required", i)
		}
		if names[p.Name] {
			return fmt.Errorf("providers[%d].name %q is used more than once", i, p.Name)
		}
		names[p.Name] = true

		switch p.CredentialPrecedence {
		case PrecedenceToken, PrecedenceBasic:
		default:
			return fmt.Errorf(
				"providers[%d].credential_precedence must be %q or %q",
				i, PrecedenceToken, PrecedenceBasic,
			)
		}

		auth := p.Authentication
		if !auth.UsesOAuth() && auth.Credentials(p.CredentialPrecedence).IsEmpty() {
			return fmt.Errorf(
				"providers[%d].authentication requires a token, username and password, or client_id and client_secret",
				i,
			)
		}
		if p.Retries() < 0 {
			return fmt.Errorf("providers[%d].rate_limit_retries must not be negative", i)
		}
	}

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
