package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"slices"

	"github.com/go-playground/validator/v10"
)

// OAuthClientConfig is the client file downloaded from Google Cloud. Desktop clients
// carry an "installed" section and web clients a "web" section; exactly one is set.
type OAuthClientConfig struct {
	Installed *OAuthClient `json:"installed,omitempty"`
	Web       *OAuthClient `json:"web,omitempty"`
}

// OAuthClient holds the credentials of either client kind
type OAuthClient struct {
	ClientID                string   `json:"client_id" validate:"required"`
	ProjectID               string   `json:"project_id" validate:"required"`
	AuthURI                 string   `json:"auth_uri" validate:"required,url"`
	TokenURI                string   `json:"token_uri" validate:"required,url"`
	AuthProviderX509CertURL string   `json:"auth_provider_x509_cert_url" validate:"required,url"`
	ClientSecret            string   `json:"client_secret" validate:"required"`
	RedirectURIs            []string `json:"redirect_uris" validate:"required,min=1,dive,uri"`
}

// Client returns whichever section the file carries
func (c *OAuthClientConfig) Client() *OAuthClient {
	if c.Installed != nil {
		return c.Installed
	}
	return c.Web
}

var loopbackHosts = []string{"localhost", "127.0.0.1", "::1"}

// HasLoopbackRedirect reports whether the client may redirect to this machine, which the
// local callback server needs
func (c *OAuthClient) HasLoopbackRedirect() bool {
	for _, uri := range c.RedirectURIs {
		u, err := url.Parse(uri)
		if err != nil || u.Scheme != "http" {
			continue
		}
		if slices.Contains(loopbackHosts, u.Hostname()) {
			return true
		}
	}
	return false
}

func oauthClientStructLevel(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(OAuthClientConfig)
	if (cfg.Installed == nil) == (cfg.Web == nil) {
		sl.ReportError(cfg.Installed, "Installed", "installed", "exactly_one_client", "")
		return
	}
	if !cfg.Client().HasLoopbackRedirect() {
		sl.ReportError(cfg.Client().RedirectURIs, "RedirectURIs", "redirect_uris", "loopback_redirect", "")
	}
}

// LoadOAuthClientWithEnv loads oauthClient.<env>.json from the current or home directory
func LoadOAuthClientWithEnv(env string) (*OAuthClientConfig, error) {
	oauthPath, err := findEnvFile("oauthClient", "json", env)
	if err != nil {
		return nil, fmt.Errorf("failed to find oauth client file: %w", err)
	}

	return LoadOAuthClientFromPath(oauthPath)
}

// LoadOAuthClientFromPath loads and validates a client file
func LoadOAuthClientFromPath(path string) (*OAuthClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth client file: %w", err)
	}

	var oauthCfg OAuthClientConfig
	if err := json.Unmarshal(data, &oauthCfg); err != nil {
		return nil, fmt.Errorf("failed to parse oauth client file: %w", err)
	}

	if err := ValidateOAuthClient(&oauthCfg); err != nil {
		return nil, err
	}

	return &oauthCfg, nil
}

// ValidateOAuthClient checks the client section and its redirect URIs
func ValidateOAuthClient(cfg *OAuthClientConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("oauth client validation failed: %w", err)
	}
	return nil
}
