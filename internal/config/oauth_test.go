package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validClient() *OAuthClient {
	return &OAuthClient{
		ClientID:                "test-client-id.apps.googleusercontent.com",
		ProjectID:               "dance-matcher",
		AuthURI:                 "https://accounts.google.com/o/oauth2/auth",
		TokenURI:                "https://oauth2.googleapis.com/token",
		AuthProviderX509CertURL: "https://www.googleapis.com/oauth2/v1/certs",
		ClientSecret:            "test-secret",
		RedirectURIs:            []string{"http://localhost"},
	}
}

func TestValidateOAuthClient(t *testing.T) {
	tests := []struct {
		name    string
		cfg     func() *OAuthClientConfig
		wantErr bool
	}{
		{"installed", func() *OAuthClientConfig { return &OAuthClientConfig{Installed: validClient()} }, false},
		{"web", func() *OAuthClientConfig {
			c := validClient()
			c.RedirectURIs = []string{"https://dance.example.com/callback", "http://127.0.0.1:3000/oauth/callback"}
			return &OAuthClientConfig{Web: c}
		}, false},
		{"no client section", func() *OAuthClientConfig { return &OAuthClientConfig{} }, true},
		{"both client sections", func() *OAuthClientConfig {
			return &OAuthClientConfig{Installed: validClient(), Web: validClient()}
		}, true},
		{"missing client id", func() *OAuthClientConfig {
			c := validClient()
			c.ClientID = ""
			return &OAuthClientConfig{Installed: c}
		}, true},
		{"invalid auth uri", func() *OAuthClientConfig {
			c := validClient()
			c.AuthURI = "not-a-valid-url"
			return &OAuthClientConfig{Installed: c}
		}, true},
		{"empty redirect uris", func() *OAuthClientConfig {
			c := validClient()
			c.RedirectURIs = []string{}
			return &OAuthClientConfig{Installed: c}
		}, true},
		{"no loopback redirect", func() *OAuthClientConfig {
			c := validClient()
			c.RedirectURIs = []string{"https://dance.example.com/callback", "urn:ietf:wg:oauth:2.0:oob"}
			return &OAuthClientConfig{Web: c}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOAuthClient(tt.cfg())
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "validation failed")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOAuthClient_HasLoopbackRedirect(t *testing.T) {
	c := validClient()
	assert.True(t, c.HasLoopbackRedirect())

	c.RedirectURIs = []string{"http://[::1]:3000/oauth/callback"}
	assert.True(t, c.HasLoopbackRedirect())

	c.RedirectURIs = []string{"https://localhost/callback", "http://localhost.example.com"}
	assert.False(t, c.HasLoopbackRedirect(), "only plain http to this machine counts")
}

func TestLoadOAuthClientFromPath_ValidConfig(t *testing.T) {
	oauthPath := filepath.Join(t.TempDir(), "oauthClient.json")

	validOAuth := `{
  "installed": {
    "client_id": "test-client-id.apps.googleusercontent.com",
    "project_id": "dance-matcher",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "auth_provider_x509_cert_url": "https://www.googleapis.com/oauth2/v1/certs",
    "client_secret": "test-secret",
    "redirect_uris": ["http://localhost:3000", "urn:ietf:wg:oauth:2.0:oob"]
  }
}`
	require.NoError(t, os.WriteFile(oauthPath, []byte(validOAuth), 0644))

	cfg, err := LoadOAuthClientFromPath(oauthPath)
	require.NoError(t, err)

	require.NotNil(t, cfg.Installed)
	assert.Nil(t, cfg.Web)
	assert.Same(t, cfg.Installed, cfg.Client())
	assert.Equal(t, "test-client-id.apps.googleusercontent.com", cfg.Client().ClientID)
	assert.Equal(t, "dance-matcher", cfg.Client().ProjectID)
	assert.Equal(t, []string{"http://localhost:3000", "urn:ietf:wg:oauth:2.0:oob"}, cfg.Client().RedirectURIs)
}

func TestLoadOAuthClientFromPath_InvalidJSON(t *testing.T) {
	oauthPath := filepath.Join(t.TempDir(), "invalid_oauth.json")
	require.NoError(t, os.WriteFile(oauthPath, []byte(`{"installed": {"client_id": "test" "project_id": "x"}}`), 0644))

	_, err := LoadOAuthClientFromPath(oauthPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse oauth client file")
}

func TestLoadOAuthClientFromPath_MissingSecret(t *testing.T) {
	oauthPath := filepath.Join(t.TempDir(), "missing_field.json")

	missingField := `{
  "installed": {
    "client_id": "test-client-id",
    "project_id": "dance-matcher",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "auth_provider_x509_cert_url": "https://www.googleapis.com/oauth2/v1/certs",
    "redirect_uris": ["http://localhost"]
  }
}`
	require.NoError(t, os.WriteFile(oauthPath, []byte(missingField), 0644))

	_, err := LoadOAuthClientFromPath(oauthPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadOAuthClientFromPath_FileNotFound(t *testing.T) {
	_, err := LoadOAuthClientFromPath("/nonexistent/path/oauthClient.json")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read oauth client file")
}

func TestLoadOAuthClientWithEnv_WebClient(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	webClient := `{
  "web": {
    "client_id": "web-client-id.apps.googleusercontent.com",
    "project_id": "dance-matcher",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "auth_provider_x509_cert_url": "https://www.googleapis.com/oauth2/v1/certs",
    "client_secret": "web-secret",
    "redirect_uris": ["http://localhost:3000/oauth/callback"]
  }
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "oauthClient.test.json"), []byte(webClient), 0644))

	cfg, err := LoadOAuthClientWithEnv("test")
	require.NoError(t, err)
	assert.Nil(t, cfg.Installed)
	assert.Equal(t, "web-client-id.apps.googleusercontent.com", cfg.Client().ClientID)

	_, err = LoadOAuthClientWithEnv("prod-missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to find oauth client file")
}
