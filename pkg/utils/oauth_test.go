package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/jakechorley/dance-matcher/internal/config"
)

func TestMissingScopes(t *testing.T) {
	granted := ScopeSheets + " openid"

	assert.Equal(t, []string{ScopeGmailSend}, MissingScopes(granted, RequiredScopes))
	assert.Empty(t, MissingScopes(ScopeGmailSend+" "+ScopeSheets, RequiredScopes))
	assert.Equal(t, RequiredScopes, MissingScopes("", RequiredScopes))
}

func TestTokenStore_RoundTrip(t *testing.T) {
	store := &TokenStore{Dir: filepath.Join(t.TempDir(), "tokens")}

	token, err := store.Load("test")
	require.NoError(t, err)
	assert.Nil(t, token, "missing file is not an error")

	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save("test", &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", Expiry: expiry}))

	info, err := os.Stat(filepath.Join(store.Dir, "token-test.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(tokenFilePerms), info.Mode().Perm())

	loaded, err := store.Load("test")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "access", loaded.AccessToken)
	assert.Equal(t, "refresh", loaded.RefreshToken)
	assert.True(t, expiry.Equal(loaded.Expiry))

	other, err := store.Load("prod")
	require.NoError(t, err)
	assert.Nil(t, other, "tokens are per environment")

	require.NoError(t, store.Delete("test"))
	require.NoError(t, store.Delete("test"), "deleting twice is fine")

	loaded, err = store.Load("test")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestTokenStore_CorruptFile(t *testing.T) {
	store := &TokenStore{Dir: t.TempDir()}
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir, "token-test.json"), []byte("{not json"), 0600))

	_, err := store.Load("test")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse token file")
}

func TestGetOAuthConfig(t *testing.T) {
	oauthCfg := &config.OAuthClientConfig{
		Installed: &config.OAuthClient{
			ClientID:                "client-id",
			ProjectID:               "dance-matcher",
			AuthURI:                 "https://accounts.google.com/o/oauth2/auth",
			TokenURI:                "https://oauth2.googleapis.com/token",
			AuthProviderX509CertURL: "https://www.googleapis.com/oauth2/v1/certs",
			ClientSecret:            "secret",
			RedirectURIs:            []string{"http://localhost"},
		},
	}

	cfg, err := GetOAuthConfig(oauthCfg)
	require.NoError(t, err)

	assert.Equal(t, "client-id", cfg.ClientID)
	assert.Equal(t, RequiredScopes, cfg.Scopes)
	assert.Equal(t, "http://localhost:3000/oauth/callback", cfg.RedirectURL)
}

func TestGetOAuthConfig_WebClient(t *testing.T) {
	oauthCfg := &config.OAuthClientConfig{
		Web: &config.OAuthClient{
			ClientID:                "web-client-id",
			ProjectID:               "dance-matcher",
			AuthURI:                 "https://accounts.google.com/o/oauth2/auth",
			TokenURI:                "https://oauth2.googleapis.com/token",
			AuthProviderX509CertURL: "https://www.googleapis.com/oauth2/v1/certs",
			ClientSecret:            "secret",
			RedirectURIs:            []string{"http://localhost:3000/oauth/callback"},
		},
	}

	cfg, err := GetOAuthConfig(oauthCfg)
	require.NoError(t, err)
	assert.Equal(t, "web-client-id", cfg.ClientID)
	assert.Equal(t, "https://oauth2.googleapis.com/token", cfg.Endpoint.TokenURL)
}
