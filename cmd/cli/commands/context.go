package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/dance-matcher/internal/config"
	"github.com/jakechorley/dance-matcher/pkg/clients/gmailclient"
	"github.com/jakechorley/dance-matcher/pkg/clients/sheetsclient"
	"github.com/jakechorley/dance-matcher/pkg/postgres"
)

// AppContext holds the dependencies shared across all commands. Google clients and the
// database are opened on first use so a CSV-only match needs neither OAuth nor Postgres.
type AppContext struct {
	Env    string
	Cfg    *config.Config
	Logger *zap.Logger
	Ctx    context.Context

	oauthCfg     *config.OAuthClientConfig
	sheetsClient *sheetsclient.Client
	gmailClient  *gmailclient.Client
	database     *postgres.DB
}

func (app *AppContext) oauthClientConfig() (*config.OAuthClientConfig, error) {
	if app.oauthCfg != nil {
		return app.oauthCfg, nil
	}

	app.Logger.Info("Loading OAuth client configuration")
	oauthCfg, err := config.LoadOAuthClientWithEnv(app.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to load OAuth client config: %w", err)
	}
	app.oauthCfg = oauthCfg
	return oauthCfg, nil
}

// SheetsClient returns the Sheets client, authenticating on first use
func (app *AppContext) SheetsClient() (*sheetsclient.Client, error) {
	if app.sheetsClient != nil {
		return app.sheetsClient, nil
	}

	oauthCfg, err := app.oauthClientConfig()
	if err != nil {
		return nil, err
	}

	app.Logger.Info("Initializing sheets client")
	client, err := sheetsclient.NewClient(app.Ctx, oauthCfg, app.Env, app.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	app.sheetsClient = client
	return client, nil
}

// GmailClient returns the Gmail client, reusing the Sheets client's token
func (app *AppContext) GmailClient() (*gmailclient.Client, error) {
	if app.gmailClient != nil {
		return app.gmailClient, nil
	}

	sheets, err := app.SheetsClient()
	if err != nil {
		return nil, err
	}

	app.Logger.Info("Initializing gmail client")
	client, err := gmailclient.NewClient(app.Ctx, app.oauthCfg, sheets.Token(), app.Cfg.GmailSender)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail client: %w", err)
	}
	app.gmailClient = client
	return client, nil
}

// Database connects to Postgres and applies pending migrations on first use
func (app *AppContext) Database() (*postgres.DB, error) {
	if app.database != nil {
		return app.database, nil
	}
	if app.Cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("databaseURL is not configured for environment %q", app.Env)
	}

	app.Logger.Info("Connecting to database")
	database, err := postgres.NewDB(app.Ctx, app.Cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	applied, err := database.RunMigrations(app.Ctx)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if len(applied) > 0 {
		app.Logger.Info("Applied database migrations", zap.Strings("files", applied))
	}

	app.database = database
	return database, nil
}

// Close releases the database pool and flushes the logger
func (app *AppContext) Close() {
	if app.database != nil {
		app.database.Close()
	}
	if app.Logger != nil {
		app.Logger.Sync()
	}
}
