// Package container provides dependency injection for the ledger-import
// application. It centralizes the creation and wiring of all application
// dependencies, making them explicit and testable.
package container

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fjacquet/ledger-import/internal/config"
	"fjacquet/ledger-import/internal/executor"
	"fjacquet/ledger-import/internal/ledger"
	"fjacquet/ledger-import/internal/logging"
	"fjacquet/ledger-import/internal/report"
	"fjacquet/ledger-import/internal/server"
	"fjacquet/ledger-import/internal/store"
	"fjacquet/ledger-import/internal/submit"
	"fjacquet/ledger-import/internal/upload"
	"fjacquet/ledger-import/internal/wizard"
)

// Container holds all client-side dependencies and provides methods to
// access them. It is immutable after creation.
type Container struct {
	logger   logging.Logger
	config   *config.Config
	analyzer *upload.Analyzer
	session  *submit.Session
	client   *submit.Client
	source   ledger.Source
	reports  *report.Generator
}

// NewContainer creates and wires all application dependencies.
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	return NewContainerWithLogger(cfg, logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format))
}

// NewContainerWithLogger is NewContainer with an explicit logger.
func NewContainerWithLogger(cfg *config.Config, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	baseURL := strings.TrimSuffix(cfg.API.BaseURL, "/")
	httpClient := &http.Client{}

	session := submit.NewSession(baseURL+"/auth/refresh", httpClient, logger)
	session.SetTokens(cfg.API.AccessToken, cfg.API.RefreshToken)
	session.OnAuthFailure = func() {
		logger.Warn("Authentication lost; set LEDGER_IMPORT_API_REFRESH_TOKEN to a fresh token")
	}
	client := submit.NewClient(baseURL, httpClient, session, logger)

	var source ledger.Source
	if cfg.Ledger.SnapshotFile != "" {
		source = ledger.NewFileSource(cfg.Ledger.SnapshotFile)
		logger.Info("Using ledger snapshot file", logging.F(logging.FieldFile, cfg.Ledger.SnapshotFile))
	} else {
		source = ledger.NewHTTPSource(client)
	}

	logger.Debug("Container initialized successfully",
		logging.F("api_base_url", baseURL),
		logging.F(logging.FieldFileSize, cfg.MaxUploadBytes()))

	return &Container{
		logger:   logger,
		config:   cfg,
		analyzer: upload.NewAnalyzer(logger, cfg.MaxUploadBytes()),
		session:  session,
		client:   client,
		source:   source,
		reports:  report.NewGenerator(logger),
	}, nil
}

// NewWizard starts a fresh import session using the container's
// collaborators.
func (c *Container) NewWizard() *wizard.Wizard {
	return wizard.New(c.analyzer, c.source, c.client, c.logger, wizard.Options{
		Timeout:  c.config.APITimeout(),
		PageSize: c.config.Import.PageSize,
	})
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetAnalyzer returns the upload analyzer.
func (c *Container) GetAnalyzer() *upload.Analyzer {
	return c.analyzer
}

// GetLedgerSource returns the source of ledger snapshots.
func (c *Container) GetLedgerSource() ledger.Source {
	return c.source
}

// GetClient returns the backend API client.
func (c *Container) GetClient() *submit.Client {
	return c.client
}

// GetSession returns the authentication session shared by API calls.
func (c *Container) GetSession() *submit.Session {
	return c.session
}

// GetReportGenerator returns the report generator.
func (c *Container) GetReportGenerator() *report.Generator {
	return c.reports
}

// Close performs cleanup of container resources.
func (c *Container) Close() error {
	c.logger.Debug("Container closed")
	return nil
}

// Backend is the wired reference server.
type Backend struct {
	Store  *store.Store
	Tokens *server.TokenStore
	Router *gin.Engine
}

// Close releases the database.
func (b *Backend) Close() error {
	return b.Store.Close()
}

// DefaultCurrencies seeds an empty backend registry.
var DefaultCurrencies = []store.Currency{
	{Code: "EUR", Name: "Euro", Symbol: "€"},
	{Code: "GBP", Name: "Pound Sterling", Symbol: "£"},
	{Code: "JPY", Name: "Japanese Yen", Symbol: "¥"},
	{Code: "RUB", Name: "Russian Ruble", Symbol: "₽"},
	{Code: "USD", Name: "US Dollar", Symbol: "$"},
}

// NewBackend opens the server database, seeds the currency registry and
// builds the router. The configured API tokens, if any, are accepted by the
// server; otherwise a fresh pair is issued and logged.
func (c *Container) NewBackend(ctx context.Context) (*Backend, error) {
	s, err := store.Open(c.config.Server.Database, c.logger)
	if err != nil {
		return nil, err
	}
	if err := s.SeedCurrencies(ctx, DefaultCurrencies); err != nil {
		_ = s.Close()
		return nil, err
	}

	tokens := server.NewTokenStore()
	if c.config.API.AccessToken != "" || c.config.API.RefreshToken != "" {
		tokens.Seed(server.TokenPair{AccessToken: c.config.API.AccessToken, RefreshToken: c.config.API.RefreshToken})
	} else {
		pair := tokens.Issue()
		c.logger.Info("Issued API tokens",
			logging.F("access_token", pair.AccessToken),
			logging.F("refresh_token", pair.RefreshToken))
	}

	router := server.New(s, executor.NewService(s, c.logger), tokens, c.logger, server.Options{
		CORSOrigins: c.config.Server.CORSOrigins,
	})
	return &Backend{Store: s, Tokens: tokens, Router: router}, nil
}
