// Package server exposes the ledger and the full import executor over HTTP.
// Lists are returned as {"data": [...]}, errors as
// {"error": {"code", "message"}}.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"fjacquet/ledger-import/internal/logging"
	"fjacquet/ledger-import/internal/models"
	"fjacquet/ledger-import/internal/parsererror"
	"fjacquet/ledger-import/internal/store"
	"fjacquet/ledger-import/internal/submit"
)

// MaxRequestBody caps the size of an import request body.
const MaxRequestBody = 50 << 20

// Ledger is the read side of the ledger store.
type Ledger interface {
	ListCurrencies(ctx context.Context) ([]store.Currency, error)
	ListAccounts(ctx context.Context) ([]store.Account, error)
	CategoryTree(ctx context.Context) ([]store.Category, error)
}

// Options configures the router.
type Options struct {
	CORSOrigins []string
}

type listResponse[T any] struct {
	Data []T `json:"data"`
}

type handler struct {
	ledger   Ledger
	executor submit.Executor
	tokens   *TokenStore
	logger   logging.Logger
}

// New builds the router. Everything but the currency list, token refresh
// and health check requires a bearer token from tokens.
func New(ledger Ledger, executor submit.Executor, tokens *TokenStore, logger logging.Logger, opts Options) *gin.Engine {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	gin.SetMode(gin.ReleaseMode)
	gin.DebugPrintRouteFunc = func(string, string, string, int) {}

	r := gin.New()
	r.ForwardedByClientIP = false
	r.HandleMethodNotAllowed = true
	_ = r.SetTrustedProxies([]string{})

	r.Use(gin.Recovery())
	r.Use(requestid.New())
	r.Use(requestLogger(logger))
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"OPTIONS", "GET", "POST"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
			AllowCredentials: true,
		}))
	}
	r.NoRoute(func(c *gin.Context) {
		abort(c, http.StatusNotFound, CodeNotFound, "no such endpoint")
	})
	r.NoMethod(func(c *gin.Context) {
		abort(c, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "this HTTP method is not allowed for the endpoint you called")
	})

	h := &handler{ledger: ledger, executor: executor, tokens: tokens, logger: logger}
	r.GET("/health", h.health)

	v1 := r.Group("/api/v1")
	v1.GET("/currencies", h.listCurrencies)
	v1.POST("/auth/refresh", h.refresh)

	authed := v1.Group("", requireAuth(tokens))
	authed.GET("/accounts", h.listAccounts)
	authed.GET("/categories", h.listCategories)
	authed.POST("/import/full", h.importFull)

	return r
}

// requestLogger logs one line per request, tagged with the request ID.
func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := logger.WithFields(
			logging.F(logging.FieldRequestID, requestid.Get(c)),
			logging.F("method", c.Request.Method),
			logging.F("path", c.Request.URL.Path),
			logging.F("status", c.Writer.Status()),
			logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Error("Request failed")
			return
		}
		log.Info("Request handled")
	}
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) listCurrencies(c *gin.Context) {
	currencies, err := h.ledger.ListCurrencies(c.Request.Context())
	if err != nil {
		h.internal(c, err)
		return
	}
	out := make([]models.Currency, len(currencies))
	for i, cur := range currencies {
		out[i] = models.Currency{Code: cur.Code, Name: cur.Name, Symbol: cur.Symbol}
	}
	c.JSON(http.StatusOK, listResponse[models.Currency]{Data: out})
}

func (h *handler) listAccounts(c *gin.Context) {
	accounts, err := h.ledger.ListAccounts(c.Request.Context())
	if err != nil {
		h.internal(c, err)
		return
	}
	out := make([]models.Account, len(accounts))
	for i, a := range accounts {
		out[i] = models.Account{ID: a.ID.String(), Name: a.Name, Type: a.Type, Currency: a.Currency}
	}
	c.JSON(http.StatusOK, listResponse[models.Account]{Data: out})
}

func (h *handler) listCategories(c *gin.Context) {
	tree, err := h.ledger.CategoryTree(c.Request.Context())
	if err != nil {
		h.internal(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse[models.Category]{Data: categoryModels(tree)})
}

func categoryModels(categories []store.Category) []models.Category {
	out := make([]models.Category, len(categories))
	for i, cat := range categories {
		out[i] = models.Category{ID: cat.ID.String(), Name: cat.Name, Type: cat.Type}
		if cat.ParentID != nil {
			parent := cat.ParentID.String()
			out[i].ParentID = &parent
		}
		if len(cat.Children) > 0 {
			out[i].Children = categoryModels(cat.Children)
		}
	}
	return out
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *handler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, CodeInvalidBody, "invalid request body")
		return
	}
	pair, err := h.tokens.Rotate(req.RefreshToken)
	if err != nil {
		abort(c, http.StatusUnauthorized, CodeInvalidToken, err.Error())
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h *handler) importFull(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxRequestBody)

	var req models.FullImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, CodeInvalidBody, "invalid request body")
		return
	}

	resp, err := h.executor.ImportFull(c.Request.Context(), &req)
	if err != nil {
		var verr *parsererror.ValidationError
		if errors.As(err, &verr) {
			abort(c, http.StatusBadRequest, CodeValidation, verr.Error())
			return
		}
		h.logger.WithError(err).Error("Full import failed",
			logging.F(logging.FieldRequestID, requestid.Get(c)),
			logging.F(logging.FieldCount, len(req.Rows)))
		abort(c, http.StatusInternalServerError, CodeImport, "failed to import data")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) internal(c *gin.Context, err error) {
	h.logger.WithError(err).Error("Request failed", logging.F(logging.FieldRequestID, requestid.Get(c)))
	abort(c, http.StatusInternalServerError, CodeInternal, "an error occurred on the server during your request")
}
