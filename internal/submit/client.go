package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"fjacquet/ledger-import/internal/logging"
	"fjacquet/ledger-import/internal/models"
	"fjacquet/ledger-import/internal/parsererror"
)

// APIError is a non-2xx response carrying the backend error envelope.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

type errorEnvelope struct {
	Error *APIError `json:"error"`
}

func decodeAPIError(resp *http.Response) *APIError {
	var env errorEnvelope
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err := json.Unmarshal(body, &env); err != nil || env.Error == nil {
		return &APIError{Status: resp.StatusCode, Code: "UNKNOWN", Message: "An unexpected error occurred"}
	}
	env.Error.Status = resp.StatusCode
	return env.Error
}

// Client talks to the backend REST API under baseURL (for example
// http://localhost:8080/api/v1).
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
	logger  logging.Logger
}

// NewClient creates a Client. session may be nil for unauthenticated use.
func NewClient(baseURL string, httpClient *http.Client, session *Session, logger logging.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		session: session,
		logger:  logger,
	}
}

// do sends one request. A 401 outside /auth/ triggers a token refresh and a
// single retry.
func (c *Client) do(ctx context.Context, method, path string, payload []byte, out interface{}) error {
	resp, err := c.send(ctx, method, path, payload)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && c.session != nil && !strings.HasPrefix(path, "/auth/") {
		_ = resp.Body.Close()
		c.logger.Debug("Access token rejected, refreshing", logging.F(logging.FieldOperation, path))
		if _, err := c.session.Refresh(ctx); err != nil {
			return err
		}
		resp, err = c.send(ctx, method, path, payload)
		if err != nil {
			return err
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		if token := c.session.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return c.http.Do(req)
}

// GetJSON performs a GET and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// ImportFull implements Executor.
func (c *Client) ImportFull(ctx context.Context, req *models.FullImportRequest) (*models.FullImportResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode import request: %w", err)
	}

	c.logger.Info("Submitting import",
		logging.F(logging.FieldCount, len(req.Rows)),
		logging.F(logging.FieldDateFormat, string(req.DateFormat)),
		logging.F(logging.FieldDecimalSeparator, string(req.DecimalSeparator)))

	var resp models.FullImportResponse
	if err := c.do(ctx, http.MethodPost, "/import/full", payload, &resp); err != nil {
		return nil, toSubmissionError(err)
	}

	c.logger.Info("Import finished",
		logging.F(logging.FieldImported, resp.Imported),
		logging.F(logging.FieldFailed, len(resp.FailedRows)))
	return &resp, nil
}

func toSubmissionError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return &parsererror.SubmissionError{
			StatusCode: apiErr.Status,
			Code:       apiErr.Code,
			Message:    apiErr.Message,
			Err:        err,
		}
	}
	return &parsererror.SubmissionError{Err: err}
}
