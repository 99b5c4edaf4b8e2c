package submit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/ledger-import/internal/currency"
	"fjacquet/ledger-import/internal/logging"
	"fjacquet/ledger-import/internal/models"
	"fjacquet/ledger-import/internal/parsererror"
	"fjacquet/ledger-import/internal/upload"
)

var registry = models.CurrencyRegistry{{Code: "RUB", Name: "Russian Ruble", Symbol: "₽"}}

func sampleUpload() *upload.Result {
	return &upload.Result{
		FileName: "export.csv",
		Dialect: models.Dialect{
			Delimiter:        ';',
			DecimalSeparator: models.DecimalComma,
			DateFormat:       models.DateFormatDotDMY,
		},
		Rows: []models.RawRow{
			{Date: "19.02.2026", Account: "Card", Total: "-6600,00", Currency: "₽"},
			{Date: "20.02.2026", Account: "Cash", Total: "", Currency: "֏"},
		},
		UnresolvedCurrencies: []string{"֏"},
		CurrencyResolutions:  map[string]string{"₽": "RUB"},
	}
}

func TestBuildRequest(t *testing.T) {
	res := sampleUpload()
	answers := currency.NewResolutions(res.UnresolvedCurrencies, registry)
	require.NoError(t, answers.ProposeNew("֏", "amd", "Armenian Dram"))

	req := BuildRequest(res, answers)

	assert.Equal(t, models.DateFormatDotDMY, req.DateFormat)
	assert.Equal(t, models.DecimalComma, req.DecimalSeparator)
	assert.Equal(t, map[string]string{"₽": "RUB"}, req.CurrencyMapping)
	assert.Equal(t, []models.NewCurrency{{Code: "AMD", Name: "Armenian Dram", Symbol: "֏"}}, req.NewCurrencies)
	assert.Equal(t, res.Rows, req.Rows, "raw strings forwarded, error rows included")

	req.Rows[0].Total = "changed"
	assert.Equal(t, "-6600,00", res.Rows[0].Total)
}

func TestBuildRequest_NoAnswers(t *testing.T) {
	res := sampleUpload()
	res.UnresolvedCurrencies = nil

	req := BuildRequest(res, nil)
	assert.Equal(t, map[string]string{"₽": "RUB"}, req.CurrencyMapping)
	assert.NotNil(t, req.NewCurrencies)
	assert.Empty(t, req.NewCurrencies)
}

func TestClient_ImportFull(t *testing.T) {
	var got models.FullImportRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/import/full", r.URL.Path)
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"imported":1,"accounts_created":["Card"],"categories_created":[],"currencies_created":["AMD"],"failed_rows":[{"row_number":2,"data":{"date":"20.02.2026"},"error":"missing amount"}]}`))
	}))
	defer srv.Close()

	session := NewSession(srv.URL+"/api/v1/auth/refresh", srv.Client(), logging.NewMockLogger())
	session.SetTokens("access-1", "refresh-1")
	client := NewClient(srv.URL+"/api/v1/", srv.Client(), session, logging.NewMockLogger())

	resp, err := client.ImportFull(context.Background(), BuildRequest(sampleUpload(), nil))
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Imported)
	assert.Equal(t, []string{"AMD"}, resp.CurrenciesCreated)
	require.Len(t, resp.FailedRows, 1)
	assert.Equal(t, 2, resp.FailedRows[0].RowNumber)
	assert.Equal(t, "missing amount", resp.FailedRows[0].Error)
	assert.Equal(t, models.DateFormatDotDMY, got.DateFormat)
	assert.Len(t, got.Rows, 2)
}

func TestClient_ImportFull_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"VALIDATION_ERROR","message":"rows are required"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client(), nil, logging.NewMockLogger())
	_, err := client.ImportFull(context.Background(), &models.FullImportRequest{})

	var subErr *parsererror.SubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.Equal(t, http.StatusBadRequest, subErr.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", subErr.Code)
	assert.Equal(t, "rows are required", subErr.Message)
}

func TestClient_ImportFull_UnknownErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, srv.Client(), nil, nil).ImportFull(context.Background(), &models.FullImportRequest{})
	var subErr *parsererror.SubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.Equal(t, "UNKNOWN", subErr.Code)
	assert.Equal(t, http.StatusBadGateway, subErr.StatusCode)
}

func TestClient_ImportFull_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(srv.URL, srv.Client(), nil, nil).ImportFull(ctx, &models.FullImportRequest{})
	var subErr *parsererror.SubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.Zero(t, subErr.StatusCode)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_RefreshesOn401(t *testing.T) {
	var refreshes int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			atomic.AddInt32(&refreshes, 1)
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "refresh-1", body["refresh_token"])
			_, _ = w.Write([]byte(`{"access_token":"access-2","refresh_token":"refresh-2"}`))
		case "/accounts":
			if r.Header.Get("Authorization") != "Bearer access-2" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"data":[{"id":"1","name":"Card"}]}`))
		}
	}))
	defer srv.Close()

	session := NewSession(srv.URL+"/auth/refresh", srv.Client(), logging.NewMockLogger())
	session.SetTokens("expired", "refresh-1")
	client := NewClient(srv.URL, srv.Client(), session, logging.NewMockLogger())

	var out struct {
		Data []models.Account `json:"data"`
	}
	require.NoError(t, client.GetJSON(context.Background(), "/accounts", &out))
	assert.Equal(t, "Card", out.Data[0].Name)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshes))
	assert.Equal(t, "access-2", session.AccessToken())
	assert.Equal(t, "refresh-2", session.RefreshToken())
}

func TestClient_FailedRefreshClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"invalid token"}}`))
	}))
	defer srv.Close()

	var failures int32
	session := NewSession(srv.URL+"/auth/refresh", srv.Client(), logging.NewMockLogger())
	session.OnAuthFailure = func() { atomic.AddInt32(&failures, 1) }
	session.SetTokens("expired", "revoked")

	err := NewClient(srv.URL, srv.Client(), session, nil).GetJSON(context.Background(), "/accounts", nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "UNAUTHORIZED", apiErr.Code)
	assert.Equal(t, "", session.AccessToken())
	assert.Equal(t, int32(1), atomic.LoadInt32(&failures))
}

func TestSession_RefreshWithoutToken(t *testing.T) {
	session := NewSession("http://127.0.0.1:0/auth/refresh", nil, logging.NewMockLogger())
	_, err := session.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNoRefreshToken)
}

func TestSession_CallerTimeoutKeepsSession(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(`{"access_token":"access-2","refresh_token":"refresh-2"}`))
	}))
	defer srv.Close()

	var failures int32
	session := NewSession(srv.URL, srv.Client(), logging.NewMockLogger())
	session.OnAuthFailure = func() { atomic.AddInt32(&failures, 1) }
	session.SetTokens("expired", "refresh-1")

	patient := make(chan string, 1)
	go func() {
		tok, err := session.Refresh(context.Background())
		assert.NoError(t, err)
		patient <- tok
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := session.Refresh(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "refresh-1", session.RefreshToken(), "tokens survive the caller giving up")

	close(release)
	select {
	case tok := <-patient:
		assert.Equal(t, "access-2", tok)
	case <-time.After(5 * time.Second):
		t.Fatal("waiting caller never got the refreshed token")
	}
	assert.Equal(t, "refresh-2", session.RefreshToken())
	assert.Zero(t, atomic.LoadInt32(&failures))
}

func TestSession_TransportErrorKeepsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	var failures int32
	session := NewSession(url, nil, logging.NewMockLogger())
	session.OnAuthFailure = func() { atomic.AddInt32(&failures, 1) }
	session.SetTokens("expired", "refresh-1")

	_, err := session.Refresh(context.Background())
	assert.Error(t, err)
	assert.Equal(t, "refresh-1", session.RefreshToken())
	assert.Zero(t, atomic.LoadInt32(&failures))
}

func TestSession_ConcurrentRefreshSharesOneCall(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-release
		_, _ = w.Write([]byte(`{"access_token":"new","refresh_token":"next"}`))
	}))
	defer srv.Close()

	session := NewSession(srv.URL, srv.Client(), logging.NewMockLogger())
	session.SetTokens("old", "refresh")

	const waiters = 5
	var wg sync.WaitGroup
	tokens := make([]string, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := session.Refresh(context.Background())
			assert.NoError(t, err)
			tokens[i] = tok
		}(i)
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, tok := range tokens {
		assert.Equal(t, "new", tok)
	}

	// A refresh after the first one finished is a new call.
	_, err := session.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
