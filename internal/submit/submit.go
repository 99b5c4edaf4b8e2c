// Package submit is the boundary to the backend import executor. It builds
// the request from an analysed upload and the user's currency answers, and
// sends it over an authenticated HTTP session.
package submit

import (
	"context"

	"fjacquet/ledger-import/internal/currency"
	"fjacquet/ledger-import/internal/models"
	"fjacquet/ledger-import/internal/upload"
)

// Executor performs an import and reports per-row results. Implementations
// must treat the request rows as untrusted raw strings.
type Executor interface {
	ImportFull(ctx context.Context, req *models.FullImportRequest) (*models.FullImportResponse, error)
}

// BuildRequest assembles the submission for an upload. Every raw row is
// forwarded, error rows included, together with the detected dialect so the
// executor can parse authoritatively. answers may be nil when the upload had
// nothing to resolve.
func BuildRequest(res *upload.Result, answers *currency.Resolutions) *models.FullImportRequest {
	var user map[string]string
	newCurrencies := []models.NewCurrency{}
	if answers != nil {
		user = answers.Mapping()
		if nc := answers.NewCurrencies(); nc != nil {
			newCurrencies = nc
		}
	}

	rows := make([]models.RawRow, len(res.Rows))
	copy(rows, res.Rows)

	return &models.FullImportRequest{
		DateFormat:       res.Dialect.DateFormat,
		DecimalSeparator: res.Dialect.DecimalSeparator,
		CurrencyMapping:  currency.MergeMapping(res.CurrencyResolutions, user),
		NewCurrencies:    newCurrencies,
		Rows:             rows,
	}
}
