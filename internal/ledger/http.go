package ledger

import (
	"context"
	"fmt"

	"fjacquet/ledger-import/internal/models"
)

// JSONGetter performs an authenticated GET against the backend API and
// decodes the JSON body into out.
type JSONGetter interface {
	GetJSON(ctx context.Context, path string, out interface{}) error
}

type listResponse[T any] struct {
	Data []T `json:"data"`
}

// HTTPSource loads the snapshot from the backend list endpoints.
type HTTPSource struct {
	api JSONGetter
}

// NewHTTPSource creates an HTTPSource.
func NewHTTPSource(api JSONGetter) *HTTPSource {
	return &HTTPSource{api: api}
}

// Snapshot implements Source.
func (h *HTTPSource) Snapshot(ctx context.Context) (*Snapshot, error) {
	var currencies listResponse[models.Currency]
	if err := h.api.GetJSON(ctx, "/currencies", &currencies); err != nil {
		return nil, fmt.Errorf("failed to load currencies: %w", err)
	}
	var accounts listResponse[models.Account]
	if err := h.api.GetJSON(ctx, "/accounts", &accounts); err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	var categories listResponse[models.Category]
	if err := h.api.GetJSON(ctx, "/categories", &categories); err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	return &Snapshot{
		Currencies: currencies.Data,
		Accounts:   accounts.Data,
		Categories: categories.Data,
	}, nil
}
