package executor

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fjacquet/ledger-import/internal/currencyutils"
	"fjacquet/ledger-import/internal/dateutils"
	"fjacquet/ledger-import/internal/models"
	"fjacquet/ledger-import/internal/store"
)

// parsedRow is a submitted row that passed authoritative parsing.
type parsedRow struct {
	number      int
	date        time.Time
	account     string
	category    string
	amount      decimal.Decimal
	currency    string
	description string
	transfer    string
	txnType     string
}

func (r *parsedRow) isTransfer() bool {
	return r.transfer != ""
}

// raw renders the row back in the canonical export shape for failure
// reports.
func (r *parsedRow) raw() models.RawRow {
	return models.RawRow{
		Date:        dateutils.FormatDate(r.date, models.DateFormatDotDMY),
		Account:     r.account,
		Category:    r.category,
		Total:       currencyutils.FormatAmount(r.amount),
		Currency:    r.currency,
		Description: r.description,
		Transfer:    r.transfer,
	}
}

var errNoCurrency = errors.New("no matching currency found")

// parseRow validates one row. The error text is reported to the user as the
// row's failure reason.
func parseRow(number int, row models.RawRow, req *models.FullImportRequest, currencies []store.Currency) (*parsedRow, error) {
	switch {
	case strings.TrimSpace(row.Date) == "":
		return nil, errors.New(models.ReasonMissingDate)
	case strings.TrimSpace(row.Account) == "":
		return nil, errors.New(models.ReasonMissingAccount)
	case strings.TrimSpace(row.Total) == "":
		return nil, errors.New(models.ReasonMissingAmount)
	case strings.TrimSpace(row.Currency) == "":
		return nil, errors.New(models.ReasonMissingCurrency)
	}

	date, err := dateutils.ParseDate(row.Date, req.DateFormat)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", row.Date, err)
	}

	amount, err := currencyutils.ParseAmount(row.Total, req.DecimalSeparator)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", row.Total, err)
	}

	code, err := resolveCurrency(row.Currency, req.CurrencyMapping, currencies)
	if err != nil {
		return nil, fmt.Errorf("unresolved currency %q: %w", row.Currency, err)
	}

	txnType := store.TypeExpense
	if currencyutils.IsPositive(amount) {
		txnType = store.TypeIncome
	}

	return &parsedRow{
		number:      number,
		date:        date,
		account:     strings.TrimSpace(row.Account),
		category:    strings.TrimSpace(row.Category),
		amount:      amount,
		currency:    code,
		description: strings.TrimSpace(row.Description),
		transfer:    strings.TrimSpace(row.Transfer),
		txnType:     txnType,
	}, nil
}

// resolveCurrency maps a raw token to a registry code: the user's mapping
// first, then a case-insensitive code match, then an exact symbol match.
func resolveCurrency(raw string, mapping map[string]string, currencies []store.Currency) (string, error) {
	raw = strings.TrimSpace(raw)
	if mapped, ok := mapping[raw]; ok {
		return mapped, nil
	}
	for _, c := range currencies {
		if strings.EqualFold(c.Code, raw) {
			return c.Code, nil
		}
	}
	for _, c := range currencies {
		if c.Symbol == raw {
			return c.Code, nil
		}
	}
	return "", errNoCurrency
}
