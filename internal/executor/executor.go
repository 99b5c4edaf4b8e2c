// Package executor is the authoritative side of a full import. It reparses
// every submitted row with the declared dialect, pairs transfers, creates
// the currencies, accounts and categories the rows need and writes the
// transactions, all inside one database transaction. Rows that cannot be
// imported are reported individually; they never abort the import.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fjacquet/ledger-import/internal/logging"
	"fjacquet/ledger-import/internal/models"
	"fjacquet/ledger-import/internal/parsererror"
	"fjacquet/ledger-import/internal/store"
)

// BatchSize is the number of transactions written per insert statement.
const BatchSize = 1000

// Service executes full imports against a ledger store.
type Service struct {
	store  *store.Store
	logger logging.Logger
}

// NewService creates an executor over s.
func NewService(s *store.Store, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Service{store: s, logger: logger}
}

// Validate rejects requests that cannot be processed at all.
func Validate(req *models.FullImportRequest) error {
	if req == nil {
		return &parsererror.ValidationError{Field: "request", Reason: "missing body"}
	}
	if !req.DateFormat.Valid() {
		return &parsererror.ValidationError{Field: "date_format", Reason: fmt.Sprintf("unsupported format %q", req.DateFormat)}
	}
	if !req.DecimalSeparator.Valid() {
		return &parsererror.ValidationError{Field: "decimal_separator", Reason: fmt.Sprintf("unsupported separator %q", req.DecimalSeparator)}
	}
	for _, nc := range req.NewCurrencies {
		if !nc.Complete() {
			return &parsererror.ValidationError{Field: "new_currencies", Reason: fmt.Sprintf("currency %q needs a code and a name", nc.Symbol)}
		}
	}
	return nil
}

// importRun carries the state of one ImportFull call.
type importRun struct {
	tx         *store.Store
	resp       *models.FullImportResponse
	currencies []store.Currency
	accounts   map[string]*store.Account
	categories map[string]uuid.UUID
}

// ImportFull runs the import. A returned error means nothing was written;
// per-row problems are reported in the response instead.
func (s *Service) ImportFull(ctx context.Context, req *models.FullImportRequest) (*models.FullImportResponse, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	start := time.Now()

	currencies, err := s.store.ListCurrencies(ctx)
	if err != nil {
		return nil, err
	}

	resp := &models.FullImportResponse{
		AccountsCreated:   []string{},
		CategoriesCreated: []string{},
		CurrenciesCreated: []string{},
		FailedRows:        []models.FailedRow{},
	}

	err = s.store.Transaction(ctx, func(tx *store.Store) error {
		run := &importRun{
			tx:         tx,
			resp:       resp,
			currencies: currencies,
			accounts:   make(map[string]*store.Account),
			categories: make(map[string]uuid.UUID),
		}
		return s.run(ctx, run, req)
	})
	if err != nil {
		s.logger.WithError(err).Error("Full import failed", logging.F(logging.FieldCount, len(req.Rows)))
		return nil, err
	}

	s.logger.Info("Full import completed",
		logging.F(logging.FieldCount, len(req.Rows)),
		logging.F(logging.FieldImported, resp.Imported),
		logging.F(logging.FieldFailed, len(resp.FailedRows)),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
	return resp, nil
}

func (s *Service) run(ctx context.Context, run *importRun, req *models.FullImportRequest) error {
	for _, nc := range req.NewCurrencies {
		c := store.Currency{Code: strings.ToUpper(strings.TrimSpace(nc.Code)), Name: strings.TrimSpace(nc.Name), Symbol: nc.Symbol}
		if err := run.tx.CreateCurrency(ctx, &c); err != nil {
			return err
		}
		run.resp.CurrenciesCreated = append(run.resp.CurrenciesCreated, c.Code)
		run.currencies = append(run.currencies, c)
	}

	var regular, candidates []*parsedRow
	for i, row := range req.Rows {
		parsed, err := parseRow(i+1, row, req, run.currencies)
		if err != nil {
			run.fail(models.FailedRow{RowNumber: i + 1, Data: row, Error: err.Error()})
			continue
		}
		if parsed.isTransfer() {
			candidates = append(candidates, parsed)
		} else {
			regular = append(regular, parsed)
		}
	}

	pairs, unpaired := pairTransfers(candidates)
	run.resp.FailedRows = append(run.resp.FailedRows, unpaired...)

	importable := make([]*parsedRow, 0, len(regular)+2*len(pairs))
	importable = append(importable, regular...)
	for _, p := range pairs {
		importable = append(importable, p.source, p.dest)
	}
	if err := s.resolveAccounts(ctx, run, importable); err != nil {
		return err
	}

	regular = run.filterByCurrency(regular)
	pairs = run.filterPairsByCurrency(pairs)

	if err := s.resolveCategories(ctx, run, regular); err != nil {
		return err
	}

	txns := run.buildTransactions(regular, pairs)
	s.logger.Debug("Writing transactions",
		logging.F(logging.FieldCount, len(txns)),
		logging.F("transfer_pairs", len(pairs)))
	n, err := run.tx.CreateTransactions(ctx, txns, BatchSize)
	if err != nil {
		return err
	}
	run.resp.Imported += int(n)
	return nil
}

func (run *importRun) fail(f models.FailedRow) {
	run.resp.FailedRows = append(run.resp.FailedRows, f)
}

// resolveAccounts looks up every account and transfer counterpart by name,
// creating missing ones as bank accounts in the currency of the first row
// that names them as its account.
func (s *Service) resolveAccounts(ctx context.Context, run *importRun, rows []*parsedRow) error {
	for _, row := range rows {
		names := []string{row.account}
		if row.isTransfer() {
			names = append(names, row.transfer)
		}
		for _, name := range names {
			if _, ok := run.accounts[accountKey(name)]; ok {
				continue
			}
			acct, err := run.tx.AccountByName(ctx, name)
			if err == nil {
				run.accounts[accountKey(name)] = acct
				continue
			}
			if !errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("failed to lookup account %s: %w", name, err)
			}

			acct = &store.Account{
				Name:           name,
				Type:           store.AccountTypeBank,
				Currency:       currencyForAccount(name, rows),
				InitialBalance: decimal.Zero,
			}
			if err := run.tx.CreateAccount(ctx, acct); err != nil {
				return err
			}
			s.logger.Debug("Created account", logging.F(logging.FieldAccount, name), logging.F(logging.FieldCurrency, acct.Currency))
			run.accounts[accountKey(name)] = acct
			run.resp.AccountsCreated = append(run.resp.AccountsCreated, name)
		}
	}
	return nil
}

// accountKey folds case so an account is matched the way the preview
// decides whether it is new.
func accountKey(name string) string {
	return strings.ToLower(name)
}

func currencyForAccount(name string, rows []*parsedRow) string {
	for _, row := range rows {
		if strings.EqualFold(row.account, name) {
			return row.currency
		}
	}
	return ""
}

func (run *importRun) mismatch(row *parsedRow) (models.FailedRow, bool) {
	acct := run.accounts[accountKey(row.account)]
	if acct.Currency == row.currency {
		return models.FailedRow{}, false
	}
	return failed(row, fmt.Sprintf("currency mismatch: account %q has currency %s but row has %s",
		row.account, acct.Currency, row.currency)), true
}

func (run *importRun) filterByCurrency(rows []*parsedRow) []*parsedRow {
	valid := make([]*parsedRow, 0, len(rows))
	for _, row := range rows {
		if f, bad := run.mismatch(row); bad {
			run.fail(f)
			continue
		}
		valid = append(valid, row)
	}
	return valid
}

// filterPairsByCurrency drops pairs with a mismatching leg. Only the first
// mismatching leg is reported; the other leg is dropped silently.
func (run *importRun) filterPairsByCurrency(pairs []transferPair) []transferPair {
	valid := make([]transferPair, 0, len(pairs))
	for _, p := range pairs {
		if f, bad := run.mismatch(p.source); bad {
			run.fail(f)
			continue
		}
		if f, bad := run.mismatch(p.dest); bad {
			run.fail(f)
			continue
		}
		valid = append(valid, p)
	}
	return valid
}

func categoryKey(row *parsedRow) string {
	return row.category + "|" + row.txnType
}

// resolveCategories finds or creates the category of every regular row,
// keyed by name and transaction type.
func (s *Service) resolveCategories(ctx context.Context, run *importRun, rows []*parsedRow) error {
	for _, row := range rows {
		if row.category == "" {
			continue
		}
		key := categoryKey(row)
		if _, ok := run.categories[key]; ok {
			continue
		}
		id, created, err := resolveCategory(ctx, run.tx, row.category, row.txnType)
		if err != nil {
			return fmt.Errorf("failed to resolve category %q: %w", row.category, err)
		}
		for _, name := range created {
			s.logger.Debug("Created category", logging.F(logging.FieldCategory, name))
		}
		run.categories[key] = id
		run.resp.CategoriesCreated = append(run.resp.CategoriesCreated, created...)
	}
	return nil
}

// resolveCategory handles "Parent" and "Parent\Child". It returns the leaf ID
// and the names of the categories it created, children as "Parent > Child".
func resolveCategory(ctx context.Context, tx *store.Store, name, txnType string) (uuid.UUID, []string, error) {
	parentName, childName, _ := strings.Cut(name, models.CategorySeparator)
	parentName = strings.TrimSpace(parentName)
	childName = strings.TrimSpace(childName)
	var created []string

	parent, err := findOrCreateCategory(ctx, tx, nil, parentName, txnType)
	if err != nil {
		return uuid.Nil, nil, err
	}
	if parent.created {
		created = append(created, parentName)
	}
	if childName == "" {
		return parent.ID, created, nil
	}

	child, err := findOrCreateCategory(ctx, tx, &parent.ID, childName, txnType)
	if err != nil {
		return uuid.Nil, nil, err
	}
	if child.created {
		created = append(created, parentName+" > "+childName)
	}
	return child.ID, created, nil
}

type categoryRef struct {
	ID      uuid.UUID
	created bool
}

func findOrCreateCategory(ctx context.Context, tx *store.Store, parentID *uuid.UUID, name, txnType string) (categoryRef, error) {
	existing, err := tx.CategoryByName(ctx, parentID, name, txnType)
	if err == nil {
		return categoryRef{ID: existing.ID}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return categoryRef{}, fmt.Errorf("failed to lookup category %q: %w", name, err)
	}

	c := &store.Category{ParentID: parentID, Name: name, Type: txnType}
	if err := tx.CreateCategory(ctx, c); err != nil {
		return categoryRef{}, err
	}
	return categoryRef{ID: c.ID, created: true}, nil
}

// buildTransactions turns regular rows and transfer pairs into ledger
// transactions. Transfer legs share a transfer ID, carry no category and get
// an exchange rate when the two accounts differ in currency.
func (run *importRun) buildTransactions(regular []*parsedRow, pairs []transferPair) []store.Transaction {
	txns := make([]store.Transaction, 0, len(regular)+2*len(pairs))

	for _, row := range regular {
		t := store.Transaction{
			AccountID:   run.accounts[accountKey(row.account)].ID,
			Type:        row.txnType,
			Amount:      row.amount.Abs(),
			Description: row.description,
			Date:        row.date,
		}
		if row.category != "" {
			if id, ok := run.categories[categoryKey(row)]; ok {
				t.CategoryID = &id
			}
		}
		txns = append(txns, t)
	}

	for _, p := range pairs {
		transferID := uuid.New()
		sourceAcct := run.accounts[accountKey(p.source.account)]
		destAcct := run.accounts[accountKey(p.dest.account)]

		rate := models.TransferRate(
			models.NewMoney(p.source.amount, sourceAcct.Currency),
			models.NewMoney(p.dest.amount, destAcct.Currency))

		txns = append(txns,
			transferLeg(p.source, sourceAcct, store.TypeExpense, transferID, rate),
			transferLeg(p.dest, destAcct, store.TypeIncome, transferID, rate))
	}
	return txns
}

func transferLeg(row *parsedRow, acct *store.Account, txnType string, transferID uuid.UUID, rate decimal.NullDecimal) store.Transaction {
	id := transferID
	return store.Transaction{
		AccountID:    acct.ID,
		Type:         txnType,
		Amount:       row.amount.Abs(),
		Description:  row.description,
		Date:         row.date,
		TransferID:   &id,
		ExchangeRate: rate,
	}
}
