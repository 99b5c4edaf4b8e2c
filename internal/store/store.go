// Package store is the gorm-backed ledger database used by the reference
// import executor and the API server: currencies, accounts, the category
// tree and transactions.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"fjacquet/ledger-import/internal/logging"
)

// ErrNotFound is returned by lookups that match nothing.
var ErrNotFound = errors.New("record not found")

// Store wraps a gorm database. A Store obtained from Transaction is bound to
// that database transaction.
type Store struct {
	db     *gorm.DB
	logger logging.Logger
}

// Open connects to the SQLite database at dsn and migrates the schema.
func Open(dsn string, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	config := &gorm.Config{
		NowFunc: func() time.Time {
			return time.Now().In(time.UTC)
		},
		Logger: &gormLogger{logger: logger},
	}

	db, err := gorm.Open(sqlite.Open(dsn), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Currency{}, &Account{}, &Category{}, &Transaction{}); err != nil {
		return nil, fmt.Errorf("error during DB migration: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transaction runs fn inside a database transaction. The transaction is
// rolled back when fn returns an error.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, logger: s.logger})
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ListCurrencies returns the registry ordered by code.
func (s *Store) ListCurrencies(ctx context.Context) ([]Currency, error) {
	var currencies []Currency
	if err := s.db.WithContext(ctx).Order("code").Find(&currencies).Error; err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}
	return currencies, nil
}

// CreateCurrency adds a currency to the registry.
func (s *Store) CreateCurrency(ctx context.Context, c *Currency) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create currency %s: %w", c.Code, err)
	}
	return nil
}

// SeedCurrencies inserts the given currencies unless their code already
// exists.
func (s *Store) SeedCurrencies(ctx context.Context, currencies []Currency) error {
	for i := range currencies {
		err := s.db.WithContext(ctx).
			Where(Currency{Code: currencies[i].Code}).
			FirstOrCreate(&currencies[i]).Error
		if err != nil {
			return fmt.Errorf("failed to seed currency %s: %w", currencies[i].Code, err)
		}
	}
	return nil
}

// ListAccounts returns all accounts ordered by name.
func (s *Store) ListAccounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	if err := s.db.WithContext(ctx).Order("name").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// AccountByName looks up an account by name, ignoring case. SQLite only
// folds ASCII, so names that differ beyond that are matched in Go.
func (s *Store) AccountByName(ctx context.Context, name string) (*Account, error) {
	var account Account
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&account).Error
	if err == nil {
		return &account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(err)
	}

	accounts, err := s.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if strings.EqualFold(accounts[i].Name, name) {
			return &accounts[i], nil
		}
	}
	return nil, ErrNotFound
}

// CreateAccount inserts an account.
func (s *Store) CreateAccount(ctx context.Context, a *Account) error {
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("failed to create account %s: %w", a.Name, err)
	}
	return nil
}

// CategoryTree returns the top-level categories with their children loaded,
// ordered by name.
func (s *Store) CategoryTree(ctx context.Context) ([]Category, error) {
	var categories []Category
	err := s.db.WithContext(ctx).
		Where("parent_id IS NULL").
		Preload("Children", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		Order("name").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// CategoryByName looks up a category by name and type under parentID, or at
// the top level when parentID is nil.
func (s *Store) CategoryByName(ctx context.Context, parentID *uuid.UUID, name, txnType string) (*Category, error) {
	q := s.db.WithContext(ctx).Where("name = ? AND type = ?", name, txnType)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}

	var category Category
	if err := q.First(&category).Error; err != nil {
		return nil, notFound(err)
	}
	return &category, nil
}

// CreateCategory inserts a category.
func (s *Store) CreateCategory(ctx context.Context, c *Category) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create category %q: %w", c.Name, err)
	}
	return nil
}

// CreateTransactions inserts transactions in batches and returns the number
// of rows written.
func (s *Store) CreateTransactions(ctx context.Context, txns []Transaction, batchSize int) (int64, error) {
	if len(txns) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).CreateInBatches(txns, batchSize)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to insert transactions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ListTransactions returns transactions ordered by date then creation.
func (s *Store) ListTransactions(ctx context.Context) ([]Transaction, error) {
	var txns []Transaction
	if err := s.db.WithContext(ctx).Order("date, created_at").Find(&txns).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}
