package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction types. A transfer is stored as one expense and one income
// sharing a TransferID.
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// AccountTypeBank is the type given to accounts created by an import.
const AccountTypeBank = "bank"

// Model is the base of every row keyed by a generated UUID.
type Model struct {
	ID        uuid.UUID `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BeforeCreate assigns an ID unless one is already set.
func (m *Model) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Currency is a registry entry. Codes are unique.
type Currency struct {
	Code      string `gorm:"primaryKey"`
	Name      string
	Symbol    string
	CreatedAt time.Time
}

// Account holds money in exactly one currency.
type Account struct {
	Model
	Name           string `gorm:"uniqueIndex"`
	Type           string
	Currency       string
	InitialBalance decimal.Decimal `gorm:"type:DECIMAL(20,8)"`
}

// Category is a parent (ParentID nil) or a child of one. Names are unique per
// parent and transaction type.
type Category struct {
	Model
	ParentID *uuid.UUID `gorm:"uniqueIndex:category_parent_name_type"`
	Name     string     `gorm:"uniqueIndex:category_parent_name_type"`
	Type     string     `gorm:"uniqueIndex:category_parent_name_type"`
	Children []Category `gorm:"foreignKey:ParentID"`
}

// Transaction is one ledger movement. Amount is always non-negative; Type
// carries the direction.
type Transaction struct {
	Model
	AccountID    uuid.UUID `gorm:"index"`
	CategoryID   *uuid.UUID
	Type         string
	Amount       decimal.Decimal `gorm:"type:DECIMAL(20,8)"`
	Description  string
	Date         time.Time
	TransferID   *uuid.UUID          `gorm:"index"`
	ExchangeRate decimal.NullDecimal `gorm:"type:DECIMAL(20,8)"`
}

// BeforeSave keeps dates in UTC.
func (t *Transaction) BeforeSave(_ *gorm.DB) error {
	t.Date = t.Date.In(time.UTC)
	return nil
}
