package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

const (
	Need Necessity = "Need"
	Want Necessity = "Want"
)

// DefaultAccount is used when a transaction is recorded without an account.
const DefaultAccount = "BCA"

type (
	TxType    string
	Necessity string

	Transaction struct {
		ID          string          `json:"id"`
		UserID      string          `json:"user_id"`
		Date        Date            `json:"date"`
		Type        TxType          `json:"type"`
		Category    string          `json:"category"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description,omitempty"`
		Account     string          `json:"account"`
		Necessity   Necessity       `json:"necessity,omitempty"`
		IsRecurring bool            `json:"is_recurring"`
		CreatedAt   time.Time       `json:"created_at"`
	}

	Goal struct {
		ID           string          `json:"id"`
		UserID       string          `json:"user_id"`
		Title        string          `json:"title"`
		TargetAmount decimal.Decimal `json:"target_amount"`
		SavedAmount  decimal.Decimal `json:"saved_amount"`
		CreatedAt    time.Time       `json:"created_at"`
	}
)

// ValidationError marks input that was rejected before any write happened.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

// IsValidation reports whether err (or anything it wraps) is a ValidationError.
func IsValidation(err error) bool {
	var v ValidationError
	return errors.As(err, &v)
}

var (
	ErrInvalidDate        = ValidationError("invalid date")
	ErrInvalidAmount      = ValidationError("amount must be greater than zero")
	ErrInvalidType        = ValidationError("type must be income or expense")
	ErrEmptyCategory      = ValidationError("empty category")
	ErrDescriptionTooLong = ValidationError("description too long (max 200 characters)")
	ErrInvalidNecessity   = ValidationError("necessity must be Need or Want")
	ErrEmptyTitle         = ValidationError("empty goal title")
	ErrTitleTooLong       = ValidationError("goal title too long (max 100 characters)")
	ErrInvalidSaved       = ValidationError("saved amount cannot be negative")
	ErrMissingUser        = ValidationError("missing user")

	ErrNotFound = errors.New("not found")
)

func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

// Normalize trims free-form fields and applies defaults for optional ones.
func (t *Transaction) Normalize() {
	t.Category = strings.TrimSpace(t.Category)
	t.Description = strings.TrimSpace(t.Description)
	t.Account = strings.TrimSpace(t.Account)
	if t.Account == "" {
		t.Account = DefaultAccount
	}
	switch t.Type {
	case Expense:
		if t.Necessity == "" {
			t.Necessity = Need
		}
	case Income:
		t.Necessity = ""
	}
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrMissingUser
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if len([]rune(t.Description)) > 200 {
		return ErrDescriptionTooLong
	}
	if t.Type == Expense && t.Necessity != Need && t.Necessity != Want {
		return ErrInvalidNecessity
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.UserID) == "" {
		return ErrMissingUser
	}
	title := strings.TrimSpace(g.Title)
	if title == "" {
		return ErrEmptyTitle
	}
	if len([]rune(title)) > 100 {
		return ErrTitleTooLong
	}
	if !g.TargetAmount.IsPositive() {
		return ErrInvalidAmount
	}
	if g.SavedAmount.IsNegative() {
		return ErrInvalidSaved
	}
	return nil
}

// Progress is saved/target as a percentage, uncapped.
func (g Goal) Progress() float64 {
	if !g.TargetAmount.IsPositive() {
		return 0
	}
	p, _ := g.SavedAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100)).Float64()
	return p
}

// Remaining is negative once the goal is overshot.
func (g Goal) Remaining() decimal.Decimal {
	return g.TargetAmount.Sub(g.SavedAmount)
}

func (g Goal) Completed() bool {
	return g.Progress() >= 100
}
