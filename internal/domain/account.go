package domain

import (
	"fmt"
	"strings"
	"time"
)

// AccountClass is the accounting class of a ledger bucket.
type AccountClass string

const (
	AccountClassAsset     AccountClass = "asset"
	AccountClassLiability AccountClass = "liability"
	AccountClassEquity    AccountClass = "equity"
	AccountClassRevenue   AccountClass = "revenue"
	AccountClassExpense   AccountClass = "expense"
)

// AccountClasses lists every class in a stable order.
var AccountClasses = []AccountClass{
	AccountClassAsset,
	AccountClassLiability,
	AccountClassEquity,
	AccountClassRevenue,
	AccountClassExpense,
}

// ParseAccountClass parses a class name case-insensitively.
func ParseAccountClass(s string) (AccountClass, error) {
	c := AccountClass(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidClass, s)
	}
	return c, nil
}

// IsValid reports whether c is one of the five account classes.
func (c AccountClass) IsValid() bool {
	switch c {
	case AccountClassAsset, AccountClassLiability, AccountClassEquity, AccountClassRevenue, AccountClassExpense:
		return true
	}
	return false
}

// NormallyNonNegative reports whether balances of this class are expected to stay >= 0 after commit.
func (c AccountClass) NormallyNonNegative() bool {
	return c == AccountClassAsset || c == AccountClassExpense
}

func (c AccountClass) String() string { return string(c) }

// AccountKey is the natural key of an account. At most one account exists per key.
type AccountKey struct {
	OwnerID  string
	Currency string
	Class    AccountClass
}

func (k AccountKey) String() string {
	return k.OwnerID + "/" + k.Currency + "/" + string(k.Class)
}

// Account is a ledger bucket holding a balance in one currency.
type Account struct {
	ID          string
	OwnerID     string
	Currency    string
	Class       AccountClass
	DisplayName string
	Balance     Amount
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Key returns the account's natural key.
func (a *Account) Key() AccountKey {
	return AccountKey{OwnerID: a.OwnerID, Currency: a.Currency, Class: a.Class}
}

// CheckBalance validates a post-commit balance against the class convention.
func (a *Account) CheckBalance(newBalance Amount) error {
	if a.Class.NormallyNonNegative() && newBalance.IsNegative() {
		return fmt.Errorf("%w: account %s would hold %d", ErrNegativeBalance, a.ID, newBalance)
	}
	return nil
}

// ApplyDelta returns the balance after adding delta.
func (a *Account) ApplyDelta(delta Amount) (Amount, error) {
	return a.Balance.Add(delta)
}
