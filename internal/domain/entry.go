package domain

import (
	"fmt"
	"time"
)

// EntryType redundantly encodes the sign of an entry amount.
type EntryType string

const (
	EntryTypeDebit  EntryType = "debit"
	EntryTypeCredit EntryType = "credit"
)

// EntryTypeFor derives the entry type from an amount's sign.
func EntryTypeFor(amount Amount) (EntryType, error) {
	switch {
	case amount.IsPositive():
		return EntryTypeDebit, nil
	case amount.IsNegative():
		return EntryTypeCredit, nil
	default:
		return "", ErrZeroAmount
	}
}

// Entry is one signed leg of a transaction against one account.
type Entry struct {
	CreatedAt     time.Time
	ID            string
	TransactionID string
	AccountID     string
	Description   string
	Type          EntryType
	Amount        Amount
}

// Validate checks that the entry type agrees with the amount's sign.
func (e *Entry) Validate() error {
	want, err := EntryTypeFor(e.Amount)
	if err != nil {
		return err
	}
	if e.Type != want {
		return fmt.Errorf("%w: %s entry with amount %d", ErrInvalidAmount, e.Type, e.Amount)
	}
	return nil
}

// IsDebit reports whether the entry increases its account.
func (e *Entry) IsDebit() bool { return e.Type == EntryTypeDebit }

// Negated returns the compensating leg of e for a reversal transaction.
func (e *Entry) Negated(id, transactionID string, at time.Time) *Entry {
	amount := e.Amount.Neg()
	typ, _ := EntryTypeFor(amount)
	return &Entry{
		ID:            id,
		TransactionID: transactionID,
		AccountID:     e.AccountID,
		Amount:        amount,
		Type:          typ,
		Description:   "reversal of " + e.ID,
		CreatedAt:     at,
	}
}

// EntryTotals summarises a set of entries.
type EntryTotals struct {
	Sum        Amount
	DebitTotal Amount
	Count      int
}

// TotalEntries sums entries, reporting overflow rather than wrapping.
func TotalEntries(entries []*Entry) (EntryTotals, error) {
	var totals EntryTotals
	for _, e := range entries {
		var err error
		totals.Sum, err = totals.Sum.Add(e.Amount)
		if err != nil {
			return EntryTotals{}, err
		}
		if e.Amount.IsPositive() {
			totals.DebitTotal, err = totals.DebitTotal.Add(e.Amount)
			if err != nil {
				return EntryTotals{}, err
			}
		}
		totals.Count++
	}
	return totals, nil
}
