package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation errors
var (
	ErrInvalidCurrency       = errors.New("invalid currency code")
	ErrInvalidDisplayName    = errors.New("invalid display name")
	ErrInvalidOwner          = errors.New("invalid owner id")
	ErrInvalidIdempotencyKey = errors.New("invalid idempotency key")
	ErrDescriptionTooLong    = errors.New("description too long")
	ErrInvalidReference      = errors.New("invalid reference")
)

// Validation constants
const (
	MaxDisplayNameLength    = 255
	MaxOwnerIDLength        = 128
	MaxIdempotencyKeyLength = 255
	MaxDescriptionLength    = 1024
	MaxReferenceLength      = 255
)

// Valid currency codes (ISO 4217)
var validCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CNY": true, "AUD": true, "CAD": true, "CHF": true,
	"SEK": true, "NZD": true, "KRW": true, "SGD": true,
	"NOK": true, "MXN": true, "INR": true, "BRL": true,
	"ZAR": true, "RUB": true, "TRY": true, "HKD": true,
}

// Internal units like CREDITS or POINTS share the code shape of ISO currencies.
var currencyCodeRegex = regexp.MustCompile(`^[A-Z][A-Z0-9_]{2,15}$`)

// ValidateCurrency validates a currency or internal unit code.
func ValidateCurrency(currency string) error {
	currency = NormalizeCurrency(currency)

	if validCurrencies[currency] || zeroExponentCurrencies[currency] {
		return nil
	}
	if !currencyCodeRegex.MatchString(currency) {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}

	return nil
}

// ValidateDisplayName validates an account display name.
func ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidDisplayName)
	}

	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidDisplayName, MaxDisplayNameLength)
	}

	return nil
}

// ValidateOwner validates an opaque owner identifier.
func ValidateOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return fmt.Errorf("%w: owner cannot be empty", ErrInvalidOwner)
	}
	if len(ownerID) > MaxOwnerIDLength {
		return fmt.Errorf("%w: owner exceeds %d bytes", ErrInvalidOwner, MaxOwnerIDLength)
	}
	return nil
}

// ValidateIdempotencyKey validates a client-supplied idempotency key.
func ValidateIdempotencyKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidIdempotencyKey)
	}
	if len(key) > MaxIdempotencyKeyLength {
		return fmt.Errorf("%w: key exceeds %d bytes", ErrInvalidIdempotencyKey, MaxIdempotencyKeyLength)
	}
	if strings.HasPrefix(key, ReversalKeyPrefix) {
		return fmt.Errorf("%w: prefix %q is reserved", ErrInvalidIdempotencyKey, ReversalKeyPrefix)
	}
	return nil
}

// ValidateDescription validates a free-text description. Empty is allowed.
func ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrDescriptionTooLong, MaxDescriptionLength)
	}
	return nil
}

// ValidateReference validates a (reference_type, reference_id) pair.
// Both may be empty; a reference id without a type is rejected.
func ValidateReference(referenceType, referenceID string) error {
	if referenceType == "" && referenceID != "" {
		return fmt.Errorf("%w: reference id without reference type", ErrInvalidReference)
	}
	if len(referenceType) > MaxReferenceLength || len(referenceID) > MaxReferenceLength {
		return fmt.Errorf("%w: exceeds %d bytes", ErrInvalidReference, MaxReferenceLength)
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
