// Package entity defines the domain models for the marketsync feature.
package entity

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDataKind is returned when a data kind is not one of the supported kinds.
var ErrInvalidDataKind = errors.New("invalid data kind")

// DataKind identifies which category of data a sync run refreshes.
type DataKind int

const (
	// KindSeries is the daily OHLCV price history, refreshed every day.
	KindSeries DataKind = iota + 1
	// KindSnapshot is the company fundamentals record, refreshed every two to three weeks.
	KindSnapshot
)

// String returns the persisted name of the kind.
func (k DataKind) String() string {
	switch k {
	case KindSeries:
		return "series"
	case KindSnapshot:
		return "snapshot"
	default:
		return fmt.Sprintf("DataKind(%d)", int(k))
	}
}

// Valid reports whether k is a supported kind.
func (k DataKind) Valid() bool {
	return k == KindSeries || k == KindSnapshot
}

// ParseDataKind converts a name such as "series" or "snapshot" into a DataKind.
func ParseDataKind(s string) (DataKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "series", "prices", "price":
		return KindSeries, nil
	case "snapshot", "info", "fundamentals":
		return KindSnapshot, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDataKind, s)
	}
}

// MarshalText renders the kind by name so summaries read well on the wire.
func (k DataKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDataKind, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (k *DataKind) UnmarshalText(b []byte) error {
	parsed, err := ParseDataKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
