// Package common provides shared utilities across the application.
package common

import (
	"strings"
)

// Ticker represents a parsed exchange-qualified ticker.
// Format: EXCHANGE:CODE (e.g., "NASDAQ:ACME", "NYSE:FRG")
type Ticker struct {
	// Exchange is the exchange code (e.g., "NYSE", "NASDAQ")
	Exchange string
	// Code is the stock/security code (e.g., "ACME")
	Code string
	// Raw is the original ticker string
	Raw string
}

// KnownExchanges lists exchange codes accepted as ticker prefixes.
var KnownExchanges = map[string]bool{
	"NYSE":   true,
	"NASDAQ": true,
	"AMEX":   true,
	"OTC":    true,
	"ASX":    true,
	"LSE":    true,
	"TSX":    true,
}

// DefaultExchange is used when parsing tickers without an exchange prefix.
var DefaultExchange = "NASDAQ"

// ParseTicker parses an exchange-qualified ticker string.
// Supports formats:
//   - "NASDAQ:ACME" -> Exchange="NASDAQ", Code="ACME" (colon separator)
//   - "NASDAQ.ACME" -> Exchange="NASDAQ", Code="ACME" (dot separator)
//   - "ACME" -> Exchange=DefaultExchange, Code="ACME"
//   - "acme" -> Exchange=DefaultExchange, Code="ACME" (normalized to uppercase)
func ParseTicker(ticker string) Ticker {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return Ticker{}
	}

	if idx := strings.Index(ticker, ":"); idx > 0 {
		return Ticker{
			Exchange: strings.ToUpper(ticker[:idx]),
			Code:     strings.ToUpper(ticker[idx+1:]),
			Raw:      ticker,
		}
	}

	// Dot separator only matches known exchanges to avoid clobbering
	// share-class codes like BRK.A
	if idx := strings.Index(ticker, "."); idx > 0 {
		possibleExchange := strings.ToUpper(ticker[:idx])
		if KnownExchanges[possibleExchange] {
			return Ticker{
				Exchange: possibleExchange,
				Code:     strings.ToUpper(ticker[idx+1:]),
				Raw:      ticker,
			}
		}
	}

	return Ticker{
		Exchange: DefaultExchange,
		Code:     strings.ToUpper(ticker),
		Raw:      ticker,
	}
}

// String returns the full exchange-qualified ticker string.
func (t Ticker) String() string {
	if t.Exchange == "" || t.Code == "" {
		return t.Code
	}
	return t.Exchange + ":" + t.Code
}

// IsValidTickerCode reports whether s looks like a bare US ticker code:
// 1-5 uppercase letters with an optional share-class suffix.
func IsValidTickerCode(s string) bool {
	if s == "" {
		return false
	}
	base := s
	if idx := strings.Index(s, "."); idx > 0 {
		base = s[:idx]
		suffix := s[idx+1:]
		if len(suffix) != 1 || suffix[0] < 'A' || suffix[0] > 'Z' {
			return false
		}
	}
	if len(base) < 1 || len(base) > 5 {
		return false
	}
	for _, r := range base {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
