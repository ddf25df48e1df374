package common

import (
	"testing"
)

func TestParseTicker(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantExchange string
		wantCode     string
	}{
		{"colon separator", "NYSE:FRG", "NYSE", "FRG"},
		{"dot separator known exchange", "NASDAQ.ACME", "NASDAQ", "ACME"},
		{"bare code uses default", "ACME", "NASDAQ", "ACME"},
		{"lowercase normalized", "acme", "NASDAQ", "ACME"},
		{"share class dot preserved", "BRK.A", "NASDAQ", "BRK.A"},
		{"empty string", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTicker(tt.input)
			if got.Exchange != tt.wantExchange || got.Code != tt.wantCode {
				t.Errorf("ParseTicker(%q) = %s:%s, want %s:%s",
					tt.input, got.Exchange, got.Code, tt.wantExchange, tt.wantCode)
			}
		})
	}
}

func TestIsValidTickerCode(t *testing.T) {
	valid := []string{"A", "ACME", "FRGEX", "BRK.A"}
	for _, s := range valid {
		if !IsValidTickerCode(s) {
			t.Errorf("IsValidTickerCode(%q) = false, want true", s)
		}
	}

	invalid := []string{"", "acme", "TOOLONGX", "BRK.AA", "AC-ME", "123"}
	for _, s := range invalid {
		if IsValidTickerCode(s) {
			t.Errorf("IsValidTickerCode(%q) = true, want false", s)
		}
	}
}
