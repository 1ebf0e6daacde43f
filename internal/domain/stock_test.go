package domain

import "testing"

func TestStockMatches(t *testing.T) {
	tests := []struct {
		name string
		a, b Stock
		want bool
	}{
		{"mesmo ticker e nome", NewStock("PETR4", "Petrobras"), NewStock("PETR4", "Petrobras"), true},
		{"nome diferente", NewStock("PETR4", "Petrobras PN"), NewStock("PETR4", ""), true},
		{"ticker diferente", NewStock("PETR4", "Petrobras"), NewStock("PETR3", "Petrobras"), false},
		{"case sensitive", NewStock("petr4", ""), NewStock("PETR4", ""), false},
		{"nomes vazios", NewStock("VALE3", ""), NewStock("ITUB4", ""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Matches(tt.b); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
			if got := tt.b.Matches(tt.a); got != tt.want {
				t.Errorf("Matches() invertido = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStockString(t *testing.T) {
	if got := NewStock("VALE3", "").String(); got != "VALE3" {
		t.Errorf("String() = %q", got)
	}
	if got := NewStock("VALE3", "Vale").String(); got != "VALE3 (Vale)" {
		t.Errorf("String() = %q", got)
	}
}
