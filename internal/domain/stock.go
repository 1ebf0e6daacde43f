package domain

// Stock identifica um ativo negociável. Duas ações com o mesmo ticker são a
// mesma posição, independente do nome.
type Stock struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name,omitempty"`
}

func NewStock(ticker, name string) Stock {
	return Stock{Ticker: ticker, Name: name}
}

// Matches compara apenas o ticker (case-sensitive).
func (s Stock) Matches(other Stock) bool {
	return s.Ticker == other.Ticker
}

func (s Stock) String() string {
	if s.Name == "" {
		return s.Ticker
	}
	return s.Ticker + " (" + s.Name + ")"
}
