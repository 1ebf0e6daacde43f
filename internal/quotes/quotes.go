// Package quotes fornece o preço atual dos ativos para o cálculo de lucro
// não realizado.
package quotes

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var ErrNoQuote = errors.New("cotação não encontrada")

type Source interface {
	Price(ticker string) (decimal.Decimal, error)
}

// Static é uma tabela fixa de cotações por ticker.
type Static map[string]decimal.Decimal

func (s Static) Price(ticker string) (decimal.Decimal, error) {
	price, ok := s[ticker]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNoQuote, ticker)
	}
	return price, nil
}

func (s Static) Tickers() []string {
	tickers := make([]string, 0, len(s))
	for t := range s {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}

// file é o formato do arquivo de cotações:
//
//	quotes:
//	  PETR4: 38.50
//	  VALE3: "61,20"
type file struct {
	Quotes map[string]yaml.Node `yaml:"quotes"`
}

func Parse(data []byte) (Static, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("erro ao ler cotações: %w", err)
	}

	out := make(Static, len(f.Quotes))
	for ticker, node := range f.Quotes {
		if node.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("cotação de %s deve ser um valor escalar (linha %d)", ticker, node.Line)
		}
		price, err := decimal.NewFromString(strings.Replace(strings.TrimSpace(node.Value), ",", ".", -1))
		if err != nil {
			return nil, fmt.Errorf("cotação inválida para %s (linha %d): %w", ticker, node.Line, err)
		}
		out[strings.TrimSpace(ticker)] = price
	}
	return out, nil
}

func LoadFile(path string) (Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir arquivo de cotações: %w", err)
	}
	return Parse(data)
}
