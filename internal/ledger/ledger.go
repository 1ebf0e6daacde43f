// Package ledger agrega negociações em custo médio, quantidade disponível e
// lucro hipotético de venda.
//
// Todas as métricas são somas sobre o conjunto de negociações e não dependem
// da ordem de inserção. O Ledger não é seguro para uso concorrente; quem
// compartilha uma instância entre goroutines precisa serializar Append.
package ledger

import (
	"sort"

	"github.com/jeovahfialho/b3-portfolio/internal/domain"
	"github.com/shopspring/decimal"
)

// CostPlaces é o número de casas decimais do custo médio. O arredondamento é
// meio-para-longe-do-zero (DivRound), que coincide com half-up para valores
// positivos.
const CostPlaces int32 = 2

type Ledger struct {
	trades []domain.Trade
}

func New(trades ...domain.Trade) *Ledger {
	l := &Ledger{trades: make([]domain.Trade, 0, len(trades))}
	l.trades = append(l.trades, trades...)
	return l
}

// Append adiciona a negociação ao final do livro e retorna o próprio livro
// para encadear chamadas.
func (l *Ledger) Append(trade domain.Trade) *Ledger {
	l.trades = append(l.trades, trade)
	return l
}

func (l *Ledger) Len() int {
	return len(l.trades)
}

// Trades retorna uma cópia das negociações na ordem de inserção.
func (l *Ledger) Trades() []domain.Trade {
	out := make([]domain.Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// Stocks lista as ações distintas do livro, ordenadas por ticker. O nome
// mantido é o da primeira negociação com aquele ticker.
func (l *Ledger) Stocks() []domain.Stock {
	seen := make(map[string]struct{})
	var stocks []domain.Stock
	for _, t := range l.trades {
		if _, ok := seen[t.Stock.Ticker]; ok {
			continue
		}
		seen[t.Stock.Ticker] = struct{}{}
		stocks = append(stocks, t.Stock)
	}
	sort.Slice(stocks, func(i, j int) bool {
		return stocks[i].Ticker < stocks[j].Ticker
	})
	return stocks
}

// Filter retorna um novo livro apenas com as negociações aceitas pelo filtro.
func (l *Ledger) Filter(f domain.TradeFilter) *Ledger {
	out := New()
	for _, t := range l.trades {
		if f.Match(t) {
			out.Append(t)
		}
	}
	return out
}

type totals struct {
	boughtValue  decimal.Decimal
	boughtAmount decimal.Decimal
	soldAmount   decimal.Decimal
}

func (l *Ledger) totalsFor(stock domain.Stock) totals {
	acc := totals{
		boughtValue:  decimal.Zero,
		boughtAmount: decimal.Zero,
		soldAmount:   decimal.Zero,
	}
	for _, t := range l.trades {
		if !t.Stock.Matches(stock) {
			continue
		}
		switch t.Operation {
		case domain.Buy:
			acc.boughtValue = acc.boughtValue.Add(t.Value())
			acc.boughtAmount = acc.boughtAmount.Add(t.Amount)
		case domain.Sell:
			acc.soldAmount = acc.soldAmount.Add(t.Amount)
		}
	}
	return acc
}

// AverageCost é o preço médio ponderado das compras, com CostPlaces casas.
// Vendas não entram no cálculo. Sem quantidade comprada retorna zero.
func (l *Ledger) AverageCost(stock domain.Stock) decimal.Decimal {
	acc := l.totalsFor(stock)
	if acc.boughtAmount.IsZero() {
		return decimal.Zero
	}
	return acc.boughtValue.DivRound(acc.boughtAmount, CostPlaces)
}

// Available é a quantidade comprada menos a vendida. Pode ser negativa.
func (l *Ledger) Available(stock domain.Stock) decimal.Decimal {
	acc := l.totalsFor(stock)
	return acc.boughtAmount.Sub(acc.soldAmount)
}

// Profit calcula o lucro de vender amount unidades a unitSellPrice usando o
// custo médio atual. É uma simulação: não verifica Available nem altera o
// livro.
func (l *Ledger) Profit(stock domain.Stock, amount, unitSellPrice decimal.Decimal) decimal.Decimal {
	cost := l.AverageCost(stock)
	return amount.Mul(unitSellPrice).Sub(amount.Mul(cost))
}
