package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidOperation = errors.New("operação inválida")

// Operation é a direção de uma negociação.
type Operation int

const (
	Buy Operation = iota + 1
	Sell
)

func (o Operation) String() string {
	switch o {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return fmt.Sprintf("Operation(%d)", int(o))
	}
}

// ParseOperation aceita BUY/SELL e as formas usadas nas notas de
// corretagem (C/V, COMPRA/VENDA), sem diferenciar maiúsculas.
func ParseOperation(s string) (Operation, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY", "C", "COMPRA":
		return Buy, nil
	case "SELL", "V", "VENDA":
		return Sell, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidOperation, s)
	}
}

func (o Operation) MarshalText() ([]byte, error) {
	if o != Buy && o != Sell {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOperation, int(o))
	}
	return []byte(o.String()), nil
}

func (o *Operation) UnmarshalText(text []byte) error {
	op, err := ParseOperation(string(text))
	if err != nil {
		return err
	}
	*o = op
	return nil
}

// Trade é uma negociação executada. Preço e quantidade não são validados
// aqui; valores negativos ou zerados passam direto para os cálculos.
type Trade struct {
	Stock     Stock           `json:"stock"`
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
	Operation Operation       `json:"operation"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewTrade(stock Stock, price, amount decimal.Decimal, op Operation, ts time.Time) Trade {
	return Trade{
		Stock:     stock,
		Price:     price,
		Amount:    amount,
		Operation: op,
		Timestamp: ts,
	}
}

// Value retorna amount × price.
func (t Trade) Value() decimal.Decimal {
	return t.Amount.Mul(t.Price)
}

type TradeFilter struct {
	Ticker    string
	StartDate *time.Time
	EndDate   *time.Time
}

// Match indica se a negociação passa pelo filtro. Campos vazios não filtram.
func (f TradeFilter) Match(t Trade) bool {
	if f.Ticker != "" && t.Stock.Ticker != f.Ticker {
		return false
	}
	if f.StartDate != nil && t.Timestamp.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && t.Timestamp.After(*f.EndDate) {
		return false
	}
	return true
}
