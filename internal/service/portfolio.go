package service

import (
	"errors"

	"github.com/jeovahfialho/b3-portfolio/internal/domain"
	"github.com/jeovahfialho/b3-portfolio/internal/ledger"
	"github.com/jeovahfialho/b3-portfolio/internal/quotes"
	"github.com/jeovahfialho/b3-portfolio/pkg/logger"
	"github.com/jeovahfialho/b3-portfolio/pkg/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PortfolioService struct {
	ledger *ledger.Ledger
	quotes quotes.Source
}

// NewPortfolioService aceita quotes nil; nesse caso o relatório sai sem
// preço de mercado.
func NewPortfolioService(l *ledger.Ledger, q quotes.Source) *PortfolioService {
	return &PortfolioService{
		ledger: l,
		quotes: q,
	}
}

type PositionReport struct {
	Ticker           string           `json:"ticker"`
	Name             string           `json:"name,omitempty"`
	AverageCost      decimal.Decimal  `json:"average_cost"`
	Available        decimal.Decimal  `json:"available"`
	InvestedValue    decimal.Decimal  `json:"invested_value"`
	MarketPrice      *decimal.Decimal `json:"market_price,omitempty"`
	UnrealizedProfit *decimal.Decimal `json:"unrealized_profit,omitempty"`
}

type PortfolioReport struct {
	Positions        []PositionReport `json:"positions"`
	TotalInvested    decimal.Decimal  `json:"total_invested"`
	UnrealizedProfit decimal.Decimal  `json:"unrealized_profit"`
	MissingQuotes    []string         `json:"missing_quotes,omitempty"`
	TradeCount       int              `json:"trade_count"`
}

type SaleReport struct {
	Ticker           string          `json:"ticker"`
	Amount           decimal.Decimal `json:"amount"`
	UnitSellPrice    decimal.Decimal `json:"unit_sell_price"`
	AverageCost      decimal.Decimal `json:"average_cost"`
	Available        decimal.Decimal `json:"available"`
	Profit           decimal.Decimal `json:"profit"`
	ExceedsAvailable bool            `json:"exceeds_available"`
}

func (s *PortfolioService) Position(stock domain.Stock) PositionReport {
	timer := metrics.RecordQuery("position")
	defer timer.ObserveDuration(metrics.LedgerQueryDuration.WithLabelValues("position"))

	return s.position(stock)
}

func (s *PortfolioService) position(stock domain.Stock) PositionReport {
	cost := s.ledger.AverageCost(stock)
	available := s.ledger.Available(stock)

	return PositionReport{
		Ticker:        stock.Ticker,
		Name:          stock.Name,
		AverageCost:   cost,
		Available:     available,
		InvestedValue: cost.Mul(available),
	}
}

// Report monta uma posição por ação do livro. Quando há cotação, o lucro não
// realizado é o Profit de vender todo o disponível ao preço de mercado.
func (s *PortfolioService) Report() (*PortfolioReport, error) {
	timer := metrics.RecordQuery("report")
	defer timer.ObserveDuration(metrics.LedgerQueryDuration.WithLabelValues("report"))

	report := &PortfolioReport{
		Positions:        make([]PositionReport, 0),
		TotalInvested:    decimal.Zero,
		UnrealizedProfit: decimal.Zero,
		TradeCount:       s.ledger.Len(),
	}

	for _, stock := range s.ledger.Stocks() {
		pos := s.position(stock)
		report.TotalInvested = report.TotalInvested.Add(pos.InvestedValue)

		if s.quotes != nil {
			price, err := s.quotes.Price(stock.Ticker)
			switch {
			case errors.Is(err, quotes.ErrNoQuote):
				report.MissingQuotes = append(report.MissingQuotes, stock.Ticker)
			case err != nil:
				return nil, err
			default:
				profit := s.ledger.Profit(stock, pos.Available, price)
				pos.MarketPrice = &price
				pos.UnrealizedProfit = &profit
				report.UnrealizedProfit = report.UnrealizedProfit.Add(profit)
			}
		}

		report.Positions = append(report.Positions, pos)
	}

	logger.Debug("relatório gerado",
		zap.Int("positions", len(report.Positions)),
		zap.Int("trades", report.TradeCount),
		zap.Strings("missing_quotes", report.MissingQuotes))

	return report, nil
}

// SimulateSale calcula o lucro hipotético da venda. A quantidade não é
// limitada ao disponível; ExceedsAvailable apenas sinaliza o excesso.
func (s *PortfolioService) SimulateSale(stock domain.Stock, amount, unitSellPrice decimal.Decimal) SaleReport {
	timer := metrics.RecordQuery("profit")
	defer timer.ObserveDuration(metrics.LedgerQueryDuration.WithLabelValues("profit"))

	available := s.ledger.Available(stock)
	report := SaleReport{
		Ticker:           stock.Ticker,
		Amount:           amount,
		UnitSellPrice:    unitSellPrice,
		AverageCost:      s.ledger.AverageCost(stock),
		Available:        available,
		Profit:           s.ledger.Profit(stock, amount, unitSellPrice),
		ExceedsAvailable: amount.GreaterThan(available),
	}

	if report.ExceedsAvailable {
		logger.Warn("venda simulada acima do disponível",
			zap.String("ticker", stock.Ticker),
			zap.String("amount", amount.String()),
			zap.String("available", available.String()))
	}

	return report
}
