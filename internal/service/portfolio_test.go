package service

import (
	"errors"
	"testing"
	"time"

	"github.com/jeovahfialho/b3-portfolio/internal/domain"
	"github.com/jeovahfialho/b3-portfolio/internal/ledger"
	"github.com/jeovahfialho/b3-portfolio/internal/quotes"
	"github.com/shopspring/decimal"
)

var (
	petr = domain.NewStock("PETR4", "Petrobras")
	vale = domain.NewStock("VALE3", "Vale")
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestLedger() *ledger.Ledger {
	now := time.Now()
	return ledger.New(
		domain.NewTrade(petr, dec("10"), dec("300"), domain.Buy, now),
		domain.NewTrade(petr, dec("12"), dec("200"), domain.Buy, now),
		domain.NewTrade(petr, dec("14"), dec("100"), domain.Sell, now),
		domain.NewTrade(vale, dec("60"), dec("10"), domain.Buy, now),
	)
}

func TestPosition(t *testing.T) {
	svc := NewPortfolioService(newTestLedger(), nil)

	pos := svc.Position(domain.NewStock("PETR4", ""))
	if !pos.AverageCost.Equal(dec("10.80")) {
		t.Errorf("AverageCost = %s, want 10.80", pos.AverageCost)
	}
	if !pos.Available.Equal(dec("400")) {
		t.Errorf("Available = %s, want 400", pos.Available)
	}
	if !pos.InvestedValue.Equal(dec("4320")) {
		t.Errorf("InvestedValue = %s, want 4320", pos.InvestedValue)
	}

	empty := svc.Position(domain.NewStock("ABEV3", ""))
	if !empty.AverageCost.IsZero() || !empty.Available.IsZero() || !empty.InvestedValue.IsZero() {
		t.Errorf("posição vazia = %+v", empty)
	}
}

func TestReport(t *testing.T) {
	q := quotes.Static{"PETR4": dec("15")}
	report, err := NewPortfolioService(newTestLedger(), q).Report()
	if err != nil {
		t.Fatalf("Report: %v", err)
	}

	if report.TradeCount != 4 {
		t.Errorf("TradeCount = %d, want 4", report.TradeCount)
	}
	if len(report.Positions) != 2 || report.Positions[0].Ticker != "PETR4" || report.Positions[1].Ticker != "VALE3" {
		t.Fatalf("Positions = %+v", report.Positions)
	}

	p := report.Positions[0]
	if p.MarketPrice == nil || !p.MarketPrice.Equal(dec("15")) {
		t.Errorf("MarketPrice = %v, want 15", p.MarketPrice)
	}
	// 400 × 15 − 400 × 10.80
	if p.UnrealizedProfit == nil || !p.UnrealizedProfit.Equal(dec("1680")) {
		t.Errorf("UnrealizedProfit = %v, want 1680", p.UnrealizedProfit)
	}

	if v := report.Positions[1]; v.MarketPrice != nil || v.UnrealizedProfit != nil {
		t.Errorf("VALE3 sem cotação não deveria ter preço: %+v", v)
	}
	if len(report.MissingQuotes) != 1 || report.MissingQuotes[0] != "VALE3" {
		t.Errorf("MissingQuotes = %v", report.MissingQuotes)
	}

	if !report.TotalInvested.Equal(dec("4920")) {
		t.Errorf("TotalInvested = %s, want 4920", report.TotalInvested)
	}
	if !report.UnrealizedProfit.Equal(dec("1680")) {
		t.Errorf("UnrealizedProfit total = %s, want 1680", report.UnrealizedProfit)
	}
}

func TestReportWithoutQuotes(t *testing.T) {
	report, err := NewPortfolioService(ledger.New(), nil).Report()
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if len(report.Positions) != 0 || !report.TotalInvested.IsZero() || report.MissingQuotes != nil {
		t.Errorf("relatório vazio = %+v", report)
	}
}

type failingSource struct{}

func (failingSource) Price(string) (decimal.Decimal, error) {
	return decimal.Zero, errors.New("fonte indisponível")
}

func TestReportSourceError(t *testing.T) {
	if _, err := NewPortfolioService(newTestLedger(), failingSource{}).Report(); err == nil {
		t.Error("Report deveria propagar erro da fonte de cotações")
	}
}

func TestSimulateSale(t *testing.T) {
	svc := NewPortfolioService(newTestLedger(), nil)

	sale := svc.SimulateSale(petr, dec("300"), dec("15"))
	if !sale.Profit.Equal(dec("1260")) {
		t.Errorf("Profit = %s, want 1260", sale.Profit)
	}
	if sale.ExceedsAvailable {
		t.Error("300 de 400 não excede o disponível")
	}

	over := svc.SimulateSale(vale, dec("25"), dec("50"))
	if !over.ExceedsAvailable {
		t.Error("25 de 10 deveria exceder o disponível")
	}
	// 25 × 50 − 25 × 60, sem limitar ao disponível
	if !over.Profit.Equal(dec("-250")) {
		t.Errorf("Profit = %s, want -250", over.Profit)
	}
}
