package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const tradesCSV = "DataHora;CodigoInstrumento;Nome;Operacao;Preco;Quantidade\n" +
	"2024-01-10 10:00:00;TTT;Test;C;10;300\n" +
	"2024-01-11 10:00:00;TTT;Test;C;12;200\n" +
	"2024-02-01 10:00:00;TTT;Test;V;14;100\n"

func setupFiles(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

	trades := filepath.Join(dir, "trades.csv")
	if err := os.WriteFile(trades, []byte(tradesCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	q := filepath.Join(dir, "quotes.yaml")
	if err := os.WriteFile(q, []byte("quotes:\n  TTT: 15\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return trades, q
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestPositionCommand(t *testing.T) {
	trades, _ := setupFiles(t)

	out := run(t, "position", "TTT", "-f", trades, "--json")

	var pos struct {
		AverageCost string `json:"average_cost"`
		Available   string `json:"available"`
		Name        string `json:"name"`
	}
	if err := json.Unmarshal([]byte(out), &pos); err != nil {
		t.Fatalf("saída não é JSON: %v\n%s", err, out)
	}
	if pos.AverageCost != "10.8" || pos.Available != "400" || pos.Name != "Test" {
		t.Errorf("posição = %+v", pos)
	}
}

func TestPositionCommandEndDate(t *testing.T) {
	trades, _ := setupFiles(t)

	out := run(t, "position", "TTT", "-f", trades, "--end-date", "2024-01-31")
	if !strings.Contains(out, "Disponível: 500") {
		t.Errorf("saída sem disponível de janeiro:\n%s", out)
	}
	if !strings.Contains(out, "Custo Médio: R$ 10.80") {
		t.Errorf("saída sem custo médio:\n%s", out)
	}
}

func TestProfitCommand(t *testing.T) {
	trades, _ := setupFiles(t)

	out := run(t, "profit", "TTT", "300", "15", "-f", trades)
	if !strings.Contains(out, "Lucro: R$ 1260.00") {
		t.Errorf("lucro esperado 1260.00:\n%s", out)
	}
	if strings.Contains(out, "acima do disponível") {
		t.Errorf("300 de 400 não excede o disponível:\n%s", out)
	}

	out = run(t, "profit", "TTT", "1000", "15", "-f", trades)
	if !strings.Contains(out, "acima do disponível") {
		t.Errorf("aviso de excesso ausente:\n%s", out)
	}
}

func TestReportCommand(t *testing.T) {
	trades, q := setupFiles(t)

	out := run(t, "report", "-f", trades, "--quotes", q, "--metrics")
	if !strings.Contains(out, "Lucro não realizado: R$ 1680.00") {
		t.Errorf("lucro não realizado esperado 1680.00:\n%s", out)
	}
	if !strings.Contains(out, "portfolio_ledger_queries_total") {
		t.Errorf("métricas ausentes:\n%s", out)
	}
}

func TestLoadCommand(t *testing.T) {
	trades, _ := setupFiles(t)

	out := run(t, "load", filepath.Join(filepath.Dir(trades), "*.csv"), "--json")

	var s summary
	if err := json.Unmarshal([]byte(out), &s); err != nil {
		t.Fatalf("saída não é JSON: %v\n%s", err, out)
	}
	if s.Trades != 3 || s.Stocks != 1 || len(s.Files) != 1 {
		t.Errorf("resumo = %+v", s)
	}
}

func TestExpandFiles(t *testing.T) {
	if _, err := expandFiles(nil); err == nil {
		t.Error("expandFiles(nil) deveria falhar")
	}

	files, err := expandFiles([]string{"nao-existe.csv"})
	if err != nil || len(files) != 1 || files[0] != "nao-existe.csv" {
		t.Errorf("expandFiles = %v, %v", files, err)
	}
}

func TestDateFilter(t *testing.T) {
	f, err := dateFilter(&options{startDate: "2024-01-01", endDate: "2024-01-31"})
	if err != nil {
		t.Fatalf("dateFilter: %v", err)
	}
	if !f.StartDate.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("StartDate = %v", f.StartDate)
	}
	if f.EndDate.Before(time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)) {
		t.Errorf("EndDate deveria incluir o dia inteiro: %v", f.EndDate)
	}

	if _, err := dateFilter(&options{startDate: "31/01/2024"}); err == nil {
		t.Error("data inválida deveria falhar")
	}
}
