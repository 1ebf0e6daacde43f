package ingestion

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jeovahfialho/b3-portfolio/internal/domain"
	"github.com/jeovahfialho/b3-portfolio/internal/ledger"
	"github.com/shopspring/decimal"
)

func generateTestTrades(n int) []domain.Trade {
	stock := domain.NewStock("PETR4", "Petrobras")
	trades := make([]domain.Trade, 0, n)
	for i := 0; i < n; i++ {
		trades = append(trades, domain.NewTrade(stock, decimal.NewFromInt(int64(20+i%30)),
			decimal.NewFromInt(1), domain.Buy, time.Now()))
	}
	return trades
}

func TestLoaderLoadTrades(t *testing.T) {
	loader := NewLoader(ledger.New(), 3)

	count, err := loader.LoadTrades(context.Background(), generateTestTrades(10))
	if err != nil {
		t.Fatalf("LoadTrades: %v", err)
	}
	if count != 10 || loader.Ledger().Len() != 10 {
		t.Errorf("count/Len = %d/%d, want 10/10", count, loader.Ledger().Len())
	}

	count, err = loader.LoadTrades(context.Background(), nil)
	if err != nil || count != 0 {
		t.Errorf("LoadTrades(nil) = %d, %v", count, err)
	}
}

func TestLoaderConcurrent(t *testing.T) {
	loader := NewLoader(ledger.New(), 7)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := loader.LoadTrades(context.Background(), generateTestTrades(100)); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if got := loader.Ledger().Len(); got != 800 {
		t.Errorf("Len() = %d, want 800", got)
	}
	if got := loader.Ledger().Available(domain.NewStock("PETR4", "")); !got.Equal(decimal.NewFromInt(800)) {
		t.Errorf("Available = %s, want 800", got)
	}
}

func TestLoaderCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loader := NewLoader(ledger.New(), 5)
	count, err := loader.LoadTrades(ctx, generateTestTrades(20))
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if count != 0 || loader.Ledger().Len() != 0 {
		t.Errorf("count/Len = %d/%d, want 0/0", count, loader.Ledger().Len())
	}
}

func BenchmarkLoader(b *testing.B) {
	trades := generateTestTrades(10000)

	benchmarks := []struct {
		name      string
		batchSize int
	}{
		{"SmallBatch", 100},
		{"MediumBatch", 1000},
		{"LargeBatch", 10000},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			ctx := context.Background()

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				loader := NewLoader(ledger.New(), bm.batchSize)
				if _, err := loader.LoadTrades(ctx, trades); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
