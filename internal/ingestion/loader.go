package ingestion

import (
	"context"
	"sync"

	"github.com/jeovahfialho/b3-portfolio/internal/domain"
	"github.com/jeovahfialho/b3-portfolio/internal/ledger"
	"github.com/jeovahfialho/b3-portfolio/pkg/metrics"
)

// Loader grava negociações em um Ledger. O Ledger não tem sincronização
// própria, então todas as escritas passam pelo mutex do Loader.
type Loader struct {
	mu        sync.Mutex
	ledger    *ledger.Ledger
	batchSize int
}

func NewLoader(l *ledger.Ledger, batchSize int) *Loader {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Loader{
		ledger:    l,
		batchSize: batchSize,
	}
}

// LoadTrades adiciona as negociações em lotes de batchSize e retorna quantas
// foram gravadas. O contexto é verificado entre os lotes.
func (l *Loader) LoadTrades(ctx context.Context, trades []domain.Trade) (int64, error) {
	var count int64

	for _, chunk := range l.splitIntoChunks(trades) {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		l.mu.Lock()
		for _, trade := range chunk {
			l.ledger.Append(trade)
		}
		l.mu.Unlock()

		metrics.RecordTradesAppended(len(chunk))
		count += int64(len(chunk))
	}

	return count, nil
}

// Ledger retorna o livro carregado. Não deve ser lido enquanto houver
// LoadTrades em andamento.
func (l *Loader) Ledger() *ledger.Ledger {
	return l.ledger
}

func (l *Loader) splitIntoChunks(trades []domain.Trade) [][]domain.Trade {
	var chunks [][]domain.Trade

	for i := 0; i < len(trades); i += l.batchSize {
		end := i + l.batchSize
		if end > len(trades) {
			end = len(trades)
		}
		chunks = append(chunks, trades[i:end])
	}

	return chunks
}
