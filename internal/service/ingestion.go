package service

import (
	"context"
	"fmt"

	"github.com/jeovahfialho/b3-portfolio/internal/ingestion"
	"github.com/jeovahfialho/b3-portfolio/internal/ledger"
	"github.com/jeovahfialho/b3-portfolio/pkg/logger"
	"go.uber.org/zap"
)

type IngestionService struct {
	parser    *ingestion.Parser
	workers   int
	batchSize int
}

func NewIngestionService(parser *ingestion.Parser, workers, batchSize int) *IngestionService {
	return &IngestionService{
		parser:    parser,
		workers:   workers,
		batchSize: batchSize,
	}
}

type LoadResult struct {
	Ledger   *ledger.Ledger
	Files    []ingestion.JobResult
	Records  int64
	Failures int
}

// LoadFiles carrega os arquivos em um livro novo. Falha de um arquivo não
// interrompe os demais; o erro retornado é só de cancelamento.
func (s *IngestionService) LoadFiles(ctx context.Context, files []string) (*LoadResult, error) {
	logger.Info("carregando arquivos", zap.Int("files", len(files)))

	loader := ingestion.NewLoader(ledger.New(), s.batchSize)
	pool := ingestion.NewWorkerPool(s.workers, s.parser, loader)

	results, err := ingestion.LoadFiles(ctx, pool, files)
	if err != nil {
		return nil, fmt.Errorf("carga interrompida: %w", err)
	}

	out := &LoadResult{
		Ledger: loader.Ledger(),
		Files:  results,
	}
	for _, r := range results {
		out.Records += r.RecordsCount
		if r.Error != nil {
			out.Failures++
		}
	}

	logger.Info("carga concluída",
		zap.Int64("records", out.Records),
		zap.Int("failures", out.Failures))

	return out, nil
}
