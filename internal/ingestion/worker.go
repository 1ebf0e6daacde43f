package ingestion

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/jeovahfialho/b3-portfolio/pkg/logger"
	"github.com/jeovahfialho/b3-portfolio/pkg/metrics"
	"go.uber.org/zap"
)

type WorkerPool struct {
	workers  int
	parser   *Parser
	loader   *Loader
	jobQueue chan Job
	wg       sync.WaitGroup
}

type Job struct {
	FilePath string
	Result   chan<- JobResult
}

type JobResult struct {
	FilePath     string
	RecordsCount int64
	Errors       []error
	Error        error
}

func NewWorkerPool(workers int, parser *Parser, loader *Loader) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	return &WorkerPool{
		workers:  workers,
		parser:   parser,
		loader:   loader,
		jobQueue: make(chan Job, workers*2),
	}
}

func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
}

// Submit enfileira o job ou desiste quando o contexto é cancelado.
func (wp *WorkerPool) Submit(ctx context.Context, job Job) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case wp.jobQueue <- job:
		return nil
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case job, ok := <-wp.jobQueue:
			if !ok {
				return
			}

			jobCtx := logger.NewContext(ctx, job.FilePath)
			result := wp.processFile(jobCtx, job.FilePath)
			if result.Error != nil {
				metrics.RecordFileProcessed("error")
				logger.WithContext(jobCtx).Warn("falha ao processar arquivo",
					zap.Int("worker", id), zap.Error(result.Error))
			} else {
				metrics.RecordFileProcessed("success")
				logger.WithContext(jobCtx).Info("arquivo processado",
					zap.Int("worker", id),
					zap.Int64("records", result.RecordsCount),
					zap.Int("errors", len(result.Errors)))
			}
			job.Result <- result
		}
	}
}

func (wp *WorkerPool) processFile(ctx context.Context, filePath string) JobResult {

	file, err := os.Open(filePath)
	if err != nil {
		return JobResult{
			FilePath: filePath,
			Error:    fmt.Errorf("erro ao abrir arquivo: %w", err),
		}
	}
	defer file.Close()

	parseResult, err := wp.parser.ParseFile(ctx, file)
	if err != nil {
		return JobResult{
			FilePath: filePath,
			Error:    fmt.Errorf("erro no parse: %w", err),
		}
	}

	for _, parseErr := range parseResult.Errors {
		logger.WithContext(ctx).Debug("registro ignorado", zap.Error(parseErr))
	}

	count, err := wp.loader.LoadTrades(ctx, parseResult.Trades)
	if err != nil {
		return JobResult{
			FilePath:     filePath,
			RecordsCount: count,
			Errors:       parseResult.Errors,
			Error:        fmt.Errorf("erro ao carregar: %w", err),
		}
	}

	return JobResult{
		FilePath:     filePath,
		RecordsCount: count,
		Errors:       parseResult.Errors,
	}
}

// LoadFiles processa os arquivos no pool e devolve um resultado por arquivo,
// na ordem de conclusão. Se o contexto for cancelado, retorna os resultados
// já concluídos junto com ctx.Err().
func LoadFiles(ctx context.Context, pool *WorkerPool, files []string) ([]JobResult, error) {
	results := make(chan JobResult, len(files))

	pool.Start(ctx)
	for _, file := range files {
		if err := pool.Submit(ctx, Job{FilePath: file, Result: results}); err != nil {
			break
		}
	}
	pool.Stop()
	close(results)

	out := make([]JobResult, 0, len(files))
	for result := range results {
		out = append(out, result)
	}
	return out, ctx.Err()
}
