package ingestion

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jeovahfialho/b3-portfolio/internal/domain"
	"github.com/jeovahfialho/b3-portfolio/pkg/metrics"
	"github.com/shopspring/decimal"
)

// Colunas do arquivo de negociações:
// DataHora;CodigoInstrumento;Nome;Operacao;Preco;Quantidade
const (
	colTimestamp = iota
	colTicker
	colName
	colOperation
	colPrice
	colAmount
	numColumns
)

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

type Parser struct {
	batchSize int
	workers   int
	comma     rune
}

func NewParser(batchSize, workers int) *Parser {
	if batchSize <= 0 {
		batchSize = 1
	}
	if workers <= 0 {
		workers = 1
	}
	return &Parser{
		batchSize: batchSize,
		workers:   workers,
		comma:     ';',
	}
}

// WithDelimiter troca o separador de colunas (padrão ';').
func (p *Parser) WithDelimiter(comma rune) *Parser {
	p.comma = comma
	return p
}

type ParseResult struct {
	Trades []domain.Trade
	Errors []error
}

type line struct {
	number int
	record []string
}

// ParseFile lê o cabeçalho e distribui os registros entre os workers. A ordem
// das negociações no resultado não é garantida.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) (*ParseResult, error) {
	csvReader := csv.NewReader(reader)
	csvReader.Comma = p.comma
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	if _, err := csvReader.Read(); err != nil {
		if err == io.EOF {
			return &ParseResult{}, nil
		}
		return nil, fmt.Errorf("erro ao ler cabeçalho: %w", err)
	}

	jobs := make(chan line, p.workers*2)
	results := make(chan *ParseResult, p.workers)
	readErrs := make(chan []error, 1)

	var wg sync.WaitGroup

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go p.worker(ctx, jobs, results, &wg)
	}

	go func() {
		var errs []error
		defer func() { readErrs <- errs }()
		defer close(jobs)

		for {
			record, err := csvReader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				metrics.RecordTradeParsed("error")
				errs = append(errs, err)
				var parseErr *csv.ParseError
				if errors.As(err, &parseErr) {
					continue
				}
				return
			}

			number, _ := csvReader.FieldPos(0)
			select {
			case <-ctx.Done():
				return
			case jobs <- line{number: number, record: record}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	finalResult := &ParseResult{
		Trades: make([]domain.Trade, 0, p.batchSize),
		Errors: make([]error, 0),
	}

	for result := range results {
		finalResult.Trades = append(finalResult.Trades, result.Trades...)
		finalResult.Errors = append(finalResult.Errors, result.Errors...)
	}

	finalResult.Errors = append(finalResult.Errors, <-readErrs...)

	if err := ctx.Err(); err != nil {
		return finalResult, err
	}

	return finalResult, nil
}

func (p *Parser) worker(ctx context.Context, jobs <-chan line,
	results chan<- *ParseResult, wg *sync.WaitGroup) {

	defer wg.Done()

	batch := &ParseResult{
		Trades: make([]domain.Trade, 0, p.batchSize),
	}

	for {
		select {
		case <-ctx.Done():
			if len(batch.Trades) > 0 || len(batch.Errors) > 0 {
				results <- batch
			}
			return

		case job, ok := <-jobs:
			if !ok {
				if len(batch.Trades) > 0 || len(batch.Errors) > 0 {
					results <- batch
				}
				return
			}

			trade, err := ParseRecord(job.record)
			if err != nil {
				metrics.RecordTradeParsed("error")
				batch.Errors = append(batch.Errors, fmt.Errorf("linha %d: %w", job.number, err))
				continue
			}

			metrics.RecordTradeParsed("success")
			batch.Trades = append(batch.Trades, trade)

			if len(batch.Trades) >= p.batchSize {
				results <- batch
				batch = &ParseResult{
					Trades: make([]domain.Trade, 0, p.batchSize),
				}
			}
		}
	}
}

// ParseRecord converte um registro do CSV em negociação. Sinal de preço e
// quantidade não é validado.
func ParseRecord(record []string) (domain.Trade, error) {
	if len(record) < numColumns {
		return domain.Trade{}, fmt.Errorf("registro inválido: %v", record)
	}

	timestamp, err := parseTimestamp(record[colTimestamp])
	if err != nil {
		return domain.Trade{}, err
	}

	ticker := strings.TrimSpace(record[colTicker])
	if ticker == "" {
		return domain.Trade{}, fmt.Errorf("ticker vazio: %v", record)
	}

	op, err := domain.ParseOperation(record[colOperation])
	if err != nil {
		return domain.Trade{}, err
	}

	price, err := ParseDecimal(record[colPrice])
	if err != nil {
		return domain.Trade{}, fmt.Errorf("preço inválido: %w", err)
	}

	amount, err := ParseDecimal(record[colAmount])
	if err != nil {
		return domain.Trade{}, fmt.Errorf("quantidade inválida: %w", err)
	}

	stock := domain.NewStock(ticker, strings.TrimSpace(record[colName]))
	return domain.NewTrade(stock, price, amount, op, timestamp), nil
}

// ParseDecimal aceita vírgula como separador decimal.
func ParseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.Replace(strings.TrimSpace(s), ",", ".", -1))
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("data inválida: %q", s)
}
