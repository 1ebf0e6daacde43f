package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeovahfialho/b3-portfolio/internal/config"
	"github.com/jeovahfialho/b3-portfolio/internal/domain"
	"github.com/jeovahfialho/b3-portfolio/internal/ingestion"
	"github.com/jeovahfialho/b3-portfolio/internal/ledger"
	"github.com/jeovahfialho/b3-portfolio/internal/quotes"
	"github.com/jeovahfialho/b3-portfolio/internal/service"
	"github.com/jeovahfialho/b3-portfolio/pkg/logger"
	"github.com/jeovahfialho/b3-portfolio/pkg/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	cfg        *config.Config
	files      []string
	startDate  string
	endDate    string
	quotesFile string
	asJSON     bool
	showStats  bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	var rootCmd = &cobra.Command{
		Use:   "b3-portfolio",
		Short: "Carteira de ações: custo médio, quantidade disponível e lucro",
		Long: `CLI para acompanhar uma carteira de ações a partir de arquivos de negociações.
Formato do CSV: DataHora;CodigoInstrumento;Nome;Operacao;Preco;Quantidade`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return logger.Init(cfg.LogLevel, cfg.LogFormat, cfg.Development())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			defer logger.Close()
			if !opts.showStats {
				return nil
			}
			return printMetrics(cmd.OutOrStdout(), prometheus.DefaultGatherer)
		},
	}

	rootCmd.PersistentFlags().StringSliceVarP(&opts.files, "file", "f", nil, "Arquivos CSV de negociações (aceita wildcards)")
	rootCmd.PersistentFlags().StringVarP(&opts.startDate, "start-date", "s", "", "Considera negociações a partir de (YYYY-MM-DD)")
	rootCmd.PersistentFlags().StringVarP(&opts.endDate, "end-date", "e", "", "Considera negociações até (YYYY-MM-DD)")
	rootCmd.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "Saída em JSON")
	rootCmd.PersistentFlags().BoolVar(&opts.showStats, "metrics", false, "Mostra as métricas coletadas ao final")

	// Comando load
	var loadCmd = &cobra.Command{
		Use:   "load [files...]",
		Short: "Carrega arquivos CSV e mostra o resumo da carga",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.files = append(opts.files, args...)
			return runLoad(cmd, opts)
		},
	}

	// Comando position
	var positionCmd = &cobra.Command{
		Use:   "position [ticker]",
		Short: "Mostra custo médio e quantidade disponível de um ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPosition(cmd, opts, args[0])
		},
	}

	// Comando profit
	var profitCmd = &cobra.Command{
		Use:   "profit [ticker] [amount] [price]",
		Short: "Simula o lucro de uma venda ao preço informado",
		Long: `Simula o lucro de vender a quantidade informada usando o custo médio atual.
A quantidade não é limitada ao disponível; o excesso é apenas sinalizado.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfit(cmd, opts, args[0], args[1], args[2])
		},
	}

	// Comando report
	var reportCmd = &cobra.Command{
		Use:   "report",
		Short: "Relatório de todas as posições",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, opts)
		},
	}

	reportCmd.Flags().StringVarP(&opts.quotesFile, "quotes", "q", "", "Arquivo YAML de cotações (padrão: QUOTES_FILE)")

	rootCmd.AddCommand(loadCmd, positionCmd, profitCmd, reportCmd)
	return rootCmd
}

func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("padrão inválido %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			files = append(files, pattern)
			continue
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("nenhum arquivo informado (use --file)")
	}
	return files, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("data inválida: %w", err)
	}
	return &parsed, nil
}

// dateFilter monta o filtro de período. A data final inclui o dia inteiro.
func dateFilter(opts *options) (domain.TradeFilter, error) {
	var f domain.TradeFilter

	start, err := parseDate(opts.startDate)
	if err != nil {
		return f, err
	}
	end, err := parseDate(opts.endDate)
	if err != nil {
		return f, err
	}
	if end != nil {
		last := end.Add(24*time.Hour - time.Nanosecond)
		end = &last
	}

	f.StartDate = start
	f.EndDate = end
	return f, nil
}

func loadLedger(cmd *cobra.Command, opts *options) (*service.LoadResult, error) {
	files, err := expandFiles(opts.files)
	if err != nil {
		return nil, err
	}
	filter, err := dateFilter(opts)
	if err != nil {
		return nil, err
	}

	parser := ingestion.NewParser(opts.cfg.BatchSize, opts.cfg.Workers).WithDelimiter(opts.cfg.Delimiter())
	svc := service.NewIngestionService(parser, opts.cfg.Workers, opts.cfg.BatchSize)

	result, err := svc.LoadFiles(cmd.Context(), files)
	if err != nil {
		return nil, err
	}

	for _, r := range result.Files {
		if r.Error != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "❌ Erro em %s: %v\n", r.FilePath, r.Error)
		}
	}

	result.Ledger = result.Ledger.Filter(filter)
	return result, nil
}

func runLoad(cmd *cobra.Command, opts *options) error {
	result, err := loadLedger(cmd, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.asJSON {
		return writeJSON(out, loadSummary(result))
	}

	fmt.Fprintf(out, "📥 %d arquivo(s) processado(s)\n\n", len(result.Files))
	for _, r := range result.Files {
		if r.Error != nil {
			continue
		}
		fmt.Fprintf(out, "✅ %d registros de %s", r.RecordsCount, r.FilePath)
		if len(r.Errors) > 0 {
			fmt.Fprintf(out, " (%d ignorados)", len(r.Errors))
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "\n📊 Total: %d negociações, %d ativos\n", result.Ledger.Len(), len(result.Ledger.Stocks()))
	return nil
}

type fileSummary struct {
	File    string `json:"file"`
	Records int64  `json:"records"`
	Skipped int    `json:"skipped"`
	Error   string `json:"error,omitempty"`
}

type summary struct {
	Files  []fileSummary `json:"files"`
	Trades int           `json:"trades"`
	Stocks int           `json:"stocks"`
}

func loadSummary(result *service.LoadResult) summary {
	s := summary{
		Files:  make([]fileSummary, 0, len(result.Files)),
		Trades: result.Ledger.Len(),
		Stocks: len(result.Ledger.Stocks()),
	}
	for _, r := range result.Files {
		fs := fileSummary{File: r.FilePath, Records: r.RecordsCount, Skipped: len(r.Errors)}
		if r.Error != nil {
			fs.Error = r.Error.Error()
		}
		s.Files = append(s.Files, fs)
	}
	return s
}

// stockFor usa o nome registrado no livro quando o ticker existir.
func stockFor(l *ledger.Ledger, ticker string) domain.Stock {
	want := domain.NewStock(ticker, "")
	for _, s := range l.Stocks() {
		if s.Matches(want) {
			return s
		}
	}
	return want
}

func runPosition(cmd *cobra.Command, opts *options, ticker string) error {
	result, err := loadLedger(cmd, opts)
	if err != nil {
		return err
	}

	svc := service.NewPortfolioService(result.Ledger, nil)
	pos := svc.Position(stockFor(result.Ledger, ticker))

	out := cmd.OutOrStdout()
	if opts.asJSON {
		return writeJSON(out, pos)
	}

	fmt.Fprintf(out, "\n📊 Posição em %s:\n", displayName(pos.Ticker, pos.Name))
	fmt.Fprintf(out, "├─ Custo Médio: R$ %s\n", pos.AverageCost.StringFixed(ledger.CostPlaces))
	fmt.Fprintf(out, "├─ Disponível: %s\n", pos.Available.String())
	fmt.Fprintf(out, "└─ Valor Investido: R$ %s\n", pos.InvestedValue.StringFixed(2))
	return nil
}

func runProfit(cmd *cobra.Command, opts *options, ticker, amountStr, priceStr string) error {
	amount, err := ingestion.ParseDecimal(amountStr)
	if err != nil {
		return fmt.Errorf("quantidade inválida: %w", err)
	}
	price, err := ingestion.ParseDecimal(priceStr)
	if err != nil {
		return fmt.Errorf("preço inválido: %w", err)
	}

	result, err := loadLedger(cmd, opts)
	if err != nil {
		return err
	}

	svc := service.NewPortfolioService(result.Ledger, nil)
	sale := svc.SimulateSale(stockFor(result.Ledger, ticker), amount, price)

	out := cmd.OutOrStdout()
	if opts.asJSON {
		return writeJSON(out, sale)
	}

	fmt.Fprintf(out, "\n💰 Venda simulada de %s %s a R$ %s:\n", sale.Amount, sale.Ticker, sale.UnitSellPrice)
	fmt.Fprintf(out, "├─ Custo Médio: R$ %s\n", sale.AverageCost.StringFixed(ledger.CostPlaces))
	fmt.Fprintf(out, "├─ Disponível: %s\n", sale.Available)
	fmt.Fprintf(out, "└─ Lucro: R$ %s\n", sale.Profit.StringFixed(2))
	if sale.ExceedsAvailable {
		fmt.Fprintln(out, "\n⚠️  Quantidade acima do disponível (simulação não limitada)")
	}
	return nil
}

func runReport(cmd *cobra.Command, opts *options) error {
	result, err := loadLedger(cmd, opts)
	if err != nil {
		return err
	}

	quotesFile := opts.quotesFile
	if quotesFile == "" {
		quotesFile = opts.cfg.QuotesFile
	}

	var source quotes.Source
	if quotesFile != "" {
		q, err := quotes.LoadFile(quotesFile)
		if err != nil {
			return err
		}
		logger.Debug("cotações carregadas", zap.String("file", quotesFile), zap.Int("tickers", len(q)))
		source = q
	}

	report, err := service.NewPortfolioService(result.Ledger, source).Report()
	if err != nil {
		return fmt.Errorf("erro ao gerar relatório: %w", err)
	}

	out := cmd.OutOrStdout()
	if opts.asJSON {
		return writeJSON(out, report)
	}
	printReport(out, report)
	return nil
}

func printReport(out io.Writer, report *service.PortfolioReport) {
	fmt.Fprintf(out, "📊 Carteira (%d negociações)\n\n", report.TradeCount)
	fmt.Fprintf(out, "%-8s %14s %12s %16s %12s %16s\n",
		"Ticker", "Disponível", "Custo Médio", "Investido", "Cotação", "Lucro")

	for _, p := range report.Positions {
		price, profit := "-", "-"
		if p.MarketPrice != nil {
			price = p.MarketPrice.StringFixed(2)
		}
		if p.UnrealizedProfit != nil {
			profit = p.UnrealizedProfit.StringFixed(2)
		}
		fmt.Fprintf(out, "%-8s %14s %12s %16s %12s %16s\n",
			p.Ticker,
			p.Available.String(),
			p.AverageCost.StringFixed(ledger.CostPlaces),
			p.InvestedValue.StringFixed(2),
			price,
			profit)
	}

	fmt.Fprintf(out, "\n💼 Total investido: R$ %s\n", report.TotalInvested.StringFixed(2))
	fmt.Fprintf(out, "📈 Lucro não realizado: R$ %s\n", report.UnrealizedProfit.StringFixed(2))
	if len(report.MissingQuotes) > 0 {
		fmt.Fprintf(out, "⚠️  Sem cotação: %v\n", report.MissingQuotes)
	}
}

func printMetrics(out io.Writer, g prometheus.Gatherer) error {
	samples, err := metrics.Snapshot(g)
	if err != nil {
		return fmt.Errorf("erro ao coletar métricas: %w", err)
	}
	fmt.Fprintln(out, "\n📏 Métricas:")
	for _, s := range samples {
		fmt.Fprintf(out, "   %s %g\n", s.Name, s.Value)
	}
	return nil
}

func displayName(ticker, name string) string {
	return domain.NewStock(ticker, name).String()
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
