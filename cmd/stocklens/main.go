package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"StockLens/internal/analysis"
	"StockLens/internal/api"
	"StockLens/internal/commentary"
	"StockLens/internal/config"
	"StockLens/internal/export"
	"StockLens/internal/logging"
	"StockLens/internal/model"
	"StockLens/internal/notifier"
	"StockLens/internal/provider"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	var (
		configFlag = flag.String("config", cfgPath, "path to YAML config")
		symbol     = flag.String("symbol", "", "ticker to analyze (default from config)")
		dateRange  = flag.String("range", "", "date range: 1 Day, 3 Days, 1 Month, 3 Months, 1 Year")
		timeframe  = flag.String("timeframe", "", "timeframe: 1 Minute, 5 Minutes, 15 Minutes, 30 Minutes, 1 Hour, 1 Day")
		withLLM    = flag.Bool("commentary", false, "ask the language model for commentary")
		search     = flag.String("search", "", "look up a ticker by company name and exit")
		csvOut     = flag.String("csv", "", "write the historical series to this directory as <SYMBOL>_historical_data.csv")
		notify     = flag.Bool("notify", false, "push the report to the configured Telegram chat")
		serve      = flag.Bool("serve", false, "run the HTTP API")
		bot        = flag.Bool("bot", false, "answer Telegram commands")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	errLog, err := logging.Open(cfg.Log.ErrorFile)
	if err != nil {
		log.Fatalf("[FATAL] open error log: %v", err)
	}
	defer errLog.Close()

	gw := buildGateway(cfg)
	log.Printf("[INFO] data source: %s", gw.Name())

	analyzer := analysis.New(gw, errLog, analysis.OptionsFromConfig(cfg))
	if cfg.Commentary.APIKey != "" {
		analyzer.Commentator = commentary.NewClient(commentary.Config{
			APIKey:      cfg.Commentary.APIKey,
			BaseURL:     cfg.Commentary.BaseURL,
			Model:       cfg.Commentary.Model,
			MaxTokens:   cfg.Commentary.MaxTokens,
			Temperature: cfg.Commentary.Temperature,
			Proxy:       cfg.Proxy,
		})
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *serve || *bot {
		runServices(ctx, cfg, analyzer, *serve, *bot)
		return
	}

	if *search != "" {
		sym, err := analyzer.Search(ctx, *search)
		if err != nil {
			if errors.Is(err, provider.ErrNoData) {
				fmt.Printf("Could not find symbol for %s\n", *search)
				os.Exit(1)
			}
			log.Fatalf("[FATAL] search: %v", err)
		}
		fmt.Println(notifier.FormatSymbol(*search, sym, notifier.StyleText))
		return
	}

	in := analysis.Input{
		Symbol:     firstNonEmpty(*symbol, cfg.Defaults.Symbol),
		Range:      firstNonEmpty(*dateRange, cfg.Defaults.Range),
		Timeframe:  firstNonEmpty(*timeframe, cfg.Defaults.Timeframe),
		Commentary: *withLLM || cfg.Commentary.Enabled,
	}

	report, err := analyzer.Analyze(ctx, in)
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	fmt.Println(notifier.FormatReport(report, notifier.StyleText))

	if *csvOut != "" {
		if report.History.OK() {
			if err := writeCSV(*csvOut, report); err != nil {
				log.Fatalf("[FATAL] %v", err)
			}
		} else {
			log.Printf("[WARN] no historical data to export for %s", report.Symbol)
		}
	}

	if *notify {
		if !cfg.TelegramEnabled() {
			log.Fatalf("[FATAL] -notify needs telegram.bot_token and telegram.chat_id")
		}
		tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		if err := tn.SendWithRetry(ctx, notifier.FormatReport(report, notifier.StyleHTML), 3); err != nil {
			errLog.Errorf("telegram", "push report %s: %v", report.RunID, err)
			os.Exit(1)
		}
		log.Printf("[INFO] report %s pushed to Telegram", report.RunID)
	}
}

func buildGateway(cfg *config.Config) provider.Gateway {
	yahoo := provider.NewYahooClient(cfg.DataSource.YahooBaseURL, cfg.Proxy)
	if cfg.DataSource.Primary == config.PrimaryYahoo {
		return provider.NewSingle(yahoo)
	}
	polygon := provider.NewPolygonClient(cfg.DataSource.PolygonBaseURL, cfg.DataSource.PolygonAPIKey, cfg.Proxy, cfg.DataSource.MaxPages)
	return provider.NewPolygonYahoo(polygon, yahoo)
}

func writeCSV(dir string, report *model.Report) error {
	path := filepath.Join(dir, export.Filename(report.Symbol))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := export.WriteCSV(f, report.History.Series); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Printf("[INFO] wrote %d rows to %s", report.History.Series.Len(), path)
	return f.Close()
}

// runServices blocks until ctx is cancelled, or until the bot stops on its own
// when it is the only service.
func runServices(ctx context.Context, cfg *config.Config, analyzer *analysis.Analyzer, serve, bot bool) {
	ctx, stop := context.WithCancel(ctx)
	defer stop()
	var wg sync.WaitGroup

	if bot {
		if !cfg.TelegramEnabled() {
			log.Fatalf("[FATAL] -bot needs telegram.bot_token and telegram.chat_id")
		}
		tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		b := &notifier.Bot{
			Analyzer:         analyzer,
			DefaultRange:     cfg.Defaults.Range,
			DefaultTimeframe: cfg.Defaults.Timeframe,
			Commentary:       cfg.Commentary.Enabled,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := tn.StartPolling(ctx, b.HandleCommand); err != nil && !serve {
				// Nothing else is running without the bot.
				stop()
			}
		}()
		log.Println("[INFO] Telegram polling started")
	}

	if serve {
		h := api.NewHandler(analyzer, cfg.Defaults.Range, cfg.Defaults.Timeframe)
		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           api.WithCORS(api.SetupRoutes(h)),
			ReadHeaderTimeout: 10 * time.Second,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Printf("[INFO] HTTP API listening on %s", cfg.Server.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[ERROR] http server: %v", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("[WARN] http shutdown: %v", err)
			}
		}()
	}

	log.Println("[INFO] StockLens is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Println("[INFO] shutdown signal received, stopping...")
	wg.Wait()
	log.Println("[INFO] StockLens stopped")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
