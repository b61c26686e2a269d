package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fjod/go_pos/internal/apiclient"
	"github.com/fjod/go_pos/internal/cart"
	"github.com/fjod/go_pos/internal/catalog"
	"github.com/fjod/go_pos/internal/config"
	h "github.com/fjod/go_pos/internal/http"
	"github.com/fjod/go_pos/internal/invoice"
	"github.com/fjod/go_pos/internal/logger"
	"github.com/fjod/go_pos/internal/pricing"
	"github.com/fjod/go_pos/internal/refdata"
	"github.com/fjod/go_pos/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	app := &cli.App{
		Name:  "pos-gateway",
		Usage: "point-of-sale gateway in front of the store API",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP gateway",
				Action: serve,
			},
			{
				Name:  "catalog",
				Usage: "print the remote catalog",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "filter by product or category name"},
				},
				Action: printCatalog,
			},
			{
				Name:   "receipts",
				Usage:  "print receipts from invoice events",
				Action: printReceipts,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup() (*config.Config, zerolog.Logger, *apiclient.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.LogLevel, os.Stdout)

	client, err := apiclient.New(apiclient.Options{
		BaseURL:            cfg.APIBaseURL,
		Timeout:            cfg.RequestTimeout,
		RateLimit:          cfg.APIRateLimit,
		Burst:              cfg.APIBurst,
		BreakerMaxFailures: cfg.BreakerMaxFailures,
		BreakerOpenTimeout: cfg.BreakerOpenTimeout,
		Logger:             &log,
	})
	if err != nil {
		return nil, log, nil, fmt.Errorf("create api client: %w", err)
	}
	return cfg, log, client, nil
}

func serve(c *cli.Context) error {
	cfg, log, client, err := setup()
	if err != nil {
		return err
	}

	deps := session.Deps{
		RefData: refdata.NewLoader(refdata.APISource{Client: client}),
		Remotes: session.RemotesFromClient(client),
		Orders:  client,
		Logger:  log,
	}

	// Set up Redis cart cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(c.Context, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis not reachable at startup")
		}
		deps.Cache = cart.NewRedisCache(rdb)
		log.Info().Str("addr", cfg.RedisAddr).Msg("cart cache enabled")
	}

	// Set up invoice events
	if len(cfg.KafkaBrokers) > 0 {
		pub := invoice.NewPublisher(cfg.InvoiceTopic, cfg.KafkaBrokers...)
		defer pub.Close()
		deps.Publisher = pub
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.InvoiceTopic).Msg("invoice events enabled")
	}

	sessions := session.NewManager(deps, cfg.SessionIdleTTL)
	defer sessions.Close()

	router := h.NewRouter(h.RouterConfig{
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		Logger:             log,
	}, sessions)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "pos-gateway"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("api", cfg.APIBaseURL).Msg("POS gateway starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	log.Info().Msg("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server exited")
	return nil
}

// printCatalog is an operator smoke test of the API client path.
func printCatalog(c *cli.Context) error {
	_, log, client, err := setup()
	if err != nil {
		return err
	}

	browser := catalog.NewBrowser(refdata.NewLoader(refdata.APISource{Client: client}), stderrNotifier{}, log)
	if err := browser.Load(c.Context); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range browser.Filter(c.String("query")) {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", p.ID, p.Name, p.CategoryName, pricing.Money(p.Price), p.StockQuantity)
	}
	return tw.Flush()
}

// printReceipts consumes invoice events and prints each receipt to stdout.
func printReceipts(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if len(cfg.KafkaBrokers) == 0 {
		return errors.New("POS_KAFKA_BROKERS must be set to print receipts")
	}
	log := logger.New(cfg.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	printer := invoice.NewPrinter(cfg.InvoiceTopic, cfg.InvoiceGroup, os.Stdout, log, cfg.KafkaBrokers...)
	defer printer.Close()

	log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.InvoiceTopic).Msg("receipt printer started")
	printer.Run(ctx)
	return nil
}

type stderrNotifier struct{}

func (stderrNotifier) Notify(source, message string) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", source, message)
}
