// Command sync runs one fetch → derive → submit pass: it refreshes the
// SpareBank1 access token, fetches transactions for every mapped account, and
// imports them into YNAB. Duplicate submissions are skipped by YNAB based on
// the derived import ids, so running it repeatedly is safe.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/carlmjohnson/versioninfo"
	"github.com/kelseyhightower/envconfig"

	sb1ynab "github.com/bjorngi/sparebank1-to-ynab"
	"github.com/bjorngi/sparebank1-to-ynab/internal/log"
	"github.com/bjorngi/sparebank1-to-ynab/reader/sparebank1"
	"github.com/bjorngi/sparebank1-to-ynab/writer/ynab"
)

func setupLogging(logLevel, logFormat string) {
	programLevel, err := log.ParseLevel(logLevel)
	if err != nil {
		Exit(fmt.Sprintf("Error parsing log level: %s", err))
	}

	// Add source information for debug or lower
	addSource := programLevel <= slog.LevelDebug

	logger, err := log.NewLogger(programLevel, addSource, logFormat)
	if err != nil {
		Exit(fmt.Sprintf("Error creating logger: %s", err))
	}
	slog.SetDefault(logger)
}

func Exit(msg string) {
	fmt.Println(msg)
	os.Exit(1)
}

func main() {
	dryRun := flag.Bool("dry-run", false, "list fetched transactions without writing to YNAB")
	flag.Parse()

	// Read config from env
	var cfg sb1ynab.Config
	if err := envconfig.Process("", &cfg); err != nil {
		Exit(err.Error())
	}

	setupLogging(cfg.LogLevel, cfg.LogFormat)
	logger := slog.Default()
	logger.Info("starting sync", "version", versioninfo.Short())

	if err := cfg.Validate(); err != nil {
		log.Fatal(logger, "invalid config", "error", err)
	}

	accounts, err := cfg.Accounts()
	if err != nil {
		log.Fatal(logger, "loading account map", "error", err)
	}
	logger.Info("loaded account map", "accounts", len(accounts))

	ctx := context.Background()

	auth := sparebank1.NewAuth(cfg.SpareBank1)
	accessToken, err := auth.AccessToken(ctx)
	if err != nil {
		log.Fatal(logger, "authorizing with SpareBank1", "error", err)
	}

	reader := sparebank1.NewClient()
	batch, err := reader.Transactions(ctx, accessToken, accounts.Keys())
	if err != nil {
		log.Fatal(logger, "reading transactions", "error", err)
	}

	if *dryRun || cfg.DryRun {
		logger.Warn("dry-run, nothing will be written to YNAB")
		for _, t := range batch {
			logger.Info("would import",
				"date", sb1ynab.OsloDate(t.Date),
				"payee", t.Payee,
				"amount", t.Amount,
				"memo", t.Memo,
			)
		}
		return
	}

	writer := ynab.NewClient(cfg.YNAB, accounts)
	result, err := writer.CreateTransactions(ctx, batch)
	if err != nil {
		log.Fatal(logger, "writing to YNAB", "error", err)
	}

	logger.Info("sync complete",
		"created", len(result.TransactionIDs),
		"duplicates", len(result.DuplicateImportIDs),
	)
}
