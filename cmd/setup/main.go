// Command setup walks through the one-time setup: it runs the SpareBank1
// OAuth consent flow in the browser, links each bank account to a YNAB
// account interactively, and writes accounts.json, budget.env and the
// initial refresh-token file that cmd/sync runs from.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/pkg/browser"

	sb1ynab "github.com/bjorngi/sparebank1-to-ynab"
	"github.com/bjorngi/sparebank1-to-ynab/internal/log"
	"github.com/bjorngi/sparebank1-to-ynab/internal/web"
	"github.com/bjorngi/sparebank1-to-ynab/reader/sparebank1"
	"github.com/bjorngi/sparebank1-to-ynab/writer/ynab"
)

const (
	callbackAddr     = "localhost:9050"
	accountsFile     = "accounts.json"
	envFile          = "budget.env"
	refreshTokenFile = "refresh_token.txt"
)

func Exit(msg string) {
	fmt.Println(msg)
	os.Exit(1)
}

// selectIndex prompts until the user enters a number between min and max
func selectIndex(in *bufio.Reader, out io.Writer, prompt string, min, max int) int {
	for {
		fmt.Fprintf(out, "%s [%d-%d]: ", prompt, min, max)
		line, err := in.ReadString('\n')
		if err != nil {
			Exit(fmt.Sprintf("Reading input: %s", err))
		}
		choice, err := strconv.Atoi(strings.TrimSpace(line))
		if err == nil && choice >= min && choice <= max {
			return choice
		}
		fmt.Fprintln(out, "Not a valid choice")
	}
}

// selectBudget picks the budget to import into, skipping the prompt when
// there is only one
func selectBudget(in *bufio.Reader, budgets []ynab.Budget) ynab.Budget {
	if len(budgets) == 1 {
		return budgets[0]
	}
	fmt.Println("YNAB budgets:")
	for i, budget := range budgets {
		fmt.Printf("%d: %s\n", i+1, budget.Name)
	}
	choice := selectIndex(in, os.Stdout, "Select budget to use", 1, len(budgets))
	return budgets[choice-1]
}

// linkAccounts interactively maps each bank account to a YNAB account,
// 0 skips an account
func linkAccounts(in *bufio.Reader, budget ynab.Budget, banks []sparebank1.Account, ynabAccounts []ynab.Account) sb1ynab.AccountMap {
	highlight := color.New(color.FgRed).SprintFunc()

	mapping := sb1ynab.AccountMap{}
	for _, bank := range banks {
		fmt.Printf("\nAccount setup for budget: %s\n", highlight(budget.Name))
		fmt.Println("YNAB accounts:")
		for i, account := range ynabAccounts {
			fmt.Printf("%d: %s\n", i+1, account.Name)
		}
		fmt.Printf("%s (%s, balance %s) -- link to, 0 to skip\n",
			highlight(bank.Name), bank.Number, bank.Balance.StringFixed(2))

		choice := selectIndex(in, os.Stdout, "Select account", 0, len(ynabAccounts))
		if choice > 0 {
			mapping[bank.Key] = ynabAccounts[choice-1].ID
		}
	}
	return mapping
}

func writeEnvFile(cfg sb1ynab.SpareBank1, ynabToken, budgetID, refreshToken string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "SPAREBANK1_CLIENT_ID=%s\n", cfg.ClientID)
	fmt.Fprintf(&b, "SPAREBANK1_CLIENT_SECRET=%s\n", cfg.ClientSecret)
	fmt.Fprintf(&b, "SPAREBANK1_FIN_INST=%s\n", cfg.FinInst)
	fmt.Fprintf(&b, "YNAB_BUDGET_ID=%s\n", budgetID)
	fmt.Fprintf(&b, "YNAB_ACCESS_TOKEN=%s\n", ynabToken)
	fmt.Fprintf(&b, "INITIAL_REFRESH_TOKEN=%s\n", refreshToken)
	fmt.Fprintf(&b, "ACCOUNT_CONFIG_PATH=%s\n", accountsFile)
	fmt.Fprintf(&b, "REFRESH_TOKEN_FILE_PATH=%s\n", refreshTokenFile)
	return os.WriteFile(envFile, []byte(b.String()), 0600)
}

func main() {
	clientID := flag.String("client-id", "", "SpareBank1 API client ID")
	clientSecret := flag.String("client-secret", "", "SpareBank1 API client secret")
	finInst := flag.String("fin-inst", "", "SpareBank1 financial institution, for example fid-ostlandet")
	ynabToken := flag.String("ynab-token", "", "YNAB personal access token")
	flag.Parse()

	if *clientID == "" || *clientSecret == "" || *finInst == "" || *ynabToken == "" {
		flag.Usage()
		os.Exit(1)
	}

	logger, err := log.NewLogger(slog.LevelInfo, false, "text")
	if err != nil {
		Exit(err.Error())
	}
	slog.SetDefault(logger)

	ctx := context.Background()
	stdin := bufio.NewReader(os.Stdin)

	auth := sparebank1.NewAuth(sb1ynab.SpareBank1{
		ClientID:     *clientID,
		ClientSecret: *clientSecret,
		FinInst:      *finInst,
	})

	// Bind the callback listener before opening the browser so the redirect
	// cannot be missed
	callback, err := web.Listen(callbackAddr, logger)
	if err != nil {
		Exit(fmt.Sprintf("Failed to listen for OAuth callback: %s", err))
	}
	defer callback.Close()

	state := uuid.NewString()
	consentURL := auth.AuthorizeURL(state)
	logger.Info("opening browser for consent", "url", consentURL)
	if err := browser.OpenURL(consentURL); err != nil {
		fmt.Printf("Open this URL in a browser to continue:\n%s\n", consentURL)
	}

	logger.Info("waiting for OAuth callback", "addr", callbackAddr)
	redirect, err := callback.Wait(ctx)
	if err != nil {
		Exit(fmt.Sprintf("Waiting for OAuth callback: %s", err))
	}
	if redirect.State != state {
		Exit("OAuth state mismatch, try again")
	}

	tokens, err := auth.Exchange(ctx, redirect.Code, redirect.State)
	if err != nil {
		Exit(fmt.Sprintf("Exchanging authorization code: %s", err))
	}
	logger.Info("authenticated with SpareBank1")

	banks, err := sparebank1.NewClient().Accounts(ctx, tokens.AccessToken)
	if err != nil {
		Exit(fmt.Sprintf("Fetching bank accounts: %s", err))
	}
	logger.Info("found bank accounts", "count", len(banks))

	ynabClient := ynab.NewClient(sb1ynab.YNAB{Token: *ynabToken}, nil)
	budgets, err := ynabClient.Budgets(ctx)
	if err != nil {
		Exit(fmt.Sprintf("Fetching YNAB budgets: %s", err))
	}
	if len(budgets) == 0 {
		Exit("No YNAB budgets found for this token")
	}
	budget := selectBudget(stdin, budgets)

	ynabClient = ynab.NewClient(sb1ynab.YNAB{Token: *ynabToken, BudgetID: budget.ID}, nil)
	ynabAccounts, err := ynabClient.Accounts(ctx)
	if err != nil {
		Exit(fmt.Sprintf("Fetching YNAB accounts: %s", err))
	}

	mapping := linkAccounts(stdin, budget, banks, ynabAccounts)
	if len(mapping) == 0 {
		Exit("No accounts linked, nothing to write")
	}

	file, err := os.Create(accountsFile)
	if err != nil {
		Exit(fmt.Sprintf("Writing %s: %s", accountsFile, err))
	}
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(mapping); err != nil {
		Exit(fmt.Sprintf("Writing %s: %s", accountsFile, err))
	}
	if err := file.Close(); err != nil {
		Exit(fmt.Sprintf("Writing %s: %s", accountsFile, err))
	}

	if err := os.WriteFile(refreshTokenFile, []byte(tokens.RefreshToken), 0600); err != nil {
		Exit(fmt.Sprintf("Writing %s: %s", refreshTokenFile, err))
	}

	cfg := sb1ynab.SpareBank1{ClientID: *clientID, ClientSecret: *clientSecret, FinInst: *finInst}
	if err := writeEnvFile(cfg, *ynabToken, budget.ID, tokens.RefreshToken); err != nil {
		Exit(fmt.Sprintf("Writing %s: %s", envFile, err))
	}

	logger.Info("setup complete",
		"accounts", len(mapping),
		"config", envFile,
		"mapping", accountsFile,
	)
}
