package sb1ynab

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/kelseyhightower/envconfig"
)

func validConfig() Config {
	return Config{
		AccountConfigPath: "accounts.json",
		SpareBank1: SpareBank1{
			ClientID:     "client-1",
			ClientSecret: "secret-1",
		},
		YNAB: YNAB{
			Token:    "token-1",
			BudgetID: "budget-1",
		},
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SPAREBANK1_CLIENT_ID", "client-1")
	t.Setenv("ACCOUNT_MAP", `{"key-1": "ynab-1"}`)

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		t.Fatal(err)
	}

	if cfg.SpareBank1.ClientID != "client-1" {
		t.Errorf("ClientID = %q", cfg.SpareBank1.ClientID)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel default = %q, want info", cfg.LogLevel)
	}
	if cfg.SpareBank1.RefreshTokenPath != "refresh_token.txt" {
		t.Errorf("RefreshTokenPath default = %q", cfg.SpareBank1.RefreshTokenPath)
	}
	if !reflect.DeepEqual(cfg.AccountMap, AccountMap{"key-1": "ynab-1"}) {
		t.Errorf("AccountMap = %v", cfg.AccountMap)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantSetting string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:        "missing client id",
			mutate:      func(c *Config) { c.SpareBank1.ClientID = "" },
			wantSetting: "SPAREBANK1_CLIENT_ID",
		},
		{
			name:        "missing client secret",
			mutate:      func(c *Config) { c.SpareBank1.ClientSecret = "" },
			wantSetting: "SPAREBANK1_CLIENT_SECRET",
		},
		{
			name:        "missing ynab token",
			mutate:      func(c *Config) { c.YNAB.Token = "" },
			wantSetting: "YNAB_ACCESS_TOKEN",
		},
		{
			name:        "missing budget id",
			mutate:      func(c *Config) { c.YNAB.BudgetID = "" },
			wantSetting: "YNAB_BUDGET_ID",
		},
		{
			name:        "no account mapping at all",
			mutate:      func(c *Config) { c.AccountConfigPath = "" },
			wantSetting: "ACCOUNT_CONFIG_PATH",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantSetting == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			configErr, ok := err.(ConfigError)
			if !ok {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if configErr.Setting != tt.wantSetting {
				t.Errorf("setting = %q, want %q", configErr.Setting, tt.wantSetting)
			}
		})
	}
}

func TestConfigAccounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")
	if err := os.WriteFile(path, []byte(`{"file-key": "file-ynab"}`), 0600); err != nil {
		t.Fatal(err)
	}

	// Inline map wins over the file
	cfg := Config{
		AccountConfigPath: path,
		AccountMap:        AccountMap{"inline-key": "inline-ynab"},
	}
	got, err := cfg.Accounts()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, AccountMap{"inline-key": "inline-ynab"}) {
		t.Errorf("got %v, want inline map", got)
	}

	// Without an inline map the file is used
	cfg.AccountMap = nil
	got, err = cfg.Accounts()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, AccountMap{"file-key": "file-ynab"}) {
		t.Errorf("got %v, want file map", got)
	}
}
