package sb1ynab

// Config is loaded from the environment once at startup and passed into the
// reader and writer constructors, there is no ambient configuration state.
type Config struct {
	// LogLevel sets the minimum log level: trace, debug, info, warn, error
	// or fatal
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// LogFormat sets the output format, text or json
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	// DryRun lists the fetched transactions without writing anything to
	// YNAB. The --dry-run flag on cmd/sync does the same.
	DryRun bool `envconfig:"DRY_RUN" default:"false"`

	// AccountConfigPath points to the accounts.json written by cmd/setup
	AccountConfigPath string `envconfig:"ACCOUNT_CONFIG_PATH"`

	// AccountMap is an inline JSON alternative to AccountConfigPath, for
	// example: '{"<account key>": "<ynab account id>"}'. When set it takes
	// precedence over the file.
	AccountMap AccountMap `envconfig:"ACCOUNT_MAP"`

	SpareBank1 SpareBank1
	YNAB       YNAB
}

// SpareBank1 related settings
type SpareBank1 struct {
	// ClientID and ClientSecret identify this integration with the
	// SpareBank1 API
	ClientID     string `envconfig:"SPAREBANK1_CLIENT_ID"`
	ClientSecret string `envconfig:"SPAREBANK1_CLIENT_SECRET"`

	// FinInst is the financial institution passed to the consent flow, for
	// example fid-ostlandet. Only used by cmd/setup.
	FinInst string `envconfig:"SPAREBANK1_FIN_INST"`

	// RefreshTokenPath is the file holding the current refresh token. The
	// bank rotates the token on every use so the file is rewritten after
	// each run.
	RefreshTokenPath string `envconfig:"REFRESH_TOKEN_FILE_PATH" default:"refresh_token.txt"`

	// InitialRefreshToken seeds the first run, before RefreshTokenPath
	// exists
	InitialRefreshToken string `envconfig:"INITIAL_REFRESH_TOKEN"`
}

// YNAB related settings
type YNAB struct {
	// Token is a personal access token from the YNAB developer settings
	Token string `envconfig:"YNAB_ACCESS_TOKEN"`

	// BudgetID of the budget to import transactions into
	BudgetID string `envconfig:"YNAB_BUDGET_ID"`
}

// Validate checks that everything a sync run depends on is present
func (c Config) Validate() error {
	switch {
	case c.SpareBank1.ClientID == "":
		return ConfigError{Setting: "SPAREBANK1_CLIENT_ID"}
	case c.SpareBank1.ClientSecret == "":
		return ConfigError{Setting: "SPAREBANK1_CLIENT_SECRET"}
	case c.YNAB.Token == "":
		return ConfigError{Setting: "YNAB_ACCESS_TOKEN"}
	case c.YNAB.BudgetID == "":
		return ConfigError{Setting: "YNAB_BUDGET_ID"}
	case c.AccountConfigPath == "" && len(c.AccountMap) == 0:
		return ConfigError{Setting: "ACCOUNT_CONFIG_PATH"}
	}
	return nil
}

// Accounts returns the account mapping, preferring the inline ACCOUNT_MAP
// over the file
func (c Config) Accounts() (AccountMap, error) {
	if len(c.AccountMap) > 0 {
		return c.AccountMap, nil
	}
	return LoadAccountMap(c.AccountConfigPath)
}
