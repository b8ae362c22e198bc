// Package sb1ynab synchronizes transactions from the SpareBank1 personal
// banking API into a You Need a Budget (YNAB) budget. The root package holds
// the canonical transaction model and configuration shared by the reader and
// writer packages.
package sb1ynab

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Milliunits represents 1/1000 of a currency unit, YNABs integer amount
// format.
type Milliunits int64

func (m Milliunits) String() string {
	return strconv.FormatInt(int64(m), 10)
}

// MilliunitsFromAmount returns a currency amount in milliunits. The
// multiplication happens in single precision to match the banks wire format
// and the conversion truncates toward zero, so a fractional milliunit
// remainder is dropped and -0.0 becomes 0.
func MilliunitsFromAmount(amount float32) Milliunits {
	return Milliunits(amount * 1000)
}

// AccountMap maps SpareBank1 account keys to YNAB account IDs
type AccountMap map[string]string

// Decode implements `envconfig.Decoder` for AccountMap to decode JSON properly
func (accountMap *AccountMap) Decode(value string) error {
	err := json.Unmarshal([]byte(value), &accountMap)
	if err != nil {
		return err
	}
	return nil
}

// Keys returns the bank side of the mapping, the account keys to fetch
// transactions for.
func (accountMap AccountMap) Keys() []string {
	keys := make([]string, 0, len(accountMap))
	for key := range accountMap {
		keys = append(keys, key)
	}
	return keys
}

// LoadAccountMap reads an account mapping from a JSON file of account key to
// YNAB account ID, as written by cmd/setup.
func LoadAccountMap(path string) (AccountMap, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, ConfigError{Setting: "ACCOUNT_CONFIG_PATH", Err: err}
	}
	var accountMap AccountMap
	if err := json.Unmarshal(file, &accountMap); err != nil {
		return nil, ConfigError{
			Setting: "ACCOUNT_CONFIG_PATH",
			Err:     fmt.Errorf("parsing %s: %w", path, err),
		}
	}
	return accountMap, nil
}

// Transaction represents a single bank transaction as fetched from
// SpareBank1
type Transaction struct {
	// ID is the banks transaction ID, informational only
	ID string `json:"id"`

	// Amount in major currency units (NOK). Single precision because thats
	// what the bank reports; the import-id rendering in writer/ynab depends
	// on it.
	Amount float32 `json:"amount"`

	// Date is the instant of the transaction in UTC. The civil date YNAB
	// sees is derived in Europe/Oslo, see OsloDate.
	Date time.Time `json:"date"`

	Payee string `json:"payee"`
	Memo  string `json:"memo"`

	// Account is the SpareBank1 account key the transaction belongs to. It
	// must have an entry in the AccountMap to be importable.
	Account string `json:"account"`
}
