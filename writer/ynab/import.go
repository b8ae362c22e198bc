package ynab

import (
	"fmt"
	"strconv"
	"strings"

	sb1ynab "github.com/bjorngi/sparebank1-to-ynab"
)

// Transaction is the YNAB wire format for one imported transaction
type Transaction struct {
	Date      string `json:"date"`
	AccountID string `json:"account_id"`
	Amount    int64  `json:"amount"`
	PayeeName string `json:"payee_name"`
	Cleared   string `json:"cleared"`
	Memo      string `json:"memo"`
	ImportID  string `json:"import_id"`
}

// amountString renders an amount for use inside an import id. Import ids are
// compared against ids written by every previous run, so the rendering is a
// persisted contract and must never change: the shortest decimal string that
// round-trips the single-precision value, with ".0" appended to integral
// values. Without the forced decimal point "SB1:-50" would be a prefix of
// "SB1:-500" and the occurrence scan below matches by prefix.
//
// Examples: -127.5, -50.0, 0.01, 1234.56
func amountString(amount float32) string {
	s := strconv.FormatFloat(float64(amount), 'f', -1, 32)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// importPrefix returns the amount-and-date part of the import id, for
// example "SB1:-127.5:2024-01-01"
func importPrefix(t sb1ynab.Transaction) string {
	return fmt.Sprintf("SB1:%s:%s", amountString(t.Amount), sb1ynab.OsloDate(t.Date))
}

// buildTransactions converts a batch of bank transactions into YNAB payloads,
// assigning each an import id that is unique within the batch and
// reproducible across runs. YNAB skips transactions whose import id it has
// seen within its lookback window, which is what makes re-running the sync
// safe.
//
// Transactions sharing an amount and Oslo civil date are disambiguated by an
// occurrence counter in input order: the first gets :1, the next :2, and so
// on. The counter is the number of prefixes pushed so far in the batch,
// current one included, that the current prefix matches. Matching uses
// strings.HasPrefix rather than equality to reproduce the established id
// sequence exactly.
//
// An account key without a mapping fails the whole batch; no partial list is
// returned.
func buildTransactions(batch []sb1ynab.Transaction, accounts sb1ynab.AccountMap) ([]Transaction, error) {
	seen := make([]string, 0, len(batch))
	out := make([]Transaction, 0, len(batch))
	for _, t := range batch {
		prefix := importPrefix(t)
		seen = append(seen, prefix)

		occurrence := 0
		for _, previous := range seen {
			if strings.HasPrefix(previous, prefix) {
				occurrence++
			}
		}

		accountID, ok := accounts[t.Account]
		if !ok {
			return nil, sb1ynab.UnmappedAccountError{AccountKey: t.Account}
		}

		out = append(out, Transaction{
			Date:      sb1ynab.OsloDate(t.Date),
			AccountID: accountID,
			Amount:    int64(sb1ynab.MilliunitsFromAmount(t.Amount)),
			PayeeName: t.Payee,
			Cleared:   "cleared",
			Memo:      t.Memo,
			ImportID:  fmt.Sprintf("%s:%d", prefix, occurrence),
		})
	}
	return out, nil
}
