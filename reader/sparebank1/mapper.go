package sparebank1

import (
	"time"

	sb1ynab "github.com/bjorngi/sparebank1-to-ynab"
)

// toTransaction maps the banks wire format to the canonical transaction. The
// millisecond timestamp is truncated to whole seconds and interpreted as UTC;
// the Oslo civil date is derived later, when the YNAB payload is built.
func toTransaction(wire wireTransaction) sb1ynab.Transaction {
	return sb1ynab.Transaction{
		ID:      wire.ID,
		Amount:  wire.Amount,
		Date:    time.Unix(wire.Date/1000, 0).UTC(),
		Payee:   wire.CleanedDescription,
		Memo:    wire.Description,
		Account: wire.AccountKey,
	}
}
