package sb1ynab

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// DateFormat is the date format YNAB expects: YYYY-MM-DD.
const DateFormat = "2006-01-02"

// oslo is the banks civil calendar. Transactions arrive as instants but YNAB
// wants the date the customer saw on their statement, which shifts with DST.
// A fixed offset is not good enough; the zone database is embedded via
// time/tzdata so the lookup works on hosts without one.
var oslo = mustLoadLocation("Europe/Oslo")

func mustLoadLocation(name string) *time.Location {
	location, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("loading timezone %s: %s", name, err))
	}
	return location
}

// OsloDate returns the Europe/Oslo civil date of t as YYYY-MM-DD.
func OsloDate(t time.Time) string {
	return t.In(oslo).Format(DateFormat)
}
