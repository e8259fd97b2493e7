package persistence

import (
	"strings"

	"github.com/bakery/ledger/internal/domain/finance"
)

// ValidateSortColumn maps a sort key to its SQL column through a whitelist.
// Returns defaultColumn if the key is empty or not in the whitelist.
func ValidateSortColumn(sortKey string, allowed map[string]string, defaultColumn string) string {
	if column, ok := allowed[strings.TrimSpace(sortKey)]; ok {
		return column
	}
	return defaultColumn
}

// PaymentSortColumns maps payment history sort keys to columns of the history join
var PaymentSortColumns = map[string]string{
	string(finance.PaymentSortByID):            "p.id",
	string(finance.PaymentSortByPaymentDate):   "p.payment_date",
	string(finance.PaymentSortByCustomerName):  "c.full_name",
	string(finance.PaymentSortByTransactionID): "p.transaction_id",
	string(finance.PaymentSortByAmount):        "p.amount",
}

// paymentOrderClause renders the ORDER BY for s, always ending with the id tie-break
func paymentOrderClause(s finance.PaymentSort) string {
	column := ValidateSortColumn(string(s.Key), PaymentSortColumns, "p.payment_date")
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	if column == "p.id" {
		return "p.id " + dir
	}
	return column + " " + dir + ", p.id ASC"
}
