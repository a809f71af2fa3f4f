package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type PaymentRecordStatus string

const (
	PaymentRecordSuccess PaymentRecordStatus = "success"
	PaymentRecordFailed  PaymentRecordStatus = "failed"
)

// Payment is an append-only ledger row written from a gateway callback.
type Payment struct {
	ID            int64               `json:"payment_id"`
	OrderID       int64               `json:"order_id"`
	TransactionNo string              `json:"transaction_no"`
	BankCode      string              `json:"bank_code"`
	CardType      string              `json:"card_type"`
	Amount        decimal.Decimal     `json:"amount"`
	PayDate       time.Time           `json:"pay_date"`
	Status        PaymentRecordStatus `json:"status"`
	CreatedAt     time.Time           `json:"created_at"`
}

var printer = message.NewPrinter(language.English)

// FormatVND renders an amount with thousands separators and no decimals,
// e.g. "1,250,000 VND".
func FormatVND(amount decimal.Decimal) string {
	return printer.Sprintf("%d VND", amount.Round(0).IntPart())
}
