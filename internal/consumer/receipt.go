package consumer

import (
	"fmt"
	"strings"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/domain"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/publisher"
)

// PaymentReceipt renders the subject and body of a payment confirmation.
func PaymentReceipt(event publisher.PaymentSucceededEvent) (string, string) {
	subject := fmt.Sprintf("Payment Successful for Your Order #%d", event.OrderID)

	var b strings.Builder
	b.WriteString("Thank You for Your Payment!\n\n")
	fmt.Fprintf(&b, "Your payment for Order #%d has been successfully processed.\n", event.OrderID)
	fmt.Fprintf(&b, "Total Amount Paid: %s\n", domain.FormatVND(event.Amount))
	if event.TransactionNo != "" {
		fmt.Fprintf(&b, "Transaction No: %s\n", event.TransactionNo)
	}
	b.WriteString("\nWe will start processing your order soon.\n")
	b.WriteString("Thank you for shopping with us!\n")
	return subject, b.String()
}
