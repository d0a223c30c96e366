package payment

import (
	"fmt"
	"strings"
)

// NoInfoMessage is the explicit empty-result indicator shown when no field
// could be extracted from the text.
const NoInfoMessage = "No payment information found in the image."

// RenderText formats a Record as human-readable "Label: value" lines,
// omitting absent fields. An empty record renders as NoInfoMessage so that
// "nothing found" is always an explicit statement, never blank output.
func RenderText(rec Record) string {
	var b strings.Builder

	writeField := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, value)
		}
	}

	if rec.Amount != "" {
		fmt.Fprintf(&b, "Amount: ₹%s\n", rec.Amount)
	}
	writeField("Transaction ID", rec.TransactionID)
	writeField("UTR Number", rec.UTRNumber)
	writeField("Order ID", rec.OrderID)
	writeField("Date", rec.Date)
	writeField("Time", rec.Time)
	writeField("Sender", rec.Sender)
	writeField("Receiver", rec.Receiver)
	writeField("Sender UPI ID", rec.SenderUPIID)
	writeField("Receiver UPI ID", rec.ReceiverUPIID)
	writeField("Payment Status", string(rec.PaymentStatus))

	if b.Len() == 0 {
		return NoInfoMessage + "\n"
	}
	return b.String()
}
