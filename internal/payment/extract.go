package payment

import (
	"regexp"
	"strings"
)

// Field patterns. Each matcher anchors on a literal cue ("TXN ID",
// "UTR No", "Status") and captures the value that follows it. Alternations
// list the longest cue first so "Order ID: X" captures X rather than "ID".
var (
	// Currency marker immediately followed by digits, with optional
	// thousands separators and an optional 2-decimal fraction.
	amountPattern = regexp.MustCompile(`(?i)(?:Rs\.?|₹|INR)\s*(\d+(?:,\d+)*(?:\.\d{2})?)`)

	txnPattern    = regexp.MustCompile(`(?i)(?:TXN|Transaction)\s*ID:?\s*([A-Za-z0-9]+)`)
	utrPattern    = regexp.MustCompile(`(?i)(?:UTR\s*No|UTR):?\s*([A-Za-z0-9]+)`)
	orderPattern  = regexp.MustCompile(`(?i)(?:Order\s*ID|Order\s*No|Order):?\s*([A-Za-z0-9]+)`)

	// Numeric dates (12-05-2023, 1/5/23) or day + month abbreviation + year
	// (12 May 2023). The match is kept verbatim, never reformatted.
	datePattern = regexp.MustCompile(`(?i)(\d{1,2}[-/]\d{1,2}[-/]\d{2,4}|\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{2,4})`)
	timePattern = regexp.MustCompile(`(?i)(\d{1,2}:\d{2}(?:\s*[AP]M)?)`)

	// Party names: a run of letters and spaces after the cue. The charset
	// is deliberately loose, so unrelated words on the same line can be
	// swallowed; downstream consumers treat these fields as best-effort.
	senderPattern   = regexp.MustCompile(`(?i)(?:From|Sender):?\s*([A-Za-z\s]+)`)
	receiverPattern = regexp.MustCompile(`(?i)(?:To|Receiver):?\s*([A-Za-z\s]+)`)

	// Email-shaped UPI addresses, with or without a "UPI ID" label.
	upiPattern = regexp.MustCompile(`(?i)(?:UPI\s*ID:?\s*)?([a-zA-Z0-9._-]+@[a-zA-Z0-9._-]+)`)

	statusPattern = regexp.MustCompile(`(?i)(?:Status|Payment):?\s*(Successful|Failed|Pending)`)
)

// Extract runs every field matcher over text and returns the populated
// Record. It never fails; unmatched fields are left empty. Matchers take
// the first occurrence in the text, except the UPI pair which is assigned
// positionally from all occurrences (first -> sender, second -> receiver,
// the rest ignored).
func Extract(text string) Record {
	var rec Record

	if m := amountPattern.FindStringSubmatch(text); m != nil {
		rec.Amount = m[1]
	}
	if m := txnPattern.FindStringSubmatch(text); m != nil {
		rec.TransactionID = m[1]
	}
	if m := utrPattern.FindStringSubmatch(text); m != nil {
		rec.UTRNumber = m[1]
	}
	if m := orderPattern.FindStringSubmatch(text); m != nil {
		rec.OrderID = m[1]
	}
	if m := datePattern.FindStringSubmatch(text); m != nil {
		rec.Date = m[1]
	}
	if m := timePattern.FindStringSubmatch(text); m != nil {
		rec.Time = m[1]
	}
	if m := senderPattern.FindStringSubmatch(text); m != nil {
		rec.Sender = strings.TrimSpace(m[1])
	}
	if m := receiverPattern.FindStringSubmatch(text); m != nil {
		rec.Receiver = strings.TrimSpace(m[1])
	}

	if upis := upiPattern.FindAllStringSubmatch(text, -1); len(upis) > 0 {
		rec.SenderUPIID = upis[0][1]
		if len(upis) >= 2 {
			rec.ReceiverUPIID = upis[1][1]
		}
	}

	if m := statusPattern.FindStringSubmatch(text); m != nil {
		rec.PaymentStatus = Status(strings.ToLower(m[1]))
	}

	return rec
}
