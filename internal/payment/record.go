// Package payment extracts structured payment metadata from OCR text.
//
// The input is unstructured text recognized from a payment-confirmation
// screenshot (UPI apps, bank transfer receipts). The package applies a set
// of independent, case-insensitive pattern matchers to the text and returns
// a Record whose fields are each either present or absent. Noisy or partial
// OCR output is expected: a matcher that finds nothing leaves its field
// empty, it never fails the extraction.
//
// Extraction Guarantees:
//   - Extract is pure and deterministic: same text in, same Record out.
//   - Extract is total: it never returns an error. A Record with every
//     field absent is the valid "no information found" result.
//   - Matchers are independent; a malformed amount never prevents the
//     transaction ID from being extracted, and vice versa.
package payment

// Status is a normalized payment outcome.
type Status string

// Recognized payment outcomes. Matched case-insensitively in the source
// text and stored lowercase.
const (
	StatusSuccessful Status = "successful"
	StatusFailed     Status = "failed"
	StatusPending    Status = "pending"
)

// Record holds the payment fields recovered from one screenshot.
//
// Every field is independently optional: the empty string (or empty Status)
// means the corresponding cue was not found in the text. There is no
// cross-field validation; a successful status without an amount is a valid
// record. Amounts and dates are kept verbatim as they appeared in the text,
// including thousands separators, and are not normalized to numeric or
// calendar types.
type Record struct {
	// Amount is the numeric part of the payment amount, e.g. "1,200.50".
	// The currency marker (Rs., ₹, INR) is not included.
	Amount string `json:"amount,omitempty"`

	// TransactionID is the app-level transaction identifier.
	TransactionID string `json:"transactionId,omitempty"`

	// UTRNumber is the bank-level unique transaction reference.
	UTRNumber string `json:"utrNumber,omitempty"`

	// OrderID is the merchant order identifier.
	OrderID string `json:"orderId,omitempty"`

	// Date is the payment date exactly as written, e.g. "12-05-2023" or
	// "12 May 2023".
	Date string `json:"date,omitempty"`

	// Time is the payment time exactly as written, e.g. "14:30" or
	// "2:30 PM".
	Time string `json:"time,omitempty"`

	// Sender and Receiver are party names (letters and spaces). The capture
	// is greedy and may include trailing words from the same line.
	Sender   string `json:"sender,omitempty"`
	Receiver string `json:"receiver,omitempty"`

	// SenderUPIID and ReceiverUPIID are email-shaped payment addresses.
	// Assignment is positional: the first UPI-shaped token in the text is
	// the sender, the second is the receiver.
	SenderUPIID   string `json:"senderUpiId,omitempty"`
	ReceiverUPIID string `json:"receiverUpiId,omitempty"`

	// PaymentStatus is the normalized outcome, or empty if no status cue
	// was found.
	PaymentStatus Status `json:"paymentStatus,omitempty"`
}

// Empty reports whether no field was extracted.
func (r Record) Empty() bool {
	return r == Record{}
}
