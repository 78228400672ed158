package documents

import (
	"errors"
	"fmt"
)

// Payment statuses of an issued document.
const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
	PaymentWaived = "waived"
)

// Request workflow statuses. The capitalised values are what clients send.
const (
	StatusRequest    = "Request"
	StatusProcessing = "Processing"
	StatusReady      = "Ready"
	StatusReleased   = "Released"
	StatusRejected   = "Rejected"
)

var ErrInvalidTransition = errors.New("invalid status transition")

var transitions = map[string][]string{
	StatusRequest:    {StatusProcessing, StatusRejected},
	StatusProcessing: {StatusReady, StatusRejected},
	StatusReady:      {StatusReleased},
}

// CheckTransition reports whether a request may move from one status to another.
func CheckTransition(from, to string) error {
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

func PaymentStatuses() []string {
	return []string{PaymentUnpaid, PaymentPaid, PaymentWaived}
}

func RequestStatuses() []string {
	return []string{StatusRequest, StatusProcessing, StatusReady, StatusReleased, StatusRejected}
}

func validPayment(s string) bool {
	for _, p := range PaymentStatuses() {
		if p == s {
			return true
		}
	}
	return false
}

var colors = map[string]string{
	PaymentUnpaid: "orange",
	PaymentPaid:   "green",
	PaymentWaived: "teal",

	StatusRequest:    "yellow",
	StatusProcessing: "blue",
	StatusReady:      "purple",
	StatusReleased:   "green",
	StatusRejected:   "red",
}

// StatusColor maps a payment or request status to its badge colour.
func StatusColor(status string) string {
	if c, ok := colors[status]; ok {
		return c
	}
	return "gray"
}
