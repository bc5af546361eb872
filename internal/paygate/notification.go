package paygate

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Provider payment statuses a notification can carry.
const (
	StatusNew             = "NEW"
	StatusFormShowed      = "FORM_SHOWED"
	StatusAuthorized      = "AUTHORIZED"
	StatusConfirmed       = "CONFIRMED"
	StatusRejected        = "REJECTED"
	StatusCanceled        = "CANCELED"
	StatusReversed        = "REVERSED"
	StatusRefunded        = "REFUNDED"
	StatusPartialRefunded = "PARTIAL_REFUNDED"
)

// Notification is the raw webhook body. Numbers are kept as json.Number so
// the signature is computed over exactly what the provider sent.
type Notification map[string]any

func ParseNotification(body []byte) (Notification, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var n Notification
	if err := dec.Decode(&n); err != nil {
		return nil, fmt.Errorf("decode notification: %w", err)
	}
	if n == nil {
		return nil, fmt.Errorf("decode notification: empty body")
	}
	return n, nil
}

// String returns the scalar under key in its signed textual form.
func (n Notification) String(key string) string {
	s, _ := scalar(n[key])
	return s
}

func (n Notification) Status() string    { return n.String("Status") }
func (n Notification) OrderID() string   { return n.String("OrderId") }
func (n Notification) PaymentID() string { return n.String("PaymentId") }
func (n Notification) Success() bool     { return n.String("Success") == "true" }
