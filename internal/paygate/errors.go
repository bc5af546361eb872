package paygate

import (
	"fmt"

	"github.com/Skotchmaster/storefront/internal/domain"
)

// GatewayError is returned when the provider answers Success=false or cannot
// be reached. It matches domain.ErrGateway.
type GatewayError struct {
	Method  string
	Code    string
	Message string
	Details string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("paygate %s: %v", e.Method, e.Err)
	}
	msg := fmt.Sprintf("paygate %s: error %s: %s", e.Method, e.Code, e.Message)
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

func (e *GatewayError) Unwrap() []error {
	if e.Err != nil {
		return []error{domain.ErrGateway, e.Err}
	}
	return []error{domain.ErrGateway}
}
