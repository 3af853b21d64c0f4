package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrUnsupportedMethod = errors.New("payment: unsupported method")

type Method string

const (
	MethodCreditCard Method = "credit_card"
	MethodPix        Method = "pix"
	MethodBoleto     Method = "boleto"
)

// Methods lists every method the service knows, in display order.
var Methods = []Method{MethodCreditCard, MethodPix, MethodBoleto}

var methodAliases = map[string]Method{
	"credit_card": MethodCreditCard,
	"cartao":      MethodCreditCard,
	"card":        MethodCreditCard,
	"pix":         MethodPix,
	"boleto":      MethodBoleto,
}

// UnsupportedMethodError carries the rejected method name.
type UnsupportedMethodError struct {
	Method string
}

func (e *UnsupportedMethodError) Error() string {
	return fmt.Sprintf("payment: method %q is not supported", e.Method)
}

func (e *UnsupportedMethodError) Is(target error) bool {
	return target == ErrUnsupportedMethod
}

// ParseMethod resolves a method name case-insensitively, accepting the
// card aliases "cartao" and "card".
func ParseMethod(name string) (Method, error) {
	m, ok := methodAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", &UnsupportedMethodError{Method: name}
	}
	return m, nil
}

func (m Method) String() string { return string(m) }

// Result is the outcome of a settlement attempt. A decline is a Result with
// Success=false, not an error.
type Result struct {
	Method        Method
	Success       bool
	Message       string
	TransactionID string
	Barcode       string
	DueDate       time.Time
}

func Declined(method Method, message string) Result {
	return Result{Method: method, Success: false, Message: message}
}

// Strategy settles an amount for one payment method.
type Strategy interface {
	Method() Method
	Settle(ctx context.Context, amount decimal.Decimal, data map[string]string) (Result, error)
}
