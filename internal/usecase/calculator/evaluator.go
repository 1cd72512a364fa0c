package calculator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-transfer/internal/domain"
)

// Operators accepted between operands
const (
	OperatorAdd      = "+"
	OperatorSubtract = "-"
)

// ErrUnknownOperator is returned when an operator position holds anything other than + or -
var ErrUnknownOperator = errors.New("unknown operator")

// Evaluate computes a calculator expression such as "120 + 30 - 5".
// Logic:
//  1. Split on single spaces
//  2. Token 0 is the initial operand
//  3. Remaining tokens are consumed as (operator, operand) pairs, left to right
//  4. A trailing operator without an operand is ignored
//
// Operands that do not parse count as zero. This keeps half-typed input such
// as "100 + " or a lone "-" usable, but it also silently zeroes a mistyped
// operand.
func Evaluate(text string) (decimal.Decimal, error) {
	tokens := strings.Split(text, " ")

	result := operand(tokens[0])
	for i := 1; i+1 < len(tokens); i += 2 {
		value := operand(tokens[i+1])
		switch tokens[i] {
		case OperatorAdd:
			result = result.Add(value)
		case OperatorSubtract:
			result = result.Sub(value)
		default:
			return decimal.Zero, fmt.Errorf("%w %q at position %d", ErrUnknownOperator, tokens[i], i)
		}
	}

	return result, nil
}

// IsOperator reports whether key is an operator accepted by Evaluate
func IsOperator(key string) bool {
	return key == OperatorAdd || key == OperatorSubtract
}

func operand(token string) decimal.Decimal {
	value, ok := domain.ParseAmount(token)
	if !ok {
		return decimal.Zero
	}
	return value
}
