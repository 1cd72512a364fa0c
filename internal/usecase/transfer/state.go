package transfer

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-transfer/internal/domain"
)

// ErrorDisplay is the buffer content shown after Equals fails to evaluate
const ErrorDisplay = "Error"

// Field identifies an input field of the transfer form
type Field int

const (
	FieldSource Field = iota
	FieldTarget
	FieldFee
)

// String returns the wire name of the field
func (f Field) String() string {
	switch f {
	case FieldSource:
		return "SOURCE"
	case FieldTarget:
		return "TARGET"
	case FieldFee:
		return "FEE"
	default:
		return fmt.Sprintf("Field(%d)", int(f))
	}
}

// ParseField converts a wire name ("SOURCE", "TARGET", "FEE") to a Field
func ParseField(s string) (Field, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SOURCE":
		return FieldSource, nil
	case "TARGET":
		return FieldTarget, nil
	case "FEE":
		return FieldFee, nil
	default:
		return 0, fmt.Errorf("invalid field %q", s)
	}
}

// AnchorMode declares which leg the user is driving; the other leg is derived
type AnchorMode int

const (
	AnchorSourceFixed AnchorMode = iota
	AnchorTargetFixed
)

// String returns the wire name of the anchor mode
func (m AnchorMode) String() string {
	if m == AnchorTargetFixed {
		return "TARGET_FIXED"
	}
	return "SOURCE_FIXED"
}

func (m AnchorMode) flipped() AnchorMode {
	if m == AnchorSourceFixed {
		return AnchorTargetFixed
	}
	return AnchorSourceFixed
}

// Leg is one side of a transfer
type Leg struct {
	Account *domain.Account // nil while unselected
	Buffer  string          // raw input, possibly an unfinished expression
	Value   decimal.Decimal // evaluated Buffer
}

// Currency returns the leg's currency code, or "" when no account is selected
func (l Leg) Currency() string {
	if l.Account == nil {
		return ""
	}
	return domain.NormalizeCurrency(l.Account.Currency)
}

// State is the whole mutable state of one transfer entry form
type State struct {
	Source         Leg
	Target         Leg
	FeeBuffer      string
	Fee            decimal.Decimal // in the source currency, never negative
	Anchor         AnchorMode
	ManualOverride bool
	Focus          Field
	OverwriteNext  bool
}

// focusTransition is the effect of focusing a field
type focusTransition struct {
	setsAnchor bool
	anchor     AnchorMode
	overwrite  bool
}

// focusTransitions is the complete focus table: focusing a leg makes it the
// driver, focusing the fee leaves the anchor alone, and every focus change
// arms overwrite-on-next-input.
var focusTransitions = map[Field]focusTransition{
	FieldSource: {setsAnchor: true, anchor: AnchorSourceFixed, overwrite: true},
	FieldTarget: {setsAnchor: true, anchor: AnchorTargetFixed, overwrite: true},
	FieldFee:    {setsAnchor: false, overwrite: true},
}

// anchorField returns the leg field that drives the given anchor mode
func anchorField(m AnchorMode) Field {
	if m == AnchorTargetFixed {
		return FieldTarget
	}
	return FieldSource
}

// Snapshot is the read-only view of a transfer form handed to the UI layer
type Snapshot struct {
	Source            string
	Target            string
	Fee               string
	SourceAccountID   *uuid.UUID
	TargetAccountID   *uuid.UUID
	SourceCurrency    string
	TargetCurrency    string
	Focus             Field
	Anchor            AnchorMode
	ManualOverride    bool
	CanToggleOverride bool
	ReadyToSave       bool
}
