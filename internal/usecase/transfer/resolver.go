package transfer

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-transfer/internal/domain"
	"github.com/simaogato/wealthflow-transfer/internal/usecase/calculator"
)

// ErrNotReadyToSave is returned when a transfer is committed before both legs are complete
var ErrNotReadyToSave = errors.New("transfer is not ready to save")

// Options tunes account-selection rules of a Resolver
type Options struct {
	// SameCurrencyOnly clears the other leg's account whenever a newly
	// selected account has a different currency
	SameCurrencyOnly bool
}

// Resolver keeps the source and target legs of a transfer consistent while
// the user edits either leg, the fee or the accounts.
//
// Unless manual override is on, after every mutation:
//   - SourceFixed: target = max(0, convert(source - fee))
//   - TargetFixed: source = max(0, convert(target) + fee)
//
// A Resolver is not safe for concurrent use.
type Resolver struct {
	state     State
	converter domain.Converter
	opts      Options
}

// NewResolver creates a Resolver for a fresh transfer form
func NewResolver(converter domain.Converter, opts Options) *Resolver {
	if converter == nil {
		converter = domain.IdentityConverter{}
	}

	return &Resolver{
		state: State{
			Source:    Leg{Buffer: "0", Value: decimal.Zero},
			Target:    Leg{Buffer: "0", Value: decimal.Zero},
			FeeBuffer: "0",
			Fee:       decimal.Zero,
			Anchor:    AnchorSourceFixed,
			Focus:     FieldSource,
		},
		converter: converter,
		opts:      opts,
	}
}

// RehydrateResolver creates a Resolver holding a previously committed transfer.
// Stored amounts are kept as they are. When the accounts use different
// currencies and the stored legs no longer satisfy the conversion (for example
// because rates moved, or because they were typed independently), the resolver
// starts in manual override so the stored values are not rewritten.
func RehydrateResolver(converter domain.Converter, opts Options, source, target *domain.Account, t *domain.Transfer) *Resolver {
	r := NewResolver(converter, opts)
	s := &r.state

	s.Source.Account = source
	s.Target.Account = target
	s.Source.Buffer = domain.FormatAmount(t.SourceAmount, s.Source.Currency())
	s.Target.Buffer = domain.FormatAmount(t.TargetAmount, s.Target.Currency())
	s.FeeBuffer = domain.FormatAmount(t.Fee, s.Source.Currency())
	s.OverwriteNext = true
	r.refreshValues()

	if r.CanToggleManualOverride() && !r.InvariantHolds() {
		s.ManualOverride = true
	}

	return r
}

// State returns a copy of the current state
func (r *Resolver) State() State {
	return r.state
}

// SetFocus moves input focus to field.
// The fee field cannot be focused while manual override is on.
func (r *Resolver) SetFocus(field Field) {
	transition, ok := focusTransitions[field]
	if !ok {
		return
	}
	if field == FieldFee && r.state.ManualOverride {
		return
	}

	r.state.Focus = field
	if transition.setsAnchor {
		r.state.Anchor = transition.anchor
	}
	r.state.OverwriteNext = transition.overwrite
}

// Input applies a keypad key ("0"-"9", ".", "+" or "-") to the focused buffer.
// Keys that would make the operand being typed invalid for the buffer's
// currency are ignored.
func (r *Resolver) Input(key string) {
	buf := r.buffer(r.state.Focus)

	var next string
	switch {
	case calculator.IsOperator(key):
		next = appendOperator(*buf, key)
	case isAmountKey(key):
		if r.state.OverwriteNext || *buf == ErrorDisplay {
			next = extendOperand("", key)
		} else {
			next = appendAmountKey(*buf, key)
		}
	default:
		return
	}

	if !domain.ValidateAmountInput(lastOperand(next), r.currencyOf(r.state.Focus)) {
		return
	}

	*buf = next
	r.state.OverwriteNext = false
	r.afterEdit()
}

// SetText replaces the focused buffer with free-form text typed or pasted
// into the field, such as "120 + 30". The text is only checked on Equals;
// until then its value is rounded to the field's currency precision.
func (r *Resolver) SetText(text string) {
	if text == "" {
		text = "0"
	}
	*r.buffer(r.state.Focus) = text
	r.state.OverwriteNext = false
	r.afterEdit()
}

// Backspace removes the last rune (or operator) of the focused buffer.
// Right after a focus change it resets the buffer to "0" instead.
func (r *Resolver) Backspace() {
	buf := r.buffer(r.state.Focus)

	switch {
	case r.state.OverwriteNext || *buf == ErrorDisplay:
		*buf = "0"
	case endsWithOperator(*buf):
		*buf = (*buf)[:len(*buf)-3]
	default:
		_, size := utf8.DecodeLastRuneInString(*buf)
		*buf = (*buf)[:len(*buf)-size]
	}
	if *buf == "" || *buf == "-" {
		*buf = "0"
	}

	r.state.OverwriteNext = false
	r.afterEdit()
}

// Equals replaces the focused buffer with its evaluated, formatted value,
// or with ErrorDisplay when the expression cannot be evaluated
func (r *Resolver) Equals() {
	buf := r.buffer(r.state.Focus)

	value, err := calculator.Evaluate(*buf)
	if err != nil {
		*buf = ErrorDisplay
	} else {
		*buf = domain.FormatAmount(value, r.currencyOf(r.state.Focus))
	}

	r.state.OverwriteNext = false
	r.afterEdit()
}

// ToggleManualOverride switches between derived and independently typed legs.
// It is a no-op unless CanToggleManualOverride reports true. Turning override
// off recomputes the derived leg from the current anchor.
func (r *Resolver) ToggleManualOverride() {
	if !r.CanToggleManualOverride() {
		return
	}

	s := &r.state
	s.ManualOverride = !s.ManualOverride
	if s.ManualOverride {
		if s.Focus == FieldFee {
			s.Focus = anchorField(s.Anchor)
			s.OverwriteNext = true
		}
		return
	}

	r.afterEdit()
}

// SwapAccounts exchanges the two legs' accounts and buffers.
// The anchor and leg focus move with the buffers, so the amount the user was
// driving keeps driving. A swap can never leave both legs on the same account.
func (r *Resolver) SwapAccounts() {
	s := &r.state

	s.Source, s.Target = s.Target, s.Source
	s.Anchor = s.Anchor.flipped()
	switch s.Focus {
	case FieldSource:
		s.Focus = FieldTarget
	case FieldTarget:
		s.Focus = FieldSource
	}

	if domain.SameAccount(s.Source.Account, s.Target.Account) {
		s.Target.Account = nil
	}

	r.reconcileOverride()
	r.reformatBuffers()
	r.afterEdit()
}

// SelectAccount sets the account of the source or target leg (nil clears it).
// The other leg's account is cleared when it is the same account, or when its
// currency differs and the resolver only allows same-currency transfers.
func (r *Resolver) SelectAccount(field Field, account *domain.Account) {
	var leg, other *Leg
	switch field {
	case FieldSource:
		leg, other = &r.state.Source, &r.state.Target
	case FieldTarget:
		leg, other = &r.state.Target, &r.state.Source
	default:
		return
	}

	leg.Account = account
	if account != nil && other.Account != nil {
		sameAccount := other.Account.ID == account.ID
		currencyConflict := r.opts.SameCurrencyOnly && other.Currency() != leg.Currency()
		if sameAccount || currencyConflict {
			other.Account = nil
		}
	}

	r.reconcileOverride()
	r.reformatBuffers()
	r.afterEdit()
}

// RatesUpdated re-derives the dependent leg after the conversion rates changed
func (r *Resolver) RatesUpdated() {
	r.afterEdit()
}

// DisplayValue returns the display string of a field
func (r *Resolver) DisplayValue(field Field) string {
	return *r.buffer(field)
}

// FocusedField returns the field receiving keypad input
func (r *Resolver) FocusedField() Field {
	return r.state.Focus
}

// CanToggleManualOverride reports whether both accounts are selected and use different currencies
func (r *Resolver) CanToggleManualOverride() bool {
	s := &r.state
	if s.Source.Account == nil || s.Target.Account == nil {
		return false
	}
	return s.Source.Currency() != s.Target.Currency()
}

// IsReadyToSave reports whether the transfer may be committed: both accounts
// selected and distinct, and both legs positive
func (r *Resolver) IsReadyToSave() bool {
	s := &r.state
	if s.Source.Account == nil || s.Target.Account == nil {
		return false
	}
	if domain.SameAccount(s.Source.Account, s.Target.Account) {
		return false
	}
	return s.Source.Value.IsPositive() && s.Target.Value.IsPositive()
}

// InvariantHolds reports whether the derived leg matches the anchor leg within
// the derived currency's display precision
func (r *Resolver) InvariantHolds() bool {
	_, derived := r.legs()
	expected := decimal.Max(decimal.Zero, r.derive())
	return derived.Value.Sub(expected).Abs().LessThanOrEqual(domain.AmountEpsilon(derived.Currency()))
}

// Transfer returns the resolved legs as a ledger transfer.
// In manual override the fee is already folded into the typed legs and is
// committed as zero.
func (r *Resolver) Transfer(note string, at time.Time) (*domain.Transfer, error) {
	if !r.IsReadyToSave() {
		return nil, ErrNotReadyToSave
	}

	s := &r.state
	fee := s.Fee
	if s.ManualOverride {
		fee = decimal.Zero
	}

	return &domain.Transfer{
		SourceAccountID: s.Source.Account.ID,
		TargetAccountID: s.Target.Account.ID,
		SourceAmount:    s.Source.Value,
		TargetAmount:    s.Target.Value,
		Fee:             fee,
		Date:            at,
		Note:            note,
	}, nil
}

// Snapshot returns the UI view of the current state
func (r *Resolver) Snapshot() Snapshot {
	s := &r.state
	snap := Snapshot{
		Source:            s.Source.Buffer,
		Target:            s.Target.Buffer,
		Fee:               s.FeeBuffer,
		SourceCurrency:    s.Source.Currency(),
		TargetCurrency:    s.Target.Currency(),
		Focus:             s.Focus,
		Anchor:            s.Anchor,
		ManualOverride:    s.ManualOverride,
		CanToggleOverride: r.CanToggleManualOverride(),
		ReadyToSave:       r.IsReadyToSave(),
	}
	if s.Source.Account != nil {
		id := s.Source.Account.ID
		snap.SourceAccountID = &id
	}
	if s.Target.Account != nil {
		id := s.Target.Account.ID
		snap.TargetAccountID = &id
	}
	return snap
}

// afterEdit refreshes evaluated values and, unless manual override is on,
// re-derives the dependent leg
func (r *Resolver) afterEdit() {
	r.refreshValues()
	if !r.state.ManualOverride {
		r.recompute()
	}
}

// recompute writes the derived leg from the anchor leg and the fee.
// It is the only place the conversion equation is applied.
func (r *Resolver) recompute() {
	_, derived := r.legs()
	value := decimal.Max(decimal.Zero, r.derive())
	derived.Buffer = domain.FormatAmount(value, derived.Currency())
	derived.Value = evaluate(derived.Buffer)
}

// derive returns the unclamped value the derived leg should have
func (r *Resolver) derive() decimal.Decimal {
	s := &r.state
	anchor, derived := r.legs()

	if s.Anchor == AnchorSourceFixed {
		return r.convert(anchor.Value.Sub(s.Fee), anchor.Currency(), derived.Currency())
	}
	return r.convert(anchor.Value, anchor.Currency(), derived.Currency()).Add(s.Fee)
}

// legs returns the anchor and derived legs for the current anchor mode
func (r *Resolver) legs() (anchor, derived *Leg) {
	if r.state.Anchor == AnchorTargetFixed {
		return &r.state.Target, &r.state.Source
	}
	return &r.state.Source, &r.state.Target
}

func (r *Resolver) convert(amount decimal.Decimal, from, to string) decimal.Decimal {
	if from == to || from == "" || to == "" {
		return amount
	}
	return r.converter.Convert(amount, from, to)
}

// refreshValues evaluates every buffer, rounded to its currency's precision.
// Pasted text can carry more decimal places than the keypad allows.
func (r *Resolver) refreshValues() {
	s := &r.state
	s.Source.Value = evaluateAt(s.Source.Buffer, r.currencyOf(FieldSource))
	s.Target.Value = evaluateAt(s.Target.Buffer, r.currencyOf(FieldTarget))
	s.Fee = decimal.Max(decimal.Zero, evaluateAt(s.FeeBuffer, r.currencyOf(FieldFee)))
}

// reconcileOverride forces manual override off once it is no longer permitted
func (r *Resolver) reconcileOverride() {
	if r.state.ManualOverride && !r.CanToggleManualOverride() {
		r.state.ManualOverride = false
	}
}

// reformatBuffers rewrites every buffer at its (possibly new) currency's precision
func (r *Resolver) reformatBuffers() {
	for _, field := range []Field{FieldSource, FieldTarget, FieldFee} {
		buf := r.buffer(field)
		*buf = domain.FormatAmount(evaluate(*buf), r.currencyOf(field))
	}
}

func (r *Resolver) buffer(field Field) *string {
	switch field {
	case FieldTarget:
		return &r.state.Target.Buffer
	case FieldFee:
		return &r.state.FeeBuffer
	default:
		return &r.state.Source.Buffer
	}
}

// currencyOf returns the currency a field is denominated in; the fee is in the source currency
func (r *Resolver) currencyOf(field Field) string {
	if field == FieldTarget {
		return r.state.Target.Currency()
	}
	return r.state.Source.Currency()
}

// evaluate is Evaluate with failures treated as zero
func evaluate(text string) decimal.Decimal {
	value, err := calculator.Evaluate(text)
	if err != nil {
		return decimal.Zero
	}
	return value
}

// evaluateAt is evaluate rounded to the decimal limit of currency
func evaluateAt(text, currency string) decimal.Decimal {
	return evaluate(text).Round(domain.DecimalLimit(currency))
}

func isAmountKey(key string) bool {
	return len(key) == 1 && (key[0] == '.' || (key[0] >= '0' && key[0] <= '9'))
}

func endsWithOperator(buf string) bool {
	return strings.HasSuffix(buf, " "+calculator.OperatorAdd+" ") ||
		strings.HasSuffix(buf, " "+calculator.OperatorSubtract+" ")
}

// lastOperand returns the operand currently being typed
func lastOperand(buf string) string {
	return buf[strings.LastIndexByte(buf, ' ')+1:]
}

func appendOperator(buf, op string) string {
	switch {
	case buf == ErrorDisplay:
		buf = "0"
	case endsWithOperator(buf):
		buf = buf[:len(buf)-3]
	}
	return buf + " " + op + " "
}

func appendAmountKey(buf, key string) string {
	operand := lastOperand(buf)
	return buf[:len(buf)-len(operand)] + extendOperand(operand, key)
}

// extendOperand appends key to an operand, replacing a lone leading zero
func extendOperand(operand, key string) string {
	if key == "." {
		if operand == "" || operand == "-" {
			return operand + "0."
		}
		return operand + "."
	}
	switch operand {
	case "0":
		return key
	case "-0":
		return "-" + key
	}
	return operand + key
}
