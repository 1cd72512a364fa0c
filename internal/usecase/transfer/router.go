package transfer

import (
	"errors"
	"fmt"

	"github.com/simaogato/wealthflow-transfer/internal/domain"
	"github.com/simaogato/wealthflow-transfer/internal/usecase/calculator"
)

var (
	// ErrUnknownEvent is returned for an event kind the router does not handle
	ErrUnknownEvent = errors.New("unknown event kind")
	// ErrInvalidKey is returned when an event's key does not match its kind
	ErrInvalidKey = errors.New("invalid key for event")
)

// EventKind identifies a discrete UI event on the transfer form
type EventKind string

const (
	EventDigit          EventKind = "DIGIT"
	EventOperator       EventKind = "OPERATOR"
	EventText           EventKind = "TEXT"
	EventBackspace      EventKind = "BACKSPACE"
	EventEquals         EventKind = "EQUALS"
	EventFocus          EventKind = "FOCUS"
	EventAccountPicked  EventKind = "ACCOUNT_PICKED"
	EventToggleOverride EventKind = "TOGGLE_OVERRIDE"
	EventSwap           EventKind = "SWAP"
	EventRatesUpdated   EventKind = "RATES_UPDATED"
)

// Event is one UI event
type Event struct {
	Kind    EventKind
	Key     string          // DIGIT ("0"-"9" or "."), OPERATOR ("+" or "-") and TEXT (free-form)
	Field   Field           // FOCUS and ACCOUNT_PICKED
	Account *domain.Account // ACCOUNT_PICKED; nil clears the selection
}

// Router translates UI events into Resolver calls
type Router struct {
	resolver *Resolver
}

// NewRouter creates a Router driving resolver
func NewRouter(resolver *Resolver) *Router {
	return &Router{resolver: resolver}
}

// Resolver returns the resolver the router drives
func (rt *Router) Resolver() *Resolver {
	return rt.resolver
}

// Dispatch applies one event to the resolver
func (rt *Router) Dispatch(ev Event) error {
	switch ev.Kind {
	case EventDigit:
		if !isAmountKey(ev.Key) {
			return fmt.Errorf("%w: %q is not a digit", ErrInvalidKey, ev.Key)
		}
		rt.resolver.Input(ev.Key)
	case EventOperator:
		if !calculator.IsOperator(ev.Key) {
			return fmt.Errorf("%w: %q is not an operator", ErrInvalidKey, ev.Key)
		}
		rt.resolver.Input(ev.Key)
	case EventText:
		rt.resolver.SetText(ev.Key)
	case EventBackspace:
		rt.resolver.Backspace()
	case EventEquals:
		rt.resolver.Equals()
	case EventFocus:
		rt.resolver.SetFocus(ev.Field)
	case EventAccountPicked:
		rt.resolver.SelectAccount(ev.Field, ev.Account)
	case EventToggleOverride:
		rt.resolver.ToggleManualOverride()
	case EventSwap:
		rt.resolver.SwapAccounts()
	case EventRatesUpdated:
		rt.resolver.RatesUpdated()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Kind)
	}
	return nil
}
