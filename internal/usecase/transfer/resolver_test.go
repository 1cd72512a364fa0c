package transfer

import (
	"math/rand"
	"strconv"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/wealthflow-transfer/internal/domain"
)

func newAccount(name, currency string) *domain.Account {
	return &domain.Account{ID: uuid.New(), Name: name, Kind: domain.AccountKindAsset, Currency: currency}
}

// unitsPerUSD is a fixed rate table used by tableConverter
var unitsPerUSD = map[string]decimal.Decimal{
	"USD": decimal.NewFromInt(1),
	"JPY": decimal.NewFromInt(150),
	"EUR": decimal.RequireFromString("0.92"),
}

var tableConverter = domain.ConverterFunc(func(amount decimal.Decimal, from, to string) decimal.Decimal {
	fromRate, okFrom := unitsPerUSD[from]
	toRate, okTo := unitsPerUSD[to]
	if !okFrom || !okTo {
		return amount
	}
	return amount.Div(fromRate).Mul(toRate)
})

// typeKeys sends every character of keys as a keypad key
func typeKeys(r *Resolver, keys string) {
	for _, k := range keys {
		r.Input(string(k))
	}
}

func assertValue(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestNewResolver(t *testing.T) {
	r := NewResolver(nil, Options{})
	s := r.State()

	assert.Equal(t, "0", s.Source.Buffer)
	assert.Equal(t, "0", s.Target.Buffer)
	assert.Equal(t, "0", s.FeeBuffer)
	assert.Equal(t, AnchorSourceFixed, s.Anchor)
	assert.Equal(t, FieldSource, s.Focus)
	assert.False(t, s.ManualOverride)
	assert.False(t, s.OverwriteNext)
	assert.False(t, r.IsReadyToSave())
	assert.False(t, r.CanToggleManualOverride())
}

func TestResolver_SameCurrencySourceFixedWithFee(t *testing.T) {
	r := NewResolver(nil, Options{})
	r.SelectAccount(FieldSource, newAccount("Wallet", "CNY"))
	r.SelectAccount(FieldTarget, newAccount("Bank", "CNY"))

	r.SetFocus(FieldFee)
	typeKeys(r, "10")
	r.SetFocus(FieldSource)
	typeKeys(r, "100")

	assert.Equal(t, "100", r.DisplayValue(FieldSource))
	assert.Equal(t, "10", r.DisplayValue(FieldFee))
	assert.Equal(t, "90", r.DisplayValue(FieldTarget))
	assert.Equal(t, AnchorSourceFixed, r.State().Anchor)
	assert.True(t, r.InvariantHolds())
	assert.True(t, r.IsReadyToSave())
}

func TestResolver_CrossCurrencyTargetFixed(t *testing.T) {
	r := NewResolver(tableConverter, Options{})
	r.SelectAccount(FieldSource, newAccount("Checking", "USD"))
	r.SelectAccount(FieldTarget, newAccount("Yen Wallet", "JPY"))

	r.SetFocus(FieldTarget)
	typeKeys(r, "1500")

	assert.Equal(t, AnchorTargetFixed, r.State().Anchor)
	assert.Equal(t, "1500", r.DisplayValue(FieldTarget))
	assert.Equal(t, "10", r.DisplayValue(FieldSource))
	assert.True(t, r.InvariantHolds())
	assert.True(t, r.CanToggleManualOverride())
}

func TestResolver_CrossCurrencySourceFixed(t *testing.T) {
	r := NewResolver(tableConverter, Options{})
	r.SelectAccount(FieldSource, newAccount("Checking", "USD"))
	r.SelectAccount(FieldTarget, newAccount("Yen Wallet", "JPY"))

	r.SetFocus(FieldFee)
	typeKeys(r, "1")
	r.SetFocus(FieldSource)
	typeKeys(r, "11")

	assert.Equal(t, "1500", r.DisplayValue(FieldTarget))
}

func TestResolver_ExpressionEntry(t *testing.T) {
	r := NewResolver(nil, Options{})
	r.SelectAccount(FieldSource, newAccount("Wallet", "CNY"))
	r.SelectAccount(FieldTarget, newAccount("Bank", "CNY"))

	typeKeys(r, "100+50")
	assert.Equal(t, "100 + 50", r.DisplayValue(FieldSource))
	assert.Equal(t, "150", r.DisplayValue(FieldTarget), "derived leg follows the unfinished expression")

	r.Equals()
	assert.Equal(t, "150", r.DisplayValue(FieldSource))
	assert.Equal(t, "150", r.DisplayValue(FieldTarget))
	assertValue(t, "150", r.State().Source.Value)
}

func TestResolver_Operators(t *testing.T) {
	t.Run("Trailing operator evaluates the operand before it", func(t *testing.T) {
		r := NewResolver(nil, Options{})
		typeKeys(r, "100+")
		assert.Equal(t, "100 + ", r.DisplayValue(FieldSource))
		assert.Equal(t, "100", r.DisplayValue(FieldTarget))
	})

	t.Run("Second operator replaces the first", func(t *testing.T) {
		r := NewResolver(nil, Options{})
		typeKeys(r, "100+-")
		assert.Equal(t, "100 - ", r.DisplayValue(FieldSource))
	})

	t.Run("Operator after a focus change continues the current value", func(t *testing.T) {
		r := NewResolver(nil, Options{})
		typeKeys(r, "100")
		r.SetFocus(FieldSource)
		typeKeys(r, "+5")
		assert.Equal(t, "100 + 5", r.DisplayValue(FieldSource))
		assert.Equal(t, "105", r.DisplayValue(FieldTarget))
	})
}

func TestResolver_OverwriteAfterFocusChange(t *testing.T) {
	t.Run("Same field", func(t *testing.T) {
		r := NewResolver(nil, Options{})
		typeKeys(r, "120")
		r.SetFocus(FieldSource)
		assert.True(t, r.State().OverwriteNext)

		typeKeys(r, "5")
		assert.Equal(t, "5", r.DisplayValue(FieldSource))
		assert.False(t, r.State().OverwriteNext)
	})

	t.Run("Other leg", func(t *testing.T) {
		r := NewResolver(nil, Options{})
		typeKeys(r, "120")
		r.SetFocus(FieldTarget)

		typeKeys(r, "5")
		assert.Equal(t, "5", r.DisplayValue(FieldTarget))
		assert.Equal(t, "5", r.DisplayValue(FieldSource))
	})

	t.Run("Leading dot", func(t *testing.T) {
		r := NewResolver(nil, Options{})
		typeKeys(r, "120")
		r.SetFocus(FieldSource)

		typeKeys(r, ".5")
		assert.Equal(t, "0.5", r.DisplayValue(FieldSource))
		assert.Equal(t, "0.50", r.DisplayValue(FieldTarget))
	})
}

func TestResolver_LeadingZeroIsReplaced(t *testing.T) {
	r := NewResolver(nil, Options{})
	typeKeys(r, "05")
	assert.Equal(t, "5", r.DisplayValue(FieldSource))
}

func TestResolver_PrecisionRejectsKeys(t *testing.T) {
	t.Run("Zero-decimal currency rejects the dot", func(t *testing.T) {
		r := NewResolver(nil, Options{})
		r.SelectAccount(FieldSource, newAccount("Yen Wallet", "JPY"))
		typeKeys(r, "1.5")
		assert.Equal(t, "15", r.DisplayValue(FieldSource))
	})

	t.Run("Two-decimal currency rejects a third place", func(t *testing.T) {
		r := NewResolver(nil, Options{})
		r.SelectAccount(FieldSource, newAccount("Checking", "USD"))
		typeKeys(r, "1.234")
		assert.Equal(t, "1.23", r.DisplayValue(FieldSource))
	})

	t.Run("Limit applies to the operand being typed", func(t *testing.T) {
		r := NewResolver(nil, Options{})
		r.SelectAccount(FieldSource, newAccount("Checking", "USD"))
		typeKeys(r, "1.25+2.505")
		assert.Equal(t, "1.25 + 2.50", r.DisplayValue(FieldSource))
	})

	t.Run("Fee uses the source currency", func(t *testing.T) {
		r := NewResolver(tableConverter, Options{})
		r.SelectAccount(FieldSource, newAccount("Yen Wallet", "JPY"))
		r.SelectAccount(FieldTarget, newAccount("Checking", "USD"))
		r.SetFocus(FieldFee)
		typeKeys(r, "3.5")
		assert.Equal(t, "35", r.DisplayValue(FieldFee))
	})
}

func TestResolver_Backspace(t *testing.T) {
	tests := []struct {
		name  string
		keys  string
		focus bool
		want  string
	}{
		{"Removes the last digit", "123", false, "12"},
		{"Removes a whole operator", "100+", false, "100"},
		{"Removes the operand after an operator", "100+5", false, "100 + "},
		{"Single digit becomes zero", "5", false, "0"},
		{"Zero stays zero", "", false, "0"},
		{"Removes a trailing dot", "1.", false, "1"},
		{"Resets after a focus change", "123", true, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(nil, Options{})
			typeKeys(r, tt.keys)
			if tt.focus {
				r.SetFocus(FieldSource)
			}

			r.Backspace()
			assert.Equal(t, tt.want, r.DisplayValue(FieldSource))
			assert.True(t, r.InvariantHolds())
		})
	}
}

func TestResolver_NonNegativity(t *testing.T) {
	t.Run("Fee larger than the source clamps the target", func(t *testing.T) {
		r := NewResolver(nil, Options{})
		r.SelectAccount(FieldSource, newAccount("Wallet", "CNY"))
		r.SelectAccount(FieldTarget, newAccount("Bank", "CNY"))

		r.SetFocus(FieldFee)
		typeKeys(r, "50")
		r.SetFocus(FieldSource)
		typeKeys(r, "20")

		assert.Equal(t, "0", r.DisplayValue(FieldTarget))
		assert.True(t, r.InvariantHolds())
		assert.False(t, r.IsReadyToSave())
	})

	t.Run("Negative anchor clamps the source", func(t *testing.T) {
		r := NewResolver(nil, Options{})
		r.SetFocus(FieldTarget)
		typeKeys(r, "5-10")

		assert.Equal(t, "5 - 10", r.DisplayValue(FieldTarget))
		assert.Equal(t, "0", r.DisplayValue(FieldSource))
	})

	t.Run("Negative fee counts as zero", func(t *testing.T) {
		r := NewResolver(nil, Options{})
		r.SetFocus(FieldFee)
		typeKeys(r, "0-5")
		r.SetFocus(FieldSource)
		typeKeys(r, "100")

		assert.True(t, r.State().Fee.IsZero())
		assert.Equal(t, "100", r.DisplayValue(FieldTarget))
	})
}

func TestResolver_ErrorDisplay(t *testing.T) {
	r := NewResolver(nil, Options{})
	r.SetText("100 * 2")
	assert.Equal(t, "0", r.DisplayValue(FieldTarget), "unknown operators evaluate as zero while editing")

	r.Equals()
	assert.Equal(t, ErrorDisplay, r.DisplayValue(FieldSource))
	assert.True(t, r.State().Source.Value.IsZero())
	assert.Equal(t, "0", r.DisplayValue(FieldTarget))

	typeKeys(r, "7")
	assert.Equal(t, "7", r.DisplayValue(FieldSource))
	assert.Equal(t, "7", r.DisplayValue(FieldTarget))

	r.SetText("1 x 1")
	r.Equals()
	typeKeys(r, "+")
	assert.Equal(t, "0 + ", r.DisplayValue(FieldSource))

	r.SetText("1 x 1")
	r.Equals()
	r.Backspace()
	assert.Equal(t, "0", r.DisplayValue(FieldSource))
}

func TestResolver_SetText(t *testing.T) {
	r := NewResolver(nil, Options{})
	r.SetText("120 + 30")
	assert.Equal(t, "150", r.DisplayValue(FieldTarget))

	r.SetText("")
	assert.Equal(t, "0", r.DisplayValue(FieldSource))
}

func TestResolver_SetTextRoundsToCurrencyPrecision(t *testing.T) {
	tests := []struct {
		name     string
		currency string
		fee      string
		text     string
		source   string
		target   string
	}{
		{"Two-decimal currency", "CNY", "10", "100.005", "100.01", "90.01"},
		{"Zero-decimal currency", "JPY", "0", "1.5", "2", "2"},
		{"Expression", "CNY", "0", "0.004 + 0.004", "0.01", "0.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wallet := newAccount("Wallet", tt.currency)
			bank := newAccount("Bank", tt.currency)

			r := NewResolver(nil, Options{})
			r.SelectAccount(FieldSource, wallet)
			r.SelectAccount(FieldTarget, bank)
			r.SetFocus(FieldFee)
			typeKeys(r, tt.fee)
			r.SetFocus(FieldSource)
			r.SetText(tt.text)

			assertValue(t, tt.source, r.State().Source.Value)
			assert.Equal(t, tt.target, r.DisplayValue(FieldTarget))
			assert.True(t, r.InvariantHolds())
			require.True(t, r.IsReadyToSave())

			pending, err := r.Transfer("pasted", time.Now())
			require.NoError(t, err)
			tx, err := pending.ToTransaction(wallet, bank)
			require.NoError(t, err)
			assert.NoError(t, tx.Validate())
		})
	}

	t.Run("Cross currency", func(t *testing.T) {
		usd := newAccount("Checking", "USD")
		jpy := newAccount("Yen Wallet", "JPY")

		r := NewResolver(tableConverter, Options{})
		r.SelectAccount(FieldSource, usd)
		r.SelectAccount(FieldTarget, jpy)
		r.SetFocus(FieldTarget)
		r.SetText("1500.4")

		assertValue(t, "1500", r.State().Target.Value)
		assert.Equal(t, "10", r.DisplayValue(FieldSource))

		pending, err := r.Transfer("", time.Now())
		require.NoError(t, err)
		_, err = pending.ToTransaction(usd, jpy)
		assert.NoError(t, err)
	})
}

func TestResolver_BackspaceRemovesWholeRune(t *testing.T) {
	r := NewResolver(nil, Options{})
	r.SetText("1€")

	r.Backspace()
	assert.Equal(t, "1", r.DisplayValue(FieldSource))
	assert.True(t, utf8.ValidString(r.DisplayValue(FieldSource)))
}

func TestResolver_EqualsClearsOverwrite(t *testing.T) {
	r := NewResolver(nil, Options{})
	typeKeys(r, "100+50")
	r.SetFocus(FieldSource)
	require.True(t, r.State().OverwriteNext)

	r.Equals()
	assert.False(t, r.State().OverwriteNext)
	assert.Equal(t, "150", r.DisplayValue(FieldSource))

	typeKeys(r, "5")
	assert.Equal(t, "1505", r.DisplayValue(FieldSource))
	assert.Equal(t, "1505", r.DisplayValue(FieldTarget))
}

func TestResolver_FeeFocusKeepsAnchor(t *testing.T) {
	r := NewResolver(nil, Options{})
	r.SetFocus(FieldTarget)
	r.SetFocus(FieldFee)

	s := r.State()
	assert.Equal(t, FieldFee, s.Focus)
	assert.Equal(t, AnchorTargetFixed, s.Anchor)
	assert.True(t, s.OverwriteNext)
}

func TestResolver_ManualOverride(t *testing.T) {
	setup := func() *Resolver {
		r := NewResolver(tableConverter, Options{})
		r.SelectAccount(FieldSource, newAccount("Checking", "USD"))
		r.SelectAccount(FieldTarget, newAccount("Yen Wallet", "JPY"))
		typeKeys(r, "10")
		return r
	}

	t.Run("Not available for the same currency", func(t *testing.T) {
		r := NewResolver(nil, Options{})
		r.SelectAccount(FieldSource, newAccount("Wallet", "CNY"))
		r.SelectAccount(FieldTarget, newAccount("Bank", "CNY"))
		typeKeys(r, "10")
		before := r.State()

		assert.False(t, r.CanToggleManualOverride())
		r.ToggleManualOverride()
		assert.Equal(t, before, r.State())
	})

	t.Run("Not available without both accounts", func(t *testing.T) {
		r := NewResolver(tableConverter, Options{})
		r.SelectAccount(FieldSource, newAccount("Checking", "USD"))
		r.ToggleManualOverride()
		assert.False(t, r.State().ManualOverride)
	})

	t.Run("Legs are typed independently", func(t *testing.T) {
		r := setup()
		require.Equal(t, "1500", r.DisplayValue(FieldTarget))

		r.ToggleManualOverride()
		require.True(t, r.State().ManualOverride)

		r.SetFocus(FieldTarget)
		typeKeys(r, "1600")
		assert.Equal(t, "1600", r.DisplayValue(FieldTarget))
		assert.Equal(t, "10", r.DisplayValue(FieldSource))
		assert.False(t, r.InvariantHolds())
	})

	t.Run("Fee cannot be focused", func(t *testing.T) {
		r := setup()
		r.ToggleManualOverride()
		r.SetFocus(FieldFee)
		assert.Equal(t, FieldSource, r.FocusedField())
	})

	t.Run("Turning on moves focus off the fee", func(t *testing.T) {
		r := setup()
		r.SetFocus(FieldFee)
		r.ToggleManualOverride()
		assert.Equal(t, FieldSource, r.FocusedField())
		assert.True(t, r.State().OverwriteNext)
	})

	t.Run("Turning off recomputes from the anchor", func(t *testing.T) {
		r := setup()
		r.ToggleManualOverride()
		r.SetFocus(FieldTarget)
		typeKeys(r, "1600")

		r.ToggleManualOverride()
		assert.False(t, r.State().ManualOverride)
		assert.Equal(t, "1600", r.DisplayValue(FieldTarget))
		assert.Equal(t, "10.67", r.DisplayValue(FieldSource))
		assert.True(t, r.InvariantHolds())
	})

	t.Run("Forced off when currencies match again", func(t *testing.T) {
		r := setup()
		r.ToggleManualOverride()
		r.SelectAccount(FieldTarget, newAccount("Savings", "USD"))

		assert.False(t, r.State().ManualOverride)
		assert.Equal(t, "10", r.DisplayValue(FieldTarget))
	})

	t.Run("Forced off when an account is cleared", func(t *testing.T) {
		r := setup()
		r.ToggleManualOverride()
		r.SelectAccount(FieldTarget, nil)
		assert.False(t, r.State().ManualOverride)
	})

	t.Run("Fee is committed as zero", func(t *testing.T) {
		r := NewResolver(tableConverter, Options{})
		r.SelectAccount(FieldSource, newAccount("Checking", "USD"))
		r.SelectAccount(FieldTarget, newAccount("Yen Wallet", "JPY"))
		r.SetFocus(FieldFee)
		typeKeys(r, "1")
		r.SetFocus(FieldSource)
		typeKeys(r, "11")
		r.ToggleManualOverride()

		tr, err := r.Transfer("", time.Now())
		require.NoError(t, err)
		assert.True(t, tr.Fee.IsZero())
		assertValue(t, "11", tr.SourceAmount)
		assertValue(t, "1500", tr.TargetAmount)
	})
}

func TestResolver_SwapAccounts(t *testing.T) {
	t.Run("Same currency with fee", func(t *testing.T) {
		a := newAccount("Wallet", "CNY")
		b := newAccount("Bank", "CNY")
		r := NewResolver(nil, Options{})
		r.SelectAccount(FieldSource, a)
		r.SelectAccount(FieldTarget, b)
		r.SetFocus(FieldFee)
		typeKeys(r, "10")
		r.SetFocus(FieldSource)
		typeKeys(r, "200")
		require.Equal(t, "190", r.DisplayValue(FieldTarget))

		r.SwapAccounts()
		s := r.State()

		assert.Equal(t, b, s.Source.Account)
		assert.Equal(t, a, s.Target.Account)
		assert.Equal(t, AnchorTargetFixed, s.Anchor)
		assert.Equal(t, FieldTarget, s.Focus)
		assert.Equal(t, "200", r.DisplayValue(FieldTarget))
		assert.Equal(t, "210", r.DisplayValue(FieldSource))
		assert.True(t, r.InvariantHolds())
	})

	t.Run("Cross currency", func(t *testing.T) {
		usd := newAccount("Checking", "USD")
		jpy := newAccount("Yen Wallet", "JPY")
		r := NewResolver(tableConverter, Options{})
		r.SelectAccount(FieldSource, usd)
		r.SelectAccount(FieldTarget, jpy)
		typeKeys(r, "10")

		r.SwapAccounts()

		assert.Equal(t, "JPY", r.State().Source.Currency())
		assert.Equal(t, "1500", r.DisplayValue(FieldSource))
		assert.Equal(t, "10", r.DisplayValue(FieldTarget))
		assert.True(t, r.InvariantHolds())
	})

	t.Run("Never leaves both legs on one account", func(t *testing.T) {
		a := newAccount("Wallet", "CNY")
		stored := &domain.Transfer{
			SourceAccountID: a.ID,
			TargetAccountID: a.ID,
			SourceAmount:    decimal.NewFromInt(5),
			TargetAmount:    decimal.NewFromInt(5),
			Fee:             decimal.Zero,
		}
		r := RehydrateResolver(nil, Options{}, a, a, stored)

		r.SwapAccounts()
		assert.Equal(t, a, r.State().Source.Account)
		assert.Nil(t, r.State().Target.Account)
	})
}

func TestResolver_SelectAccount(t *testing.T) {
	t.Run("Same account on the other leg is cleared", func(t *testing.T) {
		a := newAccount("Wallet", "CNY")
		r := NewResolver(nil, Options{})
		r.SelectAccount(FieldSource, a)
		r.SelectAccount(FieldTarget, a)

		assert.Nil(t, r.State().Source.Account)
		assert.Equal(t, a, r.State().Target.Account)
	})

	t.Run("Different currencies are kept by default", func(t *testing.T) {
		r := NewResolver(tableConverter, Options{})
		r.SelectAccount(FieldSource, newAccount("Checking", "USD"))
		r.SelectAccount(FieldTarget, newAccount("Yen Wallet", "JPY"))

		assert.NotNil(t, r.State().Source.Account)
		assert.NotNil(t, r.State().Target.Account)
	})

	t.Run("Different currencies clear the other leg when restricted", func(t *testing.T) {
		r := NewResolver(tableConverter, Options{SameCurrencyOnly: true})
		r.SelectAccount(FieldSource, newAccount("Checking", "USD"))
		r.SelectAccount(FieldTarget, newAccount("Yen Wallet", "JPY"))

		assert.Nil(t, r.State().Source.Account)
		assert.NotNil(t, r.State().Target.Account)
	})

	t.Run("Buffers are reformatted for the new currency", func(t *testing.T) {
		r := NewResolver(nil, Options{})
		r.SelectAccount(FieldSource, newAccount("Checking", "USD"))
		typeKeys(r, "10.5")

		r.SelectAccount(FieldSource, newAccount("Yen Wallet", "JPY"))
		assert.Equal(t, "11", r.DisplayValue(FieldSource))
		assert.Equal(t, "11", r.DisplayValue(FieldTarget))
	})

	t.Run("Fee field is ignored", func(t *testing.T) {
		r := NewResolver(nil, Options{})
		before := r.State()
		r.SelectAccount(FieldFee, newAccount("Wallet", "CNY"))
		assert.Equal(t, before, r.State())
	})
}

func TestRehydrateResolver(t *testing.T) {
	usd := newAccount("Checking", "USD")
	jpy := newAccount("Yen Wallet", "JPY")

	stored := func(source, target *domain.Account, s, tgt, fee string) *domain.Transfer {
		return &domain.Transfer{
			SourceAccountID: source.ID,
			TargetAccountID: target.ID,
			SourceAmount:    decimal.RequireFromString(s),
			TargetAmount:    decimal.RequireFromString(tgt),
			Fee:             decimal.RequireFromString(fee),
		}
	}

	t.Run("Consistent cross currency transfer", func(t *testing.T) {
		r := RehydrateResolver(tableConverter, Options{}, usd, jpy, stored(usd, jpy, "10", "1500", "0"))
		s := r.State()

		assert.False(t, s.ManualOverride)
		assert.True(t, s.OverwriteNext)
		assert.Equal(t, "10", s.Source.Buffer)
		assert.Equal(t, "1500", s.Target.Buffer)
		assert.Equal(t, "0", s.FeeBuffer)
		assert.True(t, r.IsReadyToSave())
	})

	t.Run("Inconsistent cross currency transfer starts in manual override", func(t *testing.T) {
		r := RehydrateResolver(tableConverter, Options{}, usd, jpy, stored(usd, jpy, "10", "1600", "0"))

		assert.True(t, r.State().ManualOverride)
		assert.Equal(t, "1600", r.DisplayValue(FieldTarget))
		assert.True(t, r.Snapshot().ManualOverride)
	})

	t.Run("Same currency values are kept until the next edit", func(t *testing.T) {
		a := newAccount("Wallet", "CNY")
		b := newAccount("Bank", "CNY")
		r := RehydrateResolver(nil, Options{}, a, b, stored(a, b, "100", "95", "0"))

		assert.False(t, r.State().ManualOverride)
		assert.Equal(t, "95", r.DisplayValue(FieldTarget))

		typeKeys(r, "5")
		assert.Equal(t, "5", r.DisplayValue(FieldSource))
		assert.Equal(t, "5", r.DisplayValue(FieldTarget))
	})
}

func TestResolver_RatesUpdated(t *testing.T) {
	rate := decimal.NewFromInt(150)
	conv := domain.ConverterFunc(func(amount decimal.Decimal, from, to string) decimal.Decimal {
		switch {
		case from == "USD" && to == "JPY":
			return amount.Mul(rate)
		case from == "JPY" && to == "USD":
			return amount.Div(rate)
		}
		return amount
	})

	r := NewResolver(conv, Options{})
	r.SelectAccount(FieldSource, newAccount("Checking", "USD"))
	r.SelectAccount(FieldTarget, newAccount("Yen Wallet", "JPY"))
	typeKeys(r, "10")
	require.Equal(t, "1500", r.DisplayValue(FieldTarget))

	rate = decimal.NewFromInt(160)
	r.RatesUpdated()
	assert.Equal(t, "1600", r.DisplayValue(FieldTarget))
	assert.Equal(t, "10", r.DisplayValue(FieldSource))
}

func TestResolver_Transfer(t *testing.T) {
	t.Run("Not ready", func(t *testing.T) {
		r := NewResolver(nil, Options{})
		_, err := r.Transfer("", time.Now())
		assert.ErrorIs(t, err, ErrNotReadyToSave)
	})

	t.Run("Ready", func(t *testing.T) {
		a := newAccount("Wallet", "CNY")
		b := newAccount("Bank", "CNY")
		at := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

		r := NewResolver(nil, Options{})
		r.SelectAccount(FieldSource, a)
		r.SelectAccount(FieldTarget, b)
		r.SetFocus(FieldFee)
		typeKeys(r, "10")
		r.SetFocus(FieldSource)
		typeKeys(r, "100")

		tr, err := r.Transfer("savings", at)
		require.NoError(t, err)
		assert.Equal(t, a.ID, tr.SourceAccountID)
		assert.Equal(t, b.ID, tr.TargetAccountID)
		assertValue(t, "100", tr.SourceAmount)
		assertValue(t, "90", tr.TargetAmount)
		assertValue(t, "10", tr.Fee)
		assert.Equal(t, at, tr.Date)
		assert.Equal(t, "savings", tr.Note)
		assert.NoError(t, tr.Validate())
	})
}

func TestResolver_Snapshot(t *testing.T) {
	usd := newAccount("Checking", "USD")
	r := NewResolver(tableConverter, Options{})
	r.SelectAccount(FieldSource, usd)
	typeKeys(r, "10")

	snap := r.Snapshot()
	assert.Equal(t, "10", snap.Source)
	assert.Equal(t, "10", snap.Target)
	assert.Equal(t, "USD", snap.SourceCurrency)
	assert.Equal(t, "", snap.TargetCurrency)
	require.NotNil(t, snap.SourceAccountID)
	assert.Equal(t, usd.ID, *snap.SourceAccountID)
	assert.Nil(t, snap.TargetAccountID)
	assert.False(t, snap.ReadyToSave)
	assert.False(t, snap.CanToggleOverride)
}

// TestResolver_RandomEventsKeepLegsConsistent drives the resolver with a long
// pseudo-random event sequence and checks the conversion equation after
// every step that recomputes.
func TestResolver_RandomEventsKeepLegsConsistent(t *testing.T) {
	keys := []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", ".", "+", "-"}
	accounts := []*domain.Account{
		newAccount("Checking", "USD"),
		newAccount("Savings", "USD"),
		newAccount("Yen Wallet", "JPY"),
		newAccount("Euro Card", "EUR"),
		nil,
	}

	for _, seed := range []int64{1, 7, 42} {
		rng := rand.New(rand.NewSource(seed))
		r := NewResolver(tableConverter, Options{})

		for step := 0; step < 1000; step++ {
			switch rng.Intn(8) {
			case 0, 1, 2:
				r.Input(keys[rng.Intn(len(keys))])
			case 3:
				r.Backspace()
			case 4:
				r.Equals()
			case 5:
				// A focus change is always followed by a digit, which every
				// currency accepts, so the step ends with a recompute.
				r.SetFocus(Field(rng.Intn(3)))
				r.Input(strconv.Itoa(1 + rng.Intn(9)))
			case 6:
				r.SelectAccount(Field(rng.Intn(2)), accounts[rng.Intn(len(accounts))])
			case 7:
				if rng.Intn(2) == 0 {
					r.SwapAccounts()
				} else {
					r.ToggleManualOverride()
				}
			}

			s := r.State()
			assert.False(t, s.Fee.IsNegative(), "seed %d step %d: negative fee", seed, step)
			assert.False(t, domain.SameAccount(s.Source.Account, s.Target.Account), "seed %d step %d: same account", seed, step)
			if s.ManualOverride {
				assert.True(t, r.CanToggleManualOverride(), "seed %d step %d: override without differing currencies", seed, step)
				continue
			}

			_, derived := r.legs()
			assert.False(t, derived.Value.IsNegative(), "seed %d step %d: negative derived leg", seed, step)
			if !r.InvariantHolds() {
				t.Fatalf("seed %d step %d: legs inconsistent: %+v", seed, step, r.Snapshot())
			}
		}
	}
}
