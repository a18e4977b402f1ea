// Package amount formats settlement amounts and applies the announcement
// policy that keeps dust and wash-trade noise out of the outbound feeds.
package amount

import (
	"strconv"
	"strings"

	"nftwatch/internal/model"
	"nftwatch/internal/xrpl"
)

// Known 160-bit hex currency codes and their human symbols. Codes shorter
// than 40 characters come through as plain symbols and resolve to themselves.
var currencyAliases = map[string]string{
	"5850554E4B000000000000000000000000000000": "XPUNK",
	"4F58500000000000000000000000000000000000": "OXP",
	"5553440000000000000000000000000000000000": "USD",
}

// Issuers for currencies that occasionally arrive without one.
var currencyIssuers = map[string]string{
	"XPUNK": "rHEL3bM4RFsvF8kbQj3cya8YiDvjoEmxLq",
	"OXP":   "rrno7Nj4RkFJLzC4nRaZiLF5aHwcTVon3d",
}

// DefaultSkipCurrency is the platform's own reflexive token. Sales settled in
// it are internal churn, not market signal.
const DefaultSkipCurrency = "XPUNK"

// DefaultMinXRP is the announcement floor for native sales, in whole XRP.
const DefaultMinXRP = 100

// Model applies formatting and announcement policy to amounts.
type Model struct {
	// MinXRP is the native-sale floor in whole XRP.
	MinXRP int64
	// SkipCurrency is the symbol excluded from announcements.
	SkipCurrency string
}

// NewModel returns a Model with the default policy.
func NewModel() Model {
	return Model{MinXRP: DefaultMinXRP, SkipCurrency: DefaultSkipCurrency}
}

// LookupAlias resolves a currency code to a known symbol. ok is false when
// the code is not in the alias table; the raw code is returned as fallback.
func LookupAlias(currency string) (string, bool) {
	if len(currency) == 3 {
		return currency, true
	}
	if alias, ok := currencyAliases[strings.ToUpper(currency)]; ok {
		return alias, true
	}
	return currency, false
}

// Format renders an amount for human consumption: "150 XRP", "42.5 XPUNK".
func Format(a model.Amount) string {
	if a.IsNative() {
		return formatDrops(a.Drops) + " XRP"
	}
	alias, _ := LookupAlias(a.Currency)
	return a.Value + " " + alias
}

// IsValidForAnnouncement is the policy gate: native amounts qualify from
// MinXRP up, issued amounts only when the currency is known and is not the
// skip symbol.
func (m Model) IsValidForAnnouncement(a model.Amount) bool {
	if a.IsNative() {
		return a.Drops >= m.MinXRP*model.DropsPerXRP
	}

	alias, known := LookupAlias(a.Currency)
	if !known {
		return false
	}
	return !strings.EqualFold(alias, m.SkipCurrency)
}

// ConversionQuery is the shape of a price-oracle request: convert Value
// units of Symbol into the reference currency.
type ConversionQuery struct {
	Value  string
	Symbol string
	Issuer string
}

// ToReferenceUnits prepares the oracle request for USD enrichment. ok is
// false when the amount cannot be priced (unknown currency with no issuer to
// resolve through); callers skip the USD figure, never fail.
func ToReferenceUnits(a model.Amount) (ConversionQuery, bool) {
	if a.IsNative() {
		return ConversionQuery{Value: formatDrops(a.Drops), Symbol: "XRP"}, true
	}

	alias, known := LookupAlias(a.Currency)
	issuer := a.Issuer
	if issuer == "" {
		issuer = currencyIssuers[alias]
	}
	if !known && issuer == "" {
		return ConversionQuery{}, false
	}
	return ConversionQuery{Value: a.Value, Symbol: alias, Issuer: issuer}, true
}

// formatDrops renders drops as whole XRP with trailing zeros trimmed.
func formatDrops(drops int64) string {
	whole := drops / model.DropsPerXRP
	frac := drops % model.DropsPerXRP
	if frac == 0 {
		return strconv.FormatInt(whole, 10)
	}

	s := strconv.FormatInt(whole, 10) + "." + strings.TrimRight(
		strconv.FormatInt(frac+model.DropsPerXRP, 10)[1:], "0")
	return s
}

// DecodeCurrency returns the display form of a currency code, decoding hex
// codes that are not in the alias table.
func DecodeCurrency(currency string) string {
	if alias, ok := LookupAlias(currency); ok {
		return alias
	}
	if decoded := xrpl.DecodeHexString(currency); decoded != currency && decoded != "" {
		return decoded
	}
	return currency
}
