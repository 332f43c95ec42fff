package exchange

// Currency identifies the fiat side of a market. Each broker instance is bound
// to exactly one Currency; the tag is checked once at the broker boundary.
type Currency struct {
	Code     string // ISO 4217 code, e.g. "EUR"
	Exponent int32  // minor-unit decimal places, e.g. 2 for EUR, 0 for JPY
}

var (
	EUR = Currency{Code: "EUR", Exponent: 2}
	USD = Currency{Code: "USD", Exponent: 2}
	GBP = Currency{Code: "GBP", Exponent: 2}
	CHF = Currency{Code: "CHF", Exponent: 2}
	JPY = Currency{Code: "JPY", Exponent: 0}
)

var supported = []Currency{EUR, USD, GBP, CHF, JPY}

// SupportedCurrencies returns the currencies a node may open a market for.
// Returns a copy to avoid concurrent modification.
func SupportedCurrencies() []Currency {
	out := make([]Currency, len(supported))
	copy(out, supported)
	return out
}

// CurrencyByCode looks up a supported currency by its ISO code.
func CurrencyByCode(code string) (Currency, bool) {
	for _, c := range supported {
		if c.Code == code {
			return c, true
		}
	}
	return Currency{}, false
}
