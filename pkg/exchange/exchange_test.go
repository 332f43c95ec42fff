package exchange

import (
	"testing"

	"github.com/btcsuite/btcutil"
	"github.com/shopspring/decimal"
)

func TestOrderValidate(t *testing.T) {
	valid := Order{
		ClientID: "peer1",
		Currency: EUR,
		Side:     Bid,
		Amount:   btcutil.Amount(1e8),
		Price:    decimal.RequireFromString("900"),
	}

	tests := []struct {
		name    string
		mutate  func(o *Order)
		wantErr bool
	}{
		{"valid order", func(o *Order) {}, false},
		{"empty client id", func(o *Order) { o.ClientID = "" }, true},
		{"invalid side", func(o *Order) { o.Side = 0 }, true},
		{"zero amount", func(o *Order) { o.Amount = 0 }, true},
		{"negative amount", func(o *Order) { o.Amount = -1 }, true},
		{"zero price", func(o *Order) { o.Price = decimal.Zero }, true},
		{"negative price", func(o *Order) { o.Price = decimal.RequireFromString("-900") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := valid
			tt.mutate(&o)
			err := o.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseSide(t *testing.T) {
	if s, err := ParseSide("bid"); err != nil || s != Bid {
		t.Errorf("ParseSide(bid) = %v, %v", s, err)
	}
	if s, err := ParseSide("ask"); err != nil || s != Ask {
		t.Errorf("ParseSide(ask) = %v, %v", s, err)
	}
	if _, err := ParseSide("buy"); err == nil {
		t.Error("ParseSide(buy) should fail")
	}
}

func TestClearingPrice(t *testing.T) {
	tests := []struct {
		name     string
		currency Currency
		bid, ask string
		want     string
	}{
		{"exact mean", EUR, "900", "800", "850"},
		{"cent precision kept", EUR, "900.10", "900.00", "900.05"},
		{"half cent rounds away from zero", EUR, "900.01", "900.00", "900.01"},
		{"whole-unit currency", JPY, "900", "800", "850"},
		{"whole-unit half rounds up", JPY, "900", "801", "851"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClearingPrice(
				decimal.RequireFromString(tt.bid),
				decimal.RequireFromString(tt.ask),
				tt.currency,
			)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ClearingPrice(%s, %s) = %s, want %s", tt.bid, tt.ask, got, tt.want)
			}
		})
	}
}

func TestCurrencyByCode(t *testing.T) {
	if c, ok := CurrencyByCode("EUR"); !ok || c != EUR {
		t.Errorf("CurrencyByCode(EUR) = %v, %v", c, ok)
	}
	if _, ok := CurrencyByCode("XXX"); ok {
		t.Error("CurrencyByCode(XXX) should not resolve")
	}
}
