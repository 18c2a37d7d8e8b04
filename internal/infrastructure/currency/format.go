// Package currency renders minor-unit amounts for people.
package currency

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
)

// Format renders amountMinor in its currency, e.g. Format(123456, "USD") is
// "$1,234.56". Codes go-money does not know fall back to "<minor> <CODE>"
// rather than guessing a decimal position.
func Format(amountMinor int64, code string) string {
	code = strings.ToUpper(code)
	if code == "" || money.GetCurrency(code) == nil {
		return fmt.Sprintf("%d %s", amountMinor, code)
	}
	return money.New(amountMinor, code).Display()
}

// Known reports whether code is an ISO currency go-money can render.
func Known(code string) bool {
	return money.GetCurrency(strings.ToUpper(code)) != nil
}
