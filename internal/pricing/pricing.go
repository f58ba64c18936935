// File path: internal/pricing/pricing.go
package pricing

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nicodishanthj/partfinder/internal/common"
)

// Table maps "FROM_TO" currency pairs to multiplicative rates, e.g.
// "USD_INR" -> 86.0. Conversion falls back to the inverse pair when
// only the opposite direction is listed.
type Table map[string]float64

// DefaultTable covers the currencies the marketplace connectors emit.
func DefaultTable() Table {
	return Table{
		"USD_INR": 86.0,
		"EUR_INR": 93.5,
		"GBP_INR": 109.0,
	}
}

// Convert translates amount from one currency into another. Identity
// conversions are exact; unknown pairs report an error rather than
// silently passing the amount through.
func (t Table) Convert(amount float64, from, to string) (float64, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == "" || to == "" {
		return 0, fmt.Errorf("convert: empty currency code")
	}
	if from == to {
		return amount, nil
	}
	if rate, ok := t[from+"_"+to]; ok {
		return amount * rate, nil
	}
	if rate, ok := t[to+"_"+from]; ok && rate != 0 {
		return amount / rate, nil
	}
	return 0, fmt.Errorf("convert: no rate for %s to %s", from, to)
}

var currencySymbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// Format renders an amount with its currency symbol and thousands
// grouping, e.g. Format(8600, "INR") == "₹8,600.00". Currencies with
// no known symbol fall back to the code prefix.
func Format(amount float64, currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	symbol, ok := currencySymbols[currency]
	if !ok {
		symbol = currency + " "
	}
	neg := math.Signbit(amount)
	fixed := strconv.FormatFloat(math.Abs(amount), 'f', 2, 64)
	dot := strings.IndexByte(fixed, '.')
	grouped := groupThousands(fixed[:dot]) + fixed[dot:]
	if neg {
		return "-" + symbol + grouped
	}
	return symbol + grouped
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// LoadTable builds the rate table from the environment. PARTFINDER_RATES
// holds inline JSON; PARTFINDER_RATES_FILE points to a JSON file. Both
// are merged over the defaults so a partial override keeps the rest.
func LoadTable() Table {
	logger := common.Logger()
	table := DefaultTable()
	if path := strings.TrimSpace(os.Getenv("PARTFINDER_RATES_FILE")); path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			logger.Warn("pricing: unable to read rates file", "path", path, "error", err)
		} else if err := mergeJSON(table, data); err != nil {
			logger.Warn("pricing: unable to parse rates file", "path", path, "error", err)
		}
	}
	if inline := strings.TrimSpace(os.Getenv("PARTFINDER_RATES")); inline != "" {
		if err := mergeJSON(table, []byte(inline)); err != nil {
			logger.Warn("pricing: unable to parse PARTFINDER_RATES", "error", err)
		}
	}
	return table
}

func mergeJSON(table Table, data []byte) error {
	var overrides map[string]float64
	if err := json.Unmarshal(data, &overrides); err != nil {
		return err
	}
	for pair, rate := range overrides {
		if rate > 0 {
			table[strings.ToUpper(strings.TrimSpace(pair))] = rate
		}
	}
	return nil
}
