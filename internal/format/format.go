package format

import (
	"fmt"
	"sort"
	"strings"

	"AssetTracker/internal/model"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

// SelectOptions maps coins to selector options, preserving order.
func SelectOptions(coins []model.Coin) []model.SelectOption {
	out := make([]model.SelectOption, 0, len(coins))
	for _, c := range coins {
		out = append(out, model.SelectOption{Value: c.ID, Label: c.Name, Image: c.Image})
	}
	return out
}

// Number renders a dollar amount with B/M suffixes. Missing or zero is "N/A".
func Number(num *float64) string {
	if num == nil || *num == 0 {
		return "N/A"
	}
	n := *num
	switch {
	case n >= 1e9:
		return fmt.Sprintf("$%.2fB", n/1e9)
	case n >= 1e6:
		return fmt.Sprintf("$%.2fM", n/1e6)
	default:
		return fmt.Sprintf("$%.2f", n)
	}
}

// Supply renders a token count with thousands separators. Missing or zero is "N/A".
func Supply(num *float64) string {
	if num == nil || *num == 0 {
		return "N/A"
	}
	return printer.Sprint(number.Decimal(*num, number.MaxFractionDigits(3)))
}

// Rank renders a market-cap rank as "#N".
func Rank(rank *int) string {
	if rank == nil {
		return "N/A"
	}
	return fmt.Sprintf("#%d", *rank)
}

// StatItem is one cell of the stats bar. CompareValue is set only in the
// comparison block and holds the primary coin's value.
type StatItem struct {
	Label        string `json:"label"`
	Value        string `json:"value"`
	CompareValue string `json:"compare_value,omitempty"`
}

// Stats is the stats bar for the selected coin and, optionally, the comparison coin.
type Stats struct {
	Primary    []StatItem `json:"primary"`
	Comparison []StatItem `json:"comparison,omitempty"`
}

// StatsBar builds the stats bar. compare may be nil.
func StatsBar(coin model.Coin, compare *model.Coin) Stats {
	s := Stats{Primary: statItems(coin, nil)}
	if compare != nil {
		s.Comparison = statItems(*compare, &coin)
	}
	return s
}

func statItems(c model.Coin, against *model.Coin) []StatItem {
	items := []StatItem{
		{Label: "Symbol", Value: strings.ToUpper(c.Symbol)},
		{Label: "Rank", Value: Rank(c.MarketCapRank)},
		{Label: "Market Cap", Value: Number(c.MarketCap)},
		{Label: "24h Volume", Value: Number(c.TotalVolume)},
		{Label: "Total Supply", Value: Supply(c.TotalSupply)},
	}
	if against != nil {
		vs := statItems(*against, nil)
		for i := range items {
			items[i].CompareValue = vs[i].Value
		}
	}
	return items
}

// ChartTable renders rows as a fixed-width text table, one column per series.
// Days without a value for a series show "-".
func ChartTable(rows []model.NormalizedRow) string {
	if len(rows) == 0 {
		return "No data available\n"
	}

	seen := map[string]struct{}{}
	var tags []string
	for _, r := range rows {
		for tag := range r.Values {
			if _, ok := seen[tag]; !ok {
				seen[tag] = struct{}{}
				tags = append(tags, tag)
			}
		}
	}
	sort.Strings(tags)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-12s", "DATE"))
	for _, tag := range tags {
		b.WriteString(fmt.Sprintf(" %16s", strings.ToUpper(tag)))
	}
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("%-12s", r.Date))
		for _, tag := range tags {
			if v, ok := r.Values[tag]; ok {
				b.WriteString(fmt.Sprintf(" %16s", fmt.Sprintf("$%.4f", v)))
			} else {
				b.WriteString(fmt.Sprintf(" %16s", "-"))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
