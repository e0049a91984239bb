package domain

import "github.com/shopspring/decimal"

func init() {
	// Amounts go over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Kind classifies what the photographed source shows.
type Kind string

const (
	// KindMenu is a priced list: wine list, menu page, receipt.
	KindMenu Kind = "menu"
	// KindSingle is one or more bottles without prices.
	KindSingle Kind = "single"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindMenu || k == KindSingle
}

type AnalysisResult struct {
	Kind    Kind       `json:"type"`
	Summary string     `json:"summary"`
	Items   []WineItem `json:"items"`
}

// WineItem is one priced (or priceable) line of the analysed source.
// Multi-volume entries carry the volume in Name, e.g. "Penfolds 389 (375ml)".
type WineItem struct {
	Name            string              `json:"name"`
	MenuPrice       decimal.NullDecimal `json:"menuPrice"`
	OnlinePrice     decimal.NullDecimal `json:"onlinePrice"`
	Ratio           *float64            `json:"ratio"`
	Diff            decimal.NullDecimal `json:"diff"`
	Characteristics string              `json:"characteristics"`
	Rating          float64             `json:"rating"`
}

// DiffOrZero is the sort key for an item: its diff, or zero when absent.
func (w WineItem) DiffOrZero() decimal.Decimal {
	if w.Diff.Valid {
		return w.Diff.Decimal
	}
	return decimal.Zero
}

// Amount is a convenience constructor for a present currency amount.
func Amount(v float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}

// Placeholder summaries.
const (
	SummaryNotConfigured = "未配置 API Key，请在 .env 中设置。"
	summaryFailurePrefix = "😓 出错了 (解析失败): 请重试。 错误细节: "
)

// Placeholder returns the fixed fallback result with the given summary.
// Each call returns a fresh value so callers may modify it.
func Placeholder(summary string) *AnalysisResult {
	ratio := 2.1
	return &AnalysisResult{
		Kind:    KindMenu,
		Summary: summary,
		Items: []WineItem{{
			Name:            "示例 - 奔富 407",
			MenuPrice:       Amount(1280),
			OnlinePrice:     Amount(600),
			Ratio:           &ratio,
			Diff:            Amount(680),
			Characteristics: "澳洲名庄，商务宴请硬通货",
			Rating:          8.5,
		}},
	}
}

// FailurePlaceholder wraps err into the placeholder result.
func FailurePlaceholder(err error) *AnalysisResult {
	return Placeholder(summaryFailurePrefix + err.Error())
}
