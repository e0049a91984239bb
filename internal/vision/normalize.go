package vision

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vbonduro/kenglema/internal/domain"
)

var ErrUnknownKind = errors.New("unknown analysis type")

const (
	minRating = 0
	maxRating = 10
)

// Normalize validates the model-asserted fields of result, derives missing
// diffs and orders items by descending diff (absent diff sorts as zero).
// It modifies result in place.
func Normalize(result *domain.AnalysisResult) error {
	if !result.Kind.Valid() {
		return fmt.Errorf("%w %q", ErrUnknownKind, result.Kind)
	}

	result.Summary = strings.TrimSpace(controlRun.ReplaceAllString(result.Summary, " "))
	if result.Items == nil {
		result.Items = []domain.WineItem{}
	}

	for i := range result.Items {
		item := &result.Items[i]
		sanitize(item, result.Kind)
		enrich(item)
	}

	slices.SortStableFunc(result.Items, func(a, b domain.WineItem) int {
		return b.DiffOrZero().Cmp(a.DiffOrZero())
	})
	return nil
}

func sanitize(item *domain.WineItem, kind domain.Kind) {
	item.Rating = min(max(item.Rating, minRating), maxRating)

	if item.MenuPrice.Valid && item.MenuPrice.Decimal.IsNegative() {
		item.MenuPrice = decimal.NullDecimal{}
	}
	if item.OnlinePrice.Valid && item.OnlinePrice.Decimal.IsNegative() {
		item.OnlinePrice = decimal.NullDecimal{}
	}
	if item.Ratio != nil && *item.Ratio < 0 {
		item.Ratio = nil
	}
	// Bottles photographed off a shelf have no menu price to compare.
	if kind == domain.KindSingle {
		item.MenuPrice = decimal.NullDecimal{}
	}
}

// enrich fills in diff = menuPrice - onlinePrice. A diff the model already
// supplied is kept as is.
func enrich(item *domain.WineItem) {
	if item.Diff.Valid {
		return
	}
	if !item.MenuPrice.Valid || !item.OnlinePrice.Valid {
		return
	}
	if !item.MenuPrice.Decimal.IsPositive() || !item.OnlinePrice.Decimal.IsPositive() {
		return
	}
	item.Diff = decimal.NewNullDecimal(item.MenuPrice.Decimal.Sub(item.OnlinePrice.Decimal))
}
