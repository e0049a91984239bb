package domain

// Badge is the display tier of an item's markup.
type Badge string

const (
	BadgeUnclassified Badge = "unclassified"
	BadgeFair         Badge = "fair"
	BadgeNormal       Badge = "normal"
	BadgeOverpriced   Badge = "overpriced"
)

const (
	fairRatioLimit   = 1.5
	normalRatioLimit = 2.5
)

// ClassifyBadge maps an item to its tier from the model-estimated ratio.
// Items without a menu price or ratio (zero counts as missing) cannot be
// judged and are left for the user to inspect.
func ClassifyBadge(item WineItem) Badge {
	if !item.MenuPrice.Valid || item.MenuPrice.Decimal.IsZero() || item.Ratio == nil || *item.Ratio == 0 {
		return BadgeUnclassified
	}
	switch r := *item.Ratio; {
	case r < fairRatioLimit:
		return BadgeFair
	case r < normalRatioLimit:
		return BadgeNormal
	default:
		return BadgeOverpriced
	}
}

// Label returns the user-facing text for b.
func (b Badge) Label() string {
	switch b {
	case BadgeFair:
		return "✅ 良心"
	case BadgeNormal:
		return "👌 正常"
	case BadgeOverpriced:
		return "💣 巨坑"
	default:
		return "🔍 鉴定"
	}
}
