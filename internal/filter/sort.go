package filter

import (
	"cmp"
	"slices"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dealboard/internal/model"
)

// SortKey selects the ordering of a deal list.
type SortKey string

const (
	SortScore    SortKey = "score"    // descending
	SortPrice    SortKey = "price"    // ascending
	SortCapRate  SortKey = "capRate"  // descending
	SortDiscount SortKey = "discount" // descending
)

// ParseSortKey validates a sort key. Empty means score.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case "":
		return SortScore, nil
	case SortScore, SortPrice, SortCapRate, SortDiscount:
		return SortKey(s), nil
	}
	return "", &model.ValidationError{Field: "sort", Message: "must be one of score, price, capRate, discount (got \"" + s + "\")"}
}

// FallbackScore orders records that carry no precomputed score:
// 0.6*capRatePct + 0.4*discountPct, missing values counting as zero.
func FallbackScore(p *model.Property) float64 {
	return 0.6*capPct(p) + 0.4*deref(p.DiscountPct)
}

// SortProperties returns a stably sorted copy. Score order uses FallbackScore.
func SortProperties(props []model.Property, key SortKey) []model.Property {
	out := slices.Clone(props)
	slices.SortStableFunc(out, func(a, b model.Property) int {
		return compare(&a, &b, key, FallbackScore(&a), FallbackScore(&b))
	})
	return out
}

// SortScored returns a stably sorted copy. Score order uses the precomputed Score.
func SortScored(scored []model.ScoredProperty, key SortKey) []model.ScoredProperty {
	out := slices.Clone(scored)
	slices.SortStableFunc(out, func(a, b model.ScoredProperty) int {
		return compare(&a.Property, &b.Property, key, a.Score, b.Score)
	})
	return out
}

// SortScoredKey parses key then sorts.
func SortScoredKey(scored []model.ScoredProperty, key string) ([]model.ScoredProperty, error) {
	k, err := ParseSortKey(key)
	if err != nil {
		return nil, eris.Wrap(err, "filter: sort")
	}
	return SortScored(scored, k), nil
}

func compare(a, b *model.Property, key SortKey, scoreA, scoreB float64) int {
	switch key {
	case SortPrice:
		return cmp.Compare(a.Price, b.Price)
	case SortCapRate:
		return cmp.Compare(deref(b.CapRate), deref(a.CapRate))
	case SortDiscount:
		return cmp.Compare(deref(b.DiscountPct), deref(a.DiscountPct))
	default:
		return cmp.Compare(scoreB, scoreA)
	}
}

func capPct(p *model.Property) float64 {
	return deref(p.CapRate) * 100
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
