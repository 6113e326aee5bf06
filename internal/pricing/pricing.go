// Package pricing computes advertising package tiers for the budget
// calculator. Everything here is pure and safe for concurrent use.
package pricing

import (
	"math"
	"strings"
)

// Intent is what the lead wants to buy.
type Intent string

const (
	IntentPlacement  Intent = "placement"
	IntentProduction Intent = "production"
	IntentFilm       Intent = "film"
	IntentCombo      Intent = "combo"
)

// Duration values that qualify for the long-campaign discount.
const (
	DurationOneMonth    = "1m"
	DurationThreeMonths = "3m"
	DurationSixMonths   = "6m"
)

const (
	placementBase     = 100_000
	defaultBase       = 450_000
	maxDiscountPct    = 15
	comboDiscountPct  = 5
	periodDiscountPct = 7
	multiDiscountPct  = 5

	defaultVideoLength = 30
)

// Options tune the calculation. Zero values get the calculator defaults.
type Options struct {
	Duration    string
	Platforms   []string
	HasCreative bool
	// VideoLength is seconds for production and minutes for film. Nil means
	// 30; an explicit zero is priced as zero.
	VideoLength *int
}

// Tier describes one package level.
type Tier struct {
	Level       string  `json:"level"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	coef        float64
}

var tiers = []Tier{
	{Level: "S", Name: "Старт", Description: "Базовый охват, проверка гипотез", coef: 1.0},
	{Level: "M", Name: "Оптимальный", Description: "Лучшее соотношение цена/охват", coef: 1.7},
	{Level: "L", Name: "Премиум", Description: "Максимальный охват + бонусы", coef: 2.4},
}

// Package is a priced tier.
type Package struct {
	Tier
	Price      int64 `json:"price"`
	FinalPrice int64 `json:"finalPrice"`
	Discount   int   `json:"discount"`
	Savings    int64 `json:"savings"`
}

// Result is the full calculation.
type Result struct {
	Packages        []Package `json:"packages"`
	Discount        int       `json:"discount"`
	DiscountReasons []string  `json:"discountReasons"`
}

// ParseIntent accepts the calculator's intent strings. Unknown intents
// price as the default bundle.
func ParseIntent(value string) Intent {
	return Intent(strings.ToLower(strings.TrimSpace(value)))
}

// CalculatePackages prices the S/M/L tiers for intent.
func CalculatePackages(intent Intent, opts Options) Result {
	opts = withDefaults(opts)
	base := basePrice(intent, *opts.VideoLength)

	discount := 0
	reasons := make([]string, 0, 3)
	if intent == IntentCombo || (opts.HasCreative && intent == IntentPlacement) {
		discount += comboDiscountPct
		reasons = append(reasons, "Продакшн + размещение: -5%")
	}
	if opts.Duration == DurationThreeMonths || opts.Duration == DurationSixMonths {
		discount += periodDiscountPct
		reasons = append(reasons, "Период ≥ 3 месяцев: -7%")
	}
	if len(opts.Platforms) >= 3 {
		discount += multiDiscountPct
		reasons = append(reasons, "Мультиплатформа: -5%")
	}
	if discount > maxDiscountPct {
		discount = maxDiscountPct
	}

	packages := make([]Package, 0, len(tiers))
	for _, tier := range tiers {
		price := roundHalfUp(float64(base) * tier.coef)
		final := roundHalfUp(float64(price) * (1 - float64(discount)/100))
		packages = append(packages, Package{
			Tier:       tier,
			Price:      price,
			FinalPrice: final,
			Discount:   discount,
			Savings:    price - final,
		})
	}

	return Result{Packages: packages, Discount: discount, DiscountReasons: reasons}
}

func withDefaults(opts Options) Options {
	if opts.Duration == "" {
		opts.Duration = DurationOneMonth
	}
	if opts.Platforms == nil {
		opts.Platforms = []string{"air"}
	}
	if opts.VideoLength == nil {
		length := defaultVideoLength
		opts.VideoLength = &length
	}
	return opts
}

func basePrice(intent Intent, videoLength int) int64 {
	switch intent {
	case IntentPlacement:
		return placementBase
	case IntentProduction:
		return productionPrice(videoLength)
	case IntentFilm:
		if videoLength <= 5 {
			return 800_000
		}
		return 1_200_000
	case IntentCombo:
		return productionPrice(videoLength) + placementBase
	default:
		return defaultBase
	}
}

func productionPrice(seconds int) int64 {
	switch {
	case seconds <= 30:
		return 350_000
	case seconds <= 60:
		return 500_000
	default:
		return 800_000
	}
}

// roundHalfUp matches the calculator front end, which rounds .5 up.
func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}
