// Package units turns Japanese price and area notations into numbers.
package units

import (
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	okuMarker = "億" // 10^8
	manMarker = "万" // 10^4

	oku = 100_000_000
	man = 10_000
)

var (
	// leadingNumber mirrors a lenient float parse: optional sign, digits, optional fraction.
	leadingNumber = regexp.MustCompile(`^[\s\x{3000}]*([+-]?(?:\d+(?:\.\d*)?|\.\d+))`)

	salePrice = regexp.MustCompile(`(?:価格|購入価格)[\s\x{3000}]*[:：][\s\x{3000}]*([^\s\x{3000}]+)`)
	rentPrice = regexp.MustCompile(`(?:賃料|月々支払額)[\s\x{3000}]*[:：][\s\x{3000}]*([^\s\x{3000}]+)`)

	squareMeters = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)[\s\x{3000}]*(?:m2|m²|㎡)`)

	stripGlyphs    = strings.NewReplacer(",", "", "，", "", "円", "", "¥", "", "￥", "")
	stripThousands = strings.NewReplacer(",", "", "，", "")
)

// ParseMagnitude converts a composite numeral such as "1億5000万円" into whole currency units.
// The hundred-million part, when present, must come before the ten-thousand part.
// It returns nil for empty or unparseable input and for values that are not strictly positive.
func ParseMagnitude(raw string) *int64 {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	rest := stripGlyphs.Replace(raw)
	total := 0.0

	okuIdx := strings.Index(rest, okuMarker)
	if okuIdx != -1 {
		n, ok := parseLeading(rest[:okuIdx])
		if !ok {
			slog.Debug("could not parse hundred-million part", "raw", raw)
			return nil
		}
		total += n * oku
		rest = rest[okuIdx+len(okuMarker):]
	}

	manIdx := strings.Index(rest, manMarker)
	if manIdx != -1 {
		n, ok := parseLeading(rest[:manIdx])
		if !ok {
			slog.Debug("could not parse ten-thousand part", "raw", raw)
			return nil
		}
		total += n * man
	}

	if okuIdx == -1 && manIdx == -1 {
		if n, ok := parseLeading(rest); ok {
			total = n
		}
	}

	if math.IsNaN(total) || math.IsInf(total, 0) || total <= 0 {
		return nil
	}
	v := int64(math.Round(total))
	return &v
}

// ExtractPrice finds the labeled sale and rent amounts in a price cell such as
// "価格：7100万円" or "賃料：12.5万円". Either result is nil when its label is missing.
func ExtractPrice(text string) (sale, rent *int64) {
	if text == "" {
		return nil, nil
	}
	if m := salePrice.FindStringSubmatch(text); len(m) > 1 && m[1] != "" {
		sale = ParseMagnitude(m[1])
	}
	if m := rentPrice.FindStringSubmatch(text); len(m) > 1 && m[1] != "" {
		rent = ParseMagnitude(m[1])
	}
	return sale, rent
}

// ParseAreaM2 returns the first number directly followed by a square-meter unit.
func ParseAreaM2(raw string) *float64 {
	m := squareMeters.FindStringSubmatch(stripThousands.Replace(raw))
	if len(m) < 2 {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		slog.Warn("could not parse square meters", "raw", raw, "error", err)
		return nil
	}
	return &v
}

func parseLeading(s string) (float64, bool) {
	m := leadingNumber.FindStringSubmatch(s)
	if len(m) < 2 {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
