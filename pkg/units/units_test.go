package units

import (
	"fmt"
	"math"
	"testing"
)

func TestParseMagnitude(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int64
		nil  bool
	}{
		{name: "hundred-million and ten-thousand", raw: "1億5000万円", want: 150000000},
		{name: "ten-thousand only", raw: "7100万円", want: 71000000},
		{name: "hundred-million only", raw: "2億円", want: 200000000},
		{name: "decimal ten-thousand", raw: "12.5万円", want: 125000},
		{name: "decimal hundred-million", raw: "1.25億円", want: 125000000},
		{name: "thousands separators", raw: "1億2,980万円", want: 129800000},
		{name: "plain number", raw: "98000円", want: 98000},
		{name: "trailing range ignored", raw: "7100万円～8200万円", want: 71000000},
		{name: "leading whitespace", raw: "  3980万円", want: 39800000},
		{name: "empty", raw: "", nil: true},
		{name: "blank", raw: "   ", nil: true},
		{name: "letters", raw: "abc", nil: true},
		{name: "undecided", raw: "未定", nil: true},
		{name: "zero", raw: "0万円", nil: true},
		{name: "negative", raw: "-5万円", nil: true},
		{name: "garbage before marker", raw: "約億", nil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMagnitude(tt.raw)
			if tt.nil {
				if got != nil {
					t.Errorf("ParseMagnitude(%q) = %d, want nil", tt.raw, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParseMagnitude(%q) = nil, want %d", tt.raw, tt.want)
			}
			if *got != tt.want {
				t.Errorf("ParseMagnitude(%q) = %d, want %d", tt.raw, *got, tt.want)
			}
		})
	}
}

func TestParseMagnitude_CompositeSum(t *testing.T) {
	pairs := []struct{ a, b string }{
		{"1", "5000"},
		{"3", "0.5"},
		{"0.75", "120"},
		{"12", "9999"},
		{"2.5", "2500.25"},
	}

	for _, p := range pairs {
		raw := fmt.Sprintf("%s億%s万", p.a, p.b)
		var a, b float64
		fmt.Sscanf(p.a, "%g", &a)
		fmt.Sscanf(p.b, "%g", &b)
		want := int64(math.Round(a*1e8 + b*1e4))

		got := ParseMagnitude(raw)
		if got == nil || *got != want {
			t.Errorf("ParseMagnitude(%q) = %v, want %d", raw, got, want)
		}
	}
}

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		text     string
		wantSale int64
		wantRent int64
	}{
		{"価格：7100万円", 71000000, 0},
		{"購入価格: 1億5000万円", 150000000, 0},
		{"賃料：12.5万円", 0, 125000},
		{"価格：4980万円 月々支払額：13.2万円", 49800000, 132000},
		{"7100万円", 0, 0},
		{"", 0, 0},
	}

	for _, tt := range tests {
		sale, rent := ExtractPrice(tt.text)
		if got := deref(sale); got != tt.wantSale {
			t.Errorf("ExtractPrice(%q) sale = %d, want %d", tt.text, got, tt.wantSale)
		}
		if got := deref(rent); got != tt.wantRent {
			t.Errorf("ExtractPrice(%q) rent = %d, want %d", tt.text, got, tt.wantRent)
		}
	}
}

func TestParseAreaM2(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		nil  bool
	}{
		{raw: "75.5m2", want: 75.5},
		{raw: "専有面積 62.12 m2（壁芯）", want: 62.12},
		{raw: "80M2", want: 80},
		{raw: "101.3㎡", want: 101.3},
		{raw: "1,234.56m2", want: 1234.56},
		{raw: "土地面積 1，050㎡", want: 1050},
		{raw: "no size given", nil: true},
		{raw: "", nil: true},
		{raw: "75.5", nil: true},
	}

	for _, tt := range tests {
		got := ParseAreaM2(tt.raw)
		if tt.nil {
			if got != nil {
				t.Errorf("ParseAreaM2(%q) = %v, want nil", tt.raw, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("ParseAreaM2(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func deref(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
