package records

import (
	"strings"
	"testing"
	"time"
)

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestBuildListing(t *testing.T) {
	fields := map[string]string{
		FieldCategory:    "中古マンション",
		FieldName:        "パークハウス港",
		FieldHref:        "/ms/chuko/tokyo/sc_minato/nc_75123456/",
		FieldDescription: "南向き",
		FieldImage:       "https://img.example/1.jpg",
	}
	cells := []string{"東京都港区芝浦1", "ＪＲ山手線「田町」", "徒歩5分", "価格：7100万円", "専有面積：62.5m2", "2005年3月"}

	l := BuildListing(fields, cells, "https://suumo.example", fixedNow)

	if l.ID != "/ms/chuko/tokyo/sc_minato/nc_75123456/" {
		t.Errorf("ID = %q", l.ID)
	}
	if l.URL != "https://suumo.example/ms/chuko/tokyo/sc_minato/nc_75123456/" {
		t.Errorf("URL = %q", l.URL)
	}
	if l.Station != "ＪＲ山手線「田町」 徒歩5分" {
		t.Errorf("Station = %q", l.Station)
	}
	if l.Address != "東京都港区芝浦1" || l.Price != "価格：7100万円" || l.Age != "2005年3月" {
		t.Errorf("unexpected positional fields: %+v", l)
	}
	if l.SalePriceUnits == nil || *l.SalePriceUnits != 71000000 {
		t.Errorf("SalePriceUnits = %v, want 71000000", l.SalePriceUnits)
	}
	if l.RentPriceUnits != nil {
		t.Errorf("RentPriceUnits = %v, want nil", *l.RentPriceUnits)
	}
	if l.AreaM2 == nil || *l.AreaM2 != 62.5 {
		t.Errorf("AreaM2 = %v, want 62.5", l.AreaM2)
	}
	if !l.UpdatedAt.Equal(fixedNow) || l.Processed {
		t.Errorf("UpdatedAt/Processed = %v/%v", l.UpdatedAt, l.Processed)
	}
}

func TestBuildListing_MissingFields(t *testing.T) {
	l := BuildListing(map[string]string{FieldHref: "https://other.example/x/"}, nil, "https://suumo.example", fixedNow)

	if l.URL != "https://other.example/x/" {
		t.Errorf("absolute href should be kept, got %q", l.URL)
	}
	if l.Name != "" || l.Address != "" || l.Station != "" || l.Price != "" || l.Size != "" || l.Age != "" {
		t.Errorf("missing fields should default to empty: %+v", l)
	}
	if l.SalePriceUnits != nil || l.RentPriceUnits != nil || l.AreaM2 != nil {
		t.Errorf("computed fields should be nil: %+v", l)
	}
}

func TestBuildListing_StationWithoutLine(t *testing.T) {
	l := BuildListing(map[string]string{FieldHref: "/a/"}, []string{"addr", "", "徒歩5分"}, "", fixedNow)
	if l.Station != "" {
		t.Errorf("Station = %q, want empty when line cell is empty", l.Station)
	}
}

func TestBuildListing_NoLink(t *testing.T) {
	fields := map[string]string{FieldName: "無名"}
	cells := []string{"東京都", "", "", "価格：1000万円"}

	a := BuildListing(fields, cells, "https://suumo.example", fixedNow)
	b := BuildListing(fields, cells, "https://suumo.example", fixedNow.Add(time.Hour))

	if !strings.HasPrefix(a.ID, NoLinkPrefix) {
		t.Fatalf("ID = %q, want %s prefix", a.ID, NoLinkPrefix)
	}
	if a.ID != b.ID {
		t.Errorf("no-link key not stable: %q vs %q", a.ID, b.ID)
	}
	if a.URL != "" || a.HasDetailURL() {
		t.Errorf("no-link listing should have no URL, got %q", a.URL)
	}

	other := BuildListing(map[string]string{FieldName: "別物件"}, cells, "", fixedNow)
	if other.ID == a.ID {
		t.Error("different cards must not share a no-link key")
	}
}

func TestBuildDetail(t *testing.T) {
	page := DetailPage{
		Title: "パークハウス港",
		Fields: map[string]string{
			"価格":   "7100万円",
			"専有面積": "62.12m2（壁芯）",
			"間取り":  "3LDK",
		},
		Features: []string{"南向き", "角部屋"},
	}

	d := BuildDetail(page, "https://suumo.example/nc_1/", fixedNow)

	if d.ID == "" {
		t.Error("detail ID should be generated")
	}
	if d.SalePriceUnits == nil || *d.SalePriceUnits != 71000000 {
		t.Errorf("SalePriceUnits = %v, want 71000000", d.SalePriceUnits)
	}
	if d.AreaM2 == nil || *d.AreaM2 != 62.12 {
		t.Errorf("AreaM2 = %v, want 62.12", d.AreaM2)
	}
	if d.RentPriceUnits != nil {
		t.Errorf("RentPriceUnits = %v, want nil", *d.RentPriceUnits)
	}
	if d.Fields["間取り"] != "3LDK" {
		t.Errorf("raw fields should pass through, got %v", d.Fields)
	}
	if d.SourceURL != "https://suumo.example/nc_1/" || !d.ScrapedAt.Equal(fixedNow) {
		t.Errorf("SourceURL/ScrapedAt = %q/%v", d.SourceURL, d.ScrapedAt)
	}
	if d.Images == nil {
		t.Error("Images should be an empty slice, not nil")
	}
}

func TestBuildDetail_LabelPriority(t *testing.T) {
	page := DetailPage{Fields: map[string]string{
		"販売価格": "5000万円",
		"価格":   "",
		"月々支払額": "12.5万円",
		"土地面積": "120.5m2",
	}}

	d := BuildDetail(page, "", fixedNow)

	if d.SalePriceUnits == nil || *d.SalePriceUnits != 50000000 {
		t.Errorf("empty 価格 should fall through to 販売価格, got %v", d.SalePriceUnits)
	}
	if d.RentPriceUnits == nil || *d.RentPriceUnits != 125000 {
		t.Errorf("RentPriceUnits = %v, want 125000", d.RentPriceUnits)
	}
	if d.AreaM2 == nil || *d.AreaM2 != 120.5 {
		t.Errorf("AreaM2 = %v, want 120.5", d.AreaM2)
	}
}
