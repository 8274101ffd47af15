package layout

import "strings"

// FuelClass is a coarse product category derived from the product name.
// Vendor product codes differ per network, but the names are consistent
// enough to classify for reporting.
type FuelClass string

const (
	ClassDiesel  FuelClass = "fuel_diesel"
	ClassPremium FuelClass = "fuel_premium"
	ClassRegular FuelClass = "fuel_regular"
	ClassAdBlue  FuelClass = "adblue"
	ClassWash    FuelClass = "wash"
	ClassOil     FuelClass = "oil"
	ClassOther   FuelClass = "other"
)

var classKeywords = []struct {
	class    FuelClass
	keywords []string
}{
	{ClassDiesel, []string{"軽油", "diesel", "ディーゼル"}},
	{ClassPremium, []string{"ハイオク", "premium", "プレミアム"}},
	{ClassRegular, []string{"レギュラー", "regular"}},
	{ClassAdBlue, []string{"アドブルー", "adblue", "尿素水"}},
	{ClassWash, []string{"洗車", "wash", "洗浄"}},
	{ClassOil, []string{"オイル", "oil"}},
}

// ClassifyProduct maps a product name to its fuel class. Unknown or empty
// names fall into ClassOther.
func ClassifyProduct(name string) FuelClass {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ClassOther
	}
	for _, c := range classKeywords {
		for _, kw := range c.keywords {
			if strings.Contains(name, kw) {
				return c.class
			}
		}
	}
	return ClassOther
}
