package layout

import (
	"strings"
)

// Profile describes one known layout: the keywords that identify its
// header, the columns a well-formed file carries, and the function that
// turns a row into a canonical transaction.
type Profile struct {
	Tag      Tag
	Label    string
	Keywords []string
	Required []string
	Parse    func(row RawRow) (*Transaction, error)
}

// profiles is checked in declaration order. The order is part of the
// contract: overlapping keyword sets (商品コード appears in more than one
// vendor's header) must resolve deterministically, so the first profile
// with at least one keyword hit wins.
var profiles = []Profile{
	detailFuelProfile,
	billingV1Profile,
	billingV2Profile,
}

// Classify matches a decoded header row against the known profiles.
// Matching is case-insensitive substring containment: vendor headers wrap
// keywords in longer labels (カードコード contains カード) and mix
// full-width variants. No match returns ErrUnknownFormat.
func Classify(header []string) (Profile, error) {
	cells := make([]string, len(header))
	for i, h := range header {
		cells[i] = strings.ToLower(cleanCell(h))
	}

	for _, p := range profiles {
		if headerMatches(cells, p.Keywords) {
			return p, nil
		}
	}
	return Profile{Tag: Unknown}, ErrUnknownFormat
}

func headerMatches(cells []string, keywords []string) bool {
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		for _, cell := range cells {
			if strings.Contains(cell, kw) {
				return true
			}
		}
	}
	return false
}

// Profiles returns the known profiles in priority order.
func Profiles() []Profile {
	out := make([]Profile, len(profiles))
	copy(out, profiles)
	return out
}

// ByTag returns the profile for a tag.
func ByTag(tag Tag) (Profile, bool) {
	for _, p := range profiles {
		if p.Tag == tag {
			return p, true
		}
	}
	return Profile{}, false
}
