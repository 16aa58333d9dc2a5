package palette

import (
	"sort"
	"strings"
)

// SortKey selects the comparator used to order palette entries.
type SortKey string

const (
	// SortFrequency orders by descending pixel count.
	SortFrequency SortKey = "frequency"
	// SortHue orders by ascending HSV hue.
	SortHue SortKey = "hue"
	// SortSaturation orders by ascending HSV saturation.
	SortSaturation SortKey = "saturation"
	// SortValue orders by ascending HSV value.
	SortValue SortKey = "value"
	// SortLuminance orders by ascending relative luminance.
	SortLuminance SortKey = "luminance"
	// SortHex orders lexicographically by canonical hex string.
	SortHex SortKey = "hex"
)

// ValidSortKeys returns the recognized sort keys.
func ValidSortKeys() []SortKey {
	return []SortKey{SortFrequency, SortHue, SortSaturation, SortValue, SortLuminance, SortHex}
}

// IsValidSortKey checks if the given sort key is recognized.
func IsValidSortKey(key SortKey) bool {
	for _, valid := range ValidSortKeys() {
		if key == valid {
			return true
		}
	}
	return false
}

// SortEntries returns a reordered copy of entries under the chosen key.
// Ties are broken by the original extraction order, which makes the result
// a deterministic total order and sorting idempotent. With disabledFirst
// set, disabled entries are moved ahead of enabled ones and each group is
// ordered by the key internally. Entries themselves are never mutated.
func SortEntries(entries []Entry, key SortKey, disabledFirst bool) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)

	less := lessFunc(key)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if disabledFirst && a.Enabled != b.Enabled {
			return !a.Enabled
		}
		if c := less(a, b); c != 0 {
			return c < 0
		}
		return a.seq < b.seq
	})
	return out
}

// Sort replaces the palette's order with the result of SortEntries.
func (p *Palette) Sort(key SortKey, disabledFirst bool) {
	p.entries = SortEntries(p.entries, key, disabledFirst)
}

// lessFunc returns a three-way comparator for the given key. Unknown keys
// compare everything equal, which leaves the original order in place.
func lessFunc(key SortKey) func(a, b Entry) int {
	switch key {
	case SortFrequency:
		return func(a, b Entry) int {
			// Descending: more frequent colours first.
			return b.Count - a.Count
		}
	case SortHue:
		return hsvComparator(0)
	case SortSaturation:
		return hsvComparator(1)
	case SortValue:
		return hsvComparator(2)
	case SortLuminance:
		return func(a, b Entry) int {
			return cmpFloat(a.Color.Luminance(), b.Color.Luminance())
		}
	case SortHex:
		return func(a, b Entry) int {
			return strings.Compare(a.Hex(), b.Hex())
		}
	default:
		return func(a, b Entry) int { return 0 }
	}
}

// hsvComparator compares entries on one HSV component (0=h, 1=s, 2=v).
// Achromatic colours carry hue 0 and sort with the reds.
func hsvComparator(component int) func(a, b Entry) int {
	return func(a, b Entry) int {
		ah, as, av := a.Color.HSV()
		bh, bs, bv := b.Color.HSV()
		switch component {
		case 0:
			return cmpFloat(ah, bh)
		case 1:
			return cmpFloat(as, bs)
		default:
			return cmpFloat(av, bv)
		}
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
