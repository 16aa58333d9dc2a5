// Package palette holds the ordered, curatable result of a palette
// extraction: colours with their frequencies, sample provenance and
// enable/disable state.
package palette

import (
	"encoding/json"

	"github.com/spectral-tools/paleta/internal/colour"
)

// Sample is a pixel coordinate in original-image space recording where a
// palette colour was observed.
type Sample struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Entry is a single palette colour with its frequency and provenance.
type Entry struct {
	Color   colour.RGB
	Count   int
	Samples []Sample
	Enabled bool

	// seq is the position in the original extraction output, used as the
	// tie-breaker that keeps sorting deterministic and idempotent.
	seq int
}

// Hex returns the entry colour as a canonical hex string.
func (e Entry) Hex() string {
	return e.Color.Hex()
}

// Palette is an ordered, mutable collection of entries. A palette is owned
// exclusively by one session; a new extraction always produces a fresh
// palette rather than merging into an old one.
type Palette struct {
	entries []Entry
}

// New creates a palette from extraction output. Entry order is recorded as
// the sort tie-break baseline. Colours are expected to be unique; the
// extraction step guarantees this.
func New(entries []Entry) *Palette {
	for i := range entries {
		entries[i].seq = i
	}
	return &Palette{entries: entries}
}

// Len returns the number of entries in the palette.
func (p *Palette) Len() int {
	return len(p.entries)
}

// Entries returns a copy of the current entry sequence.
func (p *Palette) Entries() []Entry {
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Entry returns the entry at index i.
func (p *Palette) Entry(i int) (Entry, bool) {
	if i < 0 || i >= len(p.entries) {
		return Entry{}, false
	}
	return p.entries[i], true
}

// Toggle flips the enabled state of the entry at index i. Colour, count and
// position are untouched. Out-of-range indices are ignored.
func (p *Palette) Toggle(i int) {
	if i < 0 || i >= len(p.entries) {
		return
	}
	p.entries[i].Enabled = !p.entries[i].Enabled
}

// Add appends a manually chosen colour with count zero. Returns false when
// the colour is already present; palettes never hold duplicate colours.
func (p *Palette) Add(rgb colour.RGB) bool {
	for _, e := range p.entries {
		if e.Color == rgb {
			return false
		}
	}
	seq := 0
	for _, e := range p.entries {
		if e.seq >= seq {
			seq = e.seq + 1
		}
	}
	p.entries = append(p.entries, Entry{Color: rgb, Enabled: true, seq: seq})
	return true
}

// Remove deletes the entry at index i. Out-of-range indices are ignored.
func (p *Palette) Remove(i int) {
	if i < 0 || i >= len(p.entries) {
		return
	}
	p.entries = append(p.entries[:i], p.entries[i+1:]...)
}

// SetSamples replaces the sample locations of the entry at index i. Used by
// the extraction layer to backfill provenance for entries that have none;
// colour, count and enabled state are untouched.
func (p *Palette) SetSamples(i int, samples []Sample) {
	if i < 0 || i >= len(p.entries) {
		return
	}
	p.entries[i].Samples = samples
}

// HexList returns the hex strings of the entries in current order. With
// enabledOnly set, disabled entries are skipped.
func (p *Palette) HexList(enabledOnly bool) []string {
	out := make([]string, 0, len(p.entries))
	for _, e := range p.entries {
		if enabledOnly && !e.Enabled {
			continue
		}
		out = append(out, e.Hex())
	}
	return out
}

// TotalCount returns the sum of entry frequencies.
func (p *Palette) TotalCount() int {
	total := 0
	for _, e := range p.entries {
		total += e.Count
	}
	return total
}

// entryJSON is the wire representation of an Entry.
type entryJSON struct {
	Hex     string     `json:"hex"`
	RGB     colour.RGB `json:"rgb"`
	Count   int        `json:"count"`
	Enabled bool       `json:"enabled"`
	Samples []Sample   `json:"samples,omitempty"`
}

// ToJSON renders the palette in its current order as indented JSON.
func (p *Palette) ToJSON() ([]byte, error) {
	entries := make([]entryJSON, len(p.entries))
	for i, e := range p.entries {
		entries[i] = entryJSON{
			Hex:     e.Hex(),
			RGB:     e.Color,
			Count:   e.Count,
			Enabled: e.Enabled,
			Samples: e.Samples,
		}
	}
	return json.MarshalIndent(struct {
		Count  int         `json:"count"`
		Colors []entryJSON `json:"colors"`
	}{Count: len(entries), Colors: entries}, "", "  ")
}
