package pattern

import (
	"sort"
	"strings"
	"time"
)

const ms = time.Millisecond

// DefaultPresetID applies when a slot has neither a custom pattern nor a preset.
const DefaultPresetID = "single"

var presets = map[string]Pattern{
	"single":    MustNew(200 * ms),
	"double":    MustNew(100*ms, 100*ms, 100*ms),
	"triple":    MustNew(100*ms, 100*ms, 100*ms, 100*ms, 100*ms),
	"long":      MustNew(500 * ms),
	"heartbeat": MustNew(100*ms, 50*ms, 300*ms),
}

// Preset looks up a legacy preset by id.
func Preset(id string) (Pattern, bool) {
	p, ok := presets[strings.ToLower(strings.TrimSpace(id))]
	return p, ok
}

// PresetIDs lists known preset ids, sorted.
func PresetIDs() []string {
	out := make([]string, 0, len(presets))
	for id := range presets {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Default is the pattern of DefaultPresetID.
func Default() Pattern { return presets[DefaultPresetID] }

// MigratePreset converts a legacy preset id into an editable custom chain.
// Unknown or empty ids fall back to the default preset.
func MigratePreset(id string) Pattern {
	if p, ok := Preset(id); ok {
		return p
	}
	return Default()
}
