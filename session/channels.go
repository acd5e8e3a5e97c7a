package session

import "github.com/gobwas/glob"

// ExpandChannelPatterns expands glob-style channel selectors (e.g.
// "Microsoft-Windows-*") against the enumerated source list. This is a
// supplemented feature: spec.md's FilterState has no notion of channel
// globbing, so this only affects which channels a session subscribes
// to, never filter semantics. Grounded on the teacher's
// shouldProcessField, which matches field names against glob-style
// patterns via filepath.Match; gobwas/glob gives the same matching
// power without shell-specific escaping quirks.
func ExpandChannelPatterns(patterns []string, available []string) []string {
	var compiled []glob.Glob
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			continue
		}
		compiled = append(compiled, g)
	}

	seen := make(map[string]struct{})
	var out []string
	for _, channel := range available {
		for _, g := range compiled {
			if g.Match(channel) {
				if _, dup := seen[channel]; !dup {
					seen[channel] = struct{}{}
					out = append(out, channel)
				}
				break
			}
		}
	}
	return out
}
