package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandChannelPatternsMatchesGlobAgainstAvailable(t *testing.T) {
	available := []string{"Microsoft-Windows-DNS-Client", "Microsoft-Windows-Kernel-Power", "Application", "Security"}
	got := ExpandChannelPatterns([]string{"Microsoft-Windows-*", "Security"}, available)
	assert.ElementsMatch(t, []string{"Microsoft-Windows-DNS-Client", "Microsoft-Windows-Kernel-Power", "Security"}, got)
}

func TestExpandChannelPatternsDedupesOverlappingPatterns(t *testing.T) {
	available := []string{"Application"}
	got := ExpandChannelPatterns([]string{"App*", "*plication"}, available)
	assert.Equal(t, []string{"Application"}, got)
}

func TestExpandChannelPatternsIgnoresInvalidPattern(t *testing.T) {
	available := []string{"Application"}
	got := ExpandChannelPatterns([]string{"[invalid"}, available)
	assert.Empty(t, got)
}
