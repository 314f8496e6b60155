package spec

import (
	"strings"
)

// ParseTags splits a comma-delimited tag list into a clean slice.
// An empty or whitespace-only input yields nil, never the single
// empty-string tag "" (which would accidentally match nothing useful).
func ParseTags(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var tags []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}

// Included reports whether a case should run given the active tag set.
// A case runs when no tags are active, when it declares no tags of its
// own, or when the two sets intersect.
func Included(c *Case, activeTags []string) bool {
	if len(activeTags) == 0 || len(c.Config.Tags) == 0 {
		return true
	}
	for _, active := range activeTags {
		for _, tag := range c.Config.Tags {
			if tag == active {
				return true
			}
		}
	}
	return false
}
