// Package rank implements the comma-separated multi-tag rank field shared
// by the profile table and the leaderboard reconciler. The field always
// resolves to a non-empty set of unique tags; when everything else is
// removed the default member tag remains.
package rank

import "strings"

const (
	// DefaultTag marks an ordinary member and never disappears from a
	// profile's rank field.
	DefaultTag = "მომხმარებელი"
	// BoosterTag is granted automatically to the current top profiles by
	// view count.
	BoosterTag = "ბუსტერი"
	// AdminTag gates the manual rank-correction endpoints.
	AdminTag = "ადმინისტრატორი"
)

const separator = ", "

// Parse splits a raw rank field into its tags: comma-separated, trimmed,
// empties dropped, duplicates removed with first occurrence winning. An
// empty or blank input parses to the singleton default tag.
func Parse(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		tag := strings.TrimSpace(p)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		return []string{DefaultTag}
	}
	return tags
}

// Serialize joins tags back into the stored representation. An empty set
// serializes as the default tag so the field never goes blank.
func Serialize(tags []string) string {
	if len(tags) == 0 {
		return DefaultTag
	}
	return strings.Join(tags, separator)
}

// Has reports whether the raw rank field contains the tag.
func Has(raw, tag string) bool {
	for _, t := range Parse(raw) {
		if t == tag {
			return true
		}
	}
	return false
}

// Add inserts tag into the rank field. Adding a tag that is already
// present is a no-op in set terms.
func Add(raw, tag string) string {
	tags := Parse(raw)
	for _, t := range tags {
		if t == tag {
			return Serialize(tags)
		}
	}
	return Serialize(append(tags, tag))
}

// Remove deletes tag from the rank field, re-applying the never-empty
// rule. Removing an absent tag is a no-op.
func Remove(raw, tag string) string {
	tags := Parse(raw)
	kept := tags[:0]
	for _, t := range tags {
		if t != tag {
			kept = append(kept, t)
		}
	}
	return Serialize(kept)
}
