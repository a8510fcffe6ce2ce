package fsview

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

type exclusionMatchType int

const (
	literalMatch exclusionMatchType = iota
	prefixMatch
	suffixMatch
	globMatch
)

// exclusion stores the pre-analyzed pattern details.
type exclusion struct {
	pattern      string             // The original pattern for logging/debugging.
	cleanPattern string             // The pattern without wildcards for prefix/suffix matching.
	matchType    exclusionMatchType // The type of match to perform.
}

// ExclusionSet holds categorized exclusion patterns for efficient matching.
// Literal patterns are checked via map lookup; everything else falls through
// to prefix/suffix fast paths and finally doublestar glob matching.
type ExclusionSet struct {
	literals    map[string]struct{}
	nonLiterals []exclusion
}

// NewExclusionSet analyzes and categorizes patterns to enable optimized
// matching later. When isDirPatterns is set, wildcard-free patterns are
// treated as directory prefixes so that everything inside the excluded
// directory is excluded too.
func NewExclusionSet(patterns []string, isDirPatterns bool) ExclusionSet {
	set := ExclusionSet{
		literals:    make(map[string]struct{}),
		nonLiterals: make([]exclusion, 0, len(patterns)),
	}

	for _, p := range patterns {
		// Normalize to forward slashes for consistent matching logic.
		p = strings.ReplaceAll(p, "\\", "/")

		if strings.ContainsAny(p, "*?[]{}") {
			if strings.HasSuffix(p, "/*") {
				// A prefix pattern like `build/*` can skip glob matching entirely.
				set.nonLiterals = append(set.nonLiterals, exclusion{
					pattern:      p,
					cleanPattern: strings.TrimSuffix(p, "/*"),
					matchType:    prefixMatch,
				})
			} else if strings.HasPrefix(p, "*") && !strings.ContainsAny(p[1:], "*?[]{}") {
				// A suffix pattern like `*.log` reduces to a string suffix check.
				set.nonLiterals = append(set.nonLiterals, exclusion{
					pattern:      p,
					cleanPattern: p[1:],
					matchType:    suffixMatch,
				})
			} else {
				set.nonLiterals = append(set.nonLiterals, exclusion{pattern: p, matchType: globMatch})
			}
			continue
		}

		// No wildcards. Directory patterns and trailing-slash patterns exclude
		// their whole subtree; plain file names are literal matches.
		if isDirPatterns || strings.HasSuffix(p, "/") {
			set.nonLiterals = append(set.nonLiterals, exclusion{
				pattern:      p,
				cleanPattern: strings.TrimSuffix(p, "/"),
				matchType:    prefixMatch,
			})
		} else {
			set.literals[p] = struct{}{}
		}
	}
	return set
}

// Empty reports whether the set contains no patterns at all.
func (s ExclusionSet) Empty() bool {
	return len(s.literals) == 0 && len(s.nonLiterals) == 0
}

// Matches checks if the given slash-normalized relative path matches any of
// the exclusion patterns. Invalid glob patterns never match.
func (s ExclusionSet) Matches(relPath string) bool {
	if _, ok := s.literals[relPath]; ok {
		return true
	}

	for _, e := range s.nonLiterals {
		switch e.matchType {
		case prefixMatch:
			// Exact match for the excluded directory itself, or anything inside it.
			if relPath == e.cleanPattern || strings.HasPrefix(relPath, e.cleanPattern+"/") {
				return true
			}
		case suffixMatch:
			if strings.HasSuffix(relPath, e.cleanPattern) {
				return true
			}
		case globMatch:
			if match, err := doublestar.Match(e.pattern, relPath); err == nil && match {
				return true
			}
		}
	}
	return false
}
