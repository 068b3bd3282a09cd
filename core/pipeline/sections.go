package pipeline

import (
	"regexp"
	"strings"

	"github.com/vaishnavipawardottech/anticheating-sub000/model"
)

// PathSeparator joins heading levels in a stored section path
const PathSeparator = " > "

// boilerplatePatterns match institutional headings that describe the
// issuing body rather than document structure. They never enter a path.
var boilerplatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(university|college|institute|polytechnic)\b`),
	regexp.MustCompile(`(?i)\bdepartment\s+of\b`),
	regexp.MustCompile(`(?i)\bschool\s+of\b`),
	regexp.MustCompile(`(?i)\bautonomous\s+institute\b`),
	regexp.MustCompile(`(?i)\b(accredited|affiliated|naac|aicte)\b`),
	regexp.MustCompile(`(?i)\bacademic\s+year\b`),
	// city with a trailing PIN code, e.g. "Pune - 411043"
	regexp.MustCompile(`[A-Za-z]+\s*[-,]\s*\d{6}\b`),
}

// majorHeadingPatterns match headings that open a real document division
// even when very short, e.g. "Unit III" or "2.4 Relations".
var majorHeadingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^unit[\s-]*(?:[ivxlcdm]+|\d+)\b`),
	regexp.MustCompile(`(?i)^(chapter|module|section|part|lecture)[\s-]*(?:[ivxlcdm]+|\d+)\b`),
	regexp.MustCompile(`^\d+\.\d+`),
	regexp.MustCompile(`^\d+\.\s+\S`),
}

// labelPatterns match callout headings that label the following passage
// instead of opening a section, e.g. "Note" or "Example 3.2".
var labelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(note|example|remark|definition|theorem|lemma|corollary|proof|solution|exercise|activity|problem|question)s?\b[\s\d.:)-]*$`),
}

// minStructuralWords is the shortest heading accepted as structural
// without matching a major heading pattern
const minStructuralWords = 3

// IsBoilerplateHeading reports whether text is institutional boilerplate
func IsBoilerplateHeading(text string) bool {
	for _, p := range boilerplatePatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// IsMajorHeading reports whether text matches a major document division
func IsMajorHeading(text string) bool {
	for _, p := range majorHeadingPatterns {
		if p.MatchString(strings.TrimSpace(text)) {
			return true
		}
	}
	return false
}

// IsLabelHeading reports whether text is a callout label like "Note" or
// "Example 3.2" that should prefix the following passage
func IsLabelHeading(text string) bool {
	for _, p := range labelPatterns {
		if p.MatchString(strings.TrimSpace(text)) {
			return true
		}
	}
	return false
}

// IsStructuralHeading reports whether a heading-typed element's text
// represents real hierarchy. Fragments under three words are demoted
// unless they match a major heading pattern, so 1-2 word PDF fragments
// do not pollute the path.
func IsStructuralHeading(text string) bool {
	if IsBoilerplateHeading(text) {
		return false
	}
	if IsMajorHeading(text) {
		return true
	}
	return len(strings.Fields(text)) >= minStructuralWords
}

// SectionPathBuilder maintains the flat breadcrumb of enclosing headings.
// It is a flat rebuild, not a tree: a major heading resets the breadcrumb
// to itself, and a following non-major structural heading replaces the
// previous non-major tail instead of nesting under it.
type SectionPathBuilder struct {
	crumbs []string
}

// NewSectionPathBuilder creates an empty builder
func NewSectionPathBuilder() *SectionPathBuilder {
	return &SectionPathBuilder{}
}

// Push records a structural heading and updates the breadcrumb
func (b *SectionPathBuilder) Push(heading string) {
	heading = strings.TrimSpace(heading)
	if IsMajorHeading(heading) {
		b.crumbs = []string{heading}
		return
	}
	if n := len(b.crumbs); n > 1 {
		b.crumbs[n-1] = heading
		return
	}
	b.crumbs = append(b.crumbs, heading)
}

// Current returns the breadcrumb joined with the path separator
func (b *SectionPathBuilder) Current() string {
	return strings.Join(b.crumbs, PathSeparator)
}

// BuildPaths returns one section path per input element, same length and
// order. A structural heading receives the path including itself; every
// other element inherits the last path. Boilerplate and demoted heading
// fragments never appear in any path.
func BuildPaths(elements []model.Element) []string {
	builder := NewSectionPathBuilder()
	paths := make([]string, len(elements))

	for i, el := range elements {
		text := strings.TrimSpace(el.Text)
		if el.IsHeadingType() && IsStructuralHeading(text) {
			builder.Push(text)
		}
		paths[i] = builder.Current()
	}

	return paths
}
