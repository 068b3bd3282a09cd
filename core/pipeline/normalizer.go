package pipeline

import (
	"regexp"
	"strings"

	"github.com/vaishnavipawardottech/anticheating-sub000/model"
)

// junkTokens are lone glyphs parsers emit for rules and bullets
var junkTokens = map[string]bool{
	"-": true,
	"–": true,
	"—": true,
	"•": true,
	"*": true,
	"|": true,
	".": true,
	"·": true,
}

// separatorRun matches repeated decorative glyphs like "-----" or "****"
var separatorRun = regexp.MustCompile(`^[-_=*.•~·|\s]{2,}$`)

// sentenceTerminal matches text ending a full sentence
var sentenceTerminal = regexp.MustCompile(`[.!?:;][)"']?$`)

// maxFragmentWords is the largest element still considered a sentence
// fragment eligible for forward merging
const maxFragmentWords = 4

// isJunkText reports whether text carries no content worth keeping
func isJunkText(text string) bool {
	return junkTokens[text] || separatorRun.MatchString(text)
}

// isFragment reports whether text is an incomplete sentence opening that
// should be merged with the following TEXT element. Headings and captions
// never merge; they carry structure the section path builder needs intact.
func isFragment(el *model.Element, text string) bool {
	if el.Category != model.CategoryText {
		return false
	}
	if el.IsHeadingType() || el.Type == model.ElementTypeFigureCaption {
		return false
	}
	if sentenceTerminal.MatchString(text) {
		return false
	}
	return len(strings.Fields(text)) <= maxFragmentWords
}

// Normalize converts raw parsed elements into a cleaned stream: empty and
// junk elements are dropped, immediately-repeated text is collapsed to its
// first occurrence, and short sentence fragments are merged forward into
// the following TEXT element until a full sentence or a non-merge boundary
// is reached. The result is deterministic and running Normalize over its
// own output (re-expressed as elements) changes nothing.
func Normalize(elements []model.Element) []model.NormalizedElement {
	var out []model.NormalizedElement
	prevText := ""

	for i := 0; i < len(elements); i++ {
		el := elements[i]
		text := strings.TrimSpace(el.Text)
		if text == "" || isJunkText(text) {
			continue
		}
		if text == prevText {
			// duplicate parser emission
			continue
		}

		orders := []int{el.Order}
		page := el.Page

		// Merge forward while the accumulated text is still a fragment.
		// Junk and empty elements inside the run are skipped, not treated
		// as boundaries, so a second pass finds nothing left to merge.
		for isFragment(&el, text) && i+1 < len(elements) {
			next := elements[i+1]
			nextText := strings.TrimSpace(next.Text)
			if nextText == "" || isJunkText(nextText) {
				i++
				continue
			}
			if next.Category != model.CategoryText || next.IsHeadingType() || next.Type == model.ElementTypeFigureCaption {
				break
			}
			text = text + " " + nextText
			orders = append(orders, next.Order)
			if page == nil {
				page = next.Page
			}
			i++
		}

		prevText = text
		out = append(out, model.NormalizedElement{
			Text:         text,
			SourceOrders: orders,
			Page:         page,
			Type:         el.Type,
			Category:     el.Category,
		})
	}

	return out
}
