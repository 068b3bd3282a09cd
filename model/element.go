package model

import (
	"fmt"
	"strings"
)

// ElementType is the parser-assigned type of a document element
type ElementType string

const (
	ElementTypeTitle         ElementType = "Title"
	ElementTypeHeading       ElementType = "Heading"
	ElementTypeHeader        ElementType = "Header"
	ElementTypeNarrativeText ElementType = "NarrativeText"
	ElementTypeListItem      ElementType = "ListItem"
	ElementTypeTable         ElementType = "Table"
	ElementTypeImage         ElementType = "Image"
	ElementTypeFigureCaption ElementType = "FigureCaption"
	ElementTypeUncategorized ElementType = "UncategorizedText"
)

// ElementCategory is the coarse content category of a document element
type ElementCategory string

const (
	CategoryText    ElementCategory = "TEXT"
	CategoryTable   ElementCategory = "TABLE"
	CategoryDiagram ElementCategory = "DIAGRAM"
	CategoryCode    ElementCategory = "CODE"
	CategoryFormula ElementCategory = "FORMULA"
	CategoryOther   ElementCategory = "OTHER"
)

var validCategories = map[ElementCategory]bool{
	CategoryText:    true,
	CategoryTable:   true,
	CategoryDiagram: true,
	CategoryCode:    true,
	CategoryFormula: true,
	CategoryOther:   true,
}

var validTypes = map[ElementType]bool{
	ElementTypeTitle:         true,
	ElementTypeHeading:       true,
	ElementTypeHeader:        true,
	ElementTypeNarrativeText: true,
	ElementTypeListItem:      true,
	ElementTypeTable:         true,
	ElementTypeImage:         true,
	ElementTypeFigureCaption: true,
	ElementTypeUncategorized: true,
}

// Element is one parsed document element in reading order.
// Elements are immutable once parsed.
type Element struct {
	Order    int             `json:"order"`
	Text     string          `json:"text"`
	Type     ElementType     `json:"type"`
	Page     *int            `json:"page,omitempty"`
	Category ElementCategory `json:"category"`
}

// NewElement validates type and category at construction.
// An empty category defaults to TEXT.
func NewElement(order int, text string, elementType ElementType, page *int, category ElementCategory) (*Element, error) {
	if !validTypes[elementType] {
		return nil, fmt.Errorf("invalid element type: %q", elementType)
	}
	if category == "" {
		category = CategoryText
	}
	if !validCategories[category] {
		return nil, fmt.Errorf("invalid element category: %q", category)
	}
	return &Element{
		Order:    order,
		Text:     text,
		Type:     elementType,
		Page:     page,
		Category: category,
	}, nil
}

// IsHeadingType reports whether the element type names a heading
// (Title, Heading or Header, matched case-insensitively by substring
// so parser variants like "SectionHeader" also count).
func (e *Element) IsHeadingType() bool {
	return isHeadingTypeName(e.Type)
}

func isHeadingTypeName(t ElementType) bool {
	name := strings.ToLower(string(t))
	return strings.Contains(name, "title") ||
		strings.Contains(name, "heading") ||
		strings.Contains(name, "header")
}

// NormalizedElement is an element after fragment merging and junk
// filtering. SourceOrders holds the orders of all original elements
// merged into it, strictly increasing and never empty.
type NormalizedElement struct {
	Text         string          `json:"text"`
	SourceOrders []int           `json:"source_orders"`
	Page         *int            `json:"page,omitempty"`
	Type         ElementType     `json:"type"`
	Category     ElementCategory `json:"category"`
}

// IsHeadingType reports whether the merged element's type names a heading.
func (n *NormalizedElement) IsHeadingType() bool {
	return isHeadingTypeName(n.Type)
}
