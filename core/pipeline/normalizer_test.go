package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaishnavipawardottech/anticheating-sub000/model"
)

func textElement(order int, text string) model.Element {
	return model.Element{
		Order:    order,
		Text:     text,
		Type:     model.ElementTypeNarrativeText,
		Category: model.CategoryText,
	}
}

func TestNormalize(t *testing.T) {
	t.Run("Drops empty and junk elements", func(t *testing.T) {
		elements := []model.Element{
			textElement(0, "A set is a collection of distinct objects."),
			textElement(1, "   "),
			textElement(2, "-"),
			textElement(3, "-----"),
			textElement(4, "Relations are subsets of cartesian products."),
		}

		result := Normalize(elements)

		require.Len(t, result, 2)
		assert.Equal(t, []int{0}, result[0].SourceOrders)
		assert.Equal(t, []int{4}, result[1].SourceOrders)
	})

	t.Run("Merges short fragment forward", func(t *testing.T) {
		elements := []model.Element{
			textElement(0, "A set is"),
			textElement(1, "a collection of distinct objects."),
		}

		result := Normalize(elements)

		require.Len(t, result, 1)
		assert.Equal(t, "A set is a collection of distinct objects.", result[0].Text)
		assert.Equal(t, []int{0, 1}, result[0].SourceOrders)
	})

	t.Run("Merge repeats until sentence is complete", func(t *testing.T) {
		elements := []model.Element{
			textElement(0, "The union"),
			textElement(1, "of two"),
			textElement(2, "sets contains every element of both."),
			textElement(3, "The next sentence stands alone."),
		}

		result := Normalize(elements)

		require.Len(t, result, 2)
		assert.Equal(t, "The union of two sets contains every element of both.", result[0].Text)
		assert.Equal(t, []int{0, 1, 2}, result[0].SourceOrders)
		assert.Equal(t, []int{3}, result[1].SourceOrders)
	})

	t.Run("Terminal fragment is not merged", func(t *testing.T) {
		elements := []model.Element{
			textElement(0, "technology."),
			textElement(1, "continuation of the definition."),
		}

		result := Normalize(elements)

		require.Len(t, result, 2)
		assert.Equal(t, "technology.", result[0].Text)
	})

	t.Run("Heading fragment is not merged", func(t *testing.T) {
		elements := []model.Element{
			{Order: 0, Text: "Unit 1: Sets", Type: model.ElementTypeHeading, Category: model.CategoryText},
			textElement(1, "A set is a collection of distinct objects."),
		}

		result := Normalize(elements)

		require.Len(t, result, 2)
		assert.Equal(t, "Unit 1: Sets", result[0].Text)
		assert.Equal(t, model.ElementTypeHeading, result[0].Type)
	})

	t.Run("Merge stops at non-TEXT boundary", func(t *testing.T) {
		elements := []model.Element{
			textElement(0, "See the"),
			{Order: 1, Text: "x^2 + y^2 = z^2", Type: model.ElementTypeNarrativeText, Category: model.CategoryFormula},
		}

		result := Normalize(elements)

		require.Len(t, result, 2)
		assert.Equal(t, "See the", result[0].Text)
	})

	t.Run("Merge skips junk in between", func(t *testing.T) {
		elements := []model.Element{
			textElement(0, "The complement"),
			textElement(1, "--"),
			textElement(2, "of a set holds everything outside it."),
		}

		result := Normalize(elements)

		require.Len(t, result, 1)
		assert.Equal(t, "The complement of a set holds everything outside it.", result[0].Text)
		assert.Equal(t, []int{0, 2}, result[0].SourceOrders)
	})

	t.Run("Collapses immediate duplicates", func(t *testing.T) {
		elements := []model.Element{
			textElement(0, "A set is a collection of distinct objects."),
			textElement(1, "A set is a collection of distinct objects."),
			textElement(2, "Something else entirely happened here."),
		}

		result := Normalize(elements)

		require.Len(t, result, 2)
		assert.Equal(t, []int{0}, result[0].SourceOrders)
	})

	t.Run("Source orders strictly increasing", func(t *testing.T) {
		elements := []model.Element{
			textElement(3, "The empty"),
			textElement(7, "set has no elements at all."),
		}

		result := Normalize(elements)

		require.Len(t, result, 1)
		assert.Equal(t, []int{3, 7}, result[0].SourceOrders)
	})

	t.Run("Idempotent on its own output", func(t *testing.T) {
		elements := []model.Element{
			textElement(0, "A set is"),
			textElement(1, "a collection of distinct objects."),
			textElement(2, "•"),
			textElement(3, "Functions map inputs to outputs."),
			textElement(4, "Functions map inputs to outputs."),
		}

		first := Normalize(elements)

		// Re-express the normalized stream as elements and run again.
		again := make([]model.Element, len(first))
		for i, n := range first {
			again[i] = model.Element{
				Order:    n.SourceOrders[0],
				Text:     n.Text,
				Type:     n.Type,
				Page:     n.Page,
				Category: n.Category,
			}
		}
		second := Normalize(again)

		require.Len(t, second, len(first))
		for i := range first {
			assert.Equal(t, first[i].Text, second[i].Text)
		}
	})

	t.Run("Empty input", func(t *testing.T) {
		result := Normalize(nil)

		assert.Empty(t, result)
	})
}
