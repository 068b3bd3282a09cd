package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDocument(t *testing.T) {
	t.Run("Valid document", func(t *testing.T) {
		metadata := Metadata{"semester": 3}

		doc := NewDocument(42, "Discrete Mathematics", "dm_unit1.pdf", metadata)

		assert.Equal(t, int64(42), doc.SubjectID)
		assert.Equal(t, "Discrete Mathematics", doc.Title)
		assert.Equal(t, "dm_unit1.pdf", doc.Source)
		assert.Equal(t, metadata, doc.Metadata)
	})

	t.Run("Nil metadata", func(t *testing.T) {
		doc := NewDocument(1, "Physics", "", nil)

		assert.Nil(t, doc.Metadata)
		assert.Empty(t, doc.Source)
	})
}
