package pipeline

import (
	"strings"

	"github.com/vaishnavipawardottech/anticheating-sub000/model"
)

// tableDelimiters in detection priority order; the first one present in
// the table text wins
var tableDelimiters = []string{"|", "\t", ","}

// detectDelimiter picks the cell delimiter used by the raw table text
func detectDelimiter(text string) string {
	for _, d := range tableDelimiters {
		if strings.Contains(text, d) {
			return d
		}
	}
	return ""
}

// splitCells splits one table line into trimmed cells
func splitCells(line, delimiter string) []string {
	var cells []string
	for _, c := range strings.Split(line, delimiter) {
		c = strings.TrimSpace(c)
		if c != "" {
			cells = append(cells, c)
		}
	}
	return cells
}

// TableToRowChunks decomposes a table's raw text into one schema-summary
// chunk plus one chunk per data row. All chunks share TableID equal to the
// originating element order and rows are 0-indexed. Rows that reduce to
// trivial or symbol-only content are skipped.
func TableToRowChunks(tableText, sectionPath string, page *int, elementOrder int, includeSchema bool) []model.Chunk {
	lines := nonEmptyLines(tableText)
	if len(lines) == 0 {
		return nil
	}

	delimiter := detectDelimiter(tableText)
	tableID := int64(elementOrder)

	var chunks []model.Chunk
	newChunk := func(text string, rowID *int64, chunkType model.ChunkType) model.Chunk {
		if sectionPath != "" {
			text = "Path: " + sectionPath + "\n\n" + text
		}
		return model.Chunk{
			Text:         text,
			SectionPath:  sectionPath,
			ChunkType:    chunkType,
			PageStart:    page,
			PageEnd:      page,
			SourceOrders: []int64{int64(elementOrder)},
			TableID:      &tableID,
			RowID:        rowID,
		}
	}

	dataLines := lines
	if delimiter != "" && includeSchema {
		header := splitCells(lines[0], delimiter)
		if len(header) > 1 {
			schema := "Table columns: " + strings.Join(header, " | ")
			chunks = append(chunks, newChunk(schema, nil, model.ChunkTypeTableSchema))
			dataLines = lines[1:]
		}
	}

	rowID := int64(0)
	for _, line := range dataLines {
		var rowText string
		if delimiter == "" {
			rowText = line
		} else {
			cells := splitCells(line, delimiter)
			rowText = strings.Join(cells, " | ")
		}
		if isTrivialText(rowText) {
			continue
		}
		id := rowID
		chunks = append(chunks, newChunk(rowText, &id, model.ChunkTypeTableRow))
		rowID++
	}

	return chunks
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
