package model

import "strings"

// LevelRange is an inclusive range of cognitive levels (e.g. Bloom 1-6)
type LevelRange struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// Contains reports whether level falls inside the range.
// A zero range (0,0) accepts every level.
func (r LevelRange) Contains(level int) bool {
	if r.Min == 0 && r.Max == 0 {
		return true
	}
	return level >= r.Min && level <= r.Max
}

// QuestionSpec describes the topic and constraints of one question to be
// generated. It scopes retrieval by subject/unit and carries free-text
// descriptors that form the search query.
type QuestionSpec struct {
	SubjectID      int64      `json:"subject_id"`
	UnitIDs        []int64    `json:"unit_ids,omitempty"`
	Topic          string     `json:"topic,omitempty"`
	Descriptors    []string   `json:"descriptors,omitempty"`
	CognitiveLevel LevelRange `json:"cognitive_level"`
	Difficulty     int        `json:"difficulty,omitempty"`
	// ExcludeChunkIDs holds chunks already used earlier in the same
	// generation run. Excluded chunks are skipped until the pool is
	// exhausted, at which point retrieval allows reuse.
	ExcludeChunkIDs []int `json:"exclude_chunk_ids,omitempty"`
}

// QueryText builds the plain-text query used for both lexical search and
// query embedding. Topic first, then the remaining descriptors.
func (s *QuestionSpec) QueryText() string {
	parts := make([]string, 0, len(s.Descriptors)+1)
	if strings.TrimSpace(s.Topic) != "" {
		parts = append(parts, strings.TrimSpace(s.Topic))
	}
	for _, d := range s.Descriptors {
		if strings.TrimSpace(d) != "" {
			parts = append(parts, strings.TrimSpace(d))
		}
	}
	return strings.Join(parts, " ")
}

// AllowsUnit reports whether the spec permits a chunk from the given unit.
func (s *QuestionSpec) AllowsUnit(unitID int64) bool {
	if len(s.UnitIDs) == 0 {
		return true
	}
	for _, id := range s.UnitIDs {
		if id == unitID {
			return true
		}
	}
	return false
}
