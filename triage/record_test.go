package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeFirstSeenWins(t *testing.T) {
	records := []Record{
		{NUC: "A", Narrative: "first A"},
		{NUC: "B", Narrative: "only B"},
		{NUC: "A", Narrative: "second A"},
		{NUC: "C", Narrative: "only C"},
	}

	unique := Dedupe(records)
	assert.Len(t, unique, 3)
	assert.Equal(t, "A", unique[0].NUC)
	assert.Equal(t, "first A", unique[0].Narrative, "first occurrence retained")
	assert.Equal(t, "B", unique[1].NUC)
	assert.Equal(t, "C", unique[2].NUC)
}

func TestDedupeNoDuplicates(t *testing.T) {
	records := []Record{{NUC: "A"}, {NUC: "B"}}
	assert.Equal(t, records, Dedupe(records))
}

func TestDedupeEmpty(t *testing.T) {
	assert.Empty(t, Dedupe(nil))
}
