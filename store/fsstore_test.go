package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/triage/errors"
	"github.com/teranos/triage/triage"
)

func sampleResponse(nuc string) *triage.Response {
	return &triage.Response{
		NUC:       nuc,
		Narrative: "El denunciante manifiesta que fue víctima de robo.",
		RawOutput: `{"meets_condition": true, "confidence": 0.9}`,
		Fields: map[string]any{
			"meets_condition": true,
			"confidence":      0.9,
		},
		Status:    triage.StatusValid,
		Attempts:  1,
		Model:     "llama3.2:3b",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestFSStoreRoundTrip(t *testing.T) {
	fs, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	resp := sampleResponse("NUC-2024-001")
	require.NoError(t, fs.Put(resp))

	got, err := fs.Get("NUC-2024-001")
	require.NoError(t, err)
	assert.Equal(t, resp.NUC, got.NUC)
	assert.Equal(t, resp.Narrative, got.Narrative)
	assert.Equal(t, triage.StatusValid, got.Status)
	assert.Equal(t, true, got.Fields["meets_condition"])
}

func TestFSStoreGetMissing(t *testing.T) {
	fs, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	_, err = fs.Get("NUC-NOPE")
	assert.True(t, errors.Is(err, triage.ErrResponseNotFound))
}

func TestFSStorePutReplaces(t *testing.T) {
	fs, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	first := sampleResponse("NUC-1")
	first.Status = triage.StatusInvalid
	first.FailureReason = "reply is not valid JSON"
	require.NoError(t, fs.Put(first))

	second := sampleResponse("NUC-1")
	require.NoError(t, fs.Put(second))

	got, err := fs.Get("NUC-1")
	require.NoError(t, err)
	assert.Equal(t, triage.StatusValid, got.Status)
	assert.Empty(t, got.FailureReason)

	all, err := fs.List()
	require.NoError(t, err)
	assert.Len(t, all, 1, "exactly one artifact per NUC")
}

func TestFSStoreListFlagsCorruptArtifacts(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFSStore(dir)
	require.NoError(t, err)

	require.NoError(t, fs.Put(sampleResponse("NUC-GOOD")))
	corrupt := filepath.Join(dir, "NUC-BAD_response.json")
	require.NoError(t, os.WriteFile(corrupt, []byte(`{"nuc": "NUC-BAD", truncated`), 0o644))

	all, err := fs.List()
	require.NoError(t, err)
	require.Len(t, all, 2)

	byNUC := map[string]*triage.Response{}
	for _, r := range all {
		byNUC[r.NUC] = r
	}
	assert.Equal(t, triage.StatusValid, byNUC["NUC-GOOD"].Status)
	assert.Equal(t, triage.StatusInvalid, byNUC["NUC-BAD"].Status)
	assert.Contains(t, byNUC["NUC-BAD"].FailureReason, "unreadable")
}

func TestFSStoreListIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFSStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".response-tmp123"), []byte("partial"), 0o644))

	all, err := fs.List()
	require.NoError(t, err)
	assert.Empty(t, all)
}

// Interruption between temp write and publish must leave no readable
// artifact: a reader sees either nothing or the complete response.
func TestFSStoreAtomicPublish(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFSStore(dir)
	require.NoError(t, err)

	// Simulate a crash mid-write: a temp file exists, no rename happened
	tmp := filepath.Join(dir, ".response-interrupted")
	require.NoError(t, os.WriteFile(tmp, []byte(`{"nuc": "NUC-X", "stat`), 0o644))

	_, err = fs.Get("NUC-X")
	assert.True(t, errors.Is(err, triage.ErrResponseNotFound),
		"partial write must be invisible to readers")

	all, err := fs.List()
	require.NoError(t, err)
	assert.Empty(t, all)
}
