package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/teranos/triage/errors"
	"github.com/teranos/triage/logger"
	"github.com/teranos/triage/triage"
)

const responseSuffix = "_response.json"

// FSStore persists one JSON artifact per NUC in a flat directory. Writes go
// through a temporary file in the same directory and an os.Rename publish,
// so a reader never observes a partially written response.
type FSStore struct {
	dir string
}

// NewFSStore opens (creating if needed) the response directory
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create responses directory %s", dir)
	}
	return &FSStore{dir: dir}, nil
}

func (s *FSStore) path(nuc string) string {
	return filepath.Join(s.dir, triage.SafeNUC(nuc)+responseSuffix)
}

// Get returns the persisted response for nuc, or triage.ErrResponseNotFound
func (s *FSStore) Get(nuc string) (*triage.Response, error) {
	data, err := os.ReadFile(s.path(nuc))
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(triage.ErrResponseNotFound, "nuc %s", nuc)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read response for %s", nuc)
	}

	var resp triage.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.Wrapf(err, "corrupt response artifact for %s", nuc)
	}
	return &resp, nil
}

// Put atomically publishes the response artifact, replacing any previous one
func (s *FSStore) Put(resp *triage.Response) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "failed to marshal response for %s", resp.NUC)
	}

	tmp, err := os.CreateTemp(s.dir, ".response-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp response file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrapf(err, "failed to write response for %s", resp.NUC)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "failed to close response file for %s", resp.NUC)
	}

	if err := os.Rename(tmpName, s.path(resp.NUC)); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "failed to publish response for %s", resp.NUC)
	}
	return nil
}

// List enumerates every readable response artifact. Unreadable artifacts
// are returned as flagged Invalid stubs so aggregation reports them inline
// instead of dropping them.
func (s *FSStore) List() ([]*triage.Response, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to enumerate responses in %s", s.dir)
	}

	var responses []*triage.Response
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, responseSuffix) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			responses = append(responses, unreadableStub(name, err))
			continue
		}
		var resp triage.Response
		if err := json.Unmarshal(data, &resp); err != nil {
			logger.Logger.Warnw("skipping corrupt response artifact",
				logger.FieldPath, name,
				logger.FieldReason, err.Error())
			responses = append(responses, unreadableStub(name, err))
			continue
		}
		responses = append(responses, &resp)
	}
	return responses, nil
}

// unreadableStub flags an artifact that exists but cannot be parsed
func unreadableStub(filename string, err error) *triage.Response {
	nuc := strings.TrimSuffix(filename, responseSuffix)
	return &triage.Response{
		NUC:           nuc,
		Status:        triage.StatusInvalid,
		FailureReason: "unreadable response artifact: " + err.Error(),
	}
}
