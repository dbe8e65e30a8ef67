package triage

import (
	"context"
	"sync"

	"github.com/teranos/triage/errors"
)

// fakeProvider scripts one reply or error per call, repeating the last
// entry once the script runs out. Call counts are tracked per prompt hash
// so tests can assert exactly how often each record hit the endpoint.
type fakeProvider struct {
	mu      sync.Mutex
	script  []fakeReply
	calls   int
	byText  map[string]int
	checkFn func(ctx context.Context) error
}

type fakeReply struct {
	text string
	err  error
}

func newFakeProvider(script ...fakeReply) *fakeProvider {
	return &fakeProvider{script: script, byText: make(map[string]int)}
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := f.calls
	if idx >= len(f.script) {
		idx = len(f.script) - 1
	}
	f.calls++
	f.byText[prompt]++

	if idx < 0 {
		return "", errors.New("fake provider has no script")
	}
	reply := f.script[idx]
	return reply.text, reply.err
}

func (f *fakeProvider) ModelName() string { return "fake-model" }

func (f *fakeProvider) CheckModel(ctx context.Context) error {
	if f.checkFn != nil {
		return f.checkFn(ctx)
	}
	return nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// memStore is an in-memory ResponseStore for pipeline tests
type memStore struct {
	mu        sync.Mutex
	responses map[string]*Response
	putErr    error
}

func newMemStore() *memStore {
	return &memStore{responses: make(map[string]*Response)}
}

func (m *memStore) Get(nuc string) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp, ok := m.responses[nuc]
	if !ok {
		return nil, ErrResponseNotFound
	}
	return resp, nil
}

func (m *memStore) Put(resp *Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.responses[resp.NUC] = resp
	return nil
}

func (m *memStore) List() ([]*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]*Response, 0, len(m.responses))
	for _, resp := range m.responses {
		all = append(all, resp)
	}
	return all, nil
}
