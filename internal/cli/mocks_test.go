package cli

import (
	"context"
	"strings"
	"sync"

	"github.com/tuaneric255-blip/Imaxai/internal/config"
	"github.com/tuaneric255-blip/Imaxai/internal/imagegen"
	"github.com/tuaneric255-blip/Imaxai/internal/media"
)

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func() (config.Config, error)

	mu        sync.Mutex
	loadCalls int
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	m.mu.Lock()
	m.loadCalls++
	m.mu.Unlock()

	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return config.Config{}, nil
}

func (m *mockConfigLoader) LoadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

// ---------------------------------------------------------------------------
// Mock Store - in-memory config file
// ---------------------------------------------------------------------------

type mockStore struct {
	mu      sync.Mutex
	data    map[string]string
	SetErr  error
	ListErr error
}

func newMockStore(kv ...string) *mockStore {
	s := &mockStore{data: make(map[string]string)}
	for i := 0; i+1 < len(kv); i += 2 {
		s.data[kv[i]] = kv[i+1]
	}
	return s
}

func (s *mockStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *mockStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SetErr != nil {
		return s.SetErr
	}
	s.data[key] = value
	return nil
}

func (s *mockStore) Unset(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *mockStore) List() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	out := make(map[string]string, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Mock TransportFactories + Transport
// ---------------------------------------------------------------------------

// mockTransports records the provider and key of every transport created and
// answers each request with GenerateFunc.
type mockTransports struct {
	GenerateFunc func(req imagegen.Request) (*imagegen.Response, error)

	mu        sync.Mutex
	providers []string
	keys      []string
	requests  []imagegen.Request
}

func (m *mockTransports) For(p Provider) imagegen.TransportFactory {
	return imagegen.TransportFactoryFunc(func(_ context.Context, apiKey string) (imagegen.Transport, error) {
		m.mu.Lock()
		m.providers = append(m.providers, p.String())
		m.keys = append(m.keys, apiKey)
		m.mu.Unlock()
		return m, nil
	})
}

func (m *mockTransports) Generate(_ context.Context, req imagegen.Request) (*imagegen.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(req)
	}
	if req.Output == imagegen.OutputJSON {
		return textResponse(`{}`), nil
	}
	return imageResponse("png-bytes"), nil
}

func (m *mockTransports) Requests() []imagegen.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]imagegen.Request(nil), m.requests...)
}

func (m *mockTransports) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.keys...)
}

func (m *mockTransports) Providers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.providers...)
}

// shotIs reports whether req renders the lookbook shot containing name.
func shotIs(req imagegen.Request, name string) bool {
	return strings.Contains(req.Instruction, name)
}

func imageResponse(data string) *imagegen.Response {
	return &imagegen.Response{Candidates: []imagegen.Candidate{{
		Parts: []imagegen.Part{{Inline: &media.Artifact{Data: []byte(data), MIMEType: "image/png"}}},
	}}}
}

func textResponse(text string) *imagegen.Response {
	return &imagegen.Response{Candidates: []imagegen.Candidate{{
		Parts: []imagegen.Part{{Text: text}},
	}}}
}
