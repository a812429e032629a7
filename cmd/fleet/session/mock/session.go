package mocks

import (
	"errors"

	"github.com/vmfleet/vmfleet/cmd/fleet/session"
)

type MockClient struct {
	Impl struct {
		Do func(line string) (string, error)
	}

	Calls struct {
		Do    []string
		Close int
	}
}

var _ session.Client = &MockClient{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Do(line string) (string, error) {
	m.Calls.Do = append(m.Calls.Do, line)
	if m.Impl.Do == nil {
		return "", errors.New("[MOCK] not implemented")
	}
	return m.Impl.Do(line)
}

func (m *MockClient) Close() error {
	m.Calls.Close += 1
	return nil
}
