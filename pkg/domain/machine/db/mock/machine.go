// this package provide "mock" implementation of database for testing.
package mocks

import (
	"context"
	"errors"

	"github.com/vmfleet/vmfleet/pkg/domain"
)

type MockMachineInterface struct {
	Impl struct {
		Upsert         func(context.Context, domain.Machine) error
		Get            func(context.Context, string) (domain.Machine, error)
		Deauthorize    func(context.Context, string) error
		ListAuthorized func(context.Context) ([]domain.Machine, error)
		ListAll        func(context.Context) ([]domain.Machine, error)
		ListDisks      func(context.Context) ([]domain.Disk, error)
	}

	Calls struct {
		Upsert      []domain.Machine
		Deauthorize []string
	}
}

func NewMockMachineInterface() *MockMachineInterface {
	return &MockMachineInterface{}
}

func (m *MockMachineInterface) Upsert(ctx context.Context, machine domain.Machine) error {
	m.Calls.Upsert = append(m.Calls.Upsert, machine)
	if m.Impl.Upsert == nil {
		return errors.New("[MOCK] not implemented")
	}
	return m.Impl.Upsert(ctx, machine)
}

func (m *MockMachineInterface) Get(ctx context.Context, vmID string) (domain.Machine, error) {
	if m.Impl.Get == nil {
		return domain.Machine{}, errors.New("[MOCK] not implemented")
	}
	return m.Impl.Get(ctx, vmID)
}

func (m *MockMachineInterface) Deauthorize(ctx context.Context, vmID string) error {
	m.Calls.Deauthorize = append(m.Calls.Deauthorize, vmID)
	if m.Impl.Deauthorize == nil {
		return errors.New("[MOCK] not implemented")
	}
	return m.Impl.Deauthorize(ctx, vmID)
}

func (m *MockMachineInterface) ListAuthorized(ctx context.Context) ([]domain.Machine, error) {
	if m.Impl.ListAuthorized == nil {
		return nil, errors.New("[MOCK] not implemented")
	}
	return m.Impl.ListAuthorized(ctx)
}

func (m *MockMachineInterface) ListAll(ctx context.Context) ([]domain.Machine, error) {
	if m.Impl.ListAll == nil {
		return nil, errors.New("[MOCK] not implemented")
	}
	return m.Impl.ListAll(ctx)
}

func (m *MockMachineInterface) ListDisks(ctx context.Context) ([]domain.Disk, error) {
	if m.Impl.ListDisks == nil {
		return nil, errors.New("[MOCK] not implemented")
	}
	return m.Impl.ListDisks(ctx)
}
