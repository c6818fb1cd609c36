// Code generated manually. DO NOT EDIT.

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/williamokano/odoo_backuper/pkg/container"
)

// MockRuntime is a mock implementation of container.Runtime and container.Lister
type MockRuntime struct {
	mock.Mock
}

// IsRunning provides a mock function with given fields: ctx, containerName
func (m *MockRuntime) IsRunning(ctx context.Context, containerName string) (bool, error) {
	ret := m.Called(ctx, containerName)

	var r0 bool
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (bool, error)); ok {
		return rf(ctx, containerName)
	}
	r0 = ret.Get(0).(bool)
	r1 = ret.Error(1)

	return r0, r1
}

// Exec provides a mock function with given fields: ctx, containerName, cmd, env
func (m *MockRuntime) Exec(ctx context.Context, containerName string, cmd []string, env []string) (*container.ExecResult, error) {
	ret := m.Called(ctx, containerName, cmd, env)

	var r0 *container.ExecResult
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, []string, []string) (*container.ExecResult, error)); ok {
		return rf(ctx, containerName, cmd, env)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*container.ExecResult)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// CopyFromContainer provides a mock function with given fields: ctx, containerName, containerPath, hostPath
func (m *MockRuntime) CopyFromContainer(ctx context.Context, containerName, containerPath, hostPath string) error {
	ret := m.Called(ctx, containerName, containerPath, hostPath)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string, string, string) error); ok {
		r0 = rf(ctx, containerName, containerPath, hostPath)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// RemoveInContainer provides a mock function with given fields: ctx, containerName, path
func (m *MockRuntime) RemoveInContainer(ctx context.Context, containerName, path string) error {
	ret := m.Called(ctx, containerName, path)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string, string) error); ok {
		r0 = rf(ctx, containerName, path)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// ListRunning provides a mock function with given fields: ctx
func (m *MockRuntime) ListRunning(ctx context.Context) ([]string, error) {
	ret := m.Called(ctx)

	var r0 []string
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]string)
	}

	return r0, ret.Error(1)
}

// NewMockRuntime creates a new instance of MockRuntime
func NewMockRuntime(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockRuntime {
	mock_1 := &MockRuntime{}
	mock_1.Mock.Test(t)

	t.Cleanup(func() { mock_1.AssertExpectations(t) })

	return mock_1
}
