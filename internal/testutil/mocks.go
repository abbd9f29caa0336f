// Package testutil holds shared test helpers and mocks.
package testutil

import (
	"github.com/stretchr/testify/mock"
)

// WriteCloser is a mock io.WriteCloser.
type WriteCloser struct {
	mock.Mock
}

// NewWriteCloser creates a WriteCloser mock whose expectations are
// asserted when the test ends.
func NewWriteCloser(t interface {
	mock.TestingT
	Cleanup(func())
}) *WriteCloser {
	m := &WriteCloser{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Write provides a mock function with the given fields: p
func (m *WriteCloser) Write(p []byte) (int, error) {
	ret := m.Called(p)
	return ret.Int(0), ret.Error(1)
}

// Close provides a mock function with no fields
func (m *WriteCloser) Close() error {
	ret := m.Called()
	return ret.Error(0)
}
