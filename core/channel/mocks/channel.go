package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"umbrella-station/core/channel"
)

// Channel is a mock implementation of channel.Channel
type Channel struct {
	mock.Mock
}

func (m *Channel) Subscribe(ctx context.Context, handle channel.Handler) error {
	args := m.Called(ctx, handle)
	return args.Error(0)
}

func (m *Channel) Send(ctx context.Context, unit int) error {
	args := m.Called(ctx, unit)
	return args.Error(0)
}

func (m *Channel) Close() error {
	args := m.Called()
	return args.Error(0)
}
