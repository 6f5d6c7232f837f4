package database

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockKV struct {
	mock.Mock
}

func (m *mockKV) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockKV) Set(ctx context.Context, key string, value []byte) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *mockKV) Ping(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *mockKV) Close() error { return m.Called().Error(0) }

func TestFailoverKV(t *testing.T) {
	primary := new(mockKV)
	fallback := new(mockKV)
	logger := zerolog.New(io.Discard)
	kv := NewFailoverKV(primary, fallback, &logger)
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		primary.On("Get", ctx, KeyLodges).Return([]byte("[]"), nil).Once()

		got, err := kv.Get(ctx, KeyLodges)
		assert.NoError(t, err)
		assert.Equal(t, []byte("[]"), got)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryMissingKeyIsNotAFailure", func(t *testing.T) {
		primary.On("Get", ctx, KeyUser).Return(nil, ErrKeyNotFound).Once()

		_, err := kv.Get(ctx, KeyUser)
		assert.ErrorIs(t, err, ErrKeyNotFound)
		assert.False(t, kv.isDown.Load())
	})

	t.Run("WritesAreMirrored", func(t *testing.T) {
		primary.On("Set", ctx, KeyBookings, []byte("[]")).Return(nil).Once()
		fallback.On("Set", ctx, KeyBookings, []byte("[]")).Return(nil).Once()

		assert.NoError(t, kv.Set(ctx, KeyBookings, []byte("[]")))
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		primary.On("Get", ctx, KeyBookings).Return(nil, errors.New("fail")).Once()
		fallback.On("Get", ctx, KeyBookings).Return([]byte("[1]"), nil).Once()

		got, err := kv.Get(ctx, KeyBookings)
		assert.NoError(t, err)
		assert.Equal(t, []byte("[1]"), got)
		assert.True(t, kv.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("DownSkipsPrimary", func(t *testing.T) {
		fallback.On("Set", ctx, KeyUser, []byte("null")).Return(nil).Once()

		assert.NoError(t, kv.Set(ctx, KeyUser, []byte("null")))
		primary.AssertNotCalled(t, "Set", ctx, KeyUser, []byte("null"))
		fallback.AssertExpectations(t)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		kv.isDown.Store(true)
		kv.lastCheck = time.Now().Add(-2 * time.Minute)

		primary.On("Get", ctx, KeyLodges).Return([]byte("[2]"), nil).Once()

		got, err := kv.Get(ctx, KeyLodges)
		assert.NoError(t, err)
		assert.Equal(t, []byte("[2]"), got)
		assert.False(t, kv.isDown.Load())
		primary.AssertExpectations(t)
	})
}
