package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNewSessionDefaultsWaitTimeout(t *testing.T) {
	sess := NewSession(context.Background(), 0, zap.NewNop().Sugar())
	assert.Equal(t, DefaultWaitTimeout, sess.WaitTimeout())

	sess = NewSession(context.Background(), 5*time.Second, zap.NewNop().Sugar())
	assert.Equal(t, 5*time.Second, sess.WaitTimeout())
}

func TestSetWaitTimeout(t *testing.T) {
	sess := NewSession(context.Background(), DefaultWaitTimeout, zap.NewNop().Sugar())

	assert.NoError(t, sess.SetWaitTimeout(30*time.Second))
	assert.Equal(t, 30*time.Second, sess.WaitTimeout())

	assert.Error(t, sess.SetWaitTimeout(0))
	assert.Error(t, sess.SetWaitTimeout(-time.Second))
	assert.Equal(t, 30*time.Second, sess.WaitTimeout(), "rejected values leave the timeout unchanged")
}

func TestSessionCloseWithoutRelease(t *testing.T) {
	sess := NewSession(context.Background(), DefaultWaitTimeout, zap.NewNop().Sugar())
	// Sessions built outside a Manager have no slot to release.
	assert.NotPanics(t, func() { sess.Close() })
}
