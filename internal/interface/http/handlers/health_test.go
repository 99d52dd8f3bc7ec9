package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompositeHealthChecker_NoChecksIsHealthy(t *testing.T) {
	checker := NewCompositeHealthChecker("1.2.3")

	status := checker.Check(context.Background())

	assert.True(t, status.Healthy)
	assert.True(t, status.Ready)
	assert.Equal(t, "1.2.3", status.Version)
}

func TestCompositeHealthChecker_AllPassing(t *testing.T) {
	checker := NewCompositeHealthChecker("1.2.3")
	checker.AddCheck("database", func(_ context.Context) error { return nil })
	checker.AddCheck("cache", func(_ context.Context) error { return nil })

	status := checker.Check(context.Background())

	assert.True(t, status.Healthy)
	assert.Len(t, status.Checks, 2)
	assert.True(t, status.Checks["database"].Healthy)
	assert.True(t, status.Checks["cache"].Healthy)
}

func TestCompositeHealthChecker_OneFailingMarksUnhealthy(t *testing.T) {
	checker := NewCompositeHealthChecker("1.2.3")
	checker.AddCheck("database", func(_ context.Context) error { return nil })
	checker.AddCheck("cache", func(_ context.Context) error { return errors.New("connection refused") })

	status := checker.Check(context.Background())

	assert.False(t, status.Healthy)
	assert.True(t, status.Checks["database"].Healthy)
	assert.False(t, status.Checks["cache"].Healthy)
	assert.Contains(t, status.Checks["cache"].Message, "connection refused")
}

func TestCompositeHealthChecker_RemoveCheck(t *testing.T) {
	checker := NewCompositeHealthChecker("1.2.3")
	checker.AddCheck("cache", func(_ context.Context) error { return errors.New("down") })
	checker.RemoveCheck("cache")

	status := checker.Check(context.Background())
	assert.True(t, status.Healthy)
}

func TestNoopHealthChecker(t *testing.T) {
	checker := NewNoopHealthChecker()
	status := checker.Check(context.Background())
	assert.True(t, status.Healthy)
	assert.True(t, status.Ready)
}
