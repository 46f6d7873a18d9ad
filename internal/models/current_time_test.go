package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewCurrentTime(t *testing.T) {
	at := time.Date(2025, 5, 3, 12, 0, 0, 0, time.UTC)
	got := NewCurrentTime(at)
	assert.Equal(t, "2025-05-03T12:00:00Z", got.ReadableTime)
	assert.Equal(t, int64(1746273600000), got.Time)
}
