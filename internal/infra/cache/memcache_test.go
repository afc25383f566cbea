package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpiration(t *testing.T) {
	tests := []struct {
		name string
		ttl  time.Duration
		want int32
	}{
		{name: "sub-second rounds up", ttl: 500 * time.Millisecond, want: 1},
		{name: "one nanosecond", ttl: time.Nanosecond, want: 1},
		{name: "whole seconds", ttl: 5 * time.Minute, want: 300},
		{name: "fraction rounds up", ttl: 1500 * time.Millisecond, want: 2},
		{name: "thirty days", ttl: 30 * 24 * time.Hour, want: maxRelativeExpiration},
		{name: "past thirty days is capped", ttl: 31 * 24 * time.Hour, want: maxRelativeExpiration},
		{name: "a year is capped", ttl: 365 * 24 * time.Hour, want: maxRelativeExpiration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expiration(tt.ttl))
		})
	}
}
