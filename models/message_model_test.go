package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusRankOrdersStates(t *testing.T) {
	assert.Less(t, StatusRank(StatusSent), StatusRank(StatusDelivered))
	assert.Less(t, StatusRank(StatusDelivered), StatusRank(StatusSeen))
	assert.Equal(t, -1, StatusRank("archived"))
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"sent to delivered", StatusSent, StatusDelivered, true},
		{"sent to seen skips ahead", StatusSent, StatusSeen, true},
		{"delivered to seen", StatusDelivered, StatusSeen, true},
		{"seen to delivered regresses", StatusSeen, StatusDelivered, false},
		{"delivered to sent regresses", StatusDelivered, StatusSent, false},
		{"same status is idempotent", StatusDelivered, StatusDelivered, true},
		{"unknown target", StatusSent, "archived", false},
		{"unknown source", "archived", StatusSeen, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}
