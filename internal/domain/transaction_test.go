package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalStatus_Mapping(t *testing.T) {
	tests := []struct {
		gateway string
		want    TransactionStatus
	}{
		{"pending", StatusPending},
		{"settlement", StatusSettled},
		{"success", StatusSettled},
		{"capture", StatusSettled},
		{"failure", StatusFailed},
		{"deny", StatusFailed},
		{"cancel", StatusFailed},
		{"expire", StatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.gateway, func(t *testing.T) {
			got, err := CanonicalStatus(tt.gateway)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalStatus_Unknown(t *testing.T) {
	_, err := CanonicalStatus("refund")
	require.Error(t, err)

	_, err = CanonicalStatus("")
	require.Error(t, err)
}

func TestStatusRank_PendingBelowTerminals(t *testing.T) {
	for _, terminal := range []TransactionStatus{StatusSettled, StatusFailed, StatusExpired} {
		assert.Greater(t, terminal.Rank(), StatusPending.Rank(), "%s should outrank PENDING", terminal)
	}
}

func TestStatusRank_TerminalsEqual(t *testing.T) {
	assert.Equal(t, StatusSettled.Rank(), StatusFailed.Rank())
	assert.Equal(t, StatusSettled.Rank(), StatusExpired.Rank())
}

func TestStatusRank_Unknown(t *testing.T) {
	assert.Equal(t, 0, TransactionStatus("BOGUS").Rank())
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusSettled.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.True(t, StatusExpired.IsTerminal())
}
