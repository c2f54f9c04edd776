package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"tote-sponsor-system/models"
)

func TestProgressPercentage(t *testing.T) {
	cases := []struct {
		current, total string
		want           string
	}{
		{"250", "1000", "25.00"},
		{"0", "1000", "0.00"},
		{"1500", "1000", "100.00"},
		{"1", "3", "33.33"},
		{"10", "0", "0.00"},
	}
	for _, tc := range cases {
		got := ProgressPercentage(decimal.RequireFromString(tc.current), decimal.RequireFromString(tc.total))
		assert.Equal(t, tc.want, got.StringFixed(2), "%s/%s", tc.current, tc.total)
	}
}

func TestIsFullyFunded(t *testing.T) {
	assert.True(t, IsFullyFunded(decimal.NewFromInt(100), decimal.NewFromInt(100)))
	assert.False(t, IsFullyFunded(decimal.NewFromInt(99), decimal.NewFromInt(100)))
}

func TestClaimPercentage(t *testing.T) {
	assert.Equal(t, "50.00", ClaimPercentage(1, 2).StringFixed(2))
	assert.Equal(t, "0.00", ClaimPercentage(3, 0).StringFixed(2))
	assert.Equal(t, "100.00", ClaimPercentage(5, 5).StringFixed(2))
}

func TestNewCauseView(t *testing.T) {
	email := "maya@example.com"
	c := &models.Cause{
		ID:                "c1",
		Title:             "School bags",
		RequestedQuantity: 10,
		PledgedQuantity:   4,
		ClaimedCount:      1,
		SingleItemPrice:   decimal.NewFromInt(50),
		TotalAmount:       decimal.NewFromInt(500),
		CurrentAmount:     decimal.NewFromInt(200),
		Status:            models.CauseStatusApproved,
	}
	v := NewCauseView(c, &models.User{ID: "u1", Name: "Maya", Email: &email})

	assert.Equal(t, "40.00", v.ProgressPercentage)
	assert.Equal(t, "25.00", v.ClaimPercentage)
	assert.Equal(t, "200.00", v.CurrentPrice)
	assert.False(t, v.IsFullyFunded)
	if assert.NotNil(t, v.CreatedBy) {
		assert.Equal(t, "Maya", v.CreatedBy.Name)
	}
}
