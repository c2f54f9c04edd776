// services/funding.go
package services

import (
	"time"

	"github.com/shopspring/decimal"

	"tote-sponsor-system/models"
)

var hundred = decimal.NewFromInt(100)

// ProgressPercentage is min(100, current/total*100) rounded to 2 places.
// A zero or negative total yields 0.
func ProgressPercentage(current, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return decimal.Min(hundred, current.Div(total).Mul(hundred)).Round(2)
}

func IsFullyFunded(current, total decimal.Decimal) bool {
	return current.GreaterThanOrEqual(total)
}

// ClaimPercentage is min(100, claimed/pledged*100) rounded to 2 places.
func ClaimPercentage(claimed, pledged int) decimal.Decimal {
	if pledged <= 0 {
		return decimal.Zero
	}
	return ProgressPercentage(decimal.NewFromInt(int64(claimed)), decimal.NewFromInt(int64(pledged)))
}

// CauseView is a cause with its derived funding figures attached.
type CauseView struct {
	CauseID            string              `json:"causeID"`
	Title              string              `json:"title"`
	Slug               string              `json:"slug"`
	Description        string              `json:"description"`
	Category           string              `json:"category,omitempty"`
	ImpactLevel        string              `json:"impactLevel,omitempty"`
	Status             models.CauseStatus  `json:"status"`
	Qty                int                 `json:"qty"`
	Claimed            int                 `json:"claimed"`
	ClaimedCount       int                 `json:"claimedCount"`
	SingleItemPrice    string              `json:"singleItemPrice"`
	TotalAmount        string              `json:"totalAmount"`
	CurrentPrice       string              `json:"currentPrice"`
	ProgressPercentage string              `json:"progressPercentage"`
	IsFullyFunded      bool                `json:"isFullyFunded"`
	ClaimPercentage    string              `json:"claimPercentage"`
	CreatedBy          *models.UserSummary `json:"createdBy,omitempty"`
	CreatedAt          time.Time           `json:"createdAt"`
}

// NewCauseView derives the funding figures on read; nothing here is stored.
func NewCauseView(c *models.Cause, creator *models.User) CauseView {
	v := CauseView{
		CauseID:            c.ID,
		Title:              c.Title,
		Slug:               c.Slug,
		Description:        c.Description,
		Category:           c.Category,
		ImpactLevel:        c.ImpactLevel,
		Status:             c.Status,
		Qty:                c.RequestedQuantity,
		Claimed:            c.PledgedQuantity,
		ClaimedCount:       c.ClaimedCount,
		SingleItemPrice:    c.SingleItemPrice.StringFixed(2),
		TotalAmount:        c.TotalAmount.StringFixed(2),
		CurrentPrice:       c.CurrentAmount.StringFixed(2),
		ProgressPercentage: ProgressPercentage(c.CurrentAmount, c.TotalAmount).StringFixed(2),
		IsFullyFunded:      IsFullyFunded(c.CurrentAmount, c.TotalAmount),
		ClaimPercentage:    ClaimPercentage(c.ClaimedCount, c.PledgedQuantity).StringFixed(2),
		CreatedAt:          c.CreatedAt,
	}
	if creator != nil {
		s := creator.Summary()
		v.CreatedBy = &s
	}
	return v
}
