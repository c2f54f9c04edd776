// services/cause_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tote-sponsor-system/apperrors"
	"tote-sponsor-system/logger"
	"tote-sponsor-system/models"
	"tote-sponsor-system/utils"
)

var (
	ErrShareNotApproved = apperrors.NewForbiddenError("cannot share a cause that is not approved")
	ErrInvalidStatus    = apperrors.NewValidationError("status must be approved or rejected")
	ErrQuantityTooLarge = apperrors.NewValidationError(fmt.Sprintf("qty must be at most %d", MaxBagsPerRequest))
	ErrPriceTooLarge    = apperrors.NewValidationError("singleItemPrice must be at most " + MaxSingleItemPrice.StringFixed(2))
	ErrTotalTooLarge    = apperrors.NewValidationError("total amount must be at most " + MaxFundingAmount.StringFixed(2))
)

type CauseService struct {
	DB          *gorm.DB
	FrontendURL string
}

func NewCauseService(db *gorm.DB, frontendURL string) *CauseService {
	return &CauseService{DB: db, FrontendURL: frontendURL}
}

type CreateCauseInput struct {
	Title           string
	Description     string
	Quantity        int
	SingleItemPrice decimal.Decimal
	Category        string
	ImpactLevel     string
}

// CreateCause stores a new cause in pending state; it stays invisible to
// sponsors and claimants until an admin approves it.
func (s *CauseService) CreateCause(ctx context.Context, creatorID string, in CreateCauseInput) (*models.Cause, error) {
	if in.Quantity < 1 {
		return nil, apperrors.NewValidationError("qty must be at least 1")
	}
	if in.Quantity > MaxBagsPerRequest {
		return nil, ErrQuantityTooLarge
	}
	if !in.SingleItemPrice.IsPositive() {
		return nil, apperrors.NewValidationError("singleItemPrice must be positive")
	}

	price := in.SingleItemPrice.Round(2)
	if price.GreaterThan(MaxSingleItemPrice) {
		return nil, ErrPriceTooLarge
	}
	total := price.Mul(decimal.NewFromInt(int64(in.Quantity)))
	if total.GreaterThan(MaxFundingAmount) {
		return nil, ErrTotalTooLarge
	}
	cause := &models.Cause{
		CreatedBy:         creatorID,
		Title:             strings.TrimSpace(in.Title),
		Slug:              slug.Make(in.Title),
		Description:       strings.TrimSpace(in.Description),
		Category:          strings.TrimSpace(in.Category),
		ImpactLevel:       strings.TrimSpace(in.ImpactLevel),
		RequestedQuantity: in.Quantity,
		SingleItemPrice:   price,
		TotalAmount:       total,
		CurrentAmount:     decimal.Zero,
		Status:            models.CauseStatusPending,
	}
	if err := s.DB.WithContext(ctx).Create(cause).Error; err != nil {
		return nil, fmt.Errorf("create cause: %w", err)
	}

	logger.Info("cause created", "cause_id", cause.ID, "created_by", creatorID)
	return cause, nil
}

type CauseFilter struct {
	Category    string
	ImpactLevel string
}

// ListApproved pages through approved causes, newest first.
func (s *CauseService) ListApproved(ctx context.Context, filter CauseFilter, page utils.Pagination) ([]CauseView, utils.PageInfo, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Where("status = ?", models.CauseStatusApproved)
		if filter.Category != "" {
			db = db.Where("category = ?", filter.Category)
		}
		if filter.ImpactLevel != "" {
			db = db.Where("impact_level = ?", filter.ImpactLevel)
		}
		return db
	}

	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.Cause{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, utils.PageInfo{}, fmt.Errorf("count causes: %w", err)
	}

	var causes []models.Cause
	if err := s.DB.WithContext(ctx).Scopes(scope).
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&causes).Error; err != nil {
		return nil, utils.PageInfo{}, fmt.Errorf("list causes: %w", err)
	}

	views, err := s.withCreators(ctx, causes)
	if err != nil {
		return nil, utils.PageInfo{}, err
	}
	return views, page.Info(total), nil
}

// ListByCreator returns every cause a user created regardless of status.
func (s *CauseService) ListByCreator(ctx context.Context, userID string) ([]CauseView, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return []CauseView{}, nil
	}
	var causes []models.Cause
	if err := s.DB.WithContext(ctx).Where("created_by = ?", userID).Order("created_at DESC").Find(&causes).Error; err != nil {
		return nil, fmt.Errorf("list user causes: %w", err)
	}
	return s.withCreators(ctx, causes)
}

type CauseShare struct {
	Cause        CauseView          `json:"cause"`
	ShareLink    string             `json:"shareLink"`
	QRCode       *string            `json:"qrCode"`
	SocialShares utils.SocialShares `json:"socialShares"`
}

func (s *CauseService) Share(ctx context.Context, causeID string) (*CauseShare, error) {
	cause, err := s.find(ctx, causeID)
	if err != nil {
		return nil, err
	}
	if !cause.IsApproved() {
		return nil, ErrShareNotApproved
	}

	views, err := s.withCreators(ctx, []models.Cause{*cause})
	if err != nil {
		return nil, err
	}

	link := utils.CauseShareLink(s.FrontendURL, cause.ID, cause.Slug)
	share := &CauseShare{
		Cause:        views[0],
		ShareLink:    link,
		SocialShares: utils.BuildSocialShares(link, cause.Title),
	}
	if qr, err := utils.QRCodeDataURL(link); err != nil {
		logger.Warn("qr code generation failed", "cause_id", cause.ID, "error", err)
	} else {
		share.QRCode = &qr
	}
	return share, nil
}

// UpdateStatus is the single moderation switch: pending causes become
// approved or rejected. Takes the cause row lock used by pledges and claims.
func (s *CauseService) UpdateStatus(ctx context.Context, causeID string, status models.CauseStatus) (*models.Cause, error) {
	if status != models.CauseStatusApproved && status != models.CauseStatusRejected {
		return nil, ErrInvalidStatus
	}
	var cause *models.Cause
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockCause(tx, causeID)
		if err != nil {
			return err
		}
		if err := tx.Model(locked).Update("status", status).Error; err != nil {
			return fmt.Errorf("update cause status: %w", err)
		}
		locked.Status = status
		cause = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("cause status changed", "cause_id", cause.ID, "status", status)
	return cause, nil
}

type SponsorInfo struct {
	Name        string `json:"name"`
	Message     string `json:"message,omitempty"`
	Branding    string `json:"branding,omitempty"`
	BagCount    int    `json:"bagCount"`
	BagsClaimed int    `json:"bagsClaimed"`
}

// CauseInfo is the public claimant-facing summary of a cause.
type CauseInfo struct {
	CauseID         string        `json:"causeID"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	TotalSponsored  int           `json:"totalSponsored"`
	BagsClaimed     int           `json:"bagsClaimed"`
	BagsRemaining   int           `json:"bagsRemaining"`
	IsClaimable     bool          `json:"isClaimable"`
	Progress        string        `json:"progress"`
	ClaimPercentage string        `json:"claimPercentage"`
	IsFullyFunded   bool          `json:"isFullyFunded"`
	Sponsors        []SponsorInfo `json:"sponsors"`
}

const anonymousSponsor = "Anonymous Sponsor"

func (s *CauseService) Info(ctx context.Context, causeID string) (*CauseInfo, error) {
	cause, err := s.find(ctx, causeID)
	if err != nil {
		return nil, err
	}
	if !cause.IsApproved() {
		return nil, ErrCauseNotApproved
	}

	var pools []models.Sponsorship
	if err := s.DB.WithContext(ctx).Where("cause_id = ?", cause.ID).Order("created_at ASC, id ASC").Find(&pools).Error; err != nil {
		return nil, fmt.Errorf("load sponsorships: %w", err)
	}

	names, err := s.userNames(ctx, sponsorIDs(pools))
	if err != nil {
		return nil, err
	}

	info := &CauseInfo{
		CauseID:         cause.ID,
		Title:           cause.Title,
		Description:     cause.Description,
		TotalSponsored:  cause.PledgedQuantity,
		Progress:        ProgressPercentage(cause.CurrentAmount, cause.TotalAmount).StringFixed(2),
		ClaimPercentage: ClaimPercentage(cause.ClaimedCount, cause.PledgedQuantity).StringFixed(2),
		IsFullyFunded:   IsFullyFunded(cause.CurrentAmount, cause.TotalAmount),
		Sponsors:        make([]SponsorInfo, 0, len(pools)),
	}
	for _, p := range pools {
		info.BagsClaimed += p.Consumed
		if p.Status == models.SponsorshipStatusActive {
			info.BagsRemaining += p.Remaining()
		}
		name, ok := names[p.SponsorID]
		if !ok {
			name = anonymousSponsor
		}
		info.Sponsors = append(info.Sponsors, SponsorInfo{
			Name:        name,
			Message:     p.Message,
			Branding:    p.Branding,
			BagCount:    p.Capacity,
			BagsClaimed: p.Consumed,
		})
	}
	info.IsClaimable = info.BagsRemaining > 0
	return info, nil
}

func (s *CauseService) find(ctx context.Context, causeID string) (*models.Cause, error) {
	if _, err := uuid.Parse(causeID); err != nil {
		return nil, ErrCauseNotFound
	}
	var cause models.Cause
	if err := s.DB.WithContext(ctx).First(&cause, "id = ?", causeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCauseNotFound
		}
		return nil, fmt.Errorf("load cause: %w", err)
	}
	return &cause, nil
}

// withCreators attaches creator summaries with one user query for the page.
func (s *CauseService) withCreators(ctx context.Context, causes []models.Cause) ([]CauseView, error) {
	ids := make([]string, 0, len(causes))
	for _, c := range causes {
		ids = append(ids, c.CreatedBy)
	}
	users, err := s.usersByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]CauseView, 0, len(causes))
	for i := range causes {
		var creator *models.User
		if u, ok := users[causes[i].CreatedBy]; ok {
			creator = &u
		}
		views = append(views, NewCauseView(&causes[i], creator))
	}
	return views, nil
}

func (s *CauseService) usersByID(ctx context.Context, ids []string) (map[string]models.User, error) {
	out := map[string]models.User{}
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := s.DB.WithContext(ctx).Select("id", "name", "email").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (s *CauseService) userNames(ctx context.Context, ids []string) (map[string]string, error) {
	users, err := s.usersByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(users))
	for id, u := range users {
		names[id] = u.Name
	}
	return names, nil
}

func sponsorIDs(pools []models.Sponsorship) []string {
	ids := make([]string, 0, len(pools))
	for _, p := range pools {
		ids = append(ids, p.SponsorID)
	}
	return ids
}
