package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	apperrors "github.com/motivatem3/server/internal/errors"
	"github.com/motivatem3/server/internal/model"
	"github.com/motivatem3/server/internal/repository"
	"github.com/motivatem3/server/internal/util"
)

type Stats struct {
	Accounts         int `json:"accounts"`
	VerifiedAccounts int `json:"verifiedAccounts"`
	Motivations      int `json:"motivations"`
}

type AdminService struct {
	accountRepo    repository.AccountRepository
	motivationRepo repository.MotivationRepository
}

func NewAdminService(accountRepo repository.AccountRepository, motivationRepo repository.MotivationRepository) *AdminService {
	return &AdminService{
		accountRepo:    accountRepo,
		motivationRepo: motivationRepo,
	}
}

func (s *AdminService) ListUsers(ctx context.Context, limit, offset int) ([]model.Account, int, error) {
	accounts, err := s.accountRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Database(fmt.Errorf("list accounts: %w", err))
	}

	total, err := s.accountRepo.Count(ctx)
	if err != nil {
		return nil, 0, apperrors.Database(fmt.Errorf("count accounts: %w", err))
	}

	if accounts == nil {
		accounts = []model.Account{}
	}
	return accounts, total, nil
}

func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	var err error

	if stats.Accounts, err = s.accountRepo.Count(ctx); err != nil {
		return nil, apperrors.Database(fmt.Errorf("count accounts: %w", err))
	}
	if stats.VerifiedAccounts, err = s.accountRepo.CountVerified(ctx); err != nil {
		return nil, apperrors.Database(fmt.Errorf("count verified accounts: %w", err))
	}
	if stats.Motivations, err = s.motivationRepo.Count(ctx); err != nil {
		return nil, apperrors.Database(fmt.Errorf("count motivations: %w", err))
	}
	return &stats, nil
}

// Promote grants or revokes admin access by email.
func (s *AdminService) Promote(ctx context.Context, email string, isAdmin bool) error {
	email = util.NormalizeEmail(email)
	if email == "" {
		return apperrors.MissingRequired("Email")
	}

	updated, err := s.accountRepo.SetAdmin(ctx, email, isAdmin)
	if err != nil {
		return apperrors.Database(fmt.Errorf("set admin: %w", err))
	}
	if !updated {
		return apperrors.NotFound("Account")
	}

	log.Info().
		Str("email", util.MaskEmail(email)).
		Bool("isAdmin", isAdmin).
		Msg("admin flag updated")
	return nil
}
