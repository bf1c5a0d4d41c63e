package service

import (
	"context"
	"log/slog"

	"github.com/DukeRupert/gigwell/internal/domain"
	"github.com/DukeRupert/gigwell/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountService reads the billing state the reconciler writes.
type AccountService interface {
	// Wallet returns the actor's wallet. An actor who never topped up has a
	// zero balance and no ID.
	Wallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)

	// BillingHistory lists paid invoices, newest first.
	BillingHistory(ctx context.Context, userID uuid.UUID) ([]domain.BillingHistory, error)
}

type accountService struct {
	queries repository.Querier
	logger  *slog.Logger
}

// NewAccountService creates a new AccountService.
func NewAccountService(queries repository.Querier, logger *slog.Logger) AccountService {
	return &accountService{queries: queries, logger: logger}
}

func (s *accountService) Wallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	const op = "account.wallet"

	row, err := s.queries.GetWalletByUserID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return &domain.Wallet{UserID: userID, Balance: decimal.Zero}, nil
		}
		return nil, domain.Internal(err, op, "failed to get wallet")
	}
	return rowToWallet(row), nil
}

func (s *accountService) BillingHistory(ctx context.Context, userID uuid.UUID) ([]domain.BillingHistory, error) {
	const op = "account.billing_history"

	rows, err := s.queries.ListBillingHistoryByUser(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list billing history")
	}

	history := make([]domain.BillingHistory, 0, len(rows))
	for _, row := range rows {
		history = append(history, rowToBillingHistory(row))
	}
	return history, nil
}
