package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"freshly_bot/internal/domain/owner"
	domainTelegram "freshly_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
)

// Custom application-level errors for admin service
var ErrAdminNotAuthorized = fmt.Errorf("performing user is not authorized as an admin")
var ErrInvalidPremiumDuration = fmt.Errorf("premium duration must be a positive number of days")
var ErrEmptyBroadcast = fmt.Errorf("broadcast text must not be empty")

// OwnerRearmer re-registers an owner's reminders after a tier change.
type OwnerRearmer interface {
	RearmOwner(ctx context.Context, ownerID int64) (int, error)
}

type AdminService struct {
	ownerRepo       owner.Repository
	rearmer         OwnerRearmer
	telegramClient  domainTelegram.Client
	adminTelegramID int64
	now             func() time.Time
	logger          *logrus.Entry
}

func NewAdminService(or owner.Repository, rearmer OwnerRearmer, tc domainTelegram.Client, adminID int64, logger *logrus.Entry) *AdminService {
	return &AdminService{
		ownerRepo:       or,
		rearmer:         rearmer,
		telegramClient:  tc,
		adminTelegramID: adminID,
		now:             time.Now,
		logger:          logger,
	}
}

// IsAdmin reports whether telegramID may run admin commands. An unset admin ID disables them.
func (s *AdminService) IsAdmin(telegramID int64) bool {
	return s.adminTelegramID != 0 && telegramID == s.adminTelegramID
}

// GrantPremium extends the owner's premium window by days, counting from the later
// of now and the current end of the window.
func (s *AdminService) GrantPremium(ctx context.Context, performingAdminID, ownerID int64, days int) (time.Time, error) {
	if !s.IsAdmin(performingAdminID) {
		return time.Time{}, ErrAdminNotAuthorized
	}
	if days <= 0 {
		return time.Time{}, ErrInvalidPremiumDuration
	}

	target, err := s.ownerRepo.GetByTelegramID(ctx, ownerID)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get owner for premium grant: %w", err)
	}

	start := s.now()
	if target.IsPremium(start) {
		start = target.PremiumUntil.Time
	}
	until := start.AddDate(0, 0, days)
	if err := s.ownerRepo.SetPremiumUntil(ctx, ownerID, sql.NullTime{Time: until, Valid: true}); err != nil {
		return time.Time{}, fmt.Errorf("failed to store premium window: %w", err)
	}

	logger := s.logger.WithFields(logrus.Fields{"owner_id": ownerID, "premium_until": until.Format(time.RFC3339)})
	logger.Info("Premium granted")

	// Premium thresholds apply to items that are already tracked.
	if _, err := s.rearmer.RearmOwner(ctx, ownerID); err != nil {
		logger.WithError(err).Warn("Failed to re-arm reminders after premium grant")
	}
	return until, nil
}

// RevokePremium ends the owner's premium window immediately. Reminders already
// armed for premium thresholds are left to fire.
func (s *AdminService) RevokePremium(ctx context.Context, performingAdminID, ownerID int64) error {
	if !s.IsAdmin(performingAdminID) {
		return ErrAdminNotAuthorized
	}
	if err := s.ownerRepo.SetPremiumUntil(ctx, ownerID, sql.NullTime{}); err != nil {
		return fmt.Errorf("failed to revoke premium: %w", err)
	}
	s.logger.WithField("owner_id", ownerID).Info("Premium revoked")
	return nil
}

// Broadcast sends text to every known owner. Individual delivery failures are
// counted, not returned.
func (s *AdminService) Broadcast(ctx context.Context, performingAdminID int64, text string) (sent, failed int, err error) {
	if !s.IsAdmin(performingAdminID) {
		return 0, 0, ErrAdminNotAuthorized
	}
	if text == "" {
		return 0, 0, ErrEmptyBroadcast
	}

	owners, err := s.ownerRepo.ListAll(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list owners: %w", err)
	}
	for _, o := range owners {
		if err := s.telegramClient.SendMessage(ctx, o.TelegramID, text, nil); err != nil {
			failed++
			s.logger.WithError(err).WithField("owner_id", o.TelegramID).Warn("Broadcast delivery failed")
			continue
		}
		sent++
	}
	s.logger.WithFields(logrus.Fields{"sent": sent, "failed": failed}).Info("Broadcast finished")
	return sent, failed, nil
}
