package services

import (
	"context"
	"errors"
	"time"

	"github.com/MansiVisuals/ViTransfer-sub002/internal/config"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/guard"
	"github.com/MansiVisuals/ViTransfer-sub002/internal/metrics"
)

// ErrDownloadInvalid is the single answer for every failed archive token
// redemption, whatever the actual cause.
var ErrDownloadInvalid = errors.New("download token is invalid or has expired")

// ArchiveClaim is the payload behind one archive download token.
type ArchiveClaim struct {
	ProjectID   string `json:"project_id"`
	ArchivePath string `json:"archive_path"`
	PrincipalID string `json:"principal_id"`
}

// DownloadService issues and redeems single-use archive download tokens.
// Tokens are bound to the requester's fingerprint at issuance, so a token
// that leaks in transit is useless to another network party.
type DownloadService struct {
	guard   *guard.Guard[ArchiveClaim]
	config  *config.Config
	metrics metrics.Recorder
}

func NewDownloadService(g *guard.Guard[ArchiveClaim], cfg *config.Config, m metrics.Recorder) *DownloadService {
	return &DownloadService{
		guard:   g,
		config:  cfg,
		metrics: m,
	}
}

// IssueArchiveToken mints a download token for the claim, bound to the
// fingerprint of the requesting client.
func (s *DownloadService) IssueArchiveToken(
	ctx context.Context,
	claim ArchiveClaim,
	fingerprint string,
) (string, time.Time, error) {
	tok, err := s.guard.Issue(ctx, claim, s.config.DownloadTokenExpiration, fingerprint)
	if err != nil {
		s.metrics.RecordCacheError("download_issue")
		return "", time.Time{}, err
	}

	s.metrics.RecordSingleUseIssued("download")
	return tok, time.Now().Add(s.config.DownloadTokenExpiration), nil
}

// RedeemArchiveToken consumes the token and returns its claim exactly once.
// Unknown, expired, already-used and fingerprint-mismatched tokens all fail
// with the same ErrDownloadInvalid.
func (s *DownloadService) RedeemArchiveToken(
	ctx context.Context,
	tok, fingerprint string,
) (*ArchiveClaim, error) {
	claim, err := s.guard.Redeem(ctx, tok, fingerprint)
	if err != nil {
		s.metrics.RecordSingleUseRedemption("download", false)
		if errors.Is(err, guard.ErrTokenInvalid) {
			return nil, ErrDownloadInvalid
		}
		s.metrics.RecordCacheError("download_redeem")
		return nil, err
	}

	s.metrics.RecordSingleUseRedemption("download", true)
	return &claim, nil
}
