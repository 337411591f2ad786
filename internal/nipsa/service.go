// Package nipsa answers whether a user is shadow-banned ("not in public
// site areas"). Flagged users' annotations are visible only to themselves.
package nipsa

import (
	"context"

	"streamer/internal/logger"
	"streamer/pkg/metrics"
)

// Repository is a source of shadow-ban flags.
type Repository interface {
	IsFlagged(ctx context.Context, userid string) (bool, error)
}

// Checker is what the streamer depends on.
type Checker interface {
	IsFlagged(ctx context.Context, userid string) bool
}

type Service struct {
	repo   Repository
	logger logger.Logger
}

func NewService(repo Repository, log logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// IsFlagged reports whether userid is shadow-banned. Lookup failures are
// reported as flagged so that a broken backend never leaks hidden content.
func (s *Service) IsFlagged(ctx context.Context, userid string) bool {
	if userid == "" {
		return false
	}

	flagged, err := s.repo.IsFlagged(ctx, userid)
	if err != nil {
		metrics.IncNipsaLookup("error")
		s.logger.WarnwCtx(ctx, "Shadow-ban lookup failed, treating user as flagged",
			"userid", userid,
			"error", err,
		)
		return true
	}

	if flagged {
		metrics.IncNipsaLookup("flagged")
	} else {
		metrics.IncNipsaLookup("clear")
	}
	return flagged
}
