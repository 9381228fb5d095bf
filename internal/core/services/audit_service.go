package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

type auditService struct {
	snapshotter ports.StateSnapshotter
	now         func() time.Time
}

func NewAuditService(snapshotter ports.StateSnapshotter) ports.AuditService {
	return &auditService{
		snapshotter: snapshotter,
		now:         time.Now,
	}
}

func (s *auditService) Audit(ctx context.Context) (*domain.AuditReport, error) {
	snapshot, err := s.snapshotter.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot store: %w", err)
	}

	report := domain.Audit(snapshot.Voters, snapshot.Candidates, snapshot.Ballots, s.now().UTC())
	if !report.Consistent() {
		slog.Warn("ballot store is inconsistent", "issues", len(report.Issues))
		for _, issue := range report.Issues {
			slog.Warn("audit issue", "kind", issue.Kind, "subject", issue.Subject, "detail", issue.Detail)
		}
	}
	return report, nil
}
