package session

import (
	"context"
	"fmt"

	"github.com/futig/jd-assessment/internal/entity"
)

// Report renders the session results in the requested format
func (uc *SessionUsecase) Report(ctx context.Context, sessionID string, format entity.ReportFormat) (*entity.ReportFile, error) {
	if !format.IsValid() {
		return nil, fmt.Errorf("%w: unsupported report format %q", entity.ErrInvalidParameter, format)
	}

	m, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	results, err := m.Results()
	if err != nil {
		return nil, err
	}

	f, err := uc.formatters.Create(format)
	if err != nil {
		return nil, err
	}

	snap := m.Snapshot()
	content, err := f.Format(&entity.Report{
		SessionID:  sessionID,
		JDOverview: snap.JDOverview,
		Results:    results,
	})
	if err != nil {
		return nil, fmt.Errorf("format report: %w", err)
	}

	return &entity.ReportFile{
		Filename:    "assessment-results" + f.FileExtension(),
		ContentType: f.ContentType(),
		Content:     content,
	}, nil
}
