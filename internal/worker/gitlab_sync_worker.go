package worker

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Dwisantra/simpefov2/internal/service"
)

// StartGitlabSyncWorker schedules the periodic issue-state refresh. Returns
// nil when the integration or schedule is not configured; otherwise the
// caller owns stopping the returned cron.
func StartGitlabSyncWorker(schedule string, gitlab *service.GitlabService, logger *zap.Logger) (*cron.Cron, error) {
	if schedule == "" || gitlab == nil || !gitlab.Enabled() {
		return nil, nil
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := gitlab.RefreshLinked(context.Background()); err != nil {
			logger.Warn("gitlab sync run failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	logger.Info("gitlab sync worker started", zap.String("schedule", schedule))
	return c, nil
}
