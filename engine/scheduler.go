package engine

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// jobRetention is how long finished jobs are kept.
const jobRetention = 7 * 24 * time.Hour

// InitializeSchedules starts the cron jobs: auto-reload of the open source
// when enabled, and daily pruning of old jobs.
func (serverHandler *ServerHandler) InitializeSchedules() {
	c := cron.New()

	if serverHandler.Config.AutoReload {
		var reloadJob cron.Job
		reloadJob = cron.FuncJob(serverHandler.reloadIfChanged)
		reloadJob = cron.NewChain(cron.SkipIfStillRunning(cron.DefaultLogger)).Then(reloadJob) //ensure we don't kick off another if old one is still running
		if _, err := c.AddJob(fmt.Sprintf("@every %ds", serverHandler.Config.ReloadInterval), reloadJob); err != nil {
			Logger.Error("Failed to schedule auto-reload", "error", err)
		} else {
			Logger.Info("Adding auto-reload scheduler", "interval_seconds", serverHandler.Config.ReloadInterval)
		}
	}

	if _, err := c.AddFunc("@daily", serverHandler.pruneJobs); err != nil {
		Logger.Error("Failed to schedule job pruning", "error", err)
	}

	c.Start()
	serverHandler.cron = c
}

func (serverHandler *ServerHandler) pruneJobs() {
	n, err := serverHandler.DB.DeleteOldJobs(jobRetention)
	if err != nil {
		Logger.Error("Failed to prune old jobs", "error", err)
		return
	}
	Logger.Info("Pruned old jobs", "deleted", n)
}
