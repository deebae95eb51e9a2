// Package jobs implements background tasks that run beside the HTTP server.
//
// Each job owns a ticker loop with Start, Stop and RunOnce:
//
//	auditor := jobs.NewInvariantAuditor(registry, jobs.InvariantAuditorConfig{
//	    Interval: 5 * time.Minute,
//	    Logger:   logger,
//	})
//	auditor.Start()
//	defer auditor.Stop()
//
// Jobs log failures and keep running.
package jobs
