package slaworker

import (
	"context"
	"time"

	slahandler "employee-portal-backend/lib/sla"
	baseworker "employee-portal-backend/lib/utils/base-worker"
)

func StartWorker(ctx context.Context, runInterval time.Duration) {
	i := impl{
		BaseImpl: baseworker.NewInstance("SlaMonitor", 30*time.Second, runInterval),
		handler:  slahandler.Instance,
	}
	go i.Run(ctx, i.handle)
}

type impl struct {
	*baseworker.BaseImpl
	handler slahandler.Provider
}

func (i impl) handle(ctx context.Context) {
	i.handler.RunCheck(ctx)
}
