package initializers

import (
	"context"
	"time"

	"employee-portal-backend/config"
	"employee-portal-backend/fiberlog"
	approvalhandler "employee-portal-backend/lib/approval"
	assignmenthandler "employee-portal-backend/lib/assignment"
	employeehandler "employee-portal-backend/lib/employee"
	eventarchivehandler "employee-portal-backend/lib/event-archive"
	xlsexport "employee-portal-backend/lib/export/xls"
	notificationhandler "employee-portal-backend/lib/notification"
	slahandler "employee-portal-backend/lib/sla"
	slaworker "employee-portal-backend/lib/sla/worker"
	tickethandler "employee-portal-backend/lib/ticket"
	ticketeventhandler "employee-portal-backend/lib/ticket-event"
)

var LoggerConfig *fiberlog.Config

func InitAllServices(ctx context.Context) {
	LoggerConfig = InitLogger()
	config.InitConfig()
	InitDBConnection()
	InitS3()
	InitSmtp()
	employeehandler.NewHandler()
	xlsexport.NewHandler()
	notificationhandler.NewHandler()
	ticketeventhandler.NewHandler()
	assignmenthandler.NewHandler()
	approvalhandler.NewHandler()
	tickethandler.NewHandler()
	slahandler.NewHandler(slahandler.ParseReminderDays(config.Conf.Sla.ReminderDays), config.Conf.Sla.AutoCloseDays)
	eventarchivehandler.NewHandler(config.Conf.S3.BucketName, config.Conf.Archive.RetentionDays)
	go initWorkers(ctx)
}

func initWorkers(ctx context.Context) {
	if *config.Conf.Sla.WorkerEnabled {
		// Периодический проход SLA-монитора
		slaworker.StartWorker(ctx, time.Duration(config.Conf.Sla.RunIntervalMin)*time.Minute)
	}
}
