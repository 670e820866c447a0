package cron

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v6"
	cronv3 "github.com/robfig/cron/v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/leaderelection"
	"k8s.io/client-go/tools/leaderelection/resourcelock"

	"github.com/outreachcrm/sendpool/config"
	"github.com/outreachcrm/sendpool/interfaces"
	cron_config "github.com/outreachcrm/sendpool/internal/cron/config"
	"github.com/outreachcrm/sendpool/internal/logger"
	"github.com/outreachcrm/sendpool/internal/tracing"
)

// CONSTANTS
const (
	// GroupSendpool is the group for sendpool housekeeping jobs
	GroupSendpool = "sendpool"

	// LeaseDuration is how long a lease lasts before needing renewal
	LeaseDuration = 15 * time.Second
	// RenewDeadline is how long a leader has to renew its lease
	RenewDeadline = 10 * time.Second
	// RetryPeriod is how long to wait between leadership attempts
	RetryPeriod = 2 * time.Second
)

// LOCK MANAGEMENT
var jobLocks = struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}{
	locks: map[string]*sync.Mutex{
		GroupSendpool: new(sync.Mutex),
	},
}

type CronManager struct {
	cfg       *config.Config
	log       logger.Logger
	cron      *cronv3.Cron
	k8s       kubernetes.Interface
	stopOnce  sync.Once
	stopCh    chan struct{}
	jobIDs    map[string]cronv3.EntryID
	scheduler interfaces.SchedulerService
}

func NewCronManager(cfg *config.Config, log logger.Logger, k8s kubernetes.Interface, scheduler interfaces.SchedulerService) *CronManager {
	return &CronManager{
		cfg:       cfg,
		log:       log,
		k8s:       k8s,
		stopCh:    make(chan struct{}),
		jobIDs:    make(map[string]cronv3.EntryID),
		scheduler: scheduler,
	}
}

// Start initializes and starts the cron manager with leader election
// If k8s is nil, it will start in local mode without leader election
func (cm *CronManager) Start(podName, namespace string) error {
	if cm.k8s == nil || os.Getenv("LOCAL_DEV") == "true" {
		cm.log.Info("Starting cron manager in local mode")
		cm.StartCron()
		return nil
	}

	lock := &resourcelock.LeaseLock{
		LeaseMeta: metav1.ObjectMeta{
			Name:      "sendpool-cron-leader",
			Namespace: namespace,
		},
		Client: cm.k8s.CoordinationV1(),
		LockConfig: resourcelock.ResourceLockConfig{
			Identity: podName,
		},
	}

	errCh := make(chan error, 1)

	go func() {
		le, err := leaderelection.NewLeaderElector(leaderelection.LeaderElectionConfig{
			Lock:            lock,
			ReleaseOnCancel: true,
			LeaseDuration:   LeaseDuration,
			RenewDeadline:   RenewDeadline,
			RetryPeriod:     RetryPeriod,
			Callbacks: leaderelection.LeaderCallbacks{
				OnStartedLeading: func(ctx context.Context) {
					cm.StartCron()
				},
				OnStoppedLeading: func() {
					cm.log.Info("Leader lost - stopping crons")
					cm.Stop()
				},
				OnNewLeader: func(identity string) {
					cm.log.Infof("New leader elected: %s", identity)
				},
			},
		})
		if err != nil {
			errCh <- err
			return
		}

		ctx := context.Background()
		le.Run(ctx)
	}()

	// Wait briefly to see if leader election fails immediately
	select {
	case err := <-errCh:
		cm.log.Warnf("Leader election failed, falling back to local mode: %v", err)
		cm.StartCron()
	case <-time.After(5 * time.Second):
		// Leader election seems to be working, continue normally
	}

	return nil
}

// Stop gracefully stops the cron manager
func (cm *CronManager) Stop() {
	if cm.cron != nil {
		cm.log.Info("Stopping cron manager")
		ctx := cm.cron.Stop()
		// Wait for jobs to finish
		<-ctx.Done()
	}
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}

// registerJobs adds all cron jobs to the scheduler
func (cm *CronManager) registerJobs(c *cronv3.Cron) {
	var cronConfig cron_config.Config
	if err := env.Parse(&cronConfig); err != nil {
		cm.log.Fatalf("Failed to parse cron config from environment: %v", err)
	}

	if cronConfig.CronScheduleHeartbeat != "" {
		podName := os.Getenv("POD_NAME")
		if podName == "" {
			podName = "local"
		}
		id, err := c.AddFunc(cronConfig.CronScheduleHeartbeat, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.log.Infof("Cron heartbeat from pod: %s", podName)
		})
		if err != nil {
			cm.log.Fatalf("Could not add heartbeat cron job: %v", err)
		}
		cm.jobIDs["heartbeat"] = id
		cm.log.Infof("Registered heartbeat job with schedule: %s", cronConfig.CronScheduleHeartbeat)
	}

	if cronConfig.CronScheduleSweepReservations != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleSweepReservations, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupSendpool].Lock()
			defer jobLocks.locks[GroupSendpool].Unlock()
			cm.sweepReservations()
		})
		if err != nil {
			cm.log.Fatalf("Could not add reservation sweep cron job: %v", err)
		}
		cm.jobIDs["sweep_reservations"] = id
		cm.log.Infof("Registered reservation sweep job with schedule: %s", cronConfig.CronScheduleSweepReservations)
	}

	if cronConfig.CronScheduleFlushUsage != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleFlushUsage, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupSendpool].Lock()
			defer jobLocks.locks[GroupSendpool].Unlock()
			cm.flushUsage()
		})
		if err != nil {
			cm.log.Fatalf("Could not add usage flush cron job: %v", err)
		}
		cm.jobIDs["flush_usage"] = id
		cm.log.Infof("Registered usage flush job with schedule: %s", cronConfig.CronScheduleFlushUsage)
	}
}

// StartCron initializes and starts the cron scheduler
func (cm *CronManager) StartCron() {
	cm.log.Info("Starting cron manager")
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger),
			cronv3.Recover(cronv3.DefaultLogger),
		),
	}
	c := cronv3.New(cronOptions...)
	cm.registerJobs(c)
	c.Start()
	cm.cron = c
}

func (cm *CronManager) sweepReservations() {
	ctx := context.Background()

	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.sweepReservations")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	if released := cm.scheduler.SweepExpiredReservations(ctx); released > 0 {
		cm.log.Infof("Released %d expired reservations", released)
	}
}

func (cm *CronManager) flushUsage() {
	cm.log.Info("Running usage flush")

	ctx := context.Background()

	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.flushUsage")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	if err := cm.scheduler.FlushDirtyAccounts(ctx); err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Failed to flush scheduling state: %v", err)
		return
	}
}
