package services

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/himaltransit/fleet-booking-backend/internal/config"
)

// CronService manages scheduled background jobs
type CronService struct {
	cron         *cron.Cron
	scheduleSvc  *ScheduleService
	reservations *ReservationService
	bookings     *BookingService
	notifySvc    *NotificationService
	sweepCfg     config.SweepConfig
	logger       *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(
	scheduleSvc *ScheduleService,
	reservations *ReservationService,
	bookings *BookingService,
	notifySvc *NotificationService,
	sweepCfg config.SweepConfig,
	logger *logrus.Logger,
) *CronService {
	// Cron with seconds precision, matching the 6-field sweep specs
	c := cron.New(cron.WithSeconds())

	return &CronService{
		cron:         c,
		scheduleSvc:  scheduleSvc,
		reservations: reservations,
		bookings:     bookings,
		notifySvc:    notifySvc,
		sweepCfg:     sweepCfg,
		logger:       logger,
	}
}

// Start registers and starts all sweep jobs
func (s *CronService) Start() error {
	s.logger.Info("Starting cron service")

	// Job 1: complete overdue schedules and charter reservations
	_, err := s.cron.AddFunc(s.sweepCfg.CompletionSpec, s.completionSweepJob)
	if err != nil {
		return fmt.Errorf("failed to schedule completion sweep: %w", err)
	}

	// Job 2: auto-confirm reserved tickets close to departure
	_, err = s.cron.AddFunc(s.sweepCfg.AutoConfirmSpec, s.autoConfirmJob)
	if err != nil {
		return fmt.Errorf("failed to schedule auto-confirm sweep: %w", err)
	}

	// Job 3: purge old read notifications daily at 4 AM
	_, err = s.cron.AddFunc("0 0 4 * * *", s.notificationPurgeJob)
	if err != nil {
		return fmt.Errorf("failed to schedule notification purge: %w", err)
	}

	s.cron.Start()
	s.logger.WithField("jobs", len(s.cron.Entries())).Info("Cron service started")
	return nil
}

// Stop stops all cron jobs and waits for running ones to finish
func (s *CronService) Stop() {
	s.logger.Info("Stopping cron service")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

// completionSweepJob closes out schedules and reservations whose end
// time has passed.
func (s *CronService) completionSweepJob() {
	now := time.Now()
	startTime := now

	schedules, err := s.scheduleSvc.CompleteOverdue(now)
	if err != nil {
		s.logger.WithError(err).Error("Completion sweep failed on schedules")
	}

	reservationsCompleted, err := s.reservations.CompleteOverdue(now)
	if err != nil {
		s.logger.WithError(err).Error("Completion sweep failed on reservations")
	}

	if schedules > 0 || reservationsCompleted > 0 {
		s.logger.WithFields(logrus.Fields{
			"schedules":    schedules,
			"reservations": reservationsCompleted,
			"duration":     time.Since(startTime).String(),
		}).Info("Completion sweep finished")
	}
}

// autoConfirmJob confirms RESERVED tickets whose schedule departs within
// the configured lead time.
func (s *CronService) autoConfirmJob() {
	now := time.Now()

	confirmed, err := s.bookings.AutoConfirmDueTickets(now, s.sweepCfg.AutoConfirmLeadTime)
	if err != nil {
		s.logger.WithError(err).Error("Auto-confirm sweep failed")
		return
	}
	if confirmed > 0 {
		s.logger.WithField("tickets", confirmed).Info("Auto-confirmed tickets near departure")
	}
}

// notificationPurgeJob drops read notifications past the retention window
func (s *CronService) notificationPurgeJob() {
	cutoff := time.Now().Add(-s.sweepCfg.NotificationRetention)

	purged, err := s.notifySvc.PurgeOldRead(cutoff)
	if err != nil {
		s.logger.WithError(err).Error("Notification purge failed")
		return
	}
	if purged > 0 {
		s.logger.WithField("notifications", purged).Info("Purged old read notifications")
	}
}

// RunCompletionSweepNow runs the completion sweep immediately (for testing)
func (s *CronService) RunCompletionSweepNow() {
	s.logger.Info("Running completion sweep now")
	s.completionSweepJob()
}

// RunAutoConfirmNow runs the auto-confirm sweep immediately (for testing)
func (s *CronService) RunAutoConfirmNow() {
	s.logger.Info("Running auto-confirm sweep now")
	s.autoConfirmJob()
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
