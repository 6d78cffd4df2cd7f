package jobqueue

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/database"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/env"
	metrics "github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/metrics/counter"
)

// Manager manages the global job queue and background tasks
type Manager struct {
	queue              *Queue
	scheduleTicker     *time.Ticker
	counterFlushTicker *time.Ticker
	stopCh             chan struct{}
	wg                 sync.WaitGroup
	mu                 sync.Mutex
	running            bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		workerCount := env.GetEnvInt("JOB_QUEUE_WORKERS", 5)
		globalManager = &Manager{
			queue:  NewQueue(workerCount),
			stopCh: make(chan struct{}),
		}
	})
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	// Start the job queue
	m.queue.Start()

	// Sweep due scheduled scrapes every minute
	scheduleInterval := time.Duration(env.GetEnvInt("SCHEDULE_SWEEP_SECONDS", 60)) * time.Second
	m.scheduleTicker = time.NewTicker(scheduleInterval)
	m.wg.Add(1)
	go m.scheduleWorker()

	// Start counter flush worker (Redis -> DB) every 5 seconds
	m.counterFlushTicker = time.NewTicker(5 * time.Second)
	m.wg.Add(1)
	go m.counterFlushWorker()

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")

	if m.scheduleTicker != nil {
		m.scheduleTicker.Stop()
	}
	if m.counterFlushTicker != nil {
		m.counterFlushTicker.Stop()
	}

	// Signal workers to stop
	close(m.stopCh)
	m.stopCh = nil
	m.running = false

	// Wait for background workers to finish
	m.wg.Wait()

	// Stop the job queue
	m.queue.Stop()

	log.Info("[JobQueue Manager] Stopped successfully")
}

// scheduleWorker periodically enqueues executions for due scheduled scrapes
func (m *Manager) scheduleWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Schedule worker stopping")
			return
		case <-m.scheduleTicker.C:
			if err := m.EnqueueDueScheduledScrapes(); err != nil {
				log.Errorf("[JobQueue Manager] Schedule sweep error: %v", err)
			}
		}
	}
}

// counterFlushWorker periodically flushes in-memory counters from Redis to DB
func (m *Manager) counterFlushWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Counter flush worker stopping")
			return
		case <-m.counterFlushTicker.C:
			if err := metrics.FlushAll(); err != nil {
				log.Errorf("[JobQueue Manager] Counter flush error: %v", err)
			}
		}
	}
}

// EnqueueDueScheduledScrapes creates a pending execution and a queue job for
// every active config whose next run time has passed. The next run time is
// pushed forward immediately so an execution is never enqueued twice.
func (m *Manager) EnqueueDueScheduledScrapes() error {
	db := database.GetDB()
	now := time.Now()

	var due []models.ScheduledScrape
	err := db.Where("is_active = ? AND (next_run_at IS NULL OR next_run_at <= ?)", true, now).Find(&due).Error
	if err != nil {
		return err
	}

	for i := range due {
		config := &due[i]

		next := now.Add(config.Interval())
		config.NextRunAt = &next
		if err := db.Save(config).Error; err != nil {
			log.Errorf("[JobQueue Manager] Failed to bump schedule %d: %v", config.ID, err)
			continue
		}

		exec := models.ScrapeExecution{
			ScheduledScrapeID: config.ID,
			Status:            models.EXECUTION_STATUS_PENDING,
		}
		if err := db.Create(&exec).Error; err != nil {
			log.Errorf("[JobQueue Manager] Failed to create execution for schedule %d: %v", config.ID, err)
			continue
		}

		payload := ScheduledScrapeJobPayload{ScheduledScrapeID: config.ID, ExecutionID: exec.ID}
		if _, err := m.queue.EnqueueJob(JobTypeScheduledScrape, payload.ToMap()); err != nil {
			log.Errorf("[JobQueue Manager] Failed to enqueue schedule %d: %v", config.ID, err)
		}
	}
	return nil
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
