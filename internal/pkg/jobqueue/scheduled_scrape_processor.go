package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/actor"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/credits"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/database"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/mail"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/payment"
)

const scheduledRunMaxItems = 200

// processScheduledScrapeJob runs one execution of a recurring scrape,
// diffs the result against the previous completed execution and notifies
// the owner about detected changes.
func (q *Queue) processScheduledScrapeJob(ctx context.Context, job *Job) error {
	payload, err := ScheduledScrapeJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid scheduled scrape payload: %w", err)
	}

	db := database.GetDB()
	var config models.ScheduledScrape
	if err := db.First(&config, payload.ScheduledScrapeID).Error; err != nil {
		return fmt.Errorf("scheduled scrape %d not found: %w", payload.ScheduledScrapeID, err)
	}
	var exec models.ScrapeExecution
	if err := db.First(&exec, payload.ExecutionID).Error; err != nil {
		return fmt.Errorf("execution %d not found: %w", payload.ExecutionID, err)
	}
	if exec.Status != models.EXECUTION_STATUS_PENDING {
		return nil
	}

	now := time.Now()
	exec.Status = models.EXECUTION_STATUS_RUNNING
	exec.StartedAt = &now
	if err := db.Save(&exec).Error; err != nil {
		return err
	}

	items, runErr := q.runScheduledExtraction(ctx, &config)
	if runErr != nil {
		if job.RetryCount+1 < job.MaxRetries {
			// Put the execution back for the retried attempt.
			exec.Status = models.EXECUTION_STATUS_PENDING
			_ = db.Save(&exec).Error
			return runErr
		}
		finishExecution(db, &exec, models.EXECUTION_STATUS_FAILED, runErr.Error(), "", 0)
		advanceSchedule(db, &config)
		return nil
	}

	if err := q.debitScheduledRun(db, &config, len(items)); err != nil {
		finishExecution(db, &exec, models.EXECUTION_STATUS_FAILED, "crédits insuffisants", "", 0)
		advanceSchedule(db, &config)
		return nil
	}

	itemsJSON, err := actor.EncodeItems(items)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}

	previous, err := previousItems(db, config.ID, exec.ID)
	if err != nil {
		log.Errorf("[JobQueue] Previous execution lookup failed for config %d: %v", config.ID, err)
	}
	changes := DiffItems(previous, items)

	finishExecution(db, &exec, models.EXECUTION_STATUS_COMPLETED, "", itemsJSON, len(items))
	advanceSchedule(db, &config)

	if len(changes) > 0 {
		q.recordChanges(db, &config, &exec, changes)
	}
	log.Infof("[JobQueue] Scheduled scrape %q ran: %d items, %d changes", config.Name, len(items), len(changes))
	return nil
}

func (q *Queue) runScheduledExtraction(ctx context.Context, config *models.ScheduledScrape) ([]actor.ScrapedItem, error) {
	client := actor.NewClientFromEnv()
	run, err := client.StartRun(ctx, config.ServiceType, actor.RunInput{
		StartURL: config.TargetURL,
		MaxItems: scheduledRunMaxItems,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start actor run: %w", err)
	}

	run, err = q.waitForRun(ctx, client, run.ID)
	if err != nil {
		return nil, err
	}
	if run.Status != actor.RunStatusSucceeded {
		return nil, fmt.Errorf("actor run ended with status %s", run.Status)
	}

	raw, err := client.FetchAllItems(ctx, run.DatasetID, scheduledRunMaxItems)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dataset %s: %w", run.DatasetID, err)
	}
	return actor.NormalizeItems(raw), nil
}

func (q *Queue) debitScheduledRun(db *gorm.DB, config *models.ScheduledScrape, delivered int) error {
	cost, _, err := credits.Cost(credits.EstimateParams{
		ServiceType: config.ServiceType,
		ItemCount:   delivered,
	})
	if err != nil {
		return err
	}
	if cost == 0 {
		return nil
	}

	repo := payment.NewRepository(db)
	ref := fmt.Sprintf("schedule:%d", config.ID)
	desc := fmt.Sprintf("Extraction planifiée %s", config.Name)
	_, err = repo.AdjustCredits(config.UserID, -cost, models.CREDIT_TX_DEBIT, config.ServiceType, desc, ref)
	if err != nil && !errors.Is(err, payment.ErrInsufficientCredits) {
		log.Errorf("[JobQueue] Scheduled run debit failed for config %d: %v", config.ID, err)
	}
	return err
}

// recordChanges persists the diff and sends one email per run to the owner.
func (q *Queue) recordChanges(db *gorm.DB, config *models.ScheduledScrape, exec *models.ScrapeExecution, changes []models.DetectedChange) {
	for i := range changes {
		changes[i].ScrapeExecutionID = exec.ID
	}
	if err := db.Create(&changes).Error; err != nil {
		log.Errorf("[JobQueue] Failed to save %d changes for execution %d: %v", len(changes), exec.ID, err)
		return
	}

	var user models.User
	if err := db.First(&user, config.UserID).Error; err != nil {
		log.Errorf("[JobQueue] Owner %d of config %d not found: %v", config.UserID, config.ID, err)
		return
	}

	now := time.Now()
	notification := models.ScrapeNotification{
		DetectedChangeID: changes[0].ID,
		UserID:           user.ID,
		Channel:          "email",
	}
	if err := mail.SendChangeNotification(user.Email, config.Name, len(changes)); err != nil {
		log.Errorf("[JobQueue] Change notification mail to %s failed: %v", user.Email, err)
	} else {
		notification.SentAt = &now
	}
	if err := db.Create(&notification).Error; err != nil {
		log.Errorf("[JobQueue] Failed to save notification for execution %d: %v", exec.ID, err)
	}
}

func finishExecution(db *gorm.DB, exec *models.ScrapeExecution, status, errMsg, itemsJSON string, count int) {
	now := time.Now()
	exec.Status = status
	exec.ErrorMessage = errMsg
	exec.ItemsJSON = itemsJSON
	exec.ItemCount = count
	exec.FinishedAt = &now
	if err := db.Save(exec).Error; err != nil {
		log.Errorf("[JobQueue] Failed to finish execution %d: %v", exec.ID, err)
	}
}

func advanceSchedule(db *gorm.DB, config *models.ScheduledScrape) {
	now := time.Now()
	next := now.Add(config.Interval())
	config.LastRunAt = &now
	config.NextRunAt = &next
	if err := db.Save(config).Error; err != nil {
		log.Errorf("[JobQueue] Failed to advance schedule %d: %v", config.ID, err)
	}
}

// previousItems loads the dataset of the most recent completed execution
// before the current one.
func previousItems(db *gorm.DB, configID, currentExecID uint) ([]actor.ScrapedItem, error) {
	var prev models.ScrapeExecution
	err := db.Where("scheduled_scrape_id = ? AND status = ? AND id <> ?",
		configID, models.EXECUTION_STATUS_COMPLETED, currentExecID).
		Order("id DESC").First(&prev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if prev.ItemsJSON == "" {
		return nil, nil
	}
	return actor.DecodeItems(prev.ItemsJSON)
}

// DiffItems compares two snapshots and reports new, re-priced and removed
// items. Items are keyed by post id, falling back to URL, then title.
func DiffItems(previous, current []actor.ScrapedItem) []models.DetectedChange {
	if len(previous) == 0 {
		// First run has no baseline; nothing to report.
		return nil
	}

	prevByKey := make(map[string]actor.ScrapedItem, len(previous))
	for _, it := range previous {
		if k := itemKey(it); k != "" {
			prevByKey[k] = it
		}
	}

	var changes []models.DetectedChange
	currentKeys := make(map[string]bool, len(current))
	for _, it := range current {
		k := itemKey(it)
		if k == "" {
			continue
		}
		currentKeys[k] = true

		old, exists := prevByKey[k]
		if !exists {
			changes = append(changes, models.DetectedChange{
				ChangeType: models.CHANGE_NEW_ITEM,
				ItemKey:    k,
				NewValue:   it.Title,
			})
			continue
		}
		if old.Price != it.Price {
			changes = append(changes, models.DetectedChange{
				ChangeType: models.CHANGE_PRICE_CHANGE,
				ItemKey:    k,
				OldValue:   formatAmount(old.Price),
				NewValue:   formatAmount(it.Price),
			})
		}
	}

	for k, old := range prevByKey {
		if !currentKeys[k] {
			changes = append(changes, models.DetectedChange{
				ChangeType: models.CHANGE_REMOVED,
				ItemKey:    k,
				OldValue:   old.Title,
			})
		}
	}
	return changes
}

func itemKey(it actor.ScrapedItem) string {
	if it.PostID != "" {
		return it.PostID
	}
	if it.URL != "" {
		return it.URL
	}
	return it.Title
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
