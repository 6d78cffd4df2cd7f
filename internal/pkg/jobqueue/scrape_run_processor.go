package jobqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/actor"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/credits"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/database"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/payment"
)

const (
	// runPollInterval is the spacing between actor run status checks.
	runPollInterval = 5 * time.Second
	// runPollTimeout bounds how long one job attempt waits for the actor.
	runPollTimeout = 15 * time.Minute
	// previewItemCount is how many items the unpaid preview exposes.
	previewItemCount = 5
)

// processScrapeRunJob drives one extraction run end to end: start the actor,
// wait for a terminal run status, normalize and store the dataset, settle
// the credit difference against the amount debited at session creation.
func (q *Queue) processScrapeRunJob(ctx context.Context, job *Job) error {
	payload, err := ScrapeRunJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid scrape run payload: %w", err)
	}

	db := database.GetDB()
	var session models.ScrapeSession
	if err := db.First(&session, payload.SessionID).Error; err != nil {
		return fmt.Errorf("session %d not found: %w", payload.SessionID, err)
	}
	if session.IsTerminal() {
		// Replayed job for a settled session.
		return nil
	}

	finalAttempt := job.RetryCount+1 >= job.MaxRetries
	client := actor.NewClientFromEnv()

	run, err := q.ensureRunStarted(ctx, db, client, &session, payload)
	if err != nil {
		if finalAttempt {
			q.failSession(db, &session, payload, err.Error())
			return nil
		}
		return err
	}

	run, err = q.waitForRun(ctx, client, run.ID)
	if err != nil {
		if finalAttempt {
			q.failSession(db, &session, payload, err.Error())
			return nil
		}
		return err
	}

	if run.Status != actor.RunStatusSucceeded {
		q.failSession(db, &session, payload, fmt.Sprintf("actor run ended with status %s", run.Status))
		return nil
	}

	raw, err := client.FetchAllItems(ctx, run.DatasetID, payload.MaxItems)
	if err != nil {
		if finalAttempt {
			q.failSession(db, &session, payload, err.Error())
			return nil
		}
		return fmt.Errorf("failed to fetch dataset %s: %w", run.DatasetID, err)
	}

	items := actor.NormalizeItems(raw)
	if session.ServiceType == models.SERVICE_FACEBOOK_POSTS {
		items, err = dedupFacebookPosts(db, &session, items)
		if err != nil {
			log.Errorf("[JobQueue] Facebook dedup failed for session %s: %v", session.PublicID, err)
		}
	}

	itemsJSON, err := actor.EncodeItems(items)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}
	preview := items
	if len(preview) > previewItemCount {
		preview = preview[:previewItemCount]
	}
	previewJSON, err := actor.EncodeItems(preview)
	if err != nil {
		return fmt.Errorf("failed to encode preview: %w", err)
	}

	now := time.Now()
	session.Status = models.SESSION_STATUS_FINISHED
	session.DatasetID = run.DatasetID
	session.ItemsJSON = itemsJSON
	session.PreviewJSON = previewJSON
	session.TotalItems = len(items)
	session.FinishedAt = &now
	session.ErrorMessage = ""
	if err := db.Save(&session).Error; err != nil {
		return fmt.Errorf("failed to save session %s: %w", session.PublicID, err)
	}

	q.settleScrapeCredits(&session, payload, len(items))
	log.Infof("[JobQueue] Session %s finished with %d items", session.PublicID, len(items))
	return nil
}

// ensureRunStarted starts the actor run, or resumes the existing one when a
// previous attempt already started it.
func (q *Queue) ensureRunStarted(ctx context.Context, db *gorm.DB, client *actor.Client, session *models.ScrapeSession, payload *ScrapeRunJobPayload) (*actor.Run, error) {
	if session.ActorRunID != "" {
		return client.GetRun(ctx, session.ActorRunID)
	}

	input := actor.RunInput{
		StartURL: session.TargetURL,
		MaxItems: payload.MaxItems,
	}
	if session.ServiceType == models.SERVICE_FACEBOOK_POSTS {
		var tracking models.FacebookPageTracking
		err := db.Where("user_id = ? AND page_url = ?", session.UserID, session.TargetURL).First(&tracking).Error
		if err == nil && tracking.LastPostID != "" {
			input.SincePostID = tracking.LastPostID
		}
	}

	run, err := client.StartRun(ctx, session.ServiceType, input)
	if err != nil {
		return nil, fmt.Errorf("failed to start actor run: %w", err)
	}

	now := time.Now()
	session.Status = models.SESSION_STATUS_RUNNING
	session.ActorRunID = run.ID
	session.DatasetID = run.DatasetID
	session.StartedAt = &now
	if err := db.Save(session).Error; err != nil {
		return nil, fmt.Errorf("failed to save session %s: %w", session.PublicID, err)
	}
	return run, nil
}

// waitForRun polls the actor until the run reaches a terminal status.
func (q *Queue) waitForRun(ctx context.Context, client *actor.Client, runID string) (*actor.Run, error) {
	deadline := time.Now().Add(runPollTimeout)
	ticker := time.NewTicker(runPollInterval)
	defer ticker.Stop()

	for {
		run, err := client.GetRun(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("failed to poll run %s: %w", runID, err)
		}
		if actor.IsTerminalRunStatus(run.Status) {
			return run, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("run %s still %s after %s", runID, run.Status, runPollTimeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.stopCh:
			return nil, fmt.Errorf("queue stopping while waiting for run %s", runID)
		case <-ticker.C:
		}
	}
}

// failSession marks the session failed and refunds the full upfront debit.
func (q *Queue) failSession(db *gorm.DB, session *models.ScrapeSession, payload *ScrapeRunJobPayload, msg string) {
	now := time.Now()
	session.Status = models.SESSION_STATUS_FAILED
	session.ErrorMessage = msg
	session.FinishedAt = &now
	if err := db.Save(session).Error; err != nil {
		log.Errorf("[JobQueue] Failed to mark session %s failed: %v", session.PublicID, err)
		return
	}
	if payload.EstimatedCost > 0 {
		q.refundCredits(session, payload.EstimatedCost, "Extraction échouée, crédits restitués")
	}
	log.Warnf("[JobQueue] Session %s failed: %s", session.PublicID, msg)
}

// settleScrapeCredits refunds the gap between the upfront estimate and the
// cost of the items actually delivered. Deliveries never cost more than the
// estimate because MaxItems caps the dataset.
func (q *Queue) settleScrapeCredits(session *models.ScrapeSession, payload *ScrapeRunJobPayload, delivered int) {
	actual, _, err := credits.Cost(credits.EstimateParams{
		ServiceType: session.ServiceType,
		ItemCount:   delivered,
	})
	if err != nil {
		log.Errorf("[JobQueue] Cost settlement failed for session %s: %v", session.PublicID, err)
		return
	}
	if diff := payload.EstimatedCost - actual; diff > 0 {
		q.refundCredits(session, diff, fmt.Sprintf("Ajustement: %d éléments livrés", delivered))
	}
}

func (q *Queue) refundCredits(session *models.ScrapeSession, amount int64, description string) {
	repo := payment.NewRepository(database.GetDB())
	_, err := repo.AdjustCredits(session.UserID, amount, models.CREDIT_TX_ADJUSTMENT, session.ServiceType, description, session.PublicID)
	if err != nil {
		log.Errorf("[JobQueue] Credit refund of %d for session %s failed: %v", amount, session.PublicID, err)
	}
}

// dedupFacebookPosts drops posts already delivered to this user for the same
// page and records the new ones so the next scrape skips them.
func dedupFacebookPosts(db *gorm.DB, session *models.ScrapeSession, items []actor.ScrapedItem) ([]actor.ScrapedItem, error) {
	var tracking models.FacebookPageTracking
	err := db.Where("user_id = ? AND page_url = ?", session.UserID, session.TargetURL).First(&tracking).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return items, err
		}
		tracking = models.FacebookPageTracking{
			UserID:  session.UserID,
			PageURL: session.TargetURL,
		}
		if err := db.Create(&tracking).Error; err != nil {
			return items, err
		}
	}

	seen := make(map[string]bool)
	var known []models.ScrapedPost
	if err := db.Where("tracking_id = ?", tracking.ID).Find(&known).Error; err != nil {
		return items, err
	}
	for _, p := range known {
		seen[p.PostID] = true
	}

	fresh := make([]actor.ScrapedItem, 0, len(items))
	var newest *actor.ScrapedItem
	for i := range items {
		it := items[i]
		if it.PostID == "" || seen[it.PostID] {
			continue
		}
		seen[it.PostID] = true
		fresh = append(fresh, it)

		post := models.ScrapedPost{TrackingID: tracking.ID, PostID: it.PostID}
		if !it.PostedAt.IsZero() {
			t := it.PostedAt
			post.PostDate = &t
		}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&post).Error; err != nil {
			return fresh, err
		}
		if newest == nil || it.PostedAt.After(newest.PostedAt) {
			newest = &items[i]
		}
	}

	if newest != nil {
		tracking.LastPostID = newest.PostID
		if !newest.PostedAt.IsZero() {
			t := newest.PostedAt
			tracking.LastPostDate = &t
		}
	}
	tracking.TotalScraped += len(fresh)
	if err := db.Save(&tracking).Error; err != nil {
		return fresh, err
	}
	return fresh, nil
}
