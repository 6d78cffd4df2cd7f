package jobqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/actor"
)

func TestDiffItemsNoBaseline(t *testing.T) {
	current := []actor.ScrapedItem{{PostID: "a", Title: "Article A", Price: 10}}
	assert.Nil(t, DiffItems(nil, current))
	assert.Nil(t, DiffItems([]actor.ScrapedItem{}, current))
}

func TestDiffItemsDetectsNewItem(t *testing.T) {
	previous := []actor.ScrapedItem{{PostID: "a", Title: "Article A", Price: 10}}
	current := []actor.ScrapedItem{
		{PostID: "a", Title: "Article A", Price: 10},
		{PostID: "b", Title: "Article B", Price: 20},
	}

	changes := DiffItems(previous, current)
	assert.Len(t, changes, 1)
	assert.Equal(t, models.CHANGE_NEW_ITEM, changes[0].ChangeType)
	assert.Equal(t, "b", changes[0].ItemKey)
	assert.Equal(t, "Article B", changes[0].NewValue)
}

func TestDiffItemsDetectsPriceChange(t *testing.T) {
	previous := []actor.ScrapedItem{{PostID: "a", Title: "Article A", Price: 10}}
	current := []actor.ScrapedItem{{PostID: "a", Title: "Article A", Price: 12.5}}

	changes := DiffItems(previous, current)
	assert.Len(t, changes, 1)
	assert.Equal(t, models.CHANGE_PRICE_CHANGE, changes[0].ChangeType)
	assert.Equal(t, "10", changes[0].OldValue)
	assert.Equal(t, "12.5", changes[0].NewValue)
}

func TestDiffItemsDetectsRemoval(t *testing.T) {
	previous := []actor.ScrapedItem{
		{PostID: "a", Title: "Article A", Price: 10},
		{PostID: "b", Title: "Article B", Price: 20},
	}
	current := []actor.ScrapedItem{{PostID: "a", Title: "Article A", Price: 10}}

	changes := DiffItems(previous, current)
	assert.Len(t, changes, 1)
	assert.Equal(t, models.CHANGE_REMOVED, changes[0].ChangeType)
	assert.Equal(t, "b", changes[0].ItemKey)
	assert.Equal(t, "Article B", changes[0].OldValue)
}

func TestDiffItemsStableWhenUnchanged(t *testing.T) {
	items := []actor.ScrapedItem{
		{PostID: "a", Title: "Article A", Price: 10},
		{URL: "https://example.com/b", Title: "Article B", Price: 20},
	}
	assert.Empty(t, DiffItems(items, items))
}

func TestDiffItemsKeyFallsBackToURLThenTitle(t *testing.T) {
	previous := []actor.ScrapedItem{
		{URL: "https://example.com/x", Title: "X", Price: 1},
		{Title: "Sans lien", Price: 2},
	}
	current := []actor.ScrapedItem{
		{URL: "https://example.com/x", Title: "X", Price: 3},
		{Title: "Sans lien", Price: 2},
	}

	changes := DiffItems(previous, current)
	assert.Len(t, changes, 1)
	assert.Equal(t, "https://example.com/x", changes[0].ItemKey)
}

func TestScrapeRunPayloadRoundTrip(t *testing.T) {
	payload := ScrapeRunJobPayload{SessionID: 12, SessionPublicID: "sess_x", MaxItems: 100, EstimatedCost: 100}

	decoded, err := ScrapeRunJobPayloadFromMap(payload.ToMap())
	assert.NoError(t, err)
	assert.Equal(t, payload, *decoded)
}

func TestScheduledScrapePayloadRoundTrip(t *testing.T) {
	payload := ScheduledScrapeJobPayload{ScheduledScrapeID: 3, ExecutionID: 44}

	decoded, err := ScheduledScrapeJobPayloadFromMap(payload.ToMap())
	assert.NoError(t, err)
	assert.Equal(t, payload, *decoded)
}
