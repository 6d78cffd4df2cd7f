package counter

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/cache"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/database"
)

const (
	sessionDownloadsKey = "session:counters:downloads"
)

// AddSessionDownload increments the pending download counter for a session in Redis
func AddSessionDownload(sessionID uint) error {
	ctx := context.Background()
	field := strconv.FormatUint(uint64(sessionID), 10)
	return cache.GetClient().HIncrBy(ctx, sessionDownloadsKey, field, 1).Err()
}

// FlushAll flushes pending counters to the database
func FlushAll() error {
	return flushHashToTable(sessionDownloadsKey, "scrape_sessions", "download_count")
}

// flushHashToTable drains a Redis hash atomically and applies batched increments.
// Uses RENAME to a temporary key for atomic drain without losing in-flight increments.
func flushHashToTable(redisKey, table, column string) error {
	ctx := context.Background()
	rdb := cache.GetClient()

	tmpKey := fmt.Sprintf("%s:tmp:%d", redisKey, time.Now().UnixNano())
	if err := rdb.Do(ctx, "RENAME", redisKey, tmpKey).Err(); err != nil {
		// If key does not exist, nothing to flush
		if strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		return err
	}

	entries, err := rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return rdb.Del(ctx, tmpKey).Err()
	}

	db := database.GetDB()
	for field, raw := range entries {
		id, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			continue
		}
		delta, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || delta == 0 {
			continue
		}
		sql := fmt.Sprintf("UPDATE %s SET %s = %s + ? WHERE id = ?", table, column, column)
		if err := db.Exec(sql, delta, id).Error; err != nil {
			return err
		}
	}

	return rdb.Del(ctx, tmpKey).Err()
}
