package exporter

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/storage"
)

// ArchiveExport copies a rendered export to object storage when archival is
// configured. Failures are logged and swallowed so a broken bucket never
// blocks a user download.
func ArchiveExport(ctx context.Context, sessionPublicID string, res *Result) {
	cfg, err := storage.LoadConfig()
	if err != nil || !cfg.IsEnabled() {
		return
	}

	client, err := storage.NewClient(cfg)
	if err != nil {
		log.Printf("[ExportArchive] client init failed: %v", err)
		return
	}

	key := fmt.Sprintf("exports/%s/%s/%s", time.Now().Format("2006/01"), sessionPublicID, res.FileName)
	if err := client.Upload(ctx, key, res.Data, res.ContentType); err != nil {
		log.Printf("[ExportArchive] upload of %s failed: %v", key, err)
		return
	}
	log.Printf("[ExportArchive] archived %s (%d bytes)", key, len(res.Data))
}
