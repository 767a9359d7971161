package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"absensi/internal/attendance"
	"absensi/internal/config"
	"absensi/internal/photo"
	"absensi/internal/queue"
	"absensi/internal/store"
)

// Worker persists failed-attempt audit events from the queue and runs the
// daily photo retention sweep.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "absensi:audit")
	}

	repo := attendance.NewRepository(db.Client)

	photos, err := photo.NewStore(cfg.PhotoDir)
	if err != nil {
		log.Fatalf("photo store init failed: %v", err)
	}

	go retentionLoop(ctx, repo, photos, cfg.PhotoRetention)

	events, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for audit events...")
	for evt := range events {
		entry := attendance.LogEntry{
			UserID:     evt.UserID,
			Action:     evt.Action,
			OccurredAt: evt.OccurredAt,
			Latitude:   evt.Latitude,
			Longitude:  evt.Longitude,
			Success:    false,
			Reason:     evt.Reason,
		}
		if err := repo.AppendLog(ctx, entry); err != nil {
			log.Printf("audit log write failed for event %s: %v", evt.ID, err)
			continue
		}
		log.Printf("audit event %s persisted (user %d, %s: %s)", evt.ID, evt.UserID, evt.Action, evt.Reason)
	}

	log.Println("worker stopped")
}

// retentionLoop removes attendance photos older than the retention window.
// It runs once at startup and then every 24 hours.
func retentionLoop(ctx context.Context, repo *attendance.Repository, photos *photo.Store, retentionDays int) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		sweepPhotos(ctx, repo, photos, retentionDays)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func sweepPhotos(ctx context.Context, repo *attendance.Repository, photos *photo.Store, retentionDays int) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays).Format("2006-01-02")

	paths, err := repo.PhotoPathsBefore(ctx, cutoff)
	if err != nil {
		log.Printf("retention sweep query failed: %v", err)
		return
	}
	if len(paths) == 0 {
		return
	}

	removed := 0
	for _, p := range paths {
		if err := photos.Remove(p); err != nil {
			log.Printf("retention removal failed for %s: %v", p, err)
			continue
		}
		removed++
	}

	if err := repo.ClearPhotoPathsBefore(ctx, cutoff); err != nil {
		log.Printf("retention path clear failed: %v", err)
		return
	}
	log.Printf("retention sweep removed %d of %d photos older than %s", removed, len(paths), cutoff)
}
