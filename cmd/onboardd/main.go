package main

import (
	"context"
	"log"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"

	"github.com/vbonduro/propdraft/internal/config"
	"github.com/vbonduro/propdraft/internal/db"
	"github.com/vbonduro/propdraft/internal/draftstore"
	"github.com/vbonduro/propdraft/internal/logging"
	"github.com/vbonduro/propdraft/internal/mailbox"
	"github.com/vbonduro/propdraft/internal/photoref"
	"github.com/vbonduro/propdraft/internal/propertystore"
	"github.com/vbonduro/propdraft/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
		return
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("failed to close redis client", "error", err)
		}
	}()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		logger.Error("failed to load aws config", "error", err)
		return
	}
	issuer := photoref.NewS3Issuer(s3.NewFromConfig(awsCfg), cfg.DisplayURLTTL)
	resolver := photoref.NewResolver(issuer, cfg.PhotoBucket, logger)

	drafts := draftstore.New(redisClient, draftstore.Options{
		DraftTTL:    cfg.DraftTTL,
		EnvelopeTTL: cfg.EnvelopeTTL,
	}, logger)
	mb := mailbox.New(drafts, cfg.EnvelopeTTL, logger)
	props := propertystore.NewService(database, logger)

	server := web.NewServer(drafts, mb, props, resolver, cfg.Debounce, logger)
	defer server.Close()

	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}
