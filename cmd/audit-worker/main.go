package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/arnavchau/authd/internal/clickhouse"
	"github.com/arnavchau/authd/internal/config"
	"github.com/arnavchau/authd/internal/enrichment"
	"github.com/arnavchau/authd/internal/logger"
	"github.com/arnavchau/authd/internal/redis"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

var (
	log           *logger.Logger
	streamName    string
	consumerGroup string
	consumerName  string
	batchSize     int
	pollInterval  time.Duration
	blockTime     time.Duration
)

func main() {
	log = logger.New("audit-worker")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: %v", err)
	}

	streamName = cfg.Redis.StreamName
	consumerGroup = cfg.Audit.ConsumerGroup
	consumerName = cfg.Audit.ConsumerName
	batchSize = cfg.Audit.BatchSize
	pollInterval = cfg.Audit.PollInterval
	blockTime = cfg.Audit.BlockTime

	ctx := context.Background()

	redisClient, err := redis.NewRedisClient(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	chClient, err := clickhouse.NewClient(clickhouse.Config{
		Addr:     cfg.ClickHouse.Addr,
		Database: cfg.ClickHouse.Database,
		Username: cfg.ClickHouse.Username,
		Password: cfg.ClickHouse.Password,
		MaxConns: cfg.ClickHouse.MaxConns,
	})
	if err != nil {
		log.Fatal("Failed to connect to ClickHouse: %v", err)
	}
	defer chClient.Close()

	if err := chClient.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to ensure schema: %v", err)
	}

	err = redisClient.GetClient().XGroupCreateMkStream(ctx, streamName, consumerGroup, "0").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		log.Fatal("Failed to create consumer group: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Info("Processing auth events")
	go processEvents(ctx, redisClient.GetClient(), chClient)

	<-sigChan
	log.Info("Shutting down")
}

func processEvents(ctx context.Context, client *redislib.Client, chClient *clickhouse.Client) {
	for {
		messages, err := client.XReadGroup(ctx, &redislib.XReadGroupArgs{
			Group:    consumerGroup,
			Consumer: consumerName,
			Streams:  []string{streamName, ">"},
			Count:    int64(batchSize),
			Block:    blockTime,
		}).Result()

		if err != nil {
			if err == redislib.Nil {
				continue
			}
			log.Error("Failed to read from stream: %v", err)
			time.Sleep(pollInterval)
			continue
		}

		for _, stream := range messages {
			if len(stream.Messages) == 0 {
				continue
			}

			rows := make([]clickhouse.AuthEvent, 0, len(stream.Messages))
			messageIDs := make([]string, 0, len(stream.Messages))

			for _, msg := range stream.Messages {
				row, ok := buildRow(msg.Values)
				if !ok {
					log.Warn("Invalid message format: %v", msg.ID)
					continue
				}

				rows = append(rows, row)
				messageIDs = append(messageIDs, msg.ID)
			}

			if len(rows) > 0 {
				if err := chClient.InsertAuthEvents(ctx, rows); err != nil {
					log.Error("Failed to insert auth events: %v", err)
					continue
				}
				log.Debug("Recorded %d auth events", len(rows))
			}

			if len(messageIDs) > 0 {
				if err := client.XAck(ctx, streamName, consumerGroup, messageIDs...).Err(); err != nil {
					log.Error("Failed to acknowledge messages: %v", err)
				}
			}
		}
	}
}

func buildRow(values map[string]interface{}) (clickhouse.AuthEvent, bool) {
	eventType, ok := values["type"].(string)
	if !ok || eventType == "" {
		return clickhouse.AuthEvent{}, false
	}

	row := clickhouse.AuthEvent{
		EventID:    uuid.New().String(),
		EventType:  eventType,
		OccurredAt: time.Now(),
	}

	if ts, ok := values["timestamp"].(string); ok {
		if unix, err := strconv.ParseInt(ts, 10, 64); err == nil {
			row.OccurredAt = time.Unix(unix, 0)
		}
	}
	if userID, ok := values["user_id"].(string); ok {
		row.UserID = userID
	}
	if email, ok := values["email"].(string); ok {
		row.Email = email
	}
	if ip, ok := values["ip"].(string); ok {
		row.IPAddress = ip
	}
	if ua, ok := values["user_agent"].(string); ok {
		row.UserAgent = ua
		info := enrichment.ParseUserAgent(ua)
		row.Browser = info.Browser
		row.OS = info.OS
		row.DeviceType = info.DeviceType
	}

	return row, true
}
