package utils

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/swachhsetu/training-backend/config"
)

var reminderWriter *kafka.Writer

// InitializeKafka sets up the producer for the reminder topic. Delivery of
// reminder messages is owned by an external notifier consuming this topic.
func InitializeKafka(cfg *config.Config) {
	if cfg.KafkaBrokers == "" {
		log.Println("ℹ️ KAFKA_BROKERS not set, reminder publishing disabled")
		return
	}

	reminderWriter = &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(cfg.KafkaBrokers, ",")...),
		Topic:        cfg.KafkaReminderTopic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 10 * time.Second,
		BatchTimeout: 50 * time.Millisecond,
	}
	log.Printf("✅ Kafka producer ready (topic: %s)", cfg.KafkaReminderTopic)
}

// PublishReminderBatch hands one JSON payload per target to the notifier
// topic, keyed by user so retries keep per-user ordering.
func PublishReminderBatch(ctx context.Context, key string, payload interface{}) error {
	if reminderWriter == nil {
		log.Println("⚠️ Kafka disabled, reminder batch not published")
		return nil
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return reminderWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
}

// CloseKafka flushes and closes the producer.
func CloseKafka() {
	if reminderWriter != nil {
		_ = reminderWriter.Close()
	}
}
