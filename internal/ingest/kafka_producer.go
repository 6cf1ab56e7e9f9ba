package ingest

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/sitter-hub/internal/models"
)

// ProfileEvent is published whenever a sitter profile is created or its
// coordinates change. A separate consumer mirrors these into the Redis geo
// index used by ops tooling.
type ProfileEvent struct {
	SitterID int64    `json:"sitter_id"`
	Name     string   `json:"name"`
	City     string   `json:"city"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	Rating   float64  `json:"rating"`
}

type KafkaProducer struct {
	writer *kafka.Writer
}

func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	w := kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: topic, Balancer: &kafka.LeastBytes{}})
	return &KafkaProducer{writer: w}
}

func (k *KafkaProducer) PublishProfile(s models.Sitter) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ev := ProfileEvent{SitterID: s.ID, Name: s.Name, City: s.City, Lat: s.Coord.Lat, Lng: s.Coord.Lng, Rating: s.Rating}
	b, _ := json.Marshal(ev)
	key := strconv.FormatInt(s.ID, 10)
	return k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b})
}

func (k *KafkaProducer) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
