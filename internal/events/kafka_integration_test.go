//go:build integration

package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	kafkacontainer "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/gab-cat/cold-start-sub000/internal/model"
)

func TestKafkaPublisherRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
	defer cancel()

	kc, err := kafkacontainer.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = kc.Terminate(context.Background()) })

	brokers, err := kc.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)

	const topic = "wellness.activity.logged"
	conn, err := kafka.Dial("tcp", brokers[0])
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))

	pub := NewKafkaPublisher(brokers, topic)
	defer func() { _ = pub.Close() }()

	km := 3.0
	act := model.Activity{
		ID: "act-1", UserID: "u1", Category: model.CategoryWalk, Name: "Walk",
		DistanceKm: &km, Source: model.SourceChat, LoggedAt: time.Now().UTC(),
	}
	require.NoError(t, pub.PublishActivity(ctx, NewActivityLogged(act)))

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	require.Equal(t, "u1", string(msg.Key))

	var got ActivityLogged
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	require.Equal(t, TypeActivityLogged, got.Type)
	require.Equal(t, "act-1", got.ID)
	require.InDelta(t, 3.0, *got.Activity.DistanceKm, 0.001)
}
