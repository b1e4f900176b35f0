package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gab-cat/cold-start-sub000/internal/model"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisher_PublishActivity(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisherWithWriter("wellness.activity.logged", w)

	at := time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)
	a := model.Activity{ID: "a1", UserID: "u1", Category: model.CategoryRun, Name: "Run", LoggedAt: at.Add(time.Hour), StartedAt: &at}
	require.NoError(t, p.PublishActivity(context.Background(), NewActivityLogged(a)))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "u1", string(msg.Key))
	assert.Contains(t, msg.Headers, kafka.Header{Key: "event-type", Value: []byte(TypeActivityLogged)})
	assert.Contains(t, msg.Headers, kafka.Header{Key: "event-id", Value: []byte("a1")})

	var got ActivityLogged
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "a1", got.ID)
	assert.True(t, got.OccurredAt.Equal(at))
}

func TestKafkaPublisher_WriteErrorAndClose(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker unavailable")}
	p := newKafkaPublisherWithWriter("t", w)

	err := p.PublishActivity(context.Background(), ActivityLogged{ID: "a1", UserID: "u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
	require.NoError(t, p.Close())
	assert.Error(t, p.PublishActivity(context.Background(), ActivityLogged{ID: "a2"}))
}
