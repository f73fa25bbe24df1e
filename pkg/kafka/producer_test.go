package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"contextai-go/internal/config"
	"contextai-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducer_NoBrokers(t *testing.T) {
	p := NewProducer(config.KafkaConfig{Brokers: " , ", Topic: "document.ingested"})
	assert.Nil(t, p)
	assert.NoError(t, p.PublishDocumentIngested(context.Background(), model.DocumentIngestedEvent{}))
	assert.NoError(t, p.Close())
}

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, splitBrokers("k1:9092, k2:9092,"))
	assert.Empty(t, splitBrokers(""))
}

func TestIngestedMessage(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	msg, err := ingestedMessage(model.DocumentIngestedEvent{
		Type: model.EventDocumentIngested, DocumentID: "d1", FileName: "a.pdf", ChunkCount: 3, Timestamp: ts,
	})
	require.NoError(t, err)
	assert.Equal(t, "d1", string(msg.Key))
	assert.Equal(t, ts, msg.Time)

	var ev model.DocumentIngestedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	assert.Equal(t, "document.ingested", ev.Type)
	assert.Equal(t, 3, ev.ChunkCount)
}
