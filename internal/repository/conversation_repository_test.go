package repository

import (
	"fmt"
	"testing"

	"contextai-go/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestKeepLatest(t *testing.T) {
	var msgs []model.ChatMessage
	for i := 0; i < 25; i++ {
		msgs = append(msgs, model.ChatMessage{Role: "user", Content: fmt.Sprint(i)})
	}
	kept := keepLatest(msgs)
	assert.Len(t, kept, 20)
	assert.Equal(t, "5", kept[0].Content)
	assert.Equal(t, "24", kept[19].Content)

	assert.Len(t, keepLatest(msgs[:3]), 3)
}

func TestConversationKey(t *testing.T) {
	assert.Equal(t, "conversation:document:d1", conversationKey("d1"))
}
