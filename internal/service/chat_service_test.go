package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"filechat-be/internal/dto"
	"filechat-be/internal/entity"
	"filechat-be/pkg/llm"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu     sync.Mutex
	frames map[string][]dto.ServerMessage
}

func newRecordingSender() *recordingSender {
	return &recordingSender{frames: make(map[string][]dto.ServerMessage)}
}

func (s *recordingSender) Send(connectionID string, msg dto.ServerMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames[connectionID] = append(s.frames[connectionID], msg)
}

func (s *recordingSender) sent(connectionID string) []dto.ServerMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames[connectionID]
}

type stubLLM struct {
	err     error
	reply   string
	history []llm.Message
}

func (l *stubLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	l.history = history
	if l.err != nil {
		return "", l.err
	}
	return l.reply, nil
}

func inboundFrame(t *testing.T, connID, sessionID, text string) *message.Message {
	t.Helper()
	payload, err := json.Marshal(dto.InboundChatMessage{
		ConnectionId: connID,
		SessionId:    sessionID,
		MessageText:  text,
	})
	require.NoError(t, err)
	return message.NewMessage(watermill.NewUUID(), payload)
}

func TestProcessMessageAnswersWithContext(t *testing.T) {
	repo := &fakeChunkRepo{searchOut: []*entity.Chunk{
		{Document: "first chunk"},
		{Document: "second chunk"},
	}}
	llmStub := &stubLLM{reply: "the answer"}
	sender := newRecordingSender()

	svc := NewChatService(nil, "CHAT_MESSAGES", repo, &fakeEmbedder{}, llmStub, sender, nopLogger{}).(*chatService)

	svc.processMessage(context.Background(), inboundFrame(t, "conn-1", "sess-1", "what is this?"))

	frames := sender.sent("conn-1")
	require.Len(t, frames, 2)
	assert.Equal(t, "the answer", frames[0].ResponseChunk)
	assert.True(t, frames[1].EndResponse)

	require.Len(t, llmStub.history, 2)
	assert.Equal(t, "system", llmStub.history[0].Role)
	assert.Contains(t, llmStub.history[0].Content, "first chunk\n\nsecond chunk")
	assert.Equal(t, "what is this?", llmStub.history[1].Content)
}

func TestProcessMessageErrorEndsWithoutEndResponse(t *testing.T) {
	repo := &fakeChunkRepo{}
	llmStub := &stubLLM{err: errors.New("model unavailable")}
	sender := newRecordingSender()

	svc := NewChatService(nil, "CHAT_MESSAGES", repo, &fakeEmbedder{}, llmStub, sender, nopLogger{}).(*chatService)

	svc.processMessage(context.Background(), inboundFrame(t, "conn-2", "sess-1", "hello"))

	frames := sender.sent("conn-2")
	require.Len(t, frames, 1)
	assert.NotEmpty(t, frames[0].Error)
	assert.False(t, frames[0].EndResponse, "an error frame must terminate the response")
}

func TestProcessMessageRejectsEmptyFields(t *testing.T) {
	sender := newRecordingSender()
	svc := NewChatService(nil, "CHAT_MESSAGES", &fakeChunkRepo{}, &fakeEmbedder{}, &stubLLM{}, sender, nopLogger{}).(*chatService)

	svc.processMessage(context.Background(), inboundFrame(t, "conn-3", "", "hello"))

	frames := sender.sent("conn-3")
	require.Len(t, frames, 1)
	assert.Equal(t, "Invalid message", frames[0].Error)
}

func TestProcessMessageIgnoresMalformedPayload(t *testing.T) {
	sender := newRecordingSender()
	svc := NewChatService(nil, "CHAT_MESSAGES", &fakeChunkRepo{}, &fakeEmbedder{}, &stubLLM{}, sender, nopLogger{}).(*chatService)

	msg := message.NewMessage(watermill.NewUUID(), []byte("{not json"))
	svc.processMessage(context.Background(), msg)

	assert.Empty(t, sender.frames)
}

func TestAnswerJoinsChunksInOrder(t *testing.T) {
	repo := &fakeChunkRepo{searchOut: []*entity.Chunk{
		{Document: "alpha"},
		{Document: "beta"},
		{Document: "gamma"},
	}}
	llmStub := &stubLLM{reply: "ok"}
	svc := NewChatService(nil, "CHAT_MESSAGES", repo, &fakeEmbedder{}, llmStub, newRecordingSender(), nopLogger{}).(*chatService)

	_, err := svc.answer(context.Background(), "sess-2", "q")
	require.NoError(t, err)

	joined := strings.Join([]string{"alpha", "beta", "gamma"}, "\n\n")
	assert.Contains(t, llmStub.history[0].Content, joined)
}
