package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"filechat-be/internal/dto"
	"filechat-be/internal/pkg/logger"
	"filechat-be/internal/repository/contract"
	"filechat-be/pkg/embedding"
	"filechat-be/pkg/llm"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	// searchTopK bounds how many chunks a single question can pull in.
	searchTopK = 10

	ragSystemPrompt = "You are a helpful assistant. Use the following context from the user's documents to help answer questions.\n\nContext: %s"
)

// ChannelSender pushes a server frame to a single connection. Satisfied by
// *websocket.Hub.
type ChannelSender interface {
	Send(connectionID string, msg dto.ServerMessage)
}

// IChatService is the relay between the shared channel and the language
// model. It consumes inbound chat messages, grounds each question against
// the session's chunks, and pushes the answer back to the originating
// connection only.
type IChatService interface {
	Consume(ctx context.Context) error
}

type chatService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	chunkRepo         contract.ChunkRepository
	embeddingProvider embedding.EmbeddingProvider
	llmProvider       llm.LLMProvider
	sender            ChannelSender
	logger            logger.ILogger
}

func NewChatService(
	pubSub *gochannel.GoChannel,
	topicName string,
	chunkRepo contract.ChunkRepository,
	embeddingProvider embedding.EmbeddingProvider,
	llmProvider llm.LLMProvider,
	sender ChannelSender,
	log logger.ILogger,
) IChatService {
	return &chatService{
		pubSub:            pubSub,
		topicName:         topicName,
		chunkRepo:         chunkRepo,
		embeddingProvider: embeddingProvider,
		llmProvider:       llmProvider,
		sender:            sender,
		logger:            log,
	}
}

func (cs *chatService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *chatService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.InboundChatMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ChatService", "Failed to unmarshal inbound chat message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if payload.SessionId == "" || payload.MessageText == "" {
		cs.fail(payload.ConnectionId, "Invalid message")
		msg.Ack()
		return
	}

	answer, err := cs.answer(ctx, payload.SessionId, payload.MessageText)
	if err != nil {
		cs.logger.Error("ChatService", "Failed to answer chat message", map[string]interface{}{
			"session_id": payload.SessionId,
			"error":      err.Error(),
		})
		cs.fail(payload.ConnectionId, "Failed to generate a response")
		msg.Ack()
		return
	}

	cs.sender.Send(payload.ConnectionId, dto.ServerMessage{ResponseChunk: answer})
	cs.sender.Send(payload.ConnectionId, dto.ServerMessage{EndResponse: true})
	msg.Ack()
}

// answer runs the retrieval-augmented flow for one question.
func (cs *chatService) answer(ctx context.Context, sessionID, question string) (string, error) {
	vec, err := cs.embeddingProvider.Embed(ctx, question)
	if err != nil {
		return "", err
	}

	chunks, err := cs.chunkRepo.SearchSimilar(ctx, vec, sessionID, searchTopK)
	if err != nil {
		return "", err
	}

	docs := make([]string, 0, len(chunks))
	for _, c := range chunks {
		docs = append(docs, c.Document)
	}
	contextText := strings.Join(docs, "\n\n")

	history := []llm.Message{
		{Role: "system", Content: fmt.Sprintf(ragSystemPrompt, contextText)},
		{Role: "user", Content: question},
	}
	return cs.llmProvider.Chat(ctx, history)
}

// fail pushes a terminal error frame. An error ends the exchange, so no
// endResponse follows it.
func (cs *chatService) fail(connectionID, errText string) {
	cs.sender.Send(connectionID, dto.ServerMessage{Error: errText})
}
