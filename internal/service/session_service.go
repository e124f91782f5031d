package service

import (
	"context"

	"filechat-be/internal/repository/contract"
)

type ISessionService interface {
	// Exists reports whether any indexed chunk still carries the session
	// tag. Sessions expire implicitly when the sweeper removes the last
	// chunk.
	Exists(ctx context.Context, sessionID string) (bool, error)
}

type sessionService struct {
	chunkRepo contract.ChunkRepository
}

func NewSessionService(chunkRepo contract.ChunkRepository) ISessionService {
	return &sessionService{chunkRepo: chunkRepo}
}

func (ss *sessionService) Exists(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	return ss.chunkRepo.ExistsBySessionId(ctx, sessionID)
}
