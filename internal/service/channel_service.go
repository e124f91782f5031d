package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"filechat-be/internal/config"
	"filechat-be/internal/dto"
	"filechat-be/internal/repository/contract"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidAccessToken = errors.New("invalid access token")

// IChannelService issues and verifies the credentials that gate the shared
// channel. Negotiation is anonymous: every caller gets a fresh connection
// id and a signed token carrying it.
type IChannelService interface {
	Negotiate(ctx context.Context) (*dto.NegotiateResponse, error)
	Authorize(ctx context.Context, accessToken string) (string, error)
}

type channelService struct {
	connectionRepo contract.ConnectionRepository
	baseURL        string
	cfg            config.ChannelConfig
}

func NewChannelService(connectionRepo contract.ConnectionRepository, baseURL string, cfg config.ChannelConfig) IChannelService {
	return &channelService{
		connectionRepo: connectionRepo,
		baseURL:        baseURL,
		cfg:            cfg,
	}
}

func (cs *channelService) Negotiate(ctx context.Context) (*dto.NegotiateResponse, error) {
	connectionID := uuid.NewString()
	ttl := time.Duration(cs.cfg.TokenTTLMin) * time.Minute

	claims := jwt.MapClaims{
		"connection_id": connectionID,
		"exp":           time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cs.cfg.NegotiateSecret))
	if err != nil {
		return nil, err
	}

	if err := cs.connectionRepo.Save(ctx, connectionID, ttl); err != nil {
		return nil, err
	}

	return &dto.NegotiateResponse{
		Url:         fmt.Sprintf("%s/api/ws?access_token=%s", cs.baseURL, signed),
		AccessToken: signed,
	}, nil
}

// Authorize validates a negotiated token and returns its connection id.
func (cs *channelService) Authorize(ctx context.Context, accessToken string) (string, error) {
	token, err := jwt.Parse(accessToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cs.cfg.NegotiateSecret), nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidAccessToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidAccessToken
	}
	connectionID, _ := claims["connection_id"].(string)
	if connectionID == "" {
		return "", ErrInvalidAccessToken
	}

	known, err := cs.connectionRepo.Exists(ctx, connectionID)
	if err != nil {
		return "", err
	}
	if !known {
		return "", ErrInvalidAccessToken
	}
	return connectionID, nil
}
