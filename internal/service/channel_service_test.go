package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"filechat-be/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memConnectionRepo struct {
	mu    sync.Mutex
	known map[string]bool
}

func newMemConnectionRepo() *memConnectionRepo {
	return &memConnectionRepo{known: make(map[string]bool)}
}

func (r *memConnectionRepo) Save(ctx context.Context, connectionID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.known[connectionID] = true
	return nil
}

func (r *memConnectionRepo) Exists(ctx context.Context, connectionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.known[connectionID], nil
}

func testChannelConfig() config.ChannelConfig {
	return config.ChannelConfig{
		NegotiateSecret: "test-secret",
		TokenTTLMin:     5,
	}
}

func TestNegotiateAuthorizeRoundTrip(t *testing.T) {
	repo := newMemConnectionRepo()
	svc := NewChannelService(repo, "http://localhost:3000", testChannelConfig())

	res, err := svc.Negotiate(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.True(t, strings.HasPrefix(res.Url, "http://localhost:3000/api/ws?access_token="))
	assert.Contains(t, res.Url, res.AccessToken)

	connectionID, err := svc.Authorize(context.Background(), res.AccessToken)
	require.NoError(t, err)
	assert.NotEmpty(t, connectionID)
	assert.True(t, repo.known[connectionID], "negotiate must record the connection id")
}

func TestNegotiateIssuesDistinctConnections(t *testing.T) {
	svc := NewChannelService(newMemConnectionRepo(), "http://localhost:3000", testChannelConfig())

	first, err := svc.Negotiate(context.Background())
	require.NoError(t, err)
	second, err := svc.Negotiate(context.Background())
	require.NoError(t, err)

	id1, err := svc.Authorize(context.Background(), first.AccessToken)
	require.NoError(t, err)
	id2, err := svc.Authorize(context.Background(), second.AccessToken)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
}

func TestAuthorizeRejectsBadTokens(t *testing.T) {
	repo := newMemConnectionRepo()
	svc := NewChannelService(repo, "http://localhost:3000", testChannelConfig())

	otherCfg := testChannelConfig()
	otherCfg.NegotiateSecret = "different-secret"
	other := NewChannelService(repo, "http://localhost:3000", otherCfg)
	foreign, err := other.Negotiate(context.Background())
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-jwt"},
		{name: "empty", token: ""},
		{name: "wrong signature", token: foreign.AccessToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Authorize(context.Background(), tt.token)
			assert.ErrorIs(t, err, ErrInvalidAccessToken)
		})
	}
}

func TestAuthorizeRejectsUnknownConnection(t *testing.T) {
	// Token is valid but the credential store never saw the connection,
	// e.g. the record expired.
	issuer := NewChannelService(newMemConnectionRepo(), "http://localhost:3000", testChannelConfig())
	res, err := issuer.Negotiate(context.Background())
	require.NoError(t, err)

	verifier := NewChannelService(newMemConnectionRepo(), "http://localhost:3000", testChannelConfig())
	_, err = verifier.Authorize(context.Background(), res.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidAccessToken)
}
