package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/locallink/backend/internal/model/chat"
)

const redisKeyPrefix = "locallink:chat:"

// RedisStore keeps transcripts in Redis lists that expire with the session.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to url; every write refreshes the session TTL.
func NewRedisStore(url string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: redis.NewClient(opt), ttl: ttl}, nil
}

func sessionKey(id string) string    { return redisKeyPrefix + id + ":session" }
func transcriptKey(id string) string { return redisKeyPrefix + id + ":messages" }

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// CreateSession stores a new session record.
func (s *RedisStore) CreateSession(ctx context.Context) (chat.Session, error) {
	session := chat.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return chat.Session{}, err
	}
	if err := s.client.Set(ctx, sessionKey(session.ID), raw, s.ttl).Err(); err != nil {
		return chat.Session{}, fmt.Errorf("store session: %w", err)
	}
	return session, nil
}

// GetSession loads a session record.
func (s *RedisStore) GetSession(ctx context.Context, sessionID string) (chat.Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return chat.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return chat.Session{}, fmt.Errorf("load session: %w", err)
	}

	var session chat.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return chat.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return session, nil
}

// AppendMessage pushes the message onto the session list.
func (s *RedisStore) AppendMessage(ctx context.Context, message chat.Message) (chat.Message, error) {
	if err := validateMessage(message); err != nil {
		return chat.Message{}, err
	}
	if _, err := s.GetSession(ctx, message.SessionID); err != nil {
		return chat.Message{}, err
	}

	stamp(&message)
	raw, err := json.Marshal(message)
	if err != nil {
		return chat.Message{}, err
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, transcriptKey(message.SessionID), raw)
	pipe.Expire(ctx, transcriptKey(message.SessionID), s.ttl)
	pipe.Expire(ctx, sessionKey(message.SessionID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return chat.Message{}, fmt.Errorf("append message: %w", err)
	}
	return message, nil
}

// LoadTranscript returns the messages in append order.
func (s *RedisStore) LoadTranscript(ctx context.Context, sessionID string) ([]chat.Message, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	items, err := s.client.LRange(ctx, transcriptKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}

	messages := make([]chat.Message, 0, len(items))
	for _, item := range items {
		var msg chat.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// DeleteSession removes both keys of the session.
func (s *RedisStore) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID), transcriptKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
