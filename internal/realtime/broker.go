package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/decred/slog"
	"github.com/redis/go-redis/v9"

	"github.com/robpatriot/nommie/internal/apperrors"
)

// Publisher retry configuration (request path, kept short since a caller
// is waiting on it).
const (
	publisherMaxAttempts       = 3
	publisherInitialRetryDelay = 50 * time.Millisecond
	publisherMaxRetryDelay     = 200 * time.Millisecond
)

// Subscriber retry configuration (background reconnect loop, allowed to
// wait much longer since nothing is blocked on it).
const (
	subscriberInitialRetryDelay = time.Second
	subscriberMaxRetryDelay     = 60 * time.Second
	subscriberRetryMultiplier   = 2.0
	subscriberJitterPercent     = 0.2
)

type eventEnvelope struct {
	Type    string `json:"type"`
	GameID  int64  `json:"game_id,omitempty"`
	UserID  int64  `json:"user_id,omitempty"`
	Version int32  `json:"version,omitempty"`
}

const (
	eventGameStateAvailable  = "game_state_available"
	eventYourTurn            = "your_turn"
	eventLongWaitInvalidated = "long_wait_invalidated"
)

func gameChannel(gameID int64) string { return fmt.Sprintf("game:%d", gameID) }
func userChannel(userID int64) string { return fmt.Sprintf("user:%d", userID) }

// Broker publishes game-state-change events to Redis and runs a background
// subscriber that fans incoming events back out through a Registry, the
// Go shape of RealtimeBroker::connect in ws/broker.rs split into a
// publish half (used on the request path) and a subscribe half (run once,
// in the background).
type Broker struct {
	client   *redis.Client
	registry *Registry
	log      slog.Logger
}

// NewBroker parses redisURL, connects, and starts the background
// subscriber loop against ctx. The subscriber loop runs until ctx is
// canceled; callers should cancel it during shutdown.
func NewBroker(ctx context.Context, redisURL string, registry *Registry, log slog.Logger) (*Broker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigError, fmt.Sprintf("invalid REDIS_URL %q", redisURL), err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, apperrors.Wrap(apperrors.CodeConfigError, "unable to reach redis", err)
	}

	b := &Broker{client: client, registry: registry, log: log}
	go b.runSubscriptionLoopWithRetry(ctx, redisURL)
	return b, nil
}

// Registry returns the broker's session registry.
func (b *Broker) Registry() *Registry { return b.registry }

// PublishGameStateAvailable announces that gameID has advanced to version.
func (b *Broker) PublishGameStateAvailable(ctx context.Context, gameID int64, version int32) error {
	return b.publish(ctx, gameChannel(gameID), eventEnvelope{Type: eventGameStateAvailable, GameID: gameID, Version: version})
}

// PublishYourTurn nudges userID that it is their turn in gameID.
func (b *Broker) PublishYourTurn(ctx context.Context, userID, gameID int64, version int32) error {
	return b.publish(ctx, userChannel(userID), eventEnvelope{Type: eventYourTurn, UserID: userID, GameID: gameID, Version: version})
}

// PublishLongWaitInvalidated tells userID their long-wait navigation for
// gameID is stale.
func (b *Broker) PublishLongWaitInvalidated(ctx context.Context, userID, gameID int64) error {
	return b.publish(ctx, userChannel(userID), eventEnvelope{Type: eventLongWaitInvalidated, UserID: userID, GameID: gameID})
}

func (b *Broker) publish(ctx context.Context, channel string, envelope eventEnvelope) error {
	encoded, err := json.Marshal(envelope)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternalError, "failed to serialize realtime envelope", err)
	}

	var lastErr error
	delay := publisherInitialRetryDelay
	for attempt := 1; attempt <= publisherMaxAttempts; attempt++ {
		err := b.client.Publish(ctx, channel, encoded).Err()
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt >= publisherMaxAttempts || !isTransientError(err) {
			break
		}
		if b.log != nil {
			b.log.Warnf("redis publish failed (attempt %d), retrying in %s: %v", attempt, delay, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > publisherMaxRetryDelay {
			delay = publisherMaxRetryDelay
		}
	}
	return apperrors.Wrap(apperrors.CodeInternalError, "failed to publish realtime event to redis", lastErr)
}

// isTransientError distinguishes retryable network failures from
// permanent configuration/auth problems, the Go analogue of
// is_transient_error in ws/broker.rs: a bad REDIS_URL or failed auth
// should fail fast rather than retry forever.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if asNetError(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "auth"), strings.Contains(msg, "wrong number of args"), strings.Contains(msg, "unsupported"):
		return false
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "broken pipe"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "timed out"),
		strings.Contains(msg, "i/o timeout"),
		strings.Contains(msg, "eof"):
		return true
	default:
		return true
	}
}

func asNetError(err error, target *net.Error) bool {
	for err != nil {
		if ne, ok := err.(net.Error); ok {
			*target = ne
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func (b *Broker) runSubscriptionLoopWithRetry(ctx context.Context, redisURL string) {
	attempt := 0
	for {
		attempt++
		err := b.runSubscriptionLoop(ctx)
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
		if !isTransientError(err) {
			if b.log != nil {
				b.log.Errorf("redis subscription failed permanently (attempt %d): %v", attempt, err)
			}
			return
		}
		delay := calculateRetryDelay(attempt)
		if b.log != nil {
			b.log.Warnf("redis subscription failed (attempt %d), retrying in %s: %v", attempt, delay, err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		if attempt >= 20 {
			attempt = 10
		}
	}
}

// calculateRetryDelay is exponential backoff with +/-20% jitter, capped at
// 60s, matching calculate_retry_delay in ws/broker.rs.
func calculateRetryDelay(attempt int) time.Duration {
	base := float64(subscriberInitialRetryDelay) * pow(subscriberRetryMultiplier, attempt-1)
	if base > float64(subscriberMaxRetryDelay) {
		base = float64(subscriberMaxRetryDelay)
	}
	jitterRange := base * subscriberJitterPercent
	jitter := (rand.Float64()*2 - 1) * jitterRange
	final := base + jitter
	if final < float64(100*time.Millisecond) {
		final = float64(100 * time.Millisecond)
	}
	return time.Duration(final)
}

func pow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}

func (b *Broker) runSubscriptionLoop(ctx context.Context) error {
	pubsub := b.client.PSubscribe(ctx, "game:*", "user:*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return apperrors.Wrap(apperrors.CodeInternalError, "failed to establish redis subscription", err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return apperrors.New(apperrors.CodeInternalError, "redis subscription stream ended unexpectedly")
			}
			b.handleMessage(msg)
		}
	}
}

func (b *Broker) handleMessage(msg *redis.Message) {
	var envelope eventEnvelope
	if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
		if b.log != nil {
			b.log.Errorf("failed to decode redis realtime payload on %s: %v", msg.Channel, err)
		}
		return
	}

	switch envelope.Type {
	case eventGameStateAvailable:
		b.registry.BroadcastGameState(envelope.GameID, ServerMessage{
			Type:    "game_state_available",
			GameID:  envelope.GameID,
			Version: envelope.Version,
		})
	case eventYourTurn:
		b.registry.BroadcastToUserExclTopic(envelope.UserID, envelope.GameID, YourTurn(envelope.GameID, envelope.Version))
	case eventLongWaitInvalidated:
		b.registry.BroadcastToUser(envelope.UserID, LongWaitInvalidated(envelope.GameID))
	default:
		if b.log != nil {
			b.log.Warnf("unknown realtime event type %q on %s", envelope.Type, msg.Channel)
		}
	}
}

// Close releases the underlying Redis client. It does not stop the
// subscriber loop; cancel the context passed to NewBroker for that.
func (b *Broker) Close() error {
	return b.client.Close()
}
