package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

const (
	resultPrefix  = "simulation:result:"
	requestPrefix = "simulation:request:"
)

// ErrCacheMiss is returned when no cached entry exists for a key
var ErrCacheMiss = errors.New("simulation not found in cache")

// SimulationCacheService stores simulation responses in Redis. Responses are
// addressable by their ID and, for single-game runs, by a digest of the
// request that produced them. Reads and writes go through a circuit breaker;
// cache misses do not count as failures.
type SimulationCacheService struct {
	client  *redis.Client
	ttl     time.Duration
	logger  *logrus.Logger
	breaker *gobreaker.CircuitBreaker
}

// NewSimulationCacheService creates a new simulation cache service
func NewSimulationCacheService(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *SimulationCacheService {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "simulation-cache",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker":    name,
				"from_state": from.String(),
				"to_state":   to.String(),
			}).Warn("Simulation cache circuit breaker state changed")
		},
	})

	return &SimulationCacheService{
		client:  client,
		ttl:     ttl,
		logger:  logger,
		breaker: breaker,
	}
}

// RequestDigest hashes the JSON form of a request
func RequestDigest(request interface{}) (string, error) {
	data, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request for digest: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// SetSimulation stores a response under its ID. When digest is non-empty the
// digest is mapped to the ID with the same TTL.
func (c *SimulationCacheService) SetSimulation(ctx context.Context, id, digest string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal simulation response: %w", err)
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, resultPrefix+id, data, c.ttl)
			if digest != "" {
				pipe.Set(ctx, requestPrefix+digest, id, c.ttl)
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("failed to set simulation in cache: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"simulation_id": id,
		"expiration":    c.ttl,
		"bytes":         len(data),
	}).Debug("Cached simulation response")

	return nil
}

// GetSimulation returns the raw JSON response stored under id
func (c *SimulationCacheService) GetSimulation(ctx context.Context, id string) ([]byte, error) {
	data, err := c.get(ctx, resultPrefix+id)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get simulation from cache: %w", err)
	}

	c.logger.WithField("simulation_id", id).Debug("Retrieved simulation response from cache")
	return data, nil
}

// LookupRequest returns the response previously produced for a request digest
func (c *SimulationCacheService) LookupRequest(ctx context.Context, digest string) ([]byte, error) {
	id, err := c.get(ctx, requestPrefix+digest)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to look up request digest: %w", err)
	}
	return c.GetSimulation(ctx, string(id))
}

func (c *SimulationCacheService) get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.Get(ctx, key).Bytes()
	})
	if err != nil {
		return nil, err
	}
	return data.([]byte), nil
}

// GetStatus returns cache statistics
func (c *SimulationCacheService) GetStatus(ctx context.Context) map[string]interface{} {
	status := map[string]interface{}{
		"service":   "simulation-cache",
		"timestamp": time.Now(),
		"ttl":       c.ttl.String(),
		"breaker":   c.breaker.State().String(),
	}

	if err := c.client.Ping(ctx).Err(); err != nil {
		status["connected"] = false
		status["error"] = err.Error()
		return status
	}
	status["connected"] = true

	if dbSize, err := c.client.DBSize(ctx).Result(); err == nil {
		status["db_size"] = dbSize
	}
	if keys, err := c.countKeys(ctx, resultPrefix+"*"); err == nil {
		status["simulation_keys"] = keys
	}
	if keys, err := c.countKeys(ctx, requestPrefix+"*"); err == nil {
		status["request_keys"] = keys
	}

	return status
}

// FlushSimulationCache clears all cached simulations and request digests
func (c *SimulationCacheService) FlushSimulationCache(ctx context.Context) error {
	deleted := 0
	for _, pattern := range []string{resultPrefix + "*", requestPrefix + "*"} {
		iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("failed to scan simulation keys: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete simulation keys: %w", err)
			}
		}
		deleted += len(keys)
	}

	c.logger.WithField("deleted_keys", deleted).Info("Flushed simulation cache")
	return nil
}

func (c *SimulationCacheService) countKeys(ctx context.Context, pattern string) (int, error) {
	count := 0
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	return count, iter.Err()
}
