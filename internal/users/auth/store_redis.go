// Copyright (c) 2026 Rentwise. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/rentwise/internal/platform/constants"
	redisstore "github.com/taibuivan/rentwise/internal/platform/redis"
)

// # Registration Ticket Repository

// RedisRegistrationTicketRepository implements RegistrationTicketRepository using Redis.
type RedisRegistrationTicketRepository struct {
	client redis.UniversalClient
}

// NewRegistrationTicketRepository creates a new Redis-backed RegistrationTicketRepository.
func NewRegistrationTicketRepository(client redis.UniversalClient) *RedisRegistrationTicketRepository {
	return &RedisRegistrationTicketRepository{client: client}
}

/*
Issue stores a ticket under token with the given TTL.

Parameters:
  - context: context.Context
  - token: string
  - ticket: RegistrationTicket
  - ttl: time.Duration

Returns:
  - error: Storage failures
*/
func (repository *RedisRegistrationTicketRepository) Issue(context context.Context, token string, ticket RegistrationTicket, ttl time.Duration) error {
	payload, err := json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("redis_registration_ticket_encode_failed: %w", err)
	}

	key := redisstore.Key(constants.RedisPrefixRegistrationTicket, token)
	if err := repository.client.Set(context, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis_registration_ticket_set_failed: %w", err)
	}

	return nil
}

/*
Consume reads and deletes the ticket in one round-trip.

Description: GETDEL makes the ticket single-use even when two registrations
race with the same token.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - *RegistrationTicket: Stored ticket
  - error: ErrInvalidRegistrationTicket or connectivity errors
*/
func (repository *RedisRegistrationTicketRepository) Consume(context context.Context, token string) (*RegistrationTicket, error) {
	key := redisstore.Key(constants.RedisPrefixRegistrationTicket, token)

	payload, err := repository.client.GetDel(context, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrInvalidRegistrationTicket
		}
		return nil, fmt.Errorf("redis_registration_ticket_consume_failed: %w", err)
	}

	var ticket RegistrationTicket
	if err := json.Unmarshal(payload, &ticket); err != nil {
		return nil, fmt.Errorf("redis_registration_ticket_decode_failed: %w", err)
	}

	return &ticket, nil
}
