package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"launchpad/internal/model"
)

// Schema creates the tables the store writes to.
const Schema = `
CREATE TABLE IF NOT EXISTS launchpad_pools (
	pool_id BIGINT PRIMARY KEY,
	reward_token TEXT NOT NULL,
	fund_raising_token TEXT NOT NULL,
	subscription_start_ts BIGINT NOT NULL,
	subscription_end_ts BIGINT NOT NULL,
	funding_end_ts BIGINT NOT NULL,
	fund_raising_target NUMERIC(78,0) NOT NULL,
	token_price NUMERIC(78,0) NOT NULL,
	min_allocation NUMERIC(78,0) NOT NULL,
	max_allocation NUMERIC(78,0) NOT NULL,
	total_raised NUMERIC(78,0) NOT NULL,
	total_reward_claimed NUMERIC(78,0) NOT NULL,
	reward_amount NUMERIC(78,0),
	reward_start_ts BIGINT,
	reward_cliff_ts BIGINT,
	reward_end_ts BIGINT,
	funds_claimed BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS launchpad_events (
	seq BIGINT PRIMARY KEY,
	event_name TEXT NOT NULL,
	pool_id BIGINT,
	account TEXT,
	amount NUMERIC(78,0),
	topics TEXT[] NOT NULL,
	data TEXT NOT NULL,
	event_ts BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS exporter_state (
	name TEXT PRIMARY KEY,
	next_seq BIGINT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

// Store provides Postgres persistence for pools and registry events.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates missing tables.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// UpsertPools inserts or updates pool rows.
func (s *Store) UpsertPools(ctx context.Context, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		var (
			rewardAmount                        *string
			rewardStart, rewardCliff, rewardEnd *int64
		)
		if pool.Vesting != nil {
			amount := pool.Vesting.RewardAmount.String()
			start := int64(pool.Vesting.Schedule.Start)
			cliff := int64(pool.Vesting.Schedule.Cliff)
			finish := int64(pool.Vesting.Schedule.End)
			rewardAmount, rewardStart, rewardCliff, rewardEnd = &amount, &start, &cliff, &finish
		}
		batch.Queue(`
			INSERT INTO launchpad_pools (
				pool_id, reward_token, fund_raising_token,
				subscription_start_ts, subscription_end_ts, funding_end_ts,
				fund_raising_target, token_price, min_allocation, max_allocation,
				total_raised, total_reward_claimed,
				reward_amount, reward_start_ts, reward_cliff_ts, reward_end_ts,
				funds_claimed, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7::numeric,$8::numeric,$9::numeric,$10::numeric,$11::numeric,$12::numeric,$13::numeric,$14,$15,$16,$17,now(),now())
			ON CONFLICT (pool_id)
			DO UPDATE SET
				total_raised = EXCLUDED.total_raised,
				total_reward_claimed = EXCLUDED.total_reward_claimed,
				reward_amount = EXCLUDED.reward_amount,
				reward_start_ts = EXCLUDED.reward_start_ts,
				reward_cliff_ts = EXCLUDED.reward_cliff_ts,
				reward_end_ts = EXCLUDED.reward_end_ts,
				funds_claimed = EXCLUDED.funds_claimed,
				updated_at = now()
		`,
			int64(pool.ID),
			pool.RewardToken.Hex(),
			pool.FundRaisingToken.Hex(),
			int64(pool.SubscriptionStartTime),
			int64(pool.SubscriptionEndTime),
			int64(pool.FundingEndTime),
			pool.FundRaisingTarget.String(),
			pool.TokenPrice.String(),
			pool.MinAllocation.String(),
			pool.MaxAllocation.String(),
			pool.TotalRaised.String(),
			pool.TotalRewardClaimed.String(),
			rewardAmount,
			rewardStart,
			rewardCliff,
			rewardEnd,
			pool.FundsClaimed,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range pools {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// InsertEvents stores events, ignoring sequence numbers already present.
func (s *Store) InsertEvents(ctx context.Context, events []model.EventRecord) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, ev := range events {
		var poolID *int64
		if ev.PoolID != nil {
			id := int64(*ev.PoolID)
			poolID = &id
		}
		batch.Queue(`
			INSERT INTO launchpad_events (
				seq, event_name, pool_id, account, amount, topics, data, event_ts, created_at
			) VALUES ($1,$2,$3,NULLIF($4,''),NULLIF($5,'')::numeric,$6,$7,$8,now())
			ON CONFLICT (seq) DO NOTHING
		`,
			int64(ev.Seq),
			ev.Name,
			poolID,
			ev.Account,
			ev.Amount,
			ev.Topics,
			ev.Data,
			int64(ev.Timestamp),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns the next sequence number to export for name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var seq int64
	row := s.pool.QueryRow(ctx, `SELECT next_seq FROM exporter_state WHERE name=$1`, name)
	if err := row.Scan(&seq); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(seq), true, nil
}

// SaveState upserts the next sequence number to export for name.
func (s *Store) SaveState(ctx context.Context, name string, seq uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO exporter_state (name, next_seq, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET next_seq = EXCLUDED.next_seq, updated_at = now()
	`, name, int64(seq))
	return err
}
