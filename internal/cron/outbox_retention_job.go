package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/milosbg/mbg-admin-backend/pkg/logger"
)

const (
	defaultOutboxRetentionDays = 30
	defaultOutboxDeadAttempts  = 10
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPruner interface {
	PruneBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, deadAttempts int) (int64, error)
}

type OutboxRetentionJobParams struct {
	Logger        *logger.Logger
	DB            txRunner
	Repository    outboxPruner
	RetentionDays int
	// DeadAttempts matches the publisher's attempt ceiling.
	DeadAttempts int
}

// outboxRetentionJob removes published and dead outbox rows past retention.
type outboxRetentionJob struct {
	logg         *logger.Logger
	db           txRunner
	repo         outboxPruner
	retention    time.Duration
	deadAttempts int
	now          func() time.Time
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.DB == nil {
		return nil, errors.New("db runner required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository required")
	}
	days := params.RetentionDays
	if days <= 0 {
		days = defaultOutboxRetentionDays
	}
	dead := params.DeadAttempts
	if dead <= 0 {
		dead = defaultOutboxDeadAttempts
	}
	return &outboxRetentionJob{
		logg:         params.Logger,
		db:           params.DB,
		repo:         params.Repository,
		retention:    time.Duration(days) * 24 * time.Hour,
		deadAttempts: dead,
		now:          time.Now,
	}, nil
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := j.repo.PruneBefore(ctx, tx, cutoff, j.deadAttempts)
		deleted = n
		return err
	})
	if err != nil {
		return fmt.Errorf("outbox retention: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":        cutoff,
		"dead_attempts": j.deadAttempts,
		"rows_deleted":  deleted,
	}), "outbox retention complete")
	return nil
}
