package raffle

import (
	"context"

	"go.uber.org/zap"

	apperrors "raffle/internal/errors"
	"raffle/internal/logger"
)

// TransferOwnership hands the operator role to another identity.
func (e *Engine) TransferOwnership(ctx context.Context, id string, env Env, operator string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if operator == "" {
		return reject("transfer ownership", id, apperrors.Validation("empty operator"))
	}

	record, err := e.load(ctx, id)
	if err != nil {
		return reject("transfer ownership", id, err)
	}

	if env.Sender != record.Operator {
		return reject("transfer ownership", id, apperrors.ErrNotAuthorized)
	}

	updated := *record
	updated.Operator = operator

	if err := e.commit(ctx, id, &Changeset{Record: &updated}); err != nil {
		return err
	}

	logger.Info("raffle: transfer ownership... done",
		zap.String("raffle", id),
		zap.String("from", record.Operator),
		zap.String("to", operator),
	)
	return nil
}
