// Package raffle is the raffle state machine.
//
// A raffle starts Active and ends either Complete (a winner was drawn and
// proceeds distributed) or Canceled (prizes returned, buyers may claim
// refunds). Every operation checks all of its guards before building a
// Changeset, and the Changeset is committed in one storage call, so a
// rejected invocation leaves no trace.
package raffle

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "raffle/internal/errors"
	"raffle/internal/logger"
	"raffle/internal/proceeds"
	"raffle/internal/seed"
)

const maxMessageLength = 280

var raffleNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:raffle"))

type Engine struct {
	storage        Storage
	editions       proceeds.Editions
	defaultEdition string

	// serializes invocations; the host may also serialize per raffle
	mu sync.Mutex
}

func NewEngine(storage Storage, editions proceeds.Editions, defaultEdition string) *Engine {
	return &Engine{
		storage:        storage,
		editions:       editions,
		defaultEdition: defaultEdition,
	}
}

// Create validates the configuration and stores a new Active raffle. The
// raffle id is derived from the initial seed, so replicas agree on it.
func (e *Engine) Create(ctx context.Context, env Env, config Config) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	logger.Debug("raffle: create...", zap.String("creator", env.Sender))

	if env.Sender == "" {
		return "", reject("create", "", apperrors.ErrNotAuthorized)
	}

	editionID := config.Edition
	if editionID == "" {
		editionID = e.defaultEdition
	}

	if err := e.validate(env, config, editionID); err != nil {
		return "", reject("create", "", err)
	}

	operator := config.Operator
	if operator == "" {
		operator = env.Sender
	}

	initial := seed.Initial(env.Sender, env.entropy())
	id := uuid.NewSHA1(raffleNamespace, initial).String()

	record := &Record{
		ID:        id,
		Creator:   env.Sender,
		Operator:  operator,
		Edition:   editionID,
		Royalties: config.Royalties,
		State: State{
			Status:       StatusActive,
			Price:        config.Price,
			Prizes:       config.Prizes,
			TicketSupply: config.TicketSupply,
			SalesEndAt:   config.SalesEndAt,
			SalesTarget:  config.SalesTarget,
			Seed:         initial,
		},
	}

	if err := e.storage.CreateRaffle(ctx, record); err != nil {
		return "", reject("create", id, err)
	}

	logger.Info("raffle: create... done",
		zap.String("raffle", id),
		zap.String("operator", operator),
		zap.String("edition", editionID),
		zap.Int("prizes", len(config.Prizes)),
	)
	return id, nil
}

func (e *Engine) validate(env Env, config Config, editionID string) error {
	if len(config.Prizes) == 0 {
		return apperrors.Validation("empty prize list")
	}
	for i, prize := range config.Prizes {
		if err := prize.Validate(); err != nil {
			return apperrors.Wrap(apperrors.CodeValidation, fmt.Sprintf("prize %d", i), err)
		}
	}

	if err := config.Price.Validate(); err != nil {
		return apperrors.Wrap(apperrors.CodeValidation, "ticket price", err)
	}

	if config.TicketSupply != nil && *config.TicketSupply == 0 {
		return apperrors.Validation("zero ticket supply")
	}

	if config.TicketSupply != nil && config.SalesTarget != nil && *config.TicketSupply < *config.SalesTarget {
		return apperrors.Validation("ticket supply below sales target")
	}

	if config.SalesEndAt != nil && !config.SalesEndAt.After(env.Time) {
		return apperrors.Validation("ticket sales end in the past")
	}

	if err := proceeds.ValidateRoyalties(config.Royalties); err != nil {
		return apperrors.Wrap(apperrors.CodeValidation, "royalties", err)
	}

	if _, ok := e.editions.Get(editionID); !ok {
		return apperrors.Validation(fmt.Sprintf("unknown edition %q", editionID))
	}

	return nil
}

func (e *Engine) load(ctx context.Context, id string) (*Record, error) {
	record, err := e.storage.GetRaffle(ctx, id)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (e *Engine) commit(ctx context.Context, id string, changeset *Changeset) error {
	if err := e.storage.Commit(ctx, id, changeset); err != nil {
		return fmt.Errorf("commit raffle %s: %w", id, err)
	}
	return nil
}

func reject(operation string, id string, err error) error {
	logger.Debug("raffle: "+operation+"... rejected",
		zap.String("raffle", id),
		zap.String("code", string(apperrors.CodeOf(err))),
		zap.Error(err),
	)
	return err
}
