// Package storage implements the raffle storage collaborator.
package storage

import (
	"raffle/internal/raffle"
)

type Storage interface {
	raffle.Storage
	raffle.PayoutStorage
}

type PayoutStatus = string

const (
	PayoutPending   PayoutStatus = "pending"
	PayoutSubmitted PayoutStatus = "submitted"
	PayoutFailed    PayoutStatus = "failed"
)

var (
	_ Storage = (*SqliteStorage)(nil)
	_ Storage = (*MemoryStorage)(nil)
)
