package mutate

import (
	"github.com/hirebridge/api/internal/data/store"
	"github.com/hirebridge/api/internal/svc/gateway"
)

// Mutate writes to the store first and pushes the persisted document afterwards.
// A failed push never fails the mutation: the store stays the source of truth.
type Mutate struct {
	store   store.Store
	gateway gateway.Gateway
}

type InstanceOptions struct {
	Store   store.Store
	Gateway gateway.Gateway
}

func New(opt InstanceOptions) *Mutate {
	return &Mutate{
		store:   opt.Store,
		gateway: opt.Gateway,
	}
}
