package global

import (
	"context"
	"time"

	"github.com/hirebridge/api/internal/configure"
)

type Context interface {
	context.Context
	Config() *configure.Config
	Inst() *Instances
}

type gCtx struct {
	context.Context
	config *configure.Config
	inst   *Instances
}

func (g *gCtx) Config() *configure.Config {
	return g.config
}

func (g *gCtx) Inst() *Instances {
	return g.inst
}

func New(ctx context.Context, config *configure.Config) Context {
	return &gCtx{
		Context: ctx,
		config:  config,
		inst:    &Instances{},
	}
}

func WithCancel(ctx Context) (Context, context.CancelFunc) {
	c, cancel := context.WithCancel(ctx)

	return &gCtx{
		Context: c,
		config:  ctx.Config(),
		inst:    ctx.Inst(),
	}, cancel
}

func WithTimeout(ctx Context, timeout time.Duration) (Context, context.CancelFunc) {
	c, cancel := context.WithTimeout(ctx, timeout)

	return &gCtx{
		Context: c,
		config:  ctx.Config(),
		inst:    ctx.Inst(),
	}, cancel
}
