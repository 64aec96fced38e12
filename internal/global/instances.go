package global

import (
	"github.com/hirebridge/api/internal/data/mutate"
	"github.com/hirebridge/api/internal/data/query"
	"github.com/hirebridge/api/internal/data/store"
	"github.com/hirebridge/api/internal/instance"
	"github.com/hirebridge/api/internal/svc/gateway"
	"github.com/hirebridge/api/internal/svc/identity"
	"github.com/hirebridge/api/internal/svc/limiter"
	"github.com/hirebridge/api/internal/svc/presences"
)

type Instances struct {
	Store      store.Store
	Presences  presences.Directory
	Gateway    gateway.Gateway
	Identity   identity.Resolver
	Prometheus instance.Prometheus
	Limiter    limiter.Instance

	Query  *query.Query
	Mutate *mutate.Mutate
}
