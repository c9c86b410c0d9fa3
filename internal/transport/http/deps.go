package http

import (
	"github.com/ums-dashboard/bff/internal/infrastructure/backend"
	"github.com/ums-dashboard/bff/internal/infrastructure/sealer"
)

// Deps holds all infrastructure dependencies for the router. Both are built
// once at startup and read-only afterwards; handlers share nothing else.
type Deps struct {
	Backend *backend.Client
	Sealer  *sealer.Sealer
}
