package analytics

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sitepulse/sitepulse/internal/message"
	"github.com/sitepulse/sitepulse/internal/mockdata"
)

// LocalTransport satisfies Transport by generating payloads in-process.
// This is the daemon's own transport; foreground clients use the
// cross-process messenger instead.
type LocalTransport struct {
	gen *mockdata.Generator
}

// NewLocalTransport creates a transport backed by gen.
func NewLocalTransport(gen *mockdata.Generator) *LocalTransport {
	return &LocalTransport{gen: gen}
}

// FetchData generates the payload for req.
func (t *LocalTransport) FetchData(_ context.Context, req Request) (json.RawMessage, error) {
	switch req.Kind {
	case KindTraffic:
		return message.MustMarshal(t.gen.Traffic(req.Params[ParamDomain])), nil

	case KindAnalytics:
		return message.MustMarshal(t.gen.Analytics(req.Params[ParamDomain])), nil

	case KindRoutes:
		from, to := req.Params[ParamFrom], req.Params[ParamTo]
		if from == "" || to == "" {
			return nil, fmt.Errorf("routes request requires from and to")
		}
		return message.MustMarshal(t.gen.Routes(from, to, req.DepartureTime())), nil
	}

	return nil, fmt.Errorf("unknown request kind %q", req.Kind)
}
