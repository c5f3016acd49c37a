package canrelay

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/canpub/pkg/log"
)

// Runnable is a component started by the Server.
type Runnable interface {
	Start(ctx context.Context) error
}

// Server runs the relay next to the health and metrics endpoint.
type Server struct {
	runnables []Runnable
}

// Run launches every component and blocks until ctx is done or one of them
// fails, which stops the others.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, r := range s.runnables {
		g.Go(func() error {
			return r.Start(ctx)
		})
	}

	log.Info("cpeer-canrelay starting...")
	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("cpeer-canrelay stopped gracefully.")
	return nil
}
