package app

import (
	"fmt"
	"os"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/canpub/cmd/cpeer-canpub/app/options"
	"github.com/autopeer-io/canpub/internal/canpub"
	"github.com/autopeer-io/canpub/pkg/app"
	"github.com/autopeer-io/canpub/pkg/log"
)

const (
	commandName = "cpeer-canpub"
	commandDesc = `cpeer-canpub encodes ADAS detection events into standard CAN frames and
publishes each frame as JSON on the {topic-root}/messages MQTT topic.

Every event gets its own connection: connect, publish at QoS 1, wait for the
broker acknowledgment, disconnect. Without --event-file the two built-in
example events are sent.`
)

func NewApp() *app.App {
	opts := options.NewPublisherOptions()
	application := app.NewApp(
		commandName,
		"Publish ADAS detection events as CAN frames over MQTT",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.PublisherOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)

		sources, err := canpub.LoadSources(opts.EventFiles, os.Stdin)
		if err != nil {
			return err
		}

		if opts.DryRun {
			return canpub.WriteTable(os.Stdout, sources)
		}

		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		publisher := cfg.NewPublisher()
		for _, src := range sources {
			if err := publisher.Send(ctx, src.Raw); err != nil {
				return fmt.Errorf("failed to send %s: %w", src.Name, err)
			}
		}

		log.Info("All events published", "count", len(sources), "topic", cfg.Topic())
		return nil
	}
}
