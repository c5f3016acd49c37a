package app

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/canpub/cmd/cpeer-canrelay/app/options"
	"github.com/autopeer-io/canpub/pkg/app"
	"github.com/autopeer-io/canpub/pkg/log"
)

const (
	commandName = "cpeer-canrelay"
	commandDesc = `cpeer-canrelay subscribes to ADAS detection events, encodes each one into a
standard CAN frame and publishes it on {topic-root}/messages over a single
long-lived MQTT connection. It serves /healthz, /readyz and /metrics.`
)

func NewApp() *app.App {
	opts := options.NewRelayServerOptions()
	application := app.NewApp(
		commandName,
		"Launch the detection to CAN relay",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
		app.WithConfigWatch(reloadLogLevel),
	)
	return application
}

func run(opts *options.RelayServerOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		server, err := cfg.NewServer()
		if err != nil {
			return fmt.Errorf("failed to create relay server: %w", err)
		}

		return server.Run(ctx)
	}
}

// reloadLogLevel applies log.level from a changed config file.
func reloadLogLevel(v *viper.Viper, e fsnotify.Event) {
	level := v.GetString("log.level")
	if level == "" {
		return
	}
	if err := log.SetLevel(level); err != nil {
		log.Error(err, "Ignoring invalid log level from config", "file", e.Name)
		return
	}
	log.Info("Log level reloaded", "level", level, "file", e.Name)
}
