package app

import (
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	cliflag "k8s.io/component-base/cli/flag"
	"k8s.io/component-base/term"
)

// RunFunc defines the application's startup callback function.
type RunFunc func() error

// ConfigChangeFunc is called after the config file changed on disk. v holds
// the re-read configuration.
type ConfigChangeFunc func(v *viper.Viper, e fsnotify.Event)

// App is the main structure of a cli application.
type App struct {
	name        string
	shortDesc   string
	description string
	options     CliOptions
	runFunc     RunFunc
	args        cobra.PositionalArgs
	watchers    []ConfigChangeFunc
	cmd         *cobra.Command
	cfgFile     string
}

// Option defines optional parameters for initializing the application structure.
type Option func(*App)

// WithOptions to open the application's function to read from the command line
// or read parameters from the configuration file.
func WithOptions(opts CliOptions) Option {
	return func(a *App) { a.options = opts }
}

// WithRunFunc is used to set the application startup callback function option.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) { a.runFunc = run }
}

// WithDescription is used to set the description of the application.
func WithDescription(desc string) Option {
	return func(a *App) { a.description = desc }
}

// WithValidArgs set the validation function to valid non-flag arguments.
func WithValidArgs(args cobra.PositionalArgs) Option {
	return func(a *App) { a.args = args }
}

// WithDefaultValidArgs rejects any non-flag argument.
func WithDefaultValidArgs() Option {
	return func(a *App) {
		a.args = func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				if len(arg) > 0 {
					return fmt.Errorf("%q does not take any arguments, got %q", cmd.CommandPath(), args)
				}
			}
			return nil
		}
	}
}

// WithConfigWatch watches the --config file and calls fn on every change.
func WithConfigWatch(fn ConfigChangeFunc) Option {
	return func(a *App) { a.watchers = append(a.watchers, fn) }
}

// NewApp creates a new application instance based on the given application
// name, short description and options.
func NewApp(name string, shortDesc string, opts ...Option) *App {
	a := &App{
		name:      name,
		shortDesc: shortDesc,
	}

	for _, o := range opts {
		o(a)
	}

	a.buildCommand()
	return a
}

// Command returns the cobra command of the application.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

// Run launches the application and exits the process on error.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:           a.name,
		Short:         a.shortDesc,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          a.args,
		RunE:          a.runCommand,
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.Flags().SortFlags = true

	var namedFlagSets cliflag.NamedFlagSets
	if a.options != nil {
		namedFlagSets = a.options.Flags()
	}

	global := namedFlagSets.FlagSet("global")
	global.StringVarP(&a.cfgFile, configFlagName, "c", "",
		fmt.Sprintf("Read configuration from the specified file (yaml, json or toml). Every flag can also be set through %s_<FLAG> environment variables.", EnvPrefix))
	global.BoolP("help", "h", false, fmt.Sprintf("Help for %s.", a.name))

	for _, f := range namedFlagSets.FlagSets {
		cmd.Flags().AddFlagSet(f)
	}

	cols, _, _ := term.TerminalSize(cmd.OutOrStdout())
	cliflag.SetUsageAndHelpFunc(cmd, namedFlagSets, cols)

	a.cmd = cmd
}

func (a *App) runCommand(cmd *cobra.Command, args []string) error {
	if err := loadDotEnv(); err != nil {
		return err
	}

	v, err := newViper(a.cfgFile)
	if err != nil {
		return err
	}
	if err := applyConfig(v, cmd.Flags()); err != nil {
		return err
	}

	if a.options != nil {
		if err := a.applyOptionRules(); err != nil {
			return err
		}
	}

	if a.cfgFile != "" && len(a.watchers) > 0 {
		a.watch(v)
	}

	if a.runFunc != nil {
		return a.runFunc()
	}
	return nil
}

func (a *App) applyOptionRules() error {
	if completeableOptions, ok := a.options.(CompleteableOptions); ok {
		if err := completeableOptions.Complete(); err != nil {
			return err
		}
	}

	return a.options.Validate()
}

func (a *App) watch(v *viper.Viper) {
	v.OnConfigChange(func(e fsnotify.Event) {
		for _, fn := range a.watchers {
			fn(v, e)
		}
	})
	v.WatchConfig()
}
