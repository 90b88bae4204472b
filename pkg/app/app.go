package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/uptime-oracle/uptime-oracle/pkg/log"
)

// Options is implemented by an application's aggregated option struct.
type Options interface {
	// AddFlags binds all option fields to the command's flag set.
	AddFlags(cmd *cobra.Command)

	// Complete fills in defaults that depend on other options or the
	// environment. Called after flags and config file are applied.
	Complete() error

	// Validate checks the final option values.
	Validate() error
}

// RunFunc is the application's entry function.
type RunFunc func() error

// App wraps a cobra command with config-file and environment binding.
type App struct {
	name        string
	short       string
	description string
	options     Options
	run         RunFunc
	noArgs      bool
	subcommands []*cobra.Command

	configFile string
}

// Option configures an App.
type Option func(*App)

// WithDescription sets the long help text.
func WithDescription(desc string) Option {
	return func(a *App) { a.description = desc }
}

// WithOptions attaches the application's option struct.
func WithOptions(opts Options) Option {
	return func(a *App) { a.options = opts }
}

// WithRunFunc sets the function invoked when the command runs.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) { a.run = run }
}

// WithDefaultValidArgs rejects any positional arguments.
func WithDefaultValidArgs() Option {
	return func(a *App) { a.noArgs = true }
}

// WithSubcommands attaches additional cobra commands under the root.
func WithSubcommands(cmds ...*cobra.Command) Option {
	return func(a *App) { a.subcommands = append(a.subcommands, cmds...) }
}

// NewApp builds an application with the given name and one-line summary.
func NewApp(name, short string, opts ...Option) *App {
	a := &App{
		name:  name,
		short: short,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Run executes the application, exiting the process on error.
func (a *App) Run() {
	cmd := a.buildCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *App) buildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           a.name,
		Short:         a.short,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.applyConfig(cmd); err != nil {
				return err
			}
			if a.options != nil {
				if err := a.options.Complete(); err != nil {
					return err
				}
				if err := a.options.Validate(); err != nil {
					return err
				}
			}
			if a.run != nil {
				return a.run()
			}
			return nil
		},
	}

	if a.noArgs {
		cmd.Args = cobra.NoArgs
	}

	cmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "Path to a YAML configuration file.")

	if a.options != nil {
		a.options.AddFlags(cmd)
	}

	cmd.AddCommand(a.subcommands...)

	return cmd
}

// applyConfig layers configuration sources below the command line:
// .env.local (vendor keys), then environment variables with the ORACLE_
// prefix, then the optional config file, and finally explicit flags.
func (a *App) applyConfig(cmd *cobra.Command) error {
	// Vendor credentials live in .env.local during development.
	// A missing file is not an error.
	if err := godotenv.Load(".env.local"); err != nil && !os.IsNotExist(err) {
		log.Warn("Failed to load .env.local", "err", err)
	}

	v := viper.New()
	v.SetEnvPrefix("ORACLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if a.configFile != "" {
		v.SetConfigFile(a.configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", a.configFile, err)
		}
		log.Info("Loaded configuration file", "path", v.ConfigFileUsed())
	}

	// Flags not set explicitly take their value from viper when present.
	var lastErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed || !v.IsSet(f.Name) {
			return
		}
		if err := f.Value.Set(fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
			lastErr = fmt.Errorf("invalid config value for %s: %w", f.Name, err)
		}
	})

	return lastErr
}
