package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/specialistvlad/rcctl/internal/app"
	"github.com/specialistvlad/rcctl/internal/config"
)

// runner builds an App from resolved settings for each command invocation.
type runner struct {
	outW   io.Writer
	errW   io.Writer
	v      *viper.Viper
	dotEnv string
}

func newRootCmd(outW, errW io.Writer, dotEnv string) *cobra.Command {
	root := &cobra.Command{
		Use:   "rcctl",
		Short: "Manage RevenueCat customers, entitlements and virtual currencies",
		Long: `rcctl talks to the RevenueCat V2 API on behalf of one project.

Credentials come from --api-key/--project-id, the REVENUECAT_API_KEY and
REVENUECAT_PROJECT_ID environment variables, a .env file, or a profile in
` + config.DefaultPath + `.`,
		Version:       app.Version,
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	config.RegisterFlags(root.PersistentFlags())

	r := &runner{
		outW:   outW,
		errW:   errW,
		v:      viper.New(),
		dotEnv: dotEnv,
	}
	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return config.Bind(r.v, cmd.Root().PersistentFlags())
	}

	root.AddCommand(
		newCustomersCmd(r),
		newEntitlementsCmd(r),
		newVirtualCurrenciesCmd(r),
		newVersionCmd(),
	)
	return root
}

// withApp adapts fn into a cobra RunE that first resolves settings and
// builds an App. The App is closed when fn returns.
func (r *runner) withApp(fn func(ctx context.Context, a *app.App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := config.Load(r.v, r.dotEnv)
		if err != nil {
			return &usageError{err: err}
		}
		if err := s.RequireCredentials(); err != nil {
			return err
		}

		cfg, err := app.NewConfig(app.Config{
			APIKey:    s.APIKey,
			ProjectID: s.ProjectID,
			BaseURL:   s.BaseURL,
			Timeout:   s.Timeout,
			LogFormat: s.LogFormat,
			LogLevel:  s.LogLevel,
			Color:     !s.NoColor && isTerminal(r.outW),
		})
		if err != nil {
			return err
		}

		a := app.NewApp(r.outW, r.errW, cfg)
		defer a.Close()
		a.Logger().Debug("Command started.", "command", cmd.CommandPath(), "profile", s.Profile)
		return fn(cmd.Context(), a, args)
	}
}

// groupCmd returns a command that only holds subcommands.
func groupCmd(use, short, long string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the rcctl version",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "rcctl %s\n", app.Version)
			return err
		},
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// flagSet returns every flag cmd accepts, inherited ones included.
func flagSet(cmd *cobra.Command) *pflag.FlagSet {
	fs := pflag.NewFlagSet(cmd.Name(), pflag.ContinueOnError)
	fs.AddFlagSet(cmd.LocalFlags())
	fs.AddFlagSet(cmd.InheritedFlags())
	return fs
}
