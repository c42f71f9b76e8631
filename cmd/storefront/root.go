package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	appkg "github.com/xenking/kart-storefront/internal/app"
	"github.com/xenking/kart-storefront/internal/domain/seller"
	"github.com/xenking/kart-storefront/internal/notify"
	"github.com/xenking/kart-storefront/internal/telemetry"
)

// cli carries the state shared by all commands of one invocation.
type cli struct {
	in        io.Reader
	out       io.Writer
	errOut    io.Writer
	telemetry telemetry.Providers
	// transport replaces the default HTTP transport, for tests.
	transport http.RoundTripper

	configFile string
	apiURL     string

	app     *appkg.App
	alerted atomic.Bool
}

func newCLI(in io.Reader, out, errOut io.Writer, tel telemetry.Providers) *cli {
	return &cli{in: in, out: out, errOut: errOut, telemetry: tel}
}

// execute runs the command tree. Errors the user has not already been
// alerted about are printed before being returned.
func (c *cli) execute(ctx context.Context, args []string) error {
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	defer func() {
		if c.app != nil {
			_ = c.app.Close()
		}
	}()

	err := root.ExecuteContext(ctx)
	if err != nil && !c.alerted.Load() {
		_, _ = fmt.Fprintln(c.errOut, alertStyle.Render("! "+seller.Message(err)))
	}
	return err
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront client: catalog, cart, favorites, orders and seller tools",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd.Context())
		},
	}
	root.PersistentFlags().StringVarP(&c.configFile, "config", "c", "", "Config file (default: storefront.yaml, ~/.config/storefront/config.yaml)")
	root.PersistentFlags().StringVar(&c.apiURL, "api-url", "", "Override the API base URL")

	root.AddCommand(
		c.loginCmd(),
		c.registerCmd(),
		c.logoutCmd(),
		c.deactivateCmd(),
		c.statusCmd(),
		c.productsCmd(),
		c.cartCmd(),
		c.favoritesCmd(),
		c.ordersCmd(),
		c.sellerCmd(),
	)
	return root
}

func (c *cli) setup(ctx context.Context) error {
	var files []string
	if c.configFile != "" {
		files = append(files, c.configFile)
	}
	cfg, err := appkg.LoadConfig(files...)
	if err != nil {
		return err
	}
	if c.apiURL != "" {
		cfg.APIBaseURL = c.apiURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	a, err := appkg.Build(ctx, cfg, appkg.Options{
		Telemetry: c.telemetry,
		Notifier:  notify.Multi(notify.Log(), c.notifier()),
		Transport: c.transport,
	})
	if err != nil {
		return errors.Wrap(err, "build app")
	}
	c.app = a
	return nil
}

// notifier prints notices for the user and remembers whether an alert was
// shown, so the same failure is not reported twice.
func (c *cli) notifier() notify.Notifier {
	w := notify.Writer(c.errOut)
	return notify.Func(func(ctx context.Context, level notify.Level, msg string) {
		if level == notify.Alert {
			c.alerted.Store(true)
		}
		w.Notify(ctx, level, msg)
	})
}

// say prints an informational line.
func (c *cli) say(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format+"\n", args...)
}
