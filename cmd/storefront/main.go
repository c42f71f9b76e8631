// Command storefront is the command line front end of the storefront API.
package main

import (
	"context"
	"os"

	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/telemetry"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		c := newCLI(os.Stdin, os.Stdout, os.Stderr, telemetry.Providers{
			TracerProvider: m.TracerProvider(),
			MeterProvider:  m.MeterProvider(),
		})
		return c.execute(zctx.Base(ctx, lg), os.Args[1:])
	})
}
