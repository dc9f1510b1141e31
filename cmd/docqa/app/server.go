// Package app wires the docqa server command.
package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/loaddesk/loaddesk/cmd/docqa/app/options"
	"github.com/loaddesk/loaddesk/internal/docqa"
	"github.com/loaddesk/loaddesk/pkg/app"
)

const commandDesc = `The docqa server indexes logistics documents (rate confirmations, bills of
lading, load tenders) into a vector store and answers questions about them with
grounded, source-attributed responses. It also extracts structured shipment
data from every document and makes it searchable.`

// NewApp builds the docqa application.
func NewApp() *app.App {
	opts := options.NewServerOptions()

	return app.NewApp(
		app.WithName("loaddesk-docqa"),
		app.WithShortDescription("Document QA and extraction service for logistics paperwork"),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(func() error {
			return run(opts)
		}),
	)
}

func run(opts *options.ServerOptions) error {
	server, err := docqa.NewServer(opts.Config())
	if err != nil {
		return err
	}

	ctx := setupSignalContext()
	return server.Run(ctx)
}

// setupSignalContext cancels on SIGINT/SIGTERM; a second signal kills the
// process immediately.
func setupSignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
		<-ch
		os.Exit(1)
	}()

	return ctx
}
