// Package app wires the dashboard server together and manages its lifecycle.
//
// New builds every component from a loaded configuration: logging and
// OpenTelemetry, the websocket hub, the dashboard and health services, and the
// chi router with its middleware chain. Start binds the listener and runs the
// server, the hub and the optional startup tasks (sample load, browser) in an
// errgroup; Stop shuts them down in order. Run combines both and reacts to
// SIGINT and SIGTERM.
//
// # Usage
//
//	app, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
package app
