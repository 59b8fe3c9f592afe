// Package bootstrap runs an application's components with a uniform
// lifecycle.
//
// An App owns the typed configuration, the logger and a component registry.
// Run starts every component in registration order, runs the configure
// callbacks and hooks, prints a startup summary and blocks until SIGINT or
// SIGTERM; RunTask does the same around a finite task, which suits CLI
// commands. Components are stopped in reverse order on the way out.
//
//	app, err := bootstrap.NewApp(cfg)
//	if err != nil {
//	    return err
//	}
//	_ = app.RegisterComponent(storageComponent)
//	_ = app.RegisterComponent(serverComponent)
//	return app.Run(ctx)
package bootstrap
