// Package testutil serves gin routes from an httptest.Server wrapped as a
// testutil.TestComponent, so tests can stand up a fake signing service or
// media origin and point clients at BaseURL.
//
//	srv := testutil.NewComponent(func(r gin.IRouter) {
//	    signing.NewHandler(svc, fetcher, uploader, log).RegisterRoutes(r)
//	})
//	testutil.Start(t, srv)
//	client, _ := resolver.New(resolver.Config{BaseURL: srv.BaseURL()})
package testutil
