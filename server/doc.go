// Package server runs the gin HTTP servers used by pipectl: the stage catalog
// service and the live execution event stream.
//
//	srv := server.New(server.Config{Addr: ":8000"}, log)
//	srv.Engine().GET("/api/nodes", handler)
//	err := srv.Run(ctx) // blocks until ctx is done, then shuts down
package server
