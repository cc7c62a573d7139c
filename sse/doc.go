// Package sse streams pipeline events to browsers with Server-Sent Events.
//
// A Hub owns the connected clients. Publishers hand it a glob pattern that
// is matched against client IDs, so "pipeline:*" reaches every subscriber of
// the pipeline topic:
//
//	hub := sse.NewHub()
//	go hub.Run(ctx)
//	router.GET("/api/events", sse.Handler(hub))
//	hub.Publish("pipeline:*", sse.EventTypeLog, payload)
package sse
