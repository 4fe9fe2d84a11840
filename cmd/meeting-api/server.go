// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	goahttp "goa.design/goa/v3/http"

	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/internal/middleware"
	"github.com/linuxfoundation/lfx-v2-meet-middleware/pkg/constants"
)

// route is one endpoint of the API.
type route struct {
	method  string
	pattern string
	handler http.HandlerFunc
}

func (s *MeetingsAPI) routes() []route {
	return []route{
		{http.MethodGet, constants.LivezPath, s.Livez},
		{http.MethodGet, constants.ReadyzPath, s.Readyz},
		{http.MethodPost, "/meetings", s.CreateMeeting},
		{http.MethodGet, "/meetings", s.ListMeetings},
		{http.MethodGet, "/meetings/{id}", s.GetMeeting},
		{http.MethodPatch, "/meetings/{id}", s.UpdateMeeting},
		{http.MethodDelete, "/meetings/{id}", s.CancelMeeting},
		{http.MethodGet, "/meetings/{id}/participants", s.ListMeetingParticipants},
		{http.MethodGet, "/meetings/{id}/recording", s.GetMeetingRecording},
		{http.MethodPost, "/meetings/{id}/sync-recording", s.SyncMeetingRecording},
		{http.MethodGet, "/participants", s.ListParticipants},
		{http.MethodGet, "/participants/{id}", s.GetParticipant},
		{http.MethodGet, "/recordings", s.ListRecordings},
		{http.MethodGet, "/recordings/{id}", s.GetRecording},
		{http.MethodPost, "/recordings/sync-all", s.SyncAllRecordings},
	}
}

// newHTTPHandler mounts the API on a goa muxer and wraps it with the
// middleware chain.
func newHTTPHandler(svc *MeetingsAPI, parser middleware.PrincipalParser) http.Handler {
	mux := goahttp.NewMuxer()
	svc.vars = mux.Vars
	for _, rt := range svc.routes() {
		mux.Handle(rt.method, rt.pattern, rt.handler)
	}

	var handler http.Handler = mux

	// Wrapped in reverse order: the request ID is set first, then the
	// request is logged, then authenticated.
	handler = middleware.AuthorizationMiddleware(parser)(handler)
	handler = middleware.RequestLoggerMiddleware()(handler)
	handler = middleware.RequestIDMiddleware()(handler)
	handler = otelhttp.NewHandler(handler, "lfx-v2-meet-middleware",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != constants.LivezPath && r.URL.Path != constants.ReadyzPath
		}),
	)

	return handler
}

// setupHTTPServer configures and starts the HTTP server
func setupHTTPServer(flags flags, svc *MeetingsAPI, parser middleware.PrincipalParser, gracefulCloseWG *sync.WaitGroup) *http.Server {
	var addr string
	if flags.Bind == "*" {
		addr = ":" + flags.Port
	} else {
		addr = flags.Bind + ":" + flags.Port
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           newHTTPHandler(svc, parser),
		ReadHeaderTimeout: 3 * time.Second,
	}

	gracefulCloseWG.Add(1)
	go func() {
		slog.With("addr", addr).Debug("starting http server, listening on port " + flags.Port)
		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			slog.With(logging.ErrKey, err).Error("http listener error")
			os.Exit(1)
		}
		// ErrServerClosed is returned as soon as Shutdown is called, so the
		// wait group is released by gracefulShutdown instead.
	}()

	return httpServer
}
