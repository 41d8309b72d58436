// Package server exposes the broker's HTTP surface: initiate, callback, poll
// and refresh. Each handler is a stateless unit over the session repo and the
// oauth client; all coordination between them happens through the store.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"

	"github.com/colinohq/colino/oauth"
	"github.com/colinohq/colino/sessions"
)

type Server struct {
	e           *echo.Echo
	httpd       *http.Server
	repo        sessions.Repo
	oauthClient *oauth.Client

	pendingTtl    time.Duration
	readyTtl      time.Duration
	gatewaySuffix string
	stagePrefix   string
}

type Args struct {
	Repo        sessions.Repo
	OauthClient *oauth.Client

	PendingTtl time.Duration
	ReadyTtl   time.Duration

	GatewaySuffix string
	StagePrefix   string
}

func New(args Args) (*Server, error) {
	if args.Repo == nil {
		return nil, fmt.Errorf("no session repo provided")
	}

	if args.OauthClient == nil {
		return nil, fmt.Errorf("no oauth client provided")
	}

	if args.PendingTtl == 0 {
		args.PendingTtl = 15 * time.Minute
	}

	if args.ReadyTtl == 0 {
		args.ReadyTtl = 24 * time.Hour
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(slogecho.New(slog.Default()))
	e.Use(middleware.CORS())

	s := &Server{
		e:             e,
		repo:          args.Repo,
		oauthClient:   args.OauthClient,
		pendingTtl:    args.PendingTtl,
		readyTtl:      args.ReadyTtl,
		gatewaySuffix: args.GatewaySuffix,
		stagePrefix:   args.StagePrefix,
	}

	e.GET("/auth/initiate", s.handleInitiate)
	e.GET("/callback", s.handleCallback)
	e.GET("/auth/poll/:session_id", s.handlePoll)
	e.POST("/auth/refresh", s.handleRefresh)

	return s, nil
}

func (s *Server) Start(addr string) error {
	s.httpd = &http.Server{
		Addr:    addr,
		Handler: s.e,
	}

	if err := s.httpd.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpd == nil {
		return nil
	}
	return s.httpd.Shutdown(ctx)
}

func (s *Server) redirectUri(req *http.Request) string {
	return oauth.RedirectURI(req.Host, s.gatewaySuffix, s.stagePrefix)
}
