package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/blogster/blogster-client/internal/apiclient"
	"github.com/blogster/blogster-client/internal/blog"
	"github.com/blogster/blogster-client/internal/config"
	"github.com/blogster/blogster-client/internal/logger"
	"github.com/blogster/blogster-client/internal/metrics"
	"github.com/blogster/blogster-client/internal/middleware"
	"github.com/blogster/blogster-client/internal/session"
	"github.com/blogster/blogster-client/internal/web"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logr := logger.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logr)

	api := apiclient.New(cfg.APIURL, session.ContextSource{},
		apiclient.WithTimeout(cfg.APITimeout),
		apiclient.WithAuth(cfg.AuthHeader, cfg.AuthScheme),
		apiclient.WithLogger(logr),
		apiclient.WithObserver(metrics.RecordAPICall),
	)
	svc := blog.New(api, blog.WithLoginPath(cfg.LoginPath))

	ui, err := web.New(svc, web.Options{
		Cookie: session.CookieOptions{
			Name:   cfg.SessionCookie,
			Secret: []byte(cfg.SessionSecret),
			MaxAge: cfg.SessionMaxAge(),
			Secure: cfg.CookieSecure,
		},
		LoginLimiter: middleware.LoginRateLimiter(cfg.LoginRatePerMinute),
		MaxFormBytes: cfg.MaxFormBytes,
		Logger:       logr,
	})
	if err != nil {
		log.Fatalf("templates: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.WebPort,
		Handler:           ui.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logr.Info("web UI running", "addr", "http://localhost:"+cfg.WebPort, "api", cfg.APIURL, "env", cfg.Env)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}
