package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"miladuel/duel"
	"miladuel/realtime"
	"miladuel/room"
	"miladuel/sweep"
	"miladuel/words"
)

const timeout time.Duration = 10 * time.Second

func securityHeaders(cfg *Config, w http.ResponseWriter) {
	w.Header().Set("Cross-Origin-Embedder-Policy", "require-corp")
	w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
	w.Header().Set("Cross-Origin-Resource-Policy", "same-site")
	w.Header().Set("Permissions-Policy", "geolocation=(), midi=(), sync-xhr=(), microphone=(), camera=(), magnetometer=(), gyroscope=(), fullscreen=(), payment=()")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")

	if cfg.scheme() == "https" {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
	}
}

func realIP(r *http.Request) string {
	host, port, _ := net.SplitHostPort(r.RemoteAddr)
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	} else if ip := r.Header.Get("X-Real-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	}
	if net.ParseIP(host) != nil && strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		return host + ":" + port
	}
	return host
}

func serveVersion(cfg *Config, log *logrus.Logger, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		startTime := time.Now()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusOK)

		written, err := w.Write([]byte("miladuel v" + releaseVersion + "\n"))
		if err != nil {
			errs <- err

			return
		}

		log.Debugf("SERVE: Version page (%s) to %s in %s",
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

// openStore picks the persistence backend from the DSN: empty runs
// in-memory, a mysql DSN (user:pass@tcp(host)/db) uses MySQL, anything
// else is treated as a sqlite file path.
func openStore(cfg *Config, log *logrus.Logger) (room.Store, error) {
	if cfg.database == "" {
		log.Info("STORE: using in-memory room store")
		return room.NewMemStore(), nil
	}

	var dialector gorm.Dialector
	if strings.Contains(cfg.database, "@tcp(") {
		dialector = gormmysql.Open(cfg.database)
		log.Info("STORE: using mysql room store")
	} else {
		dialector = sqlite.Open(cfg.database)
		log.WithField("path", cfg.database).Info("STORE: using sqlite room store")
	}

	return room.OpenGorm(dialector)
}

// openChannel returns the realtime fan-out: Redis pub/sub when an
// address is configured, an in-process broadcaster otherwise.
func openChannel(cfg *Config, log *logrus.Logger) realtime.Channel {
	if cfg.redis == "" {
		log.Info("REALTIME: using in-process broadcaster")
		return realtime.NewBroadcaster()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.redis,
		Password: cfg.redisPassword,
		DB:       cfg.redisDB,
	})
	log.WithField("addr", cfg.redis).Info("REALTIME: using redis pub/sub")
	return realtime.NewRedisChannel(client, log)
}

func ServePage(ctx context.Context, cfg *Config, args []string) error {
	var err error

	timeZone := os.Getenv("TZ")
	if timeZone != "" {
		time.Local, err = time.LoadLocation(timeZone)
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := newLogger(cfg)
	log.Infof("START: miladuel v%s", releaseVersion)

	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	channel := openChannel(cfg, log)
	catalog := words.NewCache(words.FileProvider{Path: cfg.wordsFile}, 0)

	svc := duel.NewService(store, channel, catalog, log, duel.Options{
		WordsPerMatch: cfg.wordsPerMatch,
		WordDuration:  cfg.wordDuration,
		PollInterval:  cfg.pollInterval,
		AdvanceDelay:  cfg.advanceDelay,
		Countdown:     cfg.countdown,
	})

	if cfg.redis != "" {
		go sweep.Run(ctx, sweep.RedisOpts(cfg.redis, cfg.redisPassword, cfg.redisDB),
			store, cfg.sessionTimeout, log)
	} else {
		go sweep.RunLocal(ctx, store, cfg.sessionTimeout, log)
	}

	mux := httprouter.New()

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		Handler:           mux,
		IdleTimeout:       10 * time.Minute,
		ReadTimeout:       timeout,
		ReadHeaderTimeout: timeout,
	}

	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, i any) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusInternalServerError)

		io.WriteString(w, newPage("Server Error", "An error has occurred. Please try again."))
	}

	errs := make(chan error, 64)
	go func() {
		for err := range errs {
			log.WithError(err).Warn("SERVE: response write failed")
		}
	}()

	cfg.prefix = strings.TrimSuffix(cfg.prefix, "/")

	mux.GET(cfg.prefix+"/", serveHomePage(cfg))

	mux.GET(cfg.prefix+"/healthz", serveHealthCheck(cfg, errs))

	mux.GET(cfg.prefix+"/robots.txt", serveRobots(cfg, errs))

	mux.GET(cfg.prefix+"/version", serveVersion(cfg, log, errs))

	if cfg.profile {
		registerProfileHandlers(cfg, mux)
	}

	registerDuelGame(cfg, svc, log, mux)

	registerSoloGame(cfg, catalog, log, mux)

	go func() {
		var err error
		log.Infof("SERVE: Listening on %s://%s%s/", cfg.scheme(), srv.Addr, cfg.prefix)
		if cfg.tlsKey != "" && cfg.tlsCert != "" {
			err = srv.ListenAndServeTLS(cfg.tlsCert, cfg.tlsKey)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("SERVE: listener failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	return nil
}
