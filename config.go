package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	advanceDelay   time.Duration
	bind           string
	countdown      time.Duration
	database       string
	pollInterval   time.Duration
	port           int
	prefix         string
	profile        bool
	redis          string
	redisDB        int
	redisPassword  string
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool
	wordDuration   time.Duration
	wordsFile      string
	wordsPerMatch  int
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.wordsPerMatch < 1 {
		return fmt.Errorf("invalid words-per-match (must be at least 1): %d", c.wordsPerMatch)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("MILADUEL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "miladuel",
		Short:         "A Hebrew word-guessing game server, playable solo or as a realtime two-player duel.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.DurationVar(&cfg.advanceDelay, "advance-delay", 2*time.Second, "pause after a correct answer before the next word (env: MILADUEL_ADVANCE_DELAY)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: MILADUEL_BIND)")
	fs.DurationVar(&cfg.countdown, "countdown", 3*time.Second, "pre-match countdown shown before the first word (env: MILADUEL_COUNTDOWN)")
	fs.StringVar(&cfg.database, "database", "", "database DSN; sqlite file path, or user:pass@tcp(host)/db for mysql; empty runs in-memory (env: MILADUEL_DATABASE)")
	fs.DurationVar(&cfg.pollInterval, "poll-interval", 2*time.Second, "room polling fallback interval (env: MILADUEL_POLL_INTERVAL)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: MILADUEL_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: MILADUEL_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: MILADUEL_PROFILE)")
	fs.StringVar(&cfg.redis, "redis", "", "redis address for pub/sub and background jobs; empty runs in-process (env: MILADUEL_REDIS)")
	fs.IntVar(&cfg.redisDB, "redis-db", 0, "redis database number (env: MILADUEL_REDIS_DB)")
	fs.StringVar(&cfg.redisPassword, "redis-password", "", "redis password (env: MILADUEL_REDIS_PASSWORD)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle unfinished rooms are swept (env: MILADUEL_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: MILADUEL_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: MILADUEL_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: MILADUEL_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: MILADUEL_VERSION)")
	fs.DurationVar(&cfg.wordDuration, "word-duration", 30*time.Second, "time budget per word (env: MILADUEL_WORD_DURATION)")
	fs.StringVar(&cfg.wordsFile, "words-file", "", "path to a word catalog JSON file; empty uses the embedded catalog (env: MILADUEL_WORDS_FILE)")
	fs.IntVar(&cfg.wordsPerMatch, "words-per-match", 30, "number of words selected per match (env: MILADUEL_WORDS_PER_MATCH)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("miladuel v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
