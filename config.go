package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	allowedOrigins []string
	apiTimeout     time.Duration
	apiURL         string
	bind           string
	passthrough    bool
	port           int
	prefix         string
	profile        bool
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.apiTimeout < 0 {
		return fmt.Errorf("invalid api timeout (must not be negative): %s", c.apiTimeout)
	}
	return c.validateAPI()
}

func (c *Config) validateAPI() error {
	u, err := url.Parse(c.apiURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api url (must be an absolute http or https url): %q", c.apiURL)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func bindEnv(v *viper.Viper, fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if s, ok := val.([]string); ok {
				val = strings.Join(s, ",")
			}
			_ = fs.Set(f.Name, fmt.Sprintf("%v", val))
		}
	})
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("GAMESHELF")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "gameshelf",
		Short:         "Browse lists of games and reorder them by drag and drop.",
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

	pfs := cmd.PersistentFlags()
	pfs.StringVar(&cfg.apiURL, "api-url", "http://localhost:8080", "base url of the list catalog service (env: GAMESHELF_API_URL)")
	pfs.DurationVar(&cfg.apiTimeout, "api-timeout", 0, "timeout for catalog requests, 0 to wait indefinitely (env: GAMESHELF_API_TIMEOUT)")
	pfs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: GAMESHELF_VERBOSE)")

	fs := cmd.Flags()
	fs.StringSliceVar(&cfg.allowedOrigins, "allowed-origins", []string{"*"}, "origins allowed to call the passthrough api (env: GAMESHELF_ALLOWED_ORIGINS)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: GAMESHELF_BIND)")
	fs.BoolVar(&cfg.passthrough, "passthrough", false, "expose the catalog endpoints under /api with cors enabled (env: GAMESHELF_PASSTHROUGH)")
	fs.IntVarP(&cfg.port, "port", "p", 8081, "port to listen on (env: GAMESHELF_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: GAMESHELF_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: GAMESHELF_PROFILE)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: GAMESHELF_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: GAMESHELF_TLS_KEY)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: GAMESHELF_VERSION)")

	bindEnv(v, pfs)
	bindEnv(v, fs)

	cmd.AddCommand(newTUICmd(cfg))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("gameshelf v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
