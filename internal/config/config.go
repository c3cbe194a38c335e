package config

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type Config interface {
	Init(cmd *cobra.Command) error
	Set()
}

type Server struct {
	PProf bool

	Cert  string
	Key   string
	Bind  string
	Proxy bool
}

func (Server) Init(cmd *cobra.Command) error {
	cmd.PersistentFlags().Bool("pprof", false, "enable pprof endpoint available at /debug/pprof")
	if err := viper.BindPFlag("pprof", cmd.PersistentFlags().Lookup("pprof")); err != nil {
		return err
	}

	cmd.PersistentFlags().String("bind", "127.0.0.1:8080", "address/port/socket to serve http")
	if err := viper.BindPFlag("bind", cmd.PersistentFlags().Lookup("bind")); err != nil {
		return err
	}

	cmd.PersistentFlags().String("cert", "", "path to the SSL cert")
	if err := viper.BindPFlag("cert", cmd.PersistentFlags().Lookup("cert")); err != nil {
		return err
	}

	cmd.PersistentFlags().String("key", "", "path to the SSL key")
	if err := viper.BindPFlag("key", cmd.PersistentFlags().Lookup("key")); err != nil {
		return err
	}

	cmd.PersistentFlags().Bool("proxy", false, "allow reverse proxies")
	if err := viper.BindPFlag("proxy", cmd.PersistentFlags().Lookup("proxy")); err != nil {
		return err
	}

	return nil
}

func (s *Server) Set() {
	s.PProf = viper.GetBool("pprof")

	s.Cert = viper.GetString("cert")
	s.Key = viper.GetString("key")
	s.Bind = viper.GetString("bind")
	s.Proxy = viper.GetBool("proxy")
}

type Proxy struct {
	Prefix  string
	Sources map[string]string

	UpstreamTimeout time.Duration
	BlockingTimeout time.Duration

	PlaylistExpiration time.Duration
	StaleExpiration    time.Duration
	CacheCleanupPeriod time.Duration
}

func (Proxy) Init(cmd *cobra.Command) error {
	cmd.PersistentFlags().String("prefix", "/hls/", "path prefix the proxy is mounted at")
	if err := viper.BindPFlag("prefix", cmd.PersistentFlags().Lookup("prefix")); err != nil {
		return err
	}

	cmd.PersistentFlags().Duration("upstream-timeout", 0, "deadline for plain origin fetches")
	if err := viper.BindPFlag("upstream-timeout", cmd.PersistentFlags().Lookup("upstream-timeout")); err != nil {
		return err
	}

	cmd.PersistentFlags().Duration("blocking-timeout", 0, "deadline for blocking playlist reloads")
	if err := viper.BindPFlag("blocking-timeout", cmd.PersistentFlags().Lookup("blocking-timeout")); err != nil {
		return err
	}

	return nil
}

func (p *Proxy) Set() {
	prefix := strings.Trim(viper.GetString("prefix"), "/")
	if prefix == "" {
		p.Prefix = "/"
	} else {
		p.Prefix = "/" + prefix + "/"
	}

	// sources are a config file matter, there is no flag syntax for
	// a name to URL map
	p.Sources = viper.GetStringMapString("sources")

	p.UpstreamTimeout = viper.GetDuration("upstream-timeout")
	p.BlockingTimeout = viper.GetDuration("blocking-timeout")

	p.PlaylistExpiration = viper.GetDuration("playlist-expiration")
	p.StaleExpiration = viper.GetDuration("stale-expiration")
	p.CacheCleanupPeriod = viper.GetDuration("cache-cleanup-period")
}
