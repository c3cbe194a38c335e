package serve

import (
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hlsedge/hlsedge/internal/config"
	"github.com/hlsedge/hlsedge/internal/proxy"
	"github.com/hlsedge/hlsedge/internal/server"
)

func NewCommand() *Main {
	return &Main{
		ServerConfig: &config.Server{},
		ProxyConfig:  &config.Proxy{},
	}
}

type Main struct {
	ServerConfig *config.Server
	ProxyConfig  *config.Proxy

	logger zerolog.Logger
	server *server.ServerManagerCtx
	proxy  *proxy.ModuleCtx
}

func (main *Main) Preflight() {
	main.logger = log.With().Str("service", "main").Logger()
}

func (main *Main) proxyConfig() *proxy.Config {
	return &proxy.Config{
		Sources: main.ProxyConfig.Sources,

		UpstreamTimeout: main.ProxyConfig.UpstreamTimeout,
		BlockingTimeout: main.ProxyConfig.BlockingTimeout,

		PlaylistExpiration: main.ProxyConfig.PlaylistExpiration,
		StaleExpiration:    main.ProxyConfig.StaleExpiration,
		CacheCleanupPeriod: main.ProxyConfig.CacheCleanupPeriod,
	}
}

func (main *Main) start() {
	main.server = server.New(&server.Config{
		Bind:  main.ServerConfig.Bind,
		Cert:  main.ServerConfig.Cert,
		Key:   main.ServerConfig.Key,
		Proxy: main.ServerConfig.Proxy,
		PProf: main.ServerConfig.PProf,
	})

	prefix := main.ProxyConfig.Prefix
	main.proxy = proxy.New(prefix, main.proxyConfig())
	main.server.Handle(prefix, main.proxy)
	main.logger.Info().Interface("sources", main.ProxyConfig.Sources).Msg("hls proxy is active")

	main.server.Start()
}

func (main *Main) shutdown() {
	err := main.server.Shutdown()
	main.logger.Err(err).Msg("http server shutdown")

	if main.proxy != nil {
		main.proxy.Shutdown()
		main.logger.Info().Msg("proxy shutdown")
	}
}

// ConfigReload pushes freshly loaded settings into the running proxy.
// Before start it is a no-op.
func (main *Main) ConfigReload() {
	if main.proxy == nil {
		return
	}

	main.proxy.ConfigReload(main.proxyConfig())
	main.logger.Info().Msg("proxy config reloaded")
}

func (main *Main) Run(cmd *cobra.Command, args []string) {
	main.logger.Info().Msg("starting main server")
	main.start()
	main.logger.Info().Msg("main ready")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	sig := <-quit

	main.logger.Warn().Msgf("received %s, attempting graceful shutdown", sig)
	main.shutdown()
	main.logger.Info().Msg("shutdown complete")
}
