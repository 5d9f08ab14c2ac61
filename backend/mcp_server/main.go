package main

import (
	"os"

	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/client"
	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/config"
	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/handlers"
	"github.com/aistudiolabx/mcp-tools/backend/mcp_server/tools"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/spf13/cobra"
)

var logger = xlog.NewPackageLogger("github.com/aistudiolabx/mcp-tools", "mcp_server")

// Set via ldflags at build time.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// domain binds a subcommand to its configuration section and tool set.
type domain struct {
	use   string
	short string
	pick  func(*config.Config) config.Domain
	tools func(config.Upstream, ...client.Option) ([]*tools.Tool, error)
}

var domains = []domain{
	{
		use:   "books",
		short: "Serve the Open Library book tools",
		pick:  func(c *config.Config) config.Domain { return c.Books },
		tools: handlers.Books,
	},
	{
		use:   "movies",
		short: "Serve the OMDb movie tools",
		pick:  func(c *config.Config) config.Domain { return c.Movies },
		tools: handlers.Movies,
	},
	{
		use:   "news",
		short: "Serve the NewsAPI news tools",
		pick:  func(c *config.Config) config.Domain { return c.News },
		tools: handlers.News,
	},
	{
		use:   "weather",
		short: "Serve the OpenWeatherMap weather tools",
		pick:  func(c *config.Config) config.Domain { return c.Weather },
		tools: handlers.WeatherTools,
	},
	{
		use:   "geeknews",
		short: "Serve the GeekNews scraper tools",
		pick:  func(c *config.Config) config.Domain { return c.GeekNews },
		tools: handlers.GeekNews,
	},
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "mcp_server",
		Short:        "MCP tool servers for books, movies, news, weather and GeekNews",
		SilenceUsage: true,
		Version:      version,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// stdout carries the stdio transport, logs go to stderr
			xlog.SetFormatter(xlog.NewStringFormatter(cmd.ErrOrStderr()))
			level := xlog.INFO
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				level = xlog.DEBUG
			}
			xlog.SetGlobalLogLevel(level)
		},
	}
	root.PersistentFlags().String("config", "", "Path to a YAML configuration file")
	root.PersistentFlags().Bool("debug", false, "Enable debug logging")
	root.PersistentFlags().Duration("timeout", 0, "Upstream request timeout, 0 for none")

	for _, d := range domains {
		root.AddCommand(newServeCmd(d))
	}
	return root
}

func newServeCmd(d domain) *cobra.Command {
	cmd := &cobra.Command{
		Use:   d.use,
		Short: d.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			transport, _ := cmd.Flags().GetString("transport")
			addr, _ := cmd.Flags().GetString("addr")
			if err := checkTransport(transport); err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dom := d.pick(cfg)

			list, err := d.tools(dom.Upstream)
			if err != nil {
				return err
			}
			reg, err := tools.NewRegistry(dom.Server.Name, dom.Server.Version, list...)
			if err != nil {
				return errors.WithStack(err)
			}

			logger.KV(xlog.INFO,
				"server", reg.Name(),
				"version", reg.Version(),
				"tools", len(reg.ListTools()),
				"transport", transport,
			)
			return serve(cmd.Context(), reg, transport, addr)
		},
	}
	cmd.Flags().String("transport", transportStdio, "Transport to serve on: stdio or sse")
	cmd.Flags().String("addr", ":3333", "Listen address of the sse transport")
	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(file)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("timeout") {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		cfg.SetTimeout(timeout)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
