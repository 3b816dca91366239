package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/Iron-Ham/tun2proxyctl/internal/cmd/config"
	appconfig "github.com/Iron-Ham/tun2proxyctl/internal/config"
)

// Build information, set with -ldflags at release time.
var (
	Version = "dev"
	Commit  = "none"
)

var rootCmd = &cobra.Command{
	Use:   "tun2proxyctl",
	Short: "Supervise tun2proxy with automatic privilege escalation",
	Long: `tun2proxyctl launches tun2proxy, captures its output, and retries once
with administrator privileges when tun2proxy reports it lacks permission to
configure the network. The elevated run is tracked until it is stopped.

Without a subcommand the terminal UI opens when stdout is a terminal;
otherwise tun2proxy runs in the foreground as with 'tun2proxyctl run'.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if isTerminal(os.Stdout) {
			return runTUI(cmd, args)
		}
		return runForeground(cmd, args)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/tun2proxyctl/config.yaml)")
	rootCmd.PersistentFlags().StringP("binary", "b", "", "tun2proxy executable (default: auto-detect)")
	rootCmd.PersistentFlags().String("proxy", "", "proxy URL, e.g. socks5://127.0.0.1:1080")
	rootCmd.PersistentFlags().String("elevation", "", "privilege prompt: auto, osascript, pkexec, sudo, direct")
	rootCmd.PersistentFlags().String("metrics-addr", "", "serve Prometheus metrics on this address")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("binary.path", rootCmd.PersistentFlags().Lookup("binary"))
	_ = viper.BindPFlag("proxy.url", rootCmd.PersistentFlags().Lookup("proxy"))
	_ = viper.BindPFlag("supervisor.elevation", rootCmd.PersistentFlags().Lookup("elevation"))
	_ = viper.BindPFlag("metrics.listen", rootCmd.PersistentFlags().Lookup("metrics-addr"))

	config.Register(rootCmd)
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	appconfig.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(appconfig.ConfigDir())
		viper.AddConfigPath("$HOME/.config/tun2proxyctl")
		viper.AddConfigPath(".")
	}

	// e.g., TUN2PROXYCTL_PROXY_PORT for proxy.port
	appconfig.BindEnv(viper.GetViper())

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
