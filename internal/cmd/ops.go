package cmd

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/tun2proxyctl/internal/binary"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a daemonized tun2proxy",
	Long: `Stop a tun2proxy daemon started with administrator privileges, for
example by a previous 'tun2proxyctl run'. This prompts for administrator
privileges and kills the daemon by name.`,
	RunE: runStop,
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run tun2proxy --help to check that the binary launches",
	RunE:  runTest,
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Search for the tun2proxy executable",
	RunE:  runDetect,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE:  runVersion,
}

var versionProbe bool

func init() {
	versionCmd.Flags().BoolVar(&versionProbe, "tun2proxy", false, "also run tun2proxy --version")

	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(versionCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	r, err := newRuntime()
	if err != nil {
		return err
	}
	defer r.Close()

	path, err := r.binaryPath(cmd.Context(), nil)
	if err != nil {
		// The daemon is killed by name; fall back to the usual one
		path = binary.DefaultNames[0]
	}
	err = r.sup.StopDaemon(cmd.Context(), path)
	printRecords(cmd.OutOrStdout(), r.sup.Logs())
	return err
}

func runTest(cmd *cobra.Command, args []string) error {
	r, err := newRuntime()
	if err != nil {
		return err
	}
	defer r.Close()

	path, err := r.binaryPath(cmd.Context(), lineReporter(cmd.OutOrStdout()))
	if err != nil {
		return err
	}
	err = r.sup.Test(cmd.Context(), path)
	printRecords(cmd.OutOrStdout(), r.sup.Logs())
	return err
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	finder := binary.NewFinder(binary.WithCandidates(cfg.Binary.Candidates...))
	path, ok := finder.Detect(cmd.Context(), lineReporter(cmd.OutOrStdout()))
	if !ok {
		return fmt.Errorf("tun2proxy not found")
	}
	if finder.CheckAuthorization(path) {
		fmt.Fprintln(cmd.OutOrStdout(), "Authorized: root-owned with setuid bit")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "Not authorized. Run 'tun2proxyctl auth grant' to skip the prompt on every start.")
	}
	return nil
}

func runVersion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "tun2proxyctl %s (commit %s)\n", Version, Commit)
	if info, ok := debug.ReadBuildInfo(); ok {
		fmt.Fprintf(out, "built with %s\n", info.GoVersion)
	}
	if !versionProbe {
		return nil
	}

	r, err := newRuntime()
	if err != nil {
		return err
	}
	defer r.Close()

	path, err := r.binaryPath(cmd.Context(), nil)
	if err != nil {
		return err
	}
	err = r.sup.Version(cmd.Context(), path)
	printRecords(out, r.sup.Logs())
	return err
}

func configFileUsed() string {
	return viper.ConfigFileUsed()
}

// isRoot reports whether the process already has root privileges.
func isRoot() bool {
	return os.Geteuid() == 0
}
