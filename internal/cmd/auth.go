package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/tun2proxyctl/internal/binary"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Inspect or grant setuid authorization for tun2proxy",
	Long: `A tun2proxy binary owned by root with the setuid bit set can configure
routing without a privilege prompt on every start.`,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the binary is root-owned and setuid",
	RunE:  runAuthStatus,
}

var authGrantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Make the binary root-owned and setuid (prompts for privileges)",
	RunE:  runAuthGrant,
}

var authSetupCmd = &cobra.Command{
	Use:   "setup-command",
	Short: "Print the manual tun2proxy --setup command",
	RunE:  runAuthSetupCommand,
}

func init() {
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authGrantCmd)
	authCmd.AddCommand(authSetupCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	r, err := newRuntime()
	if err != nil {
		return err
	}
	defer r.Close()

	path, err := r.binaryPath(cmd.Context(), nil)
	if err != nil {
		return err
	}
	a, err := r.finder.Inspect(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Binary:     %s\n", a.Path)
	if a.Resolved != a.Path {
		fmt.Fprintf(out, "Resolves:   %s\n", a.Resolved)
	}
	if a.OwnerKnown {
		fmt.Fprintf(out, "Owner uid:  %d\n", a.OwnerUID)
	} else {
		fmt.Fprintf(out, "Owner uid:  unknown\n")
	}
	fmt.Fprintf(out, "Setuid:     %v\n", a.Setuid)
	fmt.Fprintf(out, "Authorized: %v\n", a.Authorized())
	return nil
}

func runAuthGrant(cmd *cobra.Command, args []string) error {
	r, err := newRuntime()
	if err != nil {
		return err
	}
	defer r.Close()

	path, err := r.binaryPath(cmd.Context(), nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if r.finder.CheckAuthorization(path) {
		fmt.Fprintf(out, "%s is already authorized\n", path)
		return nil
	}
	if !isRoot() {
		fmt.Fprintf(out, "Requesting administrator privileges via %s...\n", r.elevator.Name())
	}
	if err := r.finder.Authorize(cmd.Context(), r.elevator, path); err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}
	fmt.Fprintf(out, "Authorized %s\n", path)
	return nil
}

func runAuthSetupCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := cfg.Binary.Path
	if path == "" {
		finder := binary.NewFinder(binary.WithCandidates(cfg.Binary.Candidates...))
		found, ok := finder.Detect(cmd.Context(), nil)
		if !ok {
			return fmt.Errorf("tun2proxy not found; pass --binary")
		}
		path = found
	}
	fmt.Fprintln(cmd.OutOrStdout(), binary.SetupCommand(path))
	return nil
}
