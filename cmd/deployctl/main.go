// Binary deployctl drives the release pipeline for the bot: build the
// binary, list the artifacts, and run it on the host.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/suwandre/tv-trading-bot/internal/deploy"
)

var (
	binaryPath string
	buildPkg   string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "deployctl",
	Short: "Build and run the tv-trading-bot binary",
	Long: `deployctl drives the deployment pipeline for tv-trading-bot.

Available subcommands:
  build  - Compile a release build of the bot
  list   - List the artifact directory contents
  run    - Verify the binary exists and run it
  deploy - Build, list, and run in sequence`,
	SilenceUsage: true,
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compile a release build of the bot",
	RunE:  runBuild,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the artifact directory contents",
	RunE:  runList,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Verify the binary exists and run it",
	RunE:  runRun,
}

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Build, list, and run in sequence",
	RunE:  runDeploy,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&binaryPath, "binary", "b", deploy.DefaultBinaryPath, "path to the bot binary")
	rootCmd.PersistentFlags().StringVar(&buildPkg, "package", deploy.DefaultPackage, "main package compiled by build")
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(deployCmd)
}

func options() deploy.Options {
	return deploy.Options{
		BinaryPath: binaryPath,
		Package:    buildPkg,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}
}

func runBuild(cmd *cobra.Command, args []string) error {
	fmt.Printf("Building release binary to %s...\n", binaryPath)
	if err := deploy.Build(cmd.Context(), options()); err != nil {
		return err
	}
	fmt.Println("Build complete.")
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	dir := filepath.Dir(binaryPath)
	fmt.Printf("Contents of %s:\n", dir)
	return deploy.ListArtifacts(dir, os.Stdout)
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := deploy.EnsureBinary(binaryPath); err != nil {
		if errors.Is(err, deploy.ErrBinaryMissing) {
			fmt.Printf("Error: binary not found at %s. Did the build succeed?\n", binaryPath)
			os.Exit(1)
		}
		return err
	}

	fmt.Printf("Binary found at %s. Starting bot...\n", binaryPath)
	code, err := deploy.Run(cmd.Context(), options())
	if err != nil {
		return err
	}
	if code != 0 {
		os.Exit(code)
	}
	return nil
}

func runDeploy(cmd *cobra.Command, args []string) error {
	if err := runBuild(cmd, args); err != nil {
		return err
	}
	if err := runList(cmd, args); err != nil {
		return err
	}
	return runRun(cmd, args)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
