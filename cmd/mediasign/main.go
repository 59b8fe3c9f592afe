// Command mediasign runs the media signing service and the client-side
// tools that resolve, preview and export listing media through it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/estatly/mediasign/bootstrap"
	"github.com/estatly/mediasign/config"
	"github.com/estatly/mediasign/service"
	"github.com/estatly/mediasign/version"
)

var (
	configFile string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:   "mediasign",
	Short: "Pre-signed media URL service and batch resolver",
	Long: `mediasign issues time-limited read URLs for listing photos and
applicant documents kept in a private bucket.

Examples:
  # Run the signing service
  mediasign serve

  # Resolve references through a running service
  MEDIASIGN_CLIENT_BASE_URL=http://localhost:8080 mediasign resolve listings/42/front.jpg

  # Build an HTML export with embedded media
  mediasign export --input application.json --output application.html`,
	Version:       version.Get().String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default: ./config.yml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file (default: ./.env)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(galleryCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newApp loads configuration and creates the application. CLI commands
// print their summary to stderr so stdout stays machine-readable.
func newApp(opts ...bootstrap.Option) (*bootstrap.App[*service.Config], error) {
	var loadOpts []config.LoaderOption
	if configFile != "" {
		loadOpts = append(loadOpts, config.WithConfigFile(configFile))
	}
	if envFile != "" {
		loadOpts = append(loadOpts, config.WithEnvFile(envFile))
	}
	cfg, err := service.LoadConfig(loadOpts...)
	if err != nil {
		return nil, err
	}
	if cfg.Version == "" {
		cfg.Version = version.Get().Short()
	}
	return bootstrap.NewApp(cfg, opts...)
}
