package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"dropwire/internal/config"
	"dropwire/internal/signalling"
	"dropwire/internal/transport"
	"dropwire/internal/ui"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfg     *config.Config
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dropwire",
	Short: "dropwire - direct peer-to-peer file drops",
	Long: `dropwire transfers a file directly between two machines over a WebRTC
data channel. The file content never touches an intermediary server; only a
short signalling handshake goes through the session store.

Usage:
  Send a file:    dropwire send --file /path/to/file
  Receive a file: dropwire receive --dst /path/to/save/dir

The sender prints an 8-character code; the receiver enters it to connect.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initConfig()

		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		} else {
			logrus.SetLevel(logrus.WarnLevel)
		}

		cfg = config.NewDefaultConfig()
		applyViperOverrides(cfg)
		if err := cfg.Validate(); err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.dropwire.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	viper.SetEnvPrefix("DROPWIRE")
	viper.AutomaticEnv()
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			logrus.WithError(err).Warn("Could not find home directory")
			return
		}

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".dropwire")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logrus.WithField("file", viper.ConfigFileUsed()).Debug("Using config file")
	}
}

// applyViperOverrides copies configured values over the defaults
func applyViperOverrides(cfg *config.Config) {
	if v := viper.GetString("firebase.project_id"); v != "" {
		cfg.Firebase.ProjectID = v
	}
	if v := viper.GetString("firebase.database_url"); v != "" {
		cfg.Firebase.DatabaseURL = v
	}
	if v := viper.GetString("firebase.credentials_path"); v != "" {
		cfg.Firebase.CredentialsPath = v
	}
	if viper.IsSet("transfer.pace_delay") {
		cfg.Transfer.PaceDelay = viper.GetDuration("transfer.pace_delay")
	}
	if viper.IsSet("transfer.stall_timeout") {
		cfg.Transfer.StallTimeout = viper.GetDuration("transfer.stall_timeout")
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// createContext creates a context that cancels on interrupt signals
func createContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	return ctx
}

// createServices creates and wires up the application services
func createServices(ctx context.Context, operation string) (*transport.PeerService, *signalling.SignalingService, *ui.ConsoleUI, error) {
	signalingService, err := signalling.NewDefaultSignalingService(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	peerService := transport.NewPeerService(cfg)
	consoleUI := ui.NewConsoleUI(operation)

	return peerService, signalingService, consoleUI, nil
}
