package cmd

import (
	"fmt"

	"dropwire/internal/app"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type SendFlags struct {
	FilePath string
}

var sendFlags SendFlags

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a file to peer (creates offer)",
	Long: `Send a file to a peer via a WebRTC data channel. This will:

1. Create a WebRTC peer connection and generate an SDP offer
2. Store the offer under a short session code
3. Send the file once the receiver answers and the channel opens

Use --file to specify the path to the file you want to send.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return validateSendFlags(&sendFlags)
	},
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSenderApp(&sendFlags); err != nil {
			logrus.Fatalf("Sender failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVarP(&sendFlags.FilePath, "file", "f", "", "Path to file to send (required)")
	sendCmd.MarkFlagRequired("file")

	viper.BindPFlag("send.file", sendCmd.Flags().Lookup("file"))
}

// validateSendFlags validates the send command flags
func validateSendFlags(flags *SendFlags) error {
	if flags.FilePath == "" {
		return fmt.Errorf("file path is required")
	}
	return nil
}

// runSenderApp creates and runs the sender application
func runSenderApp(flags *SendFlags) error {
	ctx := createContext()
	peerService, signalingService, consoleUI, err := createServices(ctx, "Sending")
	if err != nil {
		return err
	}

	opts := &app.SenderOptions{
		FilePath: flags.FilePath,
	}

	senderApp := app.NewSenderApp(cfg, peerService, signalingService, consoleUI)
	return senderApp.Run(ctx, opts)
}
