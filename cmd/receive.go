package cmd

import (
	"fmt"

	"dropwire/internal/app"
	"dropwire/pkg/utils"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type ReceiveFlags struct {
	DestPath string
}

var receiveFlags ReceiveFlags

// receiveCmd represents the receive command
var receiveCmd = &cobra.Command{
	Use:   "receive",
	Short: "Receive a file from peer (responds to offer)",
	Long: `Receive a file from a peer via a WebRTC data channel. This will:

1. Prompt for the sender's session code
2. Fetch the offer, generate an SDP answer, and connect
3. Receive the file and save it under the destination directory

Use --dst to specify the directory to save the received file into.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return validateReceiveFlags(&receiveFlags)
	},
	Run: func(cmd *cobra.Command, args []string) {
		if err := runReceiverApp(&receiveFlags); err != nil {
			logrus.Fatalf("Receiver failed: %v", err)
		}
	},
}

// validateReceiveFlags validates the receive command flags
func validateReceiveFlags(flags *ReceiveFlags) error {
	if flags.DestPath == "" {
		return fmt.Errorf("destination path is required")
	}
	_, err := utils.ResolveDestinationDir(flags.DestPath)
	return err
}

func init() {
	rootCmd.AddCommand(receiveCmd)

	receiveCmd.Flags().StringVarP(&receiveFlags.DestPath, "dst", "d", "", "Destination directory to save received file (required)")
	receiveCmd.MarkFlagRequired("dst")

	viper.BindPFlag("receive.dst", receiveCmd.Flags().Lookup("dst"))
}

// runReceiverApp creates and runs the receiver application
func runReceiverApp(flags *ReceiveFlags) error {
	ctx := createContext()
	peerService, signalingService, consoleUI, err := createServices(ctx, "Receiving")
	if err != nil {
		return err
	}

	opts := &app.ReceiverOptions{
		DestPath: flags.DestPath,
	}

	receiverApp := app.NewReceiverApp(cfg, peerService, signalingService, consoleUI)
	return receiverApp.Run(ctx, opts)
}
