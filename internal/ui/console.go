package ui

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"dropwire/pkg/types"
	"dropwire/pkg/utils"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
)

// ConsoleUI implements console-based interactive UI with progress tracking
type ConsoleUI struct {
	operation string // "Sending" or "Receiving"
	bar       *progressbar.ProgressBar
	startTime time.Time
}

// NewConsoleUI creates a new console-based interactive UI
func NewConsoleUI(operation string) *ConsoleUI {
	return &ConsoleUI{operation: operation}
}

// ShowMessage displays a message to the user
func (c *ConsoleUI) ShowMessage(message string) {
	fmt.Println(message)
}

// InputCode prompts user to input an 8-character alphanumeric code with validation
func (c *ConsoleUI) InputCode(ctx context.Context) (string, error) {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		inputCh := make(chan string, 1)

		fmt.Printf("Enter code from sender: ")
		go func() {
			if scanner.Scan() {
				inputCh <- strings.TrimSpace(scanner.Text())
			}
		}()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case code := <-inputCh:
			if utils.IsValidCode(code) {
				return code, nil
			}
			fmt.Printf("Invalid code. Please enter again.\n")
		}
	}
}

// Watch renders transfer status snapshots until the transfer reaches a
// terminal phase, the status stream closes, or the context is cancelled.
func (c *ConsoleUI) Watch(ctx context.Context, statusCh <-chan *types.TransferStatus) {
	for {
		select {
		case <-ctx.Done():
			return
		case status, ok := <-statusCh:
			if !ok {
				return
			}
			if status == nil {
				// Reset value: nothing in flight.
				continue
			}
			if done := c.render(status); done {
				return
			}
		}
	}
}

func (c *ConsoleUI) render(status *types.TransferStatus) bool {
	switch status.Phase {
	case types.PhaseTransferring:
		if c.bar == nil {
			c.initProgressBar(status)
		}
		_ = c.bar.Set64(int64(status.BytesTransferred))
		return false

	case types.PhaseCompleted:
		if c.bar == nil {
			c.initProgressBar(status)
		}
		_ = c.bar.Set64(int64(status.BytesTransferred))
		_ = c.bar.Finish()
		c.showSummary(status)
		return true

	case types.PhaseErrored:
		if c.bar != nil {
			_ = c.bar.Clear()
		}
		fmt.Printf("\nTransfer failed: %s\n", status.ErrorDetail)
		return true

	default:
		return false
	}
}

func (c *ConsoleUI) initProgressBar(status *types.TransferStatus) {
	c.startTime = time.Now()

	c.bar = progressbar.NewOptions64(int64(status.TotalBytes),
		progressbar.OptionSetDescription(fmt.Sprintf("%s %s", c.operation, status.FileName)),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(false),
	)

	logrus.WithFields(logrus.Fields{
		"file_name": status.FileName,
		"size":      utils.FormatFileSize(int64(status.TotalBytes)),
	}).Debug("Transfer started")
}

func (c *ConsoleUI) showSummary(status *types.TransferStatus) {
	elapsed := time.Since(c.startTime)
	throughput := 0.0
	if elapsed.Seconds() > 0 {
		throughput = float64(status.TotalBytes) / elapsed.Seconds() / (1024 * 1024)
	}

	fmt.Printf("\n=============================================\n")
	fmt.Printf("File transfer completed successfully!\n")
	fmt.Printf("+ File: %s\n", status.FileName)
	fmt.Printf("+ Total bytes: %s\n", utils.FormatFileSize(int64(status.TotalBytes)))
	fmt.Printf("+ Transfer time: %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("+ Average throughput: %.2f MB/s\n", throughput)
	fmt.Printf("=============================================\n")
}
