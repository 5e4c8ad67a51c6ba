package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"comms-middleware/internal/client"
	"comms-middleware/internal/protocol/carframe"
)

var (
	kindName string
	addr     string
	interval time.Duration
	loop     bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "client",
	Short: "Tools for vehicle bus telemetry frames",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = zap.NewDevelopment()
		return err
	},
}

var decodeCmd = &cobra.Command{
	Use:   "decode [hex]...",
	Short: "Decode hex frames and print them as JSON",
	Long:  "decode prints each hex frame as a JSON record. With no arguments it reads one frame per line from stdin.",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := carframe.ParseKind(kindName)
		if err != nil {
			return err
		}
		out := json.NewEncoder(cmd.OutOrStdout())
		if len(args) > 0 {
			for _, a := range args {
				if err := decodeOne(out, kind, a); err != nil {
					return err
				}
			}
			return nil
		}
		sc := bufio.NewScanner(cmd.InOrStdin())
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if err := decodeOne(out, kind, line); err != nil {
				logger.Warn("Failed to decode frame", zap.String("hex", line), zap.Error(err))
			}
		}
		return sc.Err()
	},
}

var replayCmd = &cobra.Command{
	Use:   "replay <capture-file>",
	Short: "Send captured hex frames to the ingest server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		frames, err := client.LoadHexFrames(f)
		if err != nil {
			return err
		}

		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return fmt.Errorf("连接服务器失败: %w", err)
		}
		defer conn.Close()
		logger.Info("Connected", zap.String("addr", addr), zap.Int("frames", len(frames)))

		rp := &client.Replayer{Interval: interval, Loop: loop}
		sent, err := rp.Replay(cmd.Context(), conn, frames)
		logger.Info("Replay finished", zap.Int("sent", sent))
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func decodeOne(out *json.Encoder, kind carframe.Kind, s string) error {
	raw, err := client.DecodeHex(s)
	if err != nil {
		return err
	}
	frame, err := carframe.DecodeBytes(kind, raw)
	if err != nil {
		return err
	}
	if extra := len(raw) - kind.Size(); extra > 0 {
		logger.Warn("Trailing bytes ignored", zap.Int("bytes", extra))
	}
	return out.Encode(frame)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&kindName, "kind", "fuel", "frame kind: fuel | electric")
	replayCmd.Flags().StringVar(&addr, "addr", "127.0.0.1:9000", "ingest server address")
	replayCmd.Flags().DurationVar(&interval, "interval", time.Second, "delay between frames")
	replayCmd.Flags().BoolVar(&loop, "loop", false, "repeat the capture until interrupted")
	rootCmd.AddCommand(decodeCmd, replayCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
