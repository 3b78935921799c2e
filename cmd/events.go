/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/accountd/apiserver/config"
	"github.com/accountd/apiserver/internal/mq"
	"github.com/accountd/apiserver/internal/services"
	"github.com/spf13/cobra"
)

// eventsCmd tails the user events channel.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Log user lifecycle events from the message queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := newLogger(cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		queue, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if queue == nil {
			return errors.New("MQ_BACKEND is not configured")
		}
		defer queue.Close()

		logger.Info("listening for user events", slog.String("channel", cfg.MQ.UserEventsChannel))
		err = queue.Subscribe(ctx, cfg.MQ.UserEventsChannel, func(ctx context.Context, msg mq.Message) error {
			event, err := services.DecodeUserEvent(msg)
			if err != nil {
				logger.Warn("discarding malformed event", slog.Any("error", err))
				return nil
			}
			logger.Info("user event",
				slog.String("message_id", msg.ID),
				slog.String("type", event.Type),
				slog.Time("timestamp", event.Timestamp),
				slog.Int("user_id", event.Data.ID),
				slog.String("email", event.Data.Email),
			)
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}
