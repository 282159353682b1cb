/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ugel06/registry/internal/mq"
	"github.com/ugel06/registry/types"
)

// eventsCmd represents the events command.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect institution change events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print institution change events as they are published",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()
		if strings.TrimSpace(cfg.MQ.Backend) == "" {
			return errors.New("MQ_BACKEND is not set")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		broker, err := mq.New(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		defer func() {
			_ = broker.Close()
		}()

		log.Printf("tailing %s channel %q", cfg.MQ.Backend, cfg.MQ.Channel)
		out := cmd.OutOrStdout()
		err = broker.Subscribe(ctx, cfg.MQ.Channel, func(_ context.Context, msg mq.Message) error {
			var event types.InstitutionEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				log.Printf("skipping malformed event %s: %v", msg.ID, err)
				return nil
			}
			_, err := fmt.Fprintf(out, "%s\t%s\tinstitution=%d\tnational_id=%s\n",
				event.OccurredAt.Format("2006-01-02T15:04:05Z07:00"), event.Type, event.InstitutionID, event.NationalID)
			return err
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
