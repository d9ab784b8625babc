package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andres10976/homework-bot/internal/config"
	"github.com/andres10976/homework-bot/internal/failure"
	"github.com/andres10976/homework-bot/internal/service/statusapi"
	"github.com/andres10976/homework-bot/internal/service/verdict"
)

func newCheckCmd(flags *rootFlags) *cobra.Command {
	var since time.Duration

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Print the messages a poll cycle would send, without sending them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if cfg.PracticumToken == "" {
				return fmt.Errorf("%w: PRACTICUM_TOKEN", config.ErrMissingCredentials)
			}

			log, cleanup, err := newLogger(cfg, false)
			if err != nil {
				return err
			}
			defer cleanup()

			cursor := time.Now().Add(-since).Unix()
			client := statusapi.NewClient(cfg.Endpoint, cfg.PracticumToken, cfg.RequestTimeout)

			raw, err := client.Fetch(cmd.Context(), cursor)
			if err != nil {
				return report(log, err)
			}
			resp, err := statusapi.Validate(raw)
			if err != nil {
				return report(log, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "current_date: %d, submissions: %d\n", resp.CurrentDate, len(resp.Homeworks))
			for _, hw := range resp.Homeworks {
				text, err := verdict.Format(hw)
				if err != nil {
					text = failure.Describe(err)
				}
				fmt.Fprintln(out, text)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&since, "since", 30*24*time.Hour, "how far back to query")
	return cmd
}

func report(log *zap.Logger, err error) error {
	log.Error("check failed", zap.String("kind", failure.KindOf(err).String()), zap.Error(err))
	return errors.New(failure.Describe(err))
}
