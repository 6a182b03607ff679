package client

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	transports "github.com/rzbill/calclog/internal/cmd/client/transports"
	"github.com/rzbill/calclog/internal/logstore"
)

var errWatchDone = errors.New("watch limit reached")

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

func getTransport(baseURL BaseURLFunc) transports.LogsTransport {
	return transports.NewHTTPTransport(baseURL(), nil)
}

// NewLogsCommand constructs the `logs` command group and subcommands.
func NewLogsCommand(baseURL BaseURLFunc) *cobra.Command {
	logsCmd := &cobra.Command{Use: "logs", Short: "Calculator log operations"}
	logsCmd.AddCommand(
		newLogsSubmitCommand(baseURL),
		newLogsListCommand(baseURL),
		newLogsPollCommand(baseURL),
		newLogsWatchCommand(baseURL),
	)
	return logsCmd
}

func newLogsSubmitCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit <expression>",
		Short: "Evaluate an expression on the server and record it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := getTransport(baseURL).Submit(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print the raw response")
	return cmd
}

func newLogsListCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent records, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			since, _ := cmd.Flags().GetUint64("since-id")
			recs, err := getTransport(baseURL).List(cmd.Context(), since)
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), recs)
			}
			for _, r := range recs {
				printRecord(cmd.OutOrStdout(), r)
			}
			return nil
		},
	}
	cmd.Flags().Uint64("since-id", 0, "Only records with a larger id")
	cmd.Flags().Bool("json", false, "Print records as JSON")
	return cmd
}

func newLogsPollCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Follow the long-polling stream until it ends",
		RunE: func(cmd *cobra.Command, _ []string) error {
			since, _ := cmd.Flags().GetUint64("since-id")
			n := 0
			err := getTransport(baseURL).Poll(cmd.Context(), since, func(r logstore.Record) error {
				n++
				printRecord(cmd.OutOrStdout(), r)
				return nil
			})
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no records")
			}
			return nil
		},
	}
	cmd.Flags().Uint64("since-id", 0, "Only records with a larger id")
	return cmd
}

func newLogsWatchCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Subscribe to new records over the push channel",
		Long: "Connects to the WebSocket push channel and prints every new record.\n" +
			"Each --send expression is pushed as a log event first; its result is\n" +
			"computed locally by the caller, so pass --valid/--output to describe it.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("path")
			send, _ := cmd.Flags().GetStringArray("send")
			limit, _ := cmd.Flags().GetInt("limit")
			valid, _ := cmd.Flags().GetBool("valid")
			output, _ := cmd.Flags().GetFloat64("output")

			var drafts []logstore.Draft
			for _, expr := range send {
				d := logstore.Draft{Expression: expr, IsValid: valid}
				if valid {
					d.Output = logstore.Float(output)
				}
				drafts = append(drafts, d)
			}

			w, err := transports.NewWatcher(baseURL(), path)
			if err != nil {
				return err
			}
			n := 0
			err = w.Watch(cmd.Context(), drafts, func(r logstore.Record) error {
				printRecord(cmd.OutOrStdout(), r)
				n++
				if limit > 0 && n >= limit {
					return errWatchDone
				}
				return nil
			})
			if errors.Is(err, errWatchDone) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().String("path", "/ws", "Push channel path")
	cmd.Flags().StringArray("send", nil, "Expression to push as a log event (repeatable)")
	cmd.Flags().Bool("valid", true, "Mark pushed expressions as valid")
	cmd.Flags().Float64("output", 0, "Output recorded for pushed expressions")
	cmd.Flags().Int("limit", 0, "Exit after printing this many records (0 = until interrupted)")
	return cmd
}
