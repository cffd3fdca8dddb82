package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hamed0406/alertapi/internal/apiclient"
	"github.com/hamed0406/alertapi/internal/domain"
)

func newRootCommand() *cobra.Command {
	var apiURL string

	root := &cobra.Command{
		Use:           "alertctl",
		Short:         "alertctl talks to the alert API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	def := os.Getenv("ALERTAPI_URL")
	if def == "" {
		def = "http://localhost:3003"
	}
	root.PersistentFlags().StringVar(&apiURL, "api", def, "alert API base URL (env ALERTAPI_URL)")

	client := func() *apiclient.Client { return apiclient.New(apiURL) }
	root.AddCommand(newSendCommand(client), newListCommand(client), newHealthCommand(client))
	return root
}

func newSendCommand(client func() *apiclient.Client) *cobra.Command {
	var (
		file, status, name, summary, fingerprint string
		labels                                   map[string]string
	)
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a test alert, or a webhook body from --file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			var (
				res *apiclient.SendResult
				err error
			)
			if file != "" {
				body, rerr := readBody(cmd.InOrStdin(), file)
				if rerr != nil {
					return rerr
				}
				res, err = client().SendRaw(ctx, body)
			} else {
				in := domain.AlertInput{
					Status:      status,
					Labels:      map[string]string{"alertname": name},
					Annotations: map[string]string{"summary": summary},
					Fingerprint: fingerprint,
					StartsAt:    time.Now().UTC().Format(time.RFC3339),
				}
				for k, v := range labels {
					in.Labels[k] = v
				}
				if status == domain.StatusResolved {
					in.EndsAt = in.StartsAt
				}
				res, err = client().Send(ctx, []domain.AlertInput{in})
			}
			if err != nil {
				return fmt.Errorf("send alerts: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "processed=%d inserted=%d\n", res.Processed, res.Inserted)
			for _, a := range res.Alerts {
				fmt.Fprintf(out, "  #%d %s (%s)\n", a.ID, a.AlertName, a.AlertState)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "webhook JSON body to send ('-' for stdin)")
	cmd.Flags().StringVar(&status, "status", domain.StatusFiring, "alert status (firing|resolved)")
	cmd.Flags().StringVar(&name, "name", "TestAlert", "alertname label")
	cmd.Flags().StringVar(&summary, "summary", "sent by alertctl", "summary annotation")
	cmd.Flags().StringVar(&fingerprint, "fingerprint", "", "alert fingerprint")
	cmd.Flags().StringToStringVarP(&labels, "label", "l", nil, "extra labels (k=v)")
	return cmd
}

func readBody(stdin io.Reader, file string) ([]byte, error) {
	if file == "-" {
		return io.ReadAll(stdin)
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	return b, nil
}

func newListCommand(client func() *apiclient.Client) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List recent alerts",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := client().Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list alerts: %w", err)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTATE\tMESSAGE\tCREATED")
			for _, a := range res.Alerts {
				msg := ""
				if a.AlertMessage != nil {
					msg = *a.AlertMessage
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
					a.ID, a.AlertName, a.AlertState, msg, a.CreatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "number of alerts to show")
	return cmd
}

func newHealthCommand(client func() *apiclient.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show API and database health",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := client().Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("health: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "status=%s database=%s at %s\n", h.Status, h.Database, h.Timestamp)
			if h.Database != "connected" {
				return fmt.Errorf("database %s", h.Database)
			}
			return nil
		},
	}
}
