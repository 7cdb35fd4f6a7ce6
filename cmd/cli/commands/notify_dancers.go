package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/dance-matcher/pkg/core/services"
)

// NotifyDancersCmd creates the notifyDancers command
func NotifyDancersCmd(app *AppContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "notifyDancers [run_id]",
		Short: "Email every dancer their outcome (defaults to the latest run)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var runID string
			if len(args) > 0 {
				runID = args[0]
			}

			templates, err := services.ParseTemplates(app.Cfg.Notification)
			if err != nil {
				return err
			}

			database, err := app.Database()
			if err != nil {
				return err
			}

			var sender services.EmailSender
			if !dryRun {
				client, err := app.GmailClient()
				if err != nil {
					return err
				}
				sender = client
			}

			app.Logger.Debug("notifyDancers command", zap.String("run_id", runID), zap.Bool("dry_run", dryRun))

			result, err := services.NotifyDancers(app.Ctx, database, sender, templates, runID, dryRun, app.Logger)
			if err != nil {
				return err
			}

			printNotifyResult(os.Stdout, result, dryRun)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the emails instead of sending them")

	return cmd
}

func printNotifyResult(w io.Writer, result *services.NotifyDancersResult, dryRun bool) {
	if dryRun {
		for _, n := range result.Sent {
			fmt.Fprintf(w, "To: %s\nSubject: %s\n\n%s\n\n---\n", n.DancerKey, n.Subject, n.Body)
		}
		fmt.Fprintf(w, "\nDry run: %d emails rendered for run %s\n", len(result.Sent), result.Run.ID)
	} else {
		fmt.Fprintf(w, "\n✓ Sent %d emails for run %s\n", len(result.Sent), result.Run.ID)
	}

	if result.Skipped > 0 {
		fmt.Fprintf(w, "Skipped %d dancers already notified\n", result.Skipped)
	}

	if len(result.Failed) > 0 {
		fmt.Fprintf(w, "\n⚠️  Failed to send %d emails:\n", len(result.Failed))
		for _, f := range result.Failed {
			fmt.Fprintf(w, "  ✗ %s (%s): %s\n", f.Name, f.DancerKey, f.Error)
		}
	}
	fmt.Fprintln(w)
}
