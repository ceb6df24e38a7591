package main

import (
	"fmt"
	"os"

	"github.com/diewo77/dealflow/internal/models"
	"github.com/diewo77/dealflow/internal/report"
	"github.com/spf13/cobra"
)

func statsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize proposals by status",
		Args:  cobra.NoArgs,
		RunE: a.withService(func(cmd *cobra.Command, args []string) error {
			st := a.svc.Dashboard()
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Clients:   %d\n", st.TotalClients)
			fmt.Fprintf(w, "Proposals: %d\n", st.TotalProposals)
			tw := newTable(w)
			for _, s := range models.Statuses() {
				fmt.Fprintf(tw, "  %s\t%d\n", s, st.ByStatus[s])
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(w, "Accepted value: %s\n", report.Money(st.AcceptedValue))
			return nil
		}),
	}
}

func exportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every proposal as CSV",
		Args:  cobra.NoArgs,
		RunE: a.withService(func(cmd *cobra.Command, args []string) error {
			if out == "" || out == "-" {
				return report.WriteCSV(cmd.OutOrStdout(), a.svc.Proposals())
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := report.WriteCSV(f, a.svc.Proposals()); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		}),
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file (stdout when empty)")
	return cmd
}
