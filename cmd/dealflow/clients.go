package main

import (
	"fmt"

	"github.com/diewo77/dealflow/internal/services"
	"github.com/spf13/cobra"
)

func clientCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Manage clients",
	}
	cmd.AddCommand(clientAddCmd(a), clientEditCmd(a), clientListCmd(a), clientRemoveCmd(a))
	return cmd
}

func clientFlags(cmd *cobra.Command, in *services.ClientInput) {
	cmd.Flags().StringVar(&in.Document, "document", "", "Tax or identity document")
	cmd.Flags().StringVar(&in.Contact, "contact", "", "Contact e-mail or phone")
}

func clientAddCmd(a *app) *cobra.Command {
	var in services.ClientInput
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a client",
		Args:  cobra.ExactArgs(1),
		RunE: a.withService(func(cmd *cobra.Command, args []string) error {
			in.Name = args[0]
			c, err := a.svc.CreateClient(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created client %d\n", c.ID)
			return nil
		}),
	}
	clientFlags(cmd, &in)
	return cmd
}

func clientEditCmd(a *app) *cobra.Command {
	var in services.ClientInput
	cmd := &cobra.Command{
		Use:   "edit <id> <name>",
		Short: "Replace the details of a client",
		Args:  cobra.ExactArgs(2),
		RunE: a.withService(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			in.Name = args[1]
			if _, err := a.svc.UpdateClient(cmd.Context(), id, in); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated client %d\n", id)
			return nil
		}),
	}
	clientFlags(cmd, &in)
	return cmd
}

func clientListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List clients",
		Args:  cobra.NoArgs,
		RunE: a.withService(func(cmd *cobra.Command, args []string) error {
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tDOCUMENT\tCONTACT")
			for _, c := range a.svc.Clients() {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.ID, c.Name, c.Document, c.Contact)
			}
			return tw.Flush()
		}),
	}
}

func clientRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a client without proposals",
		Args:  cobra.ExactArgs(1),
		RunE: a.withService(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.svc.DeleteClient(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted client %d\n", id)
			return nil
		}),
	}
}
