package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/diewo77/dealflow/internal/models"
	"github.com/diewo77/dealflow/internal/report"
	"github.com/diewo77/dealflow/internal/services"
	"github.com/spf13/cobra"
)

func proposalCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "proposal",
		Aliases: []string{"p"},
		Short:   "Manage proposals",
	}
	cmd.AddCommand(
		proposalNewCmd(a),
		proposalEditCmd(a),
		proposalListCmd(a),
		proposalShowCmd(a),
		itemCmd(a),
		discountCmd(a),
		statusCmd(a),
		sendCmd(a),
		copyCmd(a),
		proposalRemoveCmd(a),
	)
	return cmd
}

type proposalFlags struct {
	client  uint
	title   string
	expires string
	owner   string
	terms   string
}

func (f *proposalFlags) register(cmd *cobra.Command) {
	cmd.Flags().UintVar(&f.client, "client", 0, "Client id (required)")
	cmd.Flags().StringVar(&f.title, "title", "", "Title (defaults to \"Proposal <id>\")")
	cmd.Flags().StringVar(&f.expires, "expires", "", "Expiration date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.owner, "owner", "", "Responsible person")
	cmd.Flags().StringVar(&f.terms, "terms", "", "Payment terms")
	_ = cmd.MarkFlagRequired("client")
}

func (f *proposalFlags) input() (services.ProposalInput, error) {
	expires, err := parseDate(f.expires)
	if err != nil {
		return services.ProposalInput{}, err
	}
	return services.ProposalInput{
		ClientID:     f.client,
		Title:        f.title,
		ExpiresAt:    expires,
		Owner:        f.owner,
		PaymentTerms: f.terms,
	}, nil
}

func proposalNewCmd(a *app) *cobra.Command {
	var f proposalFlags
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a draft proposal",
		Args:  cobra.NoArgs,
		RunE: a.withService(func(cmd *cobra.Command, args []string) error {
			in, err := f.input()
			if err != nil {
				return err
			}
			p, err := a.svc.CreateProposal(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created proposal %d\n", p.ID)
			return nil
		}),
	}
	f.register(cmd)
	return cmd
}

func proposalEditCmd(a *app) *cobra.Command {
	var f proposalFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Replace the client and terms of a proposal",
		Args:  cobra.ExactArgs(1),
		RunE: a.withService(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			in, err := f.input()
			if err != nil {
				return err
			}
			if _, err := a.svc.UpdateProposal(cmd.Context(), id, in); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated proposal %d\n", id)
			return nil
		}),
	}
	f.register(cmd)
	return cmd
}

func proposalListCmd(a *app) *cobra.Command {
	var filter services.ProposalFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List proposals",
		Args:  cobra.NoArgs,
		RunE: a.withService(func(cmd *cobra.Command, args []string) error {
			proposals, err := a.svc.Search(filter)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tTITLE\tCLIENT\tSTATUS\tEXPIRES\tTOTAL")
			for _, p := range proposals {
				client := ""
				if p.Client != nil {
					client = p.Client.Name
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
					p.ID, p.Title, client, p.Status(), formatDate(p.ExpiresAt), report.Money(p.GrandTotal()))
			}
			return tw.Flush()
		}),
	}
	cmd.Flags().StringVar(&filter.Status, "status", "", "Only proposals with this status")
	cmd.Flags().StringVarP(&filter.Query, "query", "q", "", "Match title or client name")
	return cmd
}

func proposalShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a proposal with its items and totals",
		Args:  cobra.ExactArgs(1),
		RunE: a.withService(func(cmd *cobra.Command, args []string) error {
			p, err := a.proposalArg(args[0])
			if err != nil {
				return err
			}
			printProposal(cmd.OutOrStdout(), p, time.Now())
			return nil
		}),
	}
}

func (a *app) proposalArg(arg string) (*models.Proposal, error) {
	id, err := parseID(arg)
	if err != nil {
		return nil, err
	}
	return a.svc.Proposal(id)
}

func itemCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Edit the line items of a proposal",
	}

	var in services.ItemInput
	add := &cobra.Command{
		Use:   "add <proposal-id> <description>",
		Short: "Append a line item",
		Args:  cobra.ExactArgs(2),
		RunE: a.withService(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			in.Description = args[1]
			p, err := a.svc.AddItem(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Proposal %d now has %d item(s)\n", p.ID, p.ItemCount())
			return nil
		}),
	}
	add.Flags().IntVar(&in.Quantity, "qty", 1, "Quantity")
	add.Flags().Float64Var(&in.UnitPrice, "price", 0, "Unit price")

	var upd services.ItemInput
	edit := &cobra.Command{
		Use:   "edit <proposal-id> <item-number> <description>",
		Short: "Replace a line item",
		Args:  cobra.ExactArgs(3),
		RunE: a.withService(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			index, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			upd.Description = args[2]
			if _, err := a.svc.UpdateItem(cmd.Context(), id, index, upd); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated item %d of proposal %d\n", index+1, id)
			return nil
		}),
	}
	edit.Flags().IntVar(&upd.Quantity, "qty", 1, "Quantity")
	edit.Flags().Float64Var(&upd.UnitPrice, "price", 0, "Unit price")

	rm := &cobra.Command{
		Use:   "rm <proposal-id> <item-number>",
		Short: "Remove a line item",
		Args:  cobra.ExactArgs(2),
		RunE: a.withService(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			index, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			p, err := a.svc.RemoveItem(cmd.Context(), id, index)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Proposal %d now has %d item(s)\n", p.ID, p.ItemCount())
			return nil
		}),
	}

	cmd.AddCommand(add, edit, rm)
	return cmd
}

func discountCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "discount <id> <none|percentage|fixed> [value]",
		Short: "Set or clear the discount of a proposal",
		Args:  cobra.RangeArgs(2, 3),
		RunE: a.withService(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var value float64
			if len(args) == 3 {
				value, err = strconv.ParseFloat(args[2], 64)
				if err != nil {
					return fmt.Errorf("%w: invalid discount value %q", models.ErrInvalidInput, args[2])
				}
			}
			p, err := a.svc.ApplyDiscount(cmd.Context(), id, args[1], value)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Proposal %d discount: %s, total %s\n", p.ID, p.Discount(), report.Money(p.GrandTotal()))
			return nil
		}),
	}
}

func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Change the status of a proposal",
		Args:  cobra.ExactArgs(2),
		RunE: a.withService(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := a.svc.ChangeStatus(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Proposal %d is %s\n", p.ID, p.Status())
			return nil
		}),
	}
}

func sendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "send <id>",
		Short: "Mark a draft proposal as sent",
		Args:  cobra.ExactArgs(1),
		RunE: a.withService(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := a.svc.Send(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Proposal %d is %s\n", p.ID, p.Status())
			return nil
		}),
	}
}

func copyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "copy <id>",
		Short: "Duplicate a proposal as a new draft",
		Args:  cobra.ExactArgs(1),
		RunE: a.withService(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := a.svc.Duplicate(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created proposal %d\n", p.ID)
			return nil
		}),
	}
}

func proposalRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a proposal and its items",
		Args:  cobra.ExactArgs(1),
		RunE: a.withService(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.svc.DeleteProposal(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted proposal %d\n", id)
			return nil
		}),
	}
}
