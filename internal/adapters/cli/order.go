package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/mediator-go/internal/application/auth"
	"github.com/andrescamacho/mediator-go/internal/application/mediator"
	orderCommands "github.com/andrescamacho/mediator-go/internal/application/order/commands"
	orderQueries "github.com/andrescamacho/mediator-go/internal/application/order/queries"
	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

// callerFlags identify who the CLI acts as
type callerFlags struct {
	customerID int64
	admin      bool
	jsonOutput bool
}

func (f *callerFlags) bind(cmd *cobra.Command) {
	cmd.PersistentFlags().Int64Var(&f.customerID, "as", 0, "Act as this customer id")
	cmd.PersistentFlags().BoolVar(&f.admin, "admin", false, "Act with the admin role")
	cmd.PersistentFlags().BoolVar(&f.jsonOutput, "json", false, "Print results as JSON")
}

func (f *callerFlags) principal() auth.Principal {
	p := auth.Principal{CustomerID: f.customerID, Subject: "cli:customer:" + strconv.FormatInt(f.customerID, 10)}
	if f.admin {
		p.Roles = []string{auth.RoleAdmin}
		p.Subject = "cli:admin"
	}
	return p
}

// scope limits lookups to the caller's own orders unless acting as admin
func (f *callerFlags) scope() int64 {
	if f.admin {
		return 0
	}
	return f.customerID
}

// NewOrderCommand creates the order command with subcommands
func NewOrderCommand() *cobra.Command {
	caller := &callerFlags{}

	cmd := &cobra.Command{
		Use:   "order",
		Short: "Create, inspect and cancel orders",
		Long: `Send order commands and queries through the configured pipeline.

Every request runs as the caller given by --as (a customer id) and
--admin. Totals are in cents.

Examples:
  mediator order create --as 7 --total 2500
  mediator order get <order-id> --as 7
  mediator order cancel <order-id> --as 7 --reason "changed my mind"
  mediator order list --customer 7 --min-total 1000 --admin`,
	}
	caller.bind(cmd)

	// Add subcommands
	cmd.AddCommand(newOrderCreateCommand(caller))
	cmd.AddCommand(newOrderGetCommand(caller))
	cmd.AddCommand(newOrderCancelCommand(caller))
	cmd.AddCommand(newOrderListCommand(caller))

	return cmd
}

func newOrderCreateCommand(caller *callerFlags) *cobra.Command {
	var (
		customerID int64
		total      int64
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Place a new order",
		RunE: func(cmd *cobra.Command, args []string) error {
			if customerID == 0 {
				customerID = caller.customerID
			}
			command := orderCommands.CreateOrderCommand{CustomerID: customerID, Total: total}

			return withMediator(cmd, caller, func(ctx context.Context, m mediator.Sender) error {
				id, err := mediator.Send[string](ctx, m, command).Unwrap()
				if err != nil {
					return err
				}
				if caller.jsonOutput {
					return printJSON(cmd.OutOrStdout(), map[string]string{"id": id})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Order created: %s\n", id)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&customerID, "customer", 0, "Customer placing the order (default: --as)")
	cmd.Flags().Int64Var(&total, "total", 0, "Order total in cents")
	_ = cmd.MarkFlagRequired("total")

	return cmd
}

func newOrderGetCommand(caller *callerFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <order-id>",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := orderQueries.GetOrderQuery{OrderID: args[0], CustomerID: caller.scope()}

			return withMediator(cmd, caller, func(ctx context.Context, m mediator.Sender) error {
				dto, err := mediator.Send[orderQueries.OrderDTO](ctx, m, query).Unwrap()
				if err != nil {
					return err
				}
				if caller.jsonOutput {
					return printJSON(cmd.OutOrStdout(), dto)
				}
				printOrder(cmd.OutOrStdout(), dto)
				return nil
			})
		},
	}
}

func newOrderCancelCommand(caller *callerFlags) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "cancel <order-id>",
		Short: "Cancel a pending order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := orderCommands.CancelOrderCommand{OrderID: args[0], CustomerID: caller.scope(), Reason: reason}

			return withMediator(cmd, caller, func(ctx context.Context, m mediator.Sender) error {
				if _, err := mediator.Send[shared.Unit](ctx, m, command).Unwrap(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Order cancelled: %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Cancellation reason")

	return cmd
}

func newOrderListCommand(caller *callerFlags) *cobra.Command {
	var (
		customerID int64
		status     string
		minTotal   int64
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a customer's orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			if customerID == 0 {
				customerID = caller.customerID
			}
			query := orderQueries.ListCustomerOrdersQuery{CustomerID: customerID, Status: status, MinTotal: minTotal}

			return withMediator(cmd, caller, func(ctx context.Context, m mediator.Sender) error {
				orders, err := mediator.Send[[]orderQueries.OrderDTO](ctx, m, query).Unwrap()
				if err != nil {
					return err
				}
				if caller.jsonOutput {
					return printJSON(cmd.OutOrStdout(), orders)
				}
				printOrders(cmd.OutOrStdout(), orders)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&customerID, "customer", 0, "Customer whose orders to list (default: --as)")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (PENDING, CANCELLED)")
	cmd.Flags().Int64Var(&minTotal, "min-total", 0, "Only orders with at least this total")

	return cmd
}

// withMediator wires the application for one request and closes it afterwards
func withMediator(cmd *cobra.Command, caller *callerFlags, run func(ctx context.Context, m mediator.Sender) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// logs go to stderr so stdout stays parseable
	cfg.Logging.Output = "stderr"
	if !verbose {
		cfg.Logging.Level = "warn"
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Server.ReadTimeout)
	defer cancel()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	return run(auth.WithPrincipal(ctx, caller.principal()), app.Mediator)
}

func printOrder(w io.Writer, dto orderQueries.OrderDTO) {
	fmt.Fprintf(w, "Order %s\n", dto.ID)
	fmt.Fprintf(w, "  Customer:         %d\n", dto.CustomerID)
	fmt.Fprintf(w, "  Total:            %s\n", formatCents(dto.Total))
	fmt.Fprintf(w, "  Status:           %s\n", dto.Status)
	fmt.Fprintf(w, "  Created:          %s\n", dto.CreatedAt.Format(time.RFC3339))
	if dto.CancelledAt != nil {
		fmt.Fprintf(w, "  Cancelled:        %s\n", dto.CancelledAt.Format(time.RFC3339))
		if dto.CancellationReason != "" {
			fmt.Fprintf(w, "  Reason:           %s\n", dto.CancellationReason)
		}
	}
}

func printOrders(w io.Writer, orders []orderQueries.OrderDTO) {
	if len(orders) == 0 {
		fmt.Fprintln(w, "No orders found")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tTOTAL\tCREATED")
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.ID, o.Status, formatCents(o.Total), o.CreatedAt.Format(time.RFC3339))
	}
	tw.Flush()
	fmt.Fprintf(w, "\nTotal: %d orders\n", len(orders))
}

func formatCents(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
