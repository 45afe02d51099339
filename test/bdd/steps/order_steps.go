package steps

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/mediator-go/internal/adapters/cache"
	"github.com/andrescamacho/mediator-go/internal/adapters/persistence"
	"github.com/andrescamacho/mediator-go/internal/application/auth"
	"github.com/andrescamacho/mediator-go/internal/application/mediator"
	orderCommands "github.com/andrescamacho/mediator-go/internal/application/order/commands"
	orderQueries "github.com/andrescamacho/mediator-go/internal/application/order/queries"
	"github.com/andrescamacho/mediator-go/internal/application/setup"
	"github.com/andrescamacho/mediator-go/internal/domain/shared"
	"github.com/andrescamacho/mediator-go/test/helpers"
)

type orderContext struct {
	mediator  *mediator.Mediator
	forwarded *helpers.RecordingPublisher
	principal *auth.Principal
	orderID   string
	lastErr   *shared.Error
	listed    []orderQueries.OrderDTO
}

func (o *orderContext) reset() {
	o.mediator = nil
	o.forwarded = nil
	o.principal = nil
	o.orderID = ""
	o.lastErr = nil
	o.listed = nil
}

func (o *orderContext) ctx() context.Context {
	if o.principal == nil {
		return context.Background()
	}
	return auth.WithPrincipal(context.Background(), *o.principal)
}

// scope mirrors what a transport does: customers only see their own orders
func (o *orderContext) scope() int64 {
	if o.principal == nil || o.principal.HasRole(auth.RoleAdmin) {
		return 0
	}
	return o.principal.CustomerID
}

func (o *orderContext) theDefaultOrderPipeline() error {
	o.forwarded = helpers.NewRecordingPublisher()
	registry := setup.NewHandlerRegistry(persistence.NewGormUnitOfWorkFactory(helpers.SharedTestDB),
		setup.WithCache(cache.NewMemoryCache(0)),
		setup.WithEventPublisher(o.forwarded),
		setup.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	m, err := registry.CreateConfiguredMediator(setup.PipelineOptions{})
	if err != nil {
		return err
	}
	o.mediator = m
	return nil
}

func (o *orderContext) iAmCustomer(customerID int64) error {
	o.principal = &auth.Principal{Subject: fmt.Sprintf("customer:%d", customerID), CustomerID: customerID}
	return nil
}

func (o *orderContext) iAmAnonymous() error {
	o.principal = nil
	return nil
}

func (o *orderContext) iCreateAnOrderWithTotal(total int64) error {
	var customerID int64
	if o.principal != nil {
		customerID = o.principal.CustomerID
	}
	result := mediator.Send[string](o.ctx(), o.mediator, orderCommands.CreateOrderCommand{CustomerID: customerID, Total: total})
	o.lastErr = result.Error()
	if id, err := result.Unwrap(); err == nil {
		o.orderID = id
	}
	return nil
}

func (o *orderContext) iCancelTheOrderWithReason(reason string) error {
	cmd := orderCommands.CancelOrderCommand{OrderID: o.orderID, CustomerID: o.scope(), Reason: reason}
	o.lastErr = mediator.Send[shared.Unit](o.ctx(), o.mediator, cmd).Error()
	return nil
}

func (o *orderContext) iReadTheOrder() error {
	query := orderQueries.GetOrderQuery{OrderID: o.orderID, CustomerID: o.scope()}
	o.lastErr = mediator.Send[orderQueries.OrderDTO](o.ctx(), o.mediator, query).Error()
	return nil
}

func (o *orderContext) iListMyOrdersWithMinimumTotal(minTotal int64) error {
	query := orderQueries.ListCustomerOrdersQuery{CustomerID: o.principal.CustomerID, MinTotal: minTotal}
	result := mediator.Send[[]orderQueries.OrderDTO](o.ctx(), o.mediator, query)
	o.lastErr = result.Error()
	o.listed, _ = result.Unwrap()
	return nil
}

func (o *orderContext) theLastRequestSucceeded() error {
	if o.lastErr != nil {
		return fmt.Errorf("expected success, got %v", o.lastErr)
	}
	return nil
}

func (o *orderContext) theLastRequestFailedWith(kind string) error {
	if o.lastErr == nil {
		return fmt.Errorf("expected a %s failure, got success", kind)
	}
	if string(o.lastErr.Kind) != kind {
		return fmt.Errorf("expected a %s failure, got %v", kind, o.lastErr)
	}
	return nil
}

func (o *orderContext) theOrderStatusIs(status string) error {
	query := orderQueries.GetOrderQuery{OrderID: o.orderID, CustomerID: o.scope()}
	dto, err := mediator.Send[orderQueries.OrderDTO](o.ctx(), o.mediator, query).Unwrap()
	if err != nil {
		return err
	}
	if dto.Status != status {
		return fmt.Errorf("expected status %s, got %s", status, dto.Status)
	}
	return nil
}

func (o *orderContext) theForwardedEventsAre(eventTypes string) error {
	want := splitList(eventTypes)
	got := o.forwarded.EventTypes()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		return fmt.Errorf("expected forwarded events %v, got %v", want, got)
	}
	return nil
}

func (o *orderContext) noEventsWereForwarded() error {
	if got := o.forwarded.EventTypes(); len(got) != 0 {
		return fmt.Errorf("expected no forwarded events, got %v", got)
	}
	return nil
}

func (o *orderContext) ordersAreListed(count int) error {
	if o.lastErr != nil {
		return fmt.Errorf("listing failed: %v", o.lastErr)
	}
	if len(o.listed) != count {
		return fmt.Errorf("expected %d listed orders, got %d", count, len(o.listed))
	}
	return nil
}

// InitializeOrderScenario registers the order lifecycle step definitions
func InitializeOrderScenario(sc *godog.ScenarioContext) {
	o := &orderContext{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		o.reset()
		return ctx, helpers.TruncateAllTables()
	})

	sc.Step(`^the default order pipeline$`, o.theDefaultOrderPipeline)
	sc.Step(`^I am customer (\d+)$`, o.iAmCustomer)
	sc.Step(`^I am anonymous$`, o.iAmAnonymous)

	sc.Step(`^I create an order with total (-?\d+)$`, o.iCreateAnOrderWithTotal)
	sc.Step(`^I cancel the order with reason "([^"]*)"$`, o.iCancelTheOrderWithReason)
	sc.Step(`^I read the order$`, o.iReadTheOrder)
	sc.Step(`^I list my orders with minimum total (\d+)$`, o.iListMyOrdersWithMinimumTotal)

	sc.Step(`^the last request succeeded$`, o.theLastRequestSucceeded)
	sc.Step(`^the last request failed with "([^"]*)"$`, o.theLastRequestFailedWith)
	sc.Step(`^the order status is "([^"]*)"$`, o.theOrderStatusIs)
	sc.Step(`^the forwarded events are "([^"]*)"$`, o.theForwardedEventsAre)
	sc.Step(`^no events were forwarded$`, o.noEventsWereForwarded)
	sc.Step(`^(\d+) orders are listed$`, o.ordersAreListed)
}
