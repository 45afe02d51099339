package steps

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/cucumber/godog"
	"github.com/google/uuid"

	"github.com/andrescamacho/mediator-go/internal/adapters/persistence"
	"github.com/andrescamacho/mediator-go/internal/application/mediator"
	orderCommands "github.com/andrescamacho/mediator-go/internal/application/order/commands"
	"github.com/andrescamacho/mediator-go/internal/application/pipeline"
	"github.com/andrescamacho/mediator-go/internal/domain/shared"
	"github.com/andrescamacho/mediator-go/test/helpers"
)

// namedRequest is a request whose type nothing handles
type namedRequest string

func (r namedRequest) RequestType() string { return string(r) }

type dispatchContext struct {
	behaviors   []string
	logs        *bytes.Buffer
	mediator    *mediator.Mediator
	calls       int
	panics      bool
	effects     []string
	result      shared.Result[mediator.Response]
	registerErr error
}

func (d *dispatchContext) reset() {
	d.behaviors = nil
	d.logs = &bytes.Buffer{}
	d.mediator = nil
	d.calls = 0
	d.panics = false
	d.effects = nil
	d.result = shared.Result[mediator.Response]{}
	d.registerErr = nil
}

func (d *dispatchContext) aDispatcherWithTheBehaviors(names string) error {
	d.behaviors = splitList(names)
	d.logs.Reset()
	return nil
}

func (d *dispatchContext) aCountingCreateOrderHandler() error {
	logger := slog.New(slog.NewJSONHandler(d.logs, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var behaviors []mediator.Behavior
	for _, name := range d.behaviors {
		var b mediator.Behavior
		switch name {
		case pipeline.NameLogging:
			b = pipeline.NewLoggingBehavior(logger, false, nil)
		case pipeline.NameValidation:
			b = pipeline.NewValidationBehavior(
				pipeline.NewStructValidator(),
				orderCommands.CreateOrderRules(),
			)
		default:
			return fmt.Errorf("behavior %q is not available in dispatch scenarios", name)
		}
		behaviors = append(behaviors, d.observed(b))
	}

	inner := orderCommands.NewCreateOrderHandler(
		persistence.NewGormUnitOfWorkFactory(helpers.SharedTestDB),
		mediator.PublisherFunc(func(context.Context, shared.Event) error { return nil }),
		nil,
	)
	registry := mediator.NewRegistry()
	err := mediator.RegisterFactory(registry, func() mediator.TypedHandler[orderCommands.CreateOrderCommand, string] {
		return mediator.TypedHandlerFunc[orderCommands.CreateOrderCommand, string](
			func(ctx context.Context, cmd orderCommands.CreateOrderCommand) shared.Result[string] {
				d.calls++
				d.effects = append(d.effects, "handler")
				if d.panics {
					panic("handler exploded")
				}
				return inner.Handle(ctx, cmd)
			})
	})
	if err != nil {
		return err
	}

	d.mediator = mediator.New(registry, mediator.WithBehaviors(behaviors...), mediator.WithLogger(logger))
	return nil
}

// observed records the behavior's name when it is entered
func (d *dispatchContext) observed(b mediator.Behavior) mediator.Behavior {
	return mediator.NewBehavior(b.Name(), func(ctx context.Context, req mediator.Request, next mediator.HandlerFunc) shared.Result[mediator.Response] {
		d.effects = append(d.effects, b.Name())
		return b.Handle(ctx, req, next)
	})
}

func (d *dispatchContext) theCreateOrderHandlerPanics() error {
	d.panics = true
	return nil
}

func (d *dispatchContext) iSendCreateOrder(customerID, total int64) error {
	d.result = d.mediator.Send(context.Background(), orderCommands.CreateOrderCommand{CustomerID: customerID, Total: total})
	return nil
}

func (d *dispatchContext) iSendCreateOrderOnACancelledContext(customerID, total int64) error {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.result = d.mediator.Send(ctx, orderCommands.CreateOrderCommand{CustomerID: customerID, Total: total})
	return nil
}

func (d *dispatchContext) iSendARequestOfType(requestType string) error {
	d.result = d.mediator.Send(context.Background(), namedRequest(requestType))
	return nil
}

func (d *dispatchContext) iRegisterASecondHandlerFor(requestType string) error {
	registry := mediator.NewRegistry()
	factory := func() mediator.RequestHandler {
		return mediator.HandlerFunc(func(context.Context, mediator.Request) shared.Result[mediator.Response] {
			return shared.Success[mediator.Response](nil)
		})
	}
	if err := registry.Register(requestType, factory); err != nil {
		return fmt.Errorf("first registration failed: %w", err)
	}
	d.registerErr = registry.Register(requestType, factory)
	return nil
}

func (d *dispatchContext) theResultIsASuccessCarryingAnOrderID() error {
	if e := d.result.Error(); e != nil {
		return fmt.Errorf("expected success, got %v", e)
	}
	id, _ := d.result.Unwrap()
	s, ok := id.(string)
	if !ok {
		return fmt.Errorf("expected a string order id, got %T", id)
	}
	if _, err := uuid.Parse(s); err != nil {
		return fmt.Errorf("order id %q is not a uuid: %w", s, err)
	}
	return nil
}

func (d *dispatchContext) theResultIsAFailure(kind string) error {
	e := d.result.Error()
	if e == nil {
		return fmt.Errorf("expected a %s failure, got success", kind)
	}
	if string(e.Kind) != kind {
		return fmt.Errorf("expected a %s failure, got %v", kind, e)
	}
	return nil
}

func (d *dispatchContext) theFailureListsExactlyTheFields(fields string) error {
	e := d.result.Error()
	if e == nil {
		return fmt.Errorf("expected a failure, got success")
	}
	var got []string
	for _, f := range e.Fields {
		got = append(got, f.Field)
	}
	want := splitList(fields)
	sort.Strings(got)
	sort.Strings(want)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		return fmt.Errorf("expected fields %v, got %v", want, got)
	}
	return nil
}

func (d *dispatchContext) theHandlerWasInvoked(times int) error {
	if d.calls != times {
		return fmt.Errorf("expected %d handler calls, got %d", times, d.calls)
	}
	return nil
}

func (d *dispatchContext) ordersAreStored(count int) error {
	var stored int64
	if err := helpers.SharedTestDB.Model(&persistence.OrderModel{}).Count(&stored).Error; err != nil {
		return err
	}
	if stored != int64(count) {
		return fmt.Errorf("expected %d stored orders, got %d", count, stored)
	}
	return nil
}

func (d *dispatchContext) theRequestWasLoggedWithOutcome(outcome string) error {
	scanner := bufio.NewScanner(bytes.NewReader(d.logs.Bytes()))
	for scanner.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return fmt.Errorf("unreadable log line %q: %w", scanner.Text(), err)
		}
		if entry["msg"] == "request finished" && entry["outcome"] == outcome {
			return nil
		}
	}
	return fmt.Errorf("no request finished with outcome %q in logs:\n%s", outcome, d.logs.String())
}

func (d *dispatchContext) nothingWasLogged() error {
	if d.logs.Len() != 0 {
		return fmt.Errorf("expected no log output, got:\n%s", d.logs.String())
	}
	return nil
}

func (d *dispatchContext) theEffectsHappenedInTheOrder(order string) error {
	want := splitList(order)
	if strings.Join(d.effects, ",") != strings.Join(want, ",") {
		return fmt.Errorf("expected effects %v, got %v", want, d.effects)
	}
	return nil
}

func (d *dispatchContext) registrationFailsWithAError(kind string) error {
	if d.registerErr == nil {
		return fmt.Errorf("expected registration to fail with %s", kind)
	}
	if !shared.IsKind(d.registerErr, shared.ErrorKind(kind)) {
		return fmt.Errorf("expected a %s error, got %v", kind, d.registerErr)
	}
	return nil
}

// splitList parses "a, b, c" into its trimmed items
func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// InitializeDispatchScenario registers the dispatcher step definitions
func InitializeDispatchScenario(sc *godog.ScenarioContext) {
	d := &dispatchContext{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		d.reset()
		return ctx, helpers.TruncateAllTables()
	})

	sc.Step(`^a dispatcher with the "([^"]*)" behaviors$`, d.aDispatcherWithTheBehaviors)
	sc.Step(`^a counting CreateOrder handler$`, d.aCountingCreateOrderHandler)
	sc.Step(`^the CreateOrder handler panics$`, d.theCreateOrderHandlerPanics)

	sc.Step(`^I send CreateOrder for customer (-?\d+) with total (-?\d+)$`, d.iSendCreateOrder)
	sc.Step(`^I send CreateOrder for customer (-?\d+) with total (-?\d+) on a cancelled context$`, d.iSendCreateOrderOnACancelledContext)
	sc.Step(`^I send a request of type "([^"]*)"$`, d.iSendARequestOfType)
	sc.Step(`^I register a second handler for "([^"]*)"$`, d.iRegisterASecondHandlerFor)

	sc.Step(`^the result is a success carrying an order id$`, d.theResultIsASuccessCarryingAnOrderID)
	sc.Step(`^the result is a "([^"]*)" failure$`, d.theResultIsAFailure)
	sc.Step(`^the failure lists exactly the fields "([^"]*)"$`, d.theFailureListsExactlyTheFields)
	sc.Step(`^the handler was invoked (\d+) times?$`, d.theHandlerWasInvoked)
	sc.Step(`^(\d+) orders? (?:is|are) stored$`, d.ordersAreStored)
	sc.Step(`^the request was logged with outcome "([^"]*)"$`, d.theRequestWasLoggedWithOutcome)
	sc.Step(`^nothing was logged$`, d.nothingWasLogged)
	sc.Step(`^the effects happened in the order "([^"]*)"$`, d.theEffectsHappenedInTheOrder)
	sc.Step(`^registration fails with a "([^"]*)" error$`, d.registrationFailsWithAError)
}
