package main

import (
	"log/slog"
	"time"

	"rentcal/internal/app/commands"
	"rentcal/internal/app/dto"
	bookingsapp "rentcal/internal/app/handlers/bookings"
	calendarapp "rentcal/internal/app/handlers/calendar"
	combinationsapp "rentcal/internal/app/handlers/combinations"
	overviewapp "rentcal/internal/app/handlers/overview"
	rulesapp "rentcal/internal/app/handlers/rules"
	handlersupport "rentcal/internal/app/handlers/support"
	unitsapp "rentcal/internal/app/handlers/units"
	"rentcal/internal/app/middleware"
	"rentcal/internal/app/outbox"
	"rentcal/internal/app/queries"
	"rentcal/internal/app/uow"
	"rentcal/internal/app/validation"
	domainoverview "rentcal/internal/domain/overview"
	ginserver "rentcal/internal/infra/http/gin"
)

// appDeps are the storage-specific pieces the buses are built over.
type appDeps struct {
	Factory        uow.UoWFactory
	Outbox         outbox.Outbox
	Idempotency    middleware.IdempotencyStore
	IdempotencyTTL time.Duration
	MaxDays        int
	Location       *time.Location
	Now            func() time.Time
	Logger         *slog.Logger
}

type application struct {
	commands commands.Bus
	queries  queries.Bus
	handlers ginserver.Handlers
}

func buildApplication(d appDeps) application {
	clock := handlersupport.Clock{Now: d.Now, Location: d.Location}
	deps := handlersupport.CommandDeps{
		UoWFactory: d.Factory,
		Outbox:     d.Outbox,
		Encoder:    outbox.JSONEventEncoder{},
		Clock:      clock,
	}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler[bookingsapp.CreateBookingCommand, *dto.Booking](commandBus, &bookingsapp.CreateBookingHandler{CommandDeps: deps})
	commands.RegisterHandler[bookingsapp.CancelBookingCommand, *dto.Booking](commandBus, &bookingsapp.CancelBookingHandler{CommandDeps: deps})
	commands.RegisterHandler[rulesapp.CreatePriceRuleCommand, *dto.PriceRule](commandBus, &rulesapp.CreatePriceRuleHandler{CommandDeps: deps})
	commands.RegisterHandler[rulesapp.BulkCreatePriceRulesCommand, *rulesapp.BulkCreateResult](commandBus, &rulesapp.BulkCreatePriceRulesHandler{CommandDeps: deps})
	commands.RegisterHandler[rulesapp.ImportPricesCommand, *rulesapp.ImportPricesResult](commandBus, &rulesapp.ImportPricesHandler{CommandDeps: deps})
	commands.RegisterHandler[rulesapp.CreateClosureCommand, *dto.ClosureRule](commandBus, &rulesapp.CreateClosureHandler{CommandDeps: deps})
	commands.RegisterHandler[rulesapp.SyncExternalClosuresCommand, *rulesapp.SyncExternalResult](commandBus, &rulesapp.SyncExternalClosuresHandler{CommandDeps: deps})
	commands.RegisterHandler[rulesapp.CreateCheckInOutCommand, *dto.CheckInOutRule](commandBus, &rulesapp.CreateCheckInOutHandler{CommandDeps: deps})
	commands.RegisterHandler[rulesapp.DeleteRuleCommand, *rulesapp.DeleteRuleResult](commandBus, &rulesapp.DeleteRuleHandler{CommandDeps: deps})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler[unitsapp.ListUnitsQuery, []dto.Unit](queryBus, &unitsapp.ListUnitsHandler{UoWFactory: d.Factory})
	queries.RegisterHandler[unitsapp.ListGroupsQuery, []dto.Group](queryBus, &unitsapp.ListGroupsHandler{UoWFactory: d.Factory})
	queries.RegisterHandler[calendarapp.GetCalendarQuery, dto.Calendar](queryBus, &calendarapp.GetCalendarHandler{UoWFactory: d.Factory, MaxDays: d.MaxDays})
	queries.RegisterHandler[calendarapp.GetPriceQuery, dto.Price](queryBus, &calendarapp.GetPriceHandler{UoWFactory: d.Factory})
	queries.RegisterHandler[calendarapp.GetQuoteQuery, calendarapp.QuoteResult](queryBus, &calendarapp.GetQuoteHandler{UoWFactory: d.Factory, Clock: clock})
	queries.RegisterHandler[calendarapp.CheckAvailabilityQuery, dto.RangeCheck](queryBus, &calendarapp.CheckAvailabilityHandler{UoWFactory: d.Factory, Clock: clock})
	queries.RegisterHandler[rulesapp.ListRulesQuery, rulesapp.RuleList](queryBus, &rulesapp.ListRulesHandler{UoWFactory: d.Factory})
	queries.RegisterHandler[bookingsapp.ListBookingsQuery, []dto.Booking](queryBus, &bookingsapp.ListBookingsHandler{UoWFactory: d.Factory})
	queries.RegisterHandler[combinationsapp.SearchQuery, combinationsapp.SearchResult](queryBus, &combinationsapp.SearchHandler{UoWFactory: d.Factory})
	queries.RegisterHandler[combinationsapp.CombinedCalendarQuery, *domainoverview.Combined](queryBus, &combinationsapp.CombinedCalendarHandler{UoWFactory: d.Factory, MaxDays: d.MaxDays})
	queries.RegisterHandler[overviewapp.GlobalCalendarQuery, *domainoverview.Global](queryBus, &overviewapp.GlobalCalendarHandler{UoWFactory: d.Factory, MaxDays: d.MaxDays})

	validator := validation.New()
	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Logging(d.Logger),
		middleware.Validation(validator),
		middleware.Idempotency(d.Idempotency, middleware.IdempotencyOptions{TTL: d.IdempotencyTTL, Now: d.Now}),
		middleware.Transaction(d.Factory, nil),
		middleware.OutboxFlush(d.Outbox, d.Logger),
	)
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryLogging(d.Logger),
		middleware.QueryValidation(validator),
	)

	return application{
		commands: commandBusWithMiddleware,
		queries:  queryBusWithMiddleware,
		handlers: ginserver.Handlers{
			Units:        ginserver.UnitHandler{Queries: queryBusWithMiddleware},
			Rules:        ginserver.RulesHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware},
			Bookings:     ginserver.BookingHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware},
			Combinations: ginserver.CombinationHandler{Queries: queryBusWithMiddleware},
			Admin:        ginserver.AdminHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware},
		},
	}
}
