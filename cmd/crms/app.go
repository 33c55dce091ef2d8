package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/DukeRupert/crmsclient/internal/domain"
	"github.com/DukeRupert/crmsclient/internal/gateway"
	"github.com/DukeRupert/crmsclient/internal/search"
	"github.com/DukeRupert/crmsclient/internal/service"
	"github.com/DukeRupert/crmsclient/internal/session"
	"github.com/DukeRupert/crmsclient/internal/tokenstore"
	"github.com/DukeRupert/crmsclient/internal/validation"
	"github.com/DukeRupert/crmsclient/internal/worker"
)

var (
	errUsage       = errors.New("usage")
	errNotLoggedIn = userError("Please log in first: crms login -u <username>")
)

// userError is printed as is.
type userError string

func (e userError) Error() string { return string(e) }

// backend is what the app needs from the transport.
type backend interface {
	gateway.Transport
	session.TokenCarrier
}

type appConfig struct {
	Backend  backend
	Store    tokenstore.Store
	Debounce time.Duration
	MinChars int
	Now      func() time.Time
	Stdin    io.Reader
	Stdout   io.Writer
	Logger   *slog.Logger
}

type app struct {
	in       *bufio.Reader
	out      io.Writer
	minChars int
	logger   *slog.Logger

	queue        *worker.Queue
	session      *session.Session
	citizenships *service.CitizenshipService
	customers    *service.CustomerService
	histories    *service.HistoryService
}

func newApp(ctx context.Context, cfg appConfig) (*app, error) {
	logger := cfg.Logger

	queue, err := worker.New(worker.DefaultConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("task queue initialization failed: %w", err)
	}
	queue.Start(ctx)

	// Initialize gateways
	customerGW := gateway.NewCustomers(cfg.Backend, logger)
	historyGW := gateway.NewHistories(cfg.Backend, logger)
	citizenshipGW := gateway.NewCitizenships(cfg.Backend, logger)
	authGW := gateway.NewAuth(cfg.Backend, logger)

	// Restore any persisted session
	sess := session.New(authGW, cfg.Store, cfg.Backend, logger)
	state := sess.Init(ctx)
	logger.Debug("Session ready", "state", state.String())

	// Initialize services
	engine := validation.New(cfg.Now)
	slotCfg := search.Config{Debounce: cfg.Debounce, MinChars: cfg.MinChars}
	citizenships := service.NewCitizenshipService(citizenshipGW, logger)

	minChars := cfg.MinChars
	if minChars <= 0 {
		minChars = search.DefaultMinChars
	}

	return &app{
		in:           bufio.NewReader(cfg.Stdin),
		out:          cfg.Stdout,
		minChars:     minChars,
		logger:       logger,
		queue:        queue,
		session:      sess,
		citizenships: citizenships,
		customers:    service.NewCustomerService(customerGW, citizenships, engine, queue, slotCfg, logger),
		histories:    service.NewHistoryService(historyGW, customerGW, engine, queue, slotCfg, logger),
	}, nil
}

func (a *app) Close() {
	a.queue.Stop()
}

// Run dispatches one command line.
func (a *app) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	case "login":
		return a.login(ctx, rest)
	case "logout":
		a.session.Logout(ctx)
		fmt.Fprintln(a.out, "Logged out.")
		return nil
	case "whoami":
		if !a.session.Authenticated() {
			fmt.Fprintln(a.out, "Not logged in.")
			return nil
		}
		fmt.Fprintln(a.out, a.session.Principal())
		return nil
	case "customers", "histories", "citizenships":
	default:
		return errUsage
	}

	if !a.session.Authenticated() {
		return errNotLoggedIn
	}

	switch cmd {
	case "customers":
		return a.customersCmd(ctx, rest)
	case "histories":
		return a.historiesCmd(ctx, rest)
	case "citizenships":
		return a.citizenshipsCmd(ctx, rest)
	default:
		return errUsage
	}
}

// =============================================================================
// Session
// =============================================================================

func (a *app) login(ctx context.Context, args []string) error {
	var creds domain.Credentials
	fs := newFlagSet("login")
	fs.StringVar(&creds.Username, "u", "", "username")
	fs.StringVar(&creds.Password, "p", "", "password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	if creds.Username == "" {
		creds.Username = a.prompt("Username: ")
	}
	if creds.Password == "" {
		creds.Password = a.prompt("Password: ")
	}

	if err := a.session.Login(ctx, creds); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s.\n", a.session.Principal())
	return nil
}

// =============================================================================
// Customers
// =============================================================================

func (a *app) customersCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		return a.showCustomers(ctx, a.customers.Slot().Reload)

	case "show":
		id, err := parseID(rest)
		if err != nil {
			return err
		}
		c, err := a.customers.Get(ctx, id)
		if err != nil {
			return err
		}
		a.loadCitizenships(ctx)
		printCustomer(a.out, c, a.citizenships.NationName(c.CitizenshipID))
		return nil

	case "search":
		// Typed input: debounced and length gated like the list view's
		// search box.
		fs := newFlagSet("customers search")
		by := fs.String("by", string(search.KindName), "name, nationalId or phone")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		q := search.Query{Kind: search.Kind(*by), Value: strings.Join(fs.Args(), " ")}
		if !q.Kind.Textual() {
			return errUsage
		}
		if n := utf8.RuneCountInString(q.Term()); n > 0 && n < a.minChars {
			return userError(fmt.Sprintf("Type at least %d characters to search.", a.minChars))
		}
		return a.showCustomers(ctx, func(ctx context.Context) error {
			return a.customers.Slot().Input(ctx, q)
		})

	case "find":
		fs := newFlagSet("customers find")
		by := fs.String("by", string(search.KindNationalID), "name, nationalId or phone")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		q := search.Query{Kind: search.Kind(*by), Value: strings.Join(fs.Args(), " ")}
		return a.showCustomers(ctx, func(ctx context.Context) error {
			return a.customers.Slot().Trigger(ctx, q)
		})

	case "add":
		p := a.customers.NewParams(ctx)
		fs := newFlagSet("customers add")
		customerFlags(fs, &p)
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		if err := a.customers.Save(ctx, p); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Customer saved.")
		return nil

	case "edit":
		id, err := parseID(rest)
		if err != nil {
			return err
		}
		c, err := a.customers.Get(ctx, id)
		if err != nil {
			return err
		}
		p := c.Params()
		fs := newFlagSet("customers edit")
		customerFlags(fs, &p)
		if err := fs.Parse(rest[1:]); err != nil {
			return errUsage
		}
		if err := a.customers.Save(ctx, p); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Customer saved.")
		return nil

	case "delete":
		id, confirm, err := a.deleteArgs("customers delete", rest)
		if err != nil {
			return err
		}
		deleted, err := a.customers.Delete(ctx, id, confirm)
		if err != nil {
			return err
		}
		if deleted {
			fmt.Fprintln(a.out, "Customer deleted.")
		}
		return nil

	default:
		return errUsage
	}
}

func (a *app) showCustomers(ctx context.Context, start func(context.Context) error) error {
	snap, err := await(ctx, a.customers.Slot(), start)
	if err != nil {
		return err
	}
	if snap.State == search.Failed {
		return userError(snap.Err)
	}
	a.loadCitizenships(ctx)
	printCustomers(a.out, snap.Items, a.citizenships.NationName)
	return nil
}

func customerFlags(fs *flag.FlagSet, p *domain.CustomerParams) {
	fs.StringVar(&p.Name, "name", p.Name, "full name")
	fs.StringVar(&p.Gender, "gender", p.Gender, "Male or Female")
	fs.StringVar(&p.Birthday, "birthday", p.Birthday, "birthday (YYYY-MM-DD)")
	fs.StringVar(&p.NationalID, "national-id", p.NationalID, "national ID")
	fs.StringVar(&p.Address, "address", p.Address, "address")
	fs.StringVar(&p.PhoneNumber, "phone", p.PhoneNumber, "phone number")
	fs.StringVar(&p.CarNumber, "car", p.CarNumber, "car number")
	fs.IntVar(&p.CitizenshipID, "citizenship", p.CitizenshipID, "citizenship id")
	fs.StringVar(&p.Note, "note", p.Note, "note")
}

// =============================================================================
// Histories
// =============================================================================

func (a *app) historiesCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		return a.showHistories(ctx, a.histories.Slot().Reload)

	case "show":
		id, err := parseID(rest)
		if err != nil {
			return err
		}
		h, err := a.histories.Get(ctx, id)
		if err != nil {
			return err
		}
		a.loadCustomerNames(ctx)
		printHistory(a.out, a.histories.Rows([]domain.History{*h})[0])
		return nil

	case "search":
		fs := newFlagSet("histories search")
		date := fs.String("date", "", "stays on one date (YYYY-MM-DD)")
		from := fs.String("from", "", "start of a date range")
		to := fs.String("to", "", "end of a date range")
		customer := fs.String("customer", "", "stays of one customer id")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}

		q := search.Query{Kind: search.KindDate, Value: *date}
		switch {
		case *customer != "":
			q = search.Query{Kind: search.KindCustomer, Value: *customer}
		case *from != "" || *to != "":
			q = search.Query{Kind: search.KindDateRange, Start: *from, End: *to}
		}
		return a.showHistories(ctx, func(ctx context.Context) error {
			return a.histories.Slot().Trigger(ctx, q)
		})

	case "add":
		p := domain.NewHistoryParams()
		fs := newFlagSet("histories add")
		customer := historyFlags(fs, &p)
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		p.CustomerID = parseOptionalID(*customer)
		if err := a.histories.Save(ctx, p); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "History saved.")
		return nil

	case "edit":
		id, err := parseID(rest)
		if err != nil {
			return err
		}
		h, err := a.histories.Get(ctx, id)
		if err != nil {
			return err
		}
		p := h.Params()
		fs := newFlagSet("histories edit")
		customer := historyFlags(fs, &p)
		if err := fs.Parse(rest[1:]); err != nil {
			return errUsage
		}
		p.CustomerID = parseOptionalID(*customer)
		if err := a.histories.Save(ctx, p); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "History saved.")
		return nil

	case "delete":
		id, confirm, err := a.deleteArgs("histories delete", rest)
		if err != nil {
			return err
		}
		deleted, err := a.histories.Delete(ctx, id, confirm)
		if err != nil {
			return err
		}
		if deleted {
			fmt.Fprintln(a.out, "History deleted.")
		}
		return nil

	default:
		return errUsage
	}
}

func (a *app) showHistories(ctx context.Context, start func(context.Context) error) error {
	a.loadCustomerNames(ctx)
	snap, err := await(ctx, a.histories.Slot(), start)
	if err != nil {
		return err
	}
	if snap.State == search.Failed {
		return userError(snap.Err)
	}
	printHistories(a.out, a.histories.Rows(snap.Items))
	return nil
}

// historyFlags binds the history fields. The customer id is returned as
// a string so an unparsable value reaches validation as "no customer".
func historyFlags(fs *flag.FlagSet, p *domain.HistoryParams) *string {
	customer := ""
	if p.CustomerID != uuid.Nil {
		customer = p.CustomerID.String()
	}
	c := fs.String("customer", customer, "customer id")
	fs.StringVar(&p.Date, "date", p.Date, "date of stay (YYYY-MM-DD)")
	fs.IntVar(&p.NumberOfPeople, "people", p.NumberOfPeople, "number of people")
	fs.Float64Var(&p.Price, "price", p.Price, "price in USD")
	fs.StringVar(&p.Room, "room", p.Room, "room")
	fs.StringVar(&p.Note, "note", p.Note, "note")
	return c
}

func (a *app) loadCustomerNames(ctx context.Context) {
	if _, err := a.histories.LoadCustomers(ctx); err != nil {
		a.logger.Warn("customer names unavailable", "error", err)
	}
}

// =============================================================================
// Citizenships
// =============================================================================

func (a *app) citizenshipsCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "list":
		refs, err := a.citizenships.Load(ctx)
		if err != nil {
			return err
		}
		printCitizenships(a.out, refs)
		return nil
	case "show":
		c, err := a.citizenships.Lookup(ctx, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		printCitizenships(a.out, domain.Citizenships{*c})
		return nil
	default:
		return errUsage
	}
}

func (a *app) loadCitizenships(ctx context.Context) {
	if _, err := a.citizenships.Load(ctx); err != nil {
		a.logger.Warn("citizenship names unavailable", "error", err)
	}
}

// =============================================================================
// Helpers
// =============================================================================

// await runs start and waits for the slot's query to settle.
func await[T any](ctx context.Context, slot *search.Slot[T], start func(context.Context) error) (search.Snapshot[T], error) {
	settled := make(chan search.Snapshot[T], 1)
	slot.OnChange(func(s search.Snapshot[T]) {
		if s.State != search.Applied && s.State != search.Failed {
			return
		}
		select {
		case settled <- s:
		default:
		}
	})
	defer slot.OnChange(nil)

	if err := start(ctx); err != nil {
		return search.Snapshot[T]{}, err
	}

	select {
	case s := <-settled:
		return s, nil
	case <-ctx.Done():
		return search.Snapshot[T]{}, ctx.Err()
	}
}

func (a *app) deleteArgs(name string, args []string) (uuid.UUID, service.Confirmer, error) {
	id, err := parseID(args)
	if err != nil {
		return uuid.Nil, nil, err
	}
	fs := newFlagSet(name)
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	if err := fs.Parse(args[1:]); err != nil {
		return uuid.Nil, nil, errUsage
	}
	if *yes {
		return id, nil, nil
	}
	return id, service.ConfirmFunc(func(prompt string) bool {
		answer := strings.ToLower(a.prompt(prompt + " [y/N] "))
		return answer == "y" || answer == "yes"
	}), nil
}

func (a *app) prompt(label string) string {
	fmt.Fprint(a.out, label)
	line, _ := a.in.ReadString('\n')
	return strings.TrimSpace(line)
}

func parseID(args []string) (uuid.UUID, error) {
	if len(args) == 0 {
		return uuid.Nil, errUsage
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return uuid.Nil, userError(fmt.Sprintf("%q is not a valid id.", args[0]))
	}
	return id, nil
}

func parseOptionalID(s string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}
