package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"marketplace-client/internal/app"
	"marketplace-client/internal/domain"
	"marketplace-client/internal/infrastructure/redis"
	"marketplace-client/internal/services"

	"github.com/shopspring/decimal"
)

const passwordEnv = "MARKETPLACE_PASSWORD"

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// parseArgs accepts flags before and after positional arguments.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, errUsage
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func singleID(fs *flag.FlagSet, args []string) (domain.ID, error) {
	pos, err := parseArgs(fs, args)
	if err != nil {
		return "", err
	}
	if len(pos) != 1 || strings.TrimSpace(pos[0]) == "" {
		return "", errUsage
	}
	return domain.ID(strings.TrimSpace(pos[0])), nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, domain.NewValidationError(fmt.Sprintf("%q is not a number", s))
	}
	return d, nil
}

func optionalAmount(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := parseAmount(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// readPassword falls back to the environment and then to one line of input.
func (c *cli) readPassword(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv(passwordEnv); env != "" {
		return env, nil
	}
	fmt.Fprint(os.Stderr, "password: ")
	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runLogin(ctx context.Context, c *cli, args []string) error {
	fs := newFlags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password (default $"+passwordEnv+" or stdin)")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	pw, err := c.readPassword(*password)
	if err != nil {
		return err
	}

	user, err := c.session.Login(ctx, domain.Credentials{Email: *email, Password: pw})
	if err != nil {
		return err
	}
	return c.emit(user, func(w io.Writer) { fmt.Fprintf(w, "logged in as %s (%s)\n", user.Username, user.Role) })
}

func runRegister(ctx context.Context, c *cli, args []string) error {
	fs := newFlags("register")
	username := fs.String("username", "", "username")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password (default $"+passwordEnv+" or stdin)")
	role := fs.String("role", string(domain.RoleBuyer), "buyer or seller")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}
	pw, err := c.readPassword(*password)
	if err != nil {
		return err
	}

	user, err := c.session.Register(ctx, domain.Registration{
		Username: *username,
		Email:    *email,
		Password: pw,
		Role:     domain.UserRole(*role),
	})
	if err != nil {
		return err
	}
	return c.emit(user, func(w io.Writer) {
		fmt.Fprintf(w, "registered %s (%s)\n", user.Username, user.Role)
		if user.Role == domain.RoleSeller && !user.IsApproved {
			fmt.Fprintln(w, "seller accounts need admin approval before listing")
		}
	})
}

func runLogout(ctx context.Context, c *cli, _ []string) error {
	if err := c.session.Logout(ctx); err != nil {
		return err
	}
	return c.emit(map[string]bool{"logged_out": true}, func(w io.Writer) { fmt.Fprintln(w, "logged out") })
}

func runWhoami(_ context.Context, c *cli, _ []string) error {
	user := c.session.CurrentUser()
	if user == nil {
		return domain.ErrAuthenticationRequired
	}
	return c.emit(user, func(w io.Writer) { printUsers(w, []domain.User{*user}) })
}

func runBrowse(ctx context.Context, c *cli, args []string) error {
	fs := newFlags("browse")
	category := fs.String("category", "", "category")
	listingType := fs.String("type", "", "direct or auction")
	minPrice := fs.String("min", "", "minimum price")
	maxPrice := fs.String("max", "", "maximum price")
	search := fs.String("search", "", "text search")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}

	filter := domain.ProductFilter{
		Category:    *category,
		ListingType: domain.ListingType(*listingType),
		Search:      *search,
	}
	var err error
	if filter.MinPrice, err = optionalAmount(*minPrice); err != nil {
		return err
	}
	if filter.MaxPrice, err = optionalAmount(*maxPrice); err != nil {
		return err
	}

	listings, err := c.market.Browse(ctx, filter)
	if err != nil {
		return err
	}
	return c.emit(listings, func(w io.Writer) { printListings(w, listings) })
}

func runShow(ctx context.Context, c *cli, args []string) error {
	id, err := singleID(newFlags("show"), args)
	if err != nil {
		return err
	}
	snap, err := c.market.Listing(ctx, id)
	if err != nil {
		return err
	}
	return c.emit(snapshotJSON(snap), func(w io.Writer) { printSnapshot(w, snap) })
}

func runBid(ctx context.Context, c *cli, args []string) error {
	pos, err := parseArgs(newFlags("bid"), args)
	if err != nil {
		return err
	}
	if len(pos) != 2 {
		return errUsage
	}
	amount, err := parseAmount(pos[1])
	if err != nil {
		return err
	}

	bid, err := c.market.PlaceBid(ctx, domain.ID(pos[0]), amount)
	if err != nil {
		return err
	}
	return c.emit(bid, func(w io.Writer) { fmt.Fprintf(w, "bid of %s placed on %s\n", bid.Amount, pos[0]) })
}

func runBuy(ctx context.Context, c *cli, args []string) error {
	id, err := singleID(newFlags("buy"), args)
	if err != nil {
		return err
	}
	result, err := c.market.Buy(ctx, id)
	if err != nil {
		return err
	}
	return c.emit(result, func(w io.Writer) { fmt.Fprintf(w, "%s (transaction %s)\n", result.Message, result.TransactionID) })
}

func runClose(ctx context.Context, c *cli, args []string) error {
	id, err := singleID(newFlags("close"), args)
	if err != nil {
		return err
	}
	result, err := c.market.CloseAuction(ctx, id)
	if err != nil {
		return err
	}
	return c.emit(result, func(w io.Writer) {
		if result.WinnerID != "" {
			fmt.Fprintf(w, "%s (winner %s)\n", result.Message, result.WinnerID)
			return
		}
		fmt.Fprintln(w, result.Message)
	})
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func runCreate(ctx context.Context, c *cli, args []string) error {
	req, images, err := parseCreate(args, time.Now())
	if err != nil {
		return err
	}
	listing, err := c.market.CreateListing(ctx, *req, images)
	if err != nil {
		return err
	}
	return c.emit(listing, func(w io.Writer) { printListings(w, []domain.Listing{*listing}) })
}

// parseCreate builds the listing request; -end takes an RFC 3339 time or a
// duration from now.
func parseCreate(args []string, now time.Time) (*domain.CreateListingRequest, []string, error) {
	fs := newFlags("create")
	var images, imageURLs stringList
	title := fs.String("title", "", "title")
	description := fs.String("description", "", "description")
	category := fs.String("category", "", "category")
	listingType := fs.String("type", string(domain.ListingDirect), "direct or auction")
	price := fs.String("price", "", "price of a direct listing")
	stock := fs.Int("stock", 0, "units in stock of a direct listing")
	startBid := fs.String("start-bid", "", "starting bid of an auction")
	increment := fs.String("increment", "", "minimum bid increment of an auction")
	end := fs.String("end", "", "auction end, RFC 3339 or a duration such as 72h")
	fs.Var(&images, "image", "local image file to upload (repeatable)")
	fs.Var(&imageURLs, "image-url", "already hosted image URL (repeatable)")
	if _, err := parseArgs(fs, args); err != nil {
		return nil, nil, err
	}

	req := &domain.CreateListingRequest{
		Title:       *title,
		Description: *description,
		Category:    *category,
		Images:      []string(imageURLs),
		ListingType: domain.ListingType(*listingType),
	}
	var err error
	if req.Price, err = optionalAmount(*price); err != nil {
		return nil, nil, err
	}
	if req.StartBid, err = optionalAmount(*startBid); err != nil {
		return nil, nil, err
	}
	if req.MinBidIncrement, err = optionalAmount(*increment); err != nil {
		return nil, nil, err
	}
	if *stock != 0 {
		req.Stock = stock
	}
	if *end != "" {
		var ts domain.Timestamp
		if d, derr := time.ParseDuration(*end); derr == nil {
			ts = domain.NewTimestamp(now.Add(d))
		} else if ts, err = domain.ParseTimestamp(*end); err != nil {
			return nil, nil, domain.NewValidationError(fmt.Sprintf("invalid -end %q", *end))
		}
		req.EndTime = &ts
	}
	return req, []string(images), nil
}

func runDashboard(ctx context.Context, c *cli, _ []string) error {
	dash, err := c.market.Dashboard(ctx)
	if err != nil {
		return err
	}
	return c.emit(dash, func(w io.Writer) { printDashboard(w, dash) })
}

func runUsers(ctx context.Context, c *cli, args []string) error {
	fs := newFlags("users")
	pending := fs.Bool("pending", false, "only accounts awaiting approval")
	if _, err := parseArgs(fs, args); err != nil {
		return err
	}

	var (
		users []domain.User
		err   error
	)
	if *pending {
		users, err = c.market.PendingUsers(ctx)
	} else {
		users, err = c.market.AllUsers(ctx)
	}
	if err != nil {
		return err
	}
	return c.emit(users, func(w io.Writer) { printUsers(w, users) })
}

func runApprove(ctx context.Context, c *cli, args []string) error {
	id, err := singleID(newFlags("approve"), args)
	if err != nil {
		return err
	}
	result, err := c.market.ApproveUser(ctx, id)
	if err != nil {
		return err
	}
	return c.emit(result, func(w io.Writer) { fmt.Fprintln(w, result.Message) })
}

// runWatch follows one auction through a reconciler until it closes, the
// snapshot cannot load, or the command is interrupted.
func runWatch(ctx context.Context, c *cli, args []string) error {
	fs := newFlags("watch")
	duration := fs.Duration("for", 0, "stop after this long (default: until interrupted)")
	interactive := fs.Bool("interactive", false, "read bid amounts from stdin, one per line")
	id, err := singleID(fs, args)
	if err != nil {
		return err
	}
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	dialer, err := app.NewStreamDialer(c.cfg, c.api, c.log)
	if err != nil {
		return err
	}
	rc := app.ReconcilerConfig(c.cfg.Stream)
	rc.AutoAttach = true
	r := services.NewReconciler(c.api, dialer, c.api, rc, c.log)
	defer r.Close()

	sub := r.Subscribe(c.cfg.Stream.SubscriberBuffer)
	defer sub.Unsubscribe()
	if err := r.Initialize(id); err != nil {
		return err
	}
	if *interactive {
		go c.bidLoop(ctx, r)
	}
	return c.follow(ctx, sub.Updates())
}

func (c *cli) follow(ctx context.Context, updates <-chan domain.Update) error {
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil
			}
			return ctx.Err()
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			if err := c.emitUpdate(u); err != nil {
				return err
			}
			switch u.Kind {
			case domain.UpdateSnapshotUnavailable:
				return u.Err
			case domain.UpdateClosed:
				return nil
			}
		}
	}
}

func (c *cli) bidLoop(ctx context.Context, r *services.Reconciler) {
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		amount, err := parseAmount(line)
		if err == nil {
			_, err = r.SubmitBid(ctx, amount)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "bid refused: %s\n", domain.Reason(err))
			continue
		}
		fmt.Fprintf(os.Stderr, "bid of %s sent\n", amount)
	}
}

// runTail prints the accepted bids bidwatch publishes on the redis channel.
func runTail(ctx context.Context, c *cli, _ []string) error {
	rdb := c.rdb
	if rdb == nil {
		var err error
		if rdb, err = app.OpenRedis(ctx, c.cfg.Redis); err != nil {
			return err
		}
		if rdb == nil {
			return domain.NewValidationError("tail needs redis.enabled")
		}
		c.rdb = rdb
	}

	sub := redis.NewRedisEventSubscriber(rdb, c.cfg.Redis.Channel, c.log)
	err := sub.SubscribeToAcceptedBids(ctx, func(msg *redis.AcceptedBidMessage) error {
		return c.emit(msg, func(w io.Writer) {
			fmt.Fprintf(w, "%s  listing %s  %s bid %s\n",
				msg.PublishedAt.Local().Format(time.TimeOnly), msg.ListingID, msg.Bid.Username, msg.Bid.Amount)
		})
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
