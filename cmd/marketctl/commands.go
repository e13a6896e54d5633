package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/labs/fleamarket/internal/apperrors"
	"github.com/labs/fleamarket/internal/client"
	"github.com/labs/fleamarket/internal/models"
	"github.com/labs/fleamarket/internal/reconcile"
	"github.com/labs/fleamarket/internal/session"
	"github.com/labs/fleamarket/internal/viewstate"
)

func (a *app) run(ctx context.Context, command string, rest []string) error {
	switch command {
	case "login":
		if len(rest) != 2 {
			return fmt.Errorf("login needs <email> <password>")
		}
		return a.login(ctx, rest[0], rest[1])
	case "logout":
		return a.sessions.SignOut()
	case "whoami":
		s, ok := a.sessions.Current()
		if !ok {
			fmt.Println("not signed in")
			return nil
		}
		fmt.Printf("%s <%s> %s\n", s.Name, s.Email, s.Role)
		return nil
	case "items":
		return a.items(ctx)
	case "item":
		id, err := argID(rest, "item")
		if err != nil {
			return err
		}
		return a.item(ctx, id)
	case "sell":
		return a.sell(ctx)
	case "bid":
		if len(rest) != 2 {
			return fmt.Errorf("bid needs <item-id> <amount>")
		}
		id, err := uuid.Parse(rest[0])
		if err != nil {
			return fmt.Errorf("invalid item id: %w", err)
		}
		amount, err := strconv.ParseFloat(rest[1], 64)
		if err != nil {
			return fmt.Errorf("invalid amount: %w", err)
		}
		return a.bid(ctx, id, amount)
	case "bids":
		id, err := argID(rest, "item")
		if err != nil {
			return err
		}
		return a.bids(ctx, id)
	case "drafts":
		return a.drafts(ctx)
	case "retry":
		return a.retry(ctx, rest)
	case "discard":
		id, err := argID(rest, "draft")
		if err != nil {
			return err
		}
		return a.repo.DiscardDraft(ctx, id)
	case "notifications":
		return a.notifications(ctx)
	case "read", "unread":
		id, err := argID(rest, "notification")
		if err != nil {
			return err
		}
		if command == "read" {
			return a.repo.MarkRead(ctx, id)
		}
		return a.repo.MarkUnread(ctx, id)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func argID(rest []string, what string) (uuid.UUID, error) {
	if len(rest) != 1 {
		return uuid.Nil, fmt.Errorf("expected <%s-id>", what)
	}
	id, err := uuid.Parse(rest[0])
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id: %w", what, err)
	}
	return id, nil
}

func (a *app) login(ctx context.Context, email, password string) error {
	result, err := a.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return a.sessions.SignIn(session.Session{
		UserID: result.User.ID,
		Token:  result.Token,
		Email:  result.User.Email,
		Name:   result.User.FullName(),
		Role:   result.User.Role,
	})
}

// load runs fetch through the view state reducer, so the command prints the
// same notices a screen would show.
func load[T any](fetch func() (T, viewstate.Source, error)) viewstate.State[T] {
	state := viewstate.Reduce[T](viewstate.State[T]{}, viewstate.Started[T]{})
	data, source, err := fetch()
	if err != nil {
		return viewstate.Reduce[T](state, viewstate.Failed[T]{Err: err})
	}
	return viewstate.Reduce[T](state, viewstate.Loaded[T]{Data: data, Source: source})
}

func report[T any](state viewstate.State[T]) error {
	if state.Message != "" {
		fmt.Fprintln(os.Stderr, state.Message)
	}
	return state.Err
}

func (a *app) items(ctx context.Context) error {
	state := load(func() ([]models.Item, viewstate.Source, error) {
		var (
			list *reconcile.ItemList
			err  error
		)
		switch {
		case a.args.Search != "":
			list, err = a.repo.Search(ctx, a.args.Search)
		case a.args.Category != 0:
			list, err = a.repo.GetItemsByCategory(ctx, a.args.Category)
		default:
			list, err = a.repo.GetFeaturedItems(ctx)
		}
		if err != nil {
			return nil, "", err
		}
		return list.Items, list.Source, nil
	})
	if state.Status == viewstate.Success {
		printItems(state.Data)
	}
	return report(state)
}

func (a *app) item(ctx context.Context, id uuid.UUID) error {
	state := load(func() (*models.Item, viewstate.Source, error) {
		return a.repo.GetItem(ctx, id)
	})
	if state.Status == viewstate.Success {
		printItems([]models.Item{*state.Data})
		if state.Data.Description != "" {
			fmt.Println()
			fmt.Println(state.Data.Description)
		}
	}
	return report(state)
}

func (a *app) sell(ctx context.Context) error {
	input := client.ItemInput{
		Title:          a.args.Title,
		Description:    a.args.Desc,
		ItemType:       models.ItemTypeFixedPrice,
		Images:         a.args.Images,
		PickupLocation: a.args.Pickup,
	}
	if a.args.Category != 0 {
		category := a.args.Category
		input.CategoryID = &category
	}
	switch {
	case a.args.StartBid > 0:
		input.ItemType = models.ItemTypeAuction
		startingBid := a.args.StartBid
		input.StartingBid = &startingBid
	case a.args.Price > 0:
		price := a.args.Price
		input.Price = &price
	default:
		return fmt.Errorf("sell needs --price or --starting-bid")
	}

	item, err := a.repo.CreateItem(ctx, input)
	if err != nil {
		if client.IsOffline(err) {
			fmt.Fprintln(os.Stderr, "Saved as a draft; run `marketctl retry` when back online.")
		}
		return err
	}
	fmt.Printf("listed %s (%s)\n", item.ID, item.Status)
	return nil
}

func (a *app) bid(ctx context.Context, itemID uuid.UUID, amount float64) error {
	bid, err := a.repo.PlaceBid(ctx, itemID, amount)
	if err != nil {
		if client.IsOffline(err) {
			fmt.Fprintln(os.Stderr, "Bid kept on this device; it was not delivered.")
		}
		if apperrors.IsDomain(err) {
			return fmt.Errorf("%s", viewstate.Message(err))
		}
		return err
	}
	fmt.Printf("bid %.2f accepted at %s\n", bid.Amount, bid.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func (a *app) bids(ctx context.Context, itemID uuid.UUID) error {
	state := load(func() (*reconcile.BidList, viewstate.Source, error) {
		list, err := a.repo.ListBids(ctx, itemID)
		if err != nil {
			return nil, "", err
		}
		return list, list.Source, nil
	})
	if state.Status == viewstate.Success {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "AMOUNT\tBIDDER\tTIME\tSTATE")
		for _, bid := range state.Data.Bids {
			fmt.Fprintf(w, "%.2f\t%s\t%s\t\n", bid.Amount, bid.BidderName, bid.Timestamp.Format("2006-01-02 15:04"))
		}
		for _, bid := range state.Data.Drafts {
			fmt.Fprintf(w, "%.2f\t%s\t%s\tpending\n", bid.Amount, bid.BidderName, bid.Timestamp.Format("2006-01-02 15:04"))
		}
		w.Flush()
	}
	return report(state)
}

func (a *app) drafts(ctx context.Context) error {
	drafts, err := a.repo.Drafts(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DRAFT\tKIND\tTITLE\tLAST ERROR")
	for _, d := range drafts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.ID, d.Kind, d.Title, d.SyncError)
	}
	return w.Flush()
}

func (a *app) retry(ctx context.Context, rest []string) error {
	if len(rest) == 1 {
		id, err := uuid.Parse(rest[0])
		if err != nil {
			return fmt.Errorf("invalid draft id: %w", err)
		}
		item, err := a.repo.RetryDraft(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("synced %s\n", item.ID)
		return nil
	}

	results, err := a.repo.RetryAll(ctx)
	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("%s\tfailed: %s\n", r.DraftID, viewstate.Message(r.Err))
			continue
		}
		fmt.Printf("%s\tsynced as %s\n", r.DraftID, r.Item.ID)
	}
	return err
}

func (a *app) notifications(ctx context.Context) error {
	notifications, err := a.repo.ListNotifications(ctx, a.args.UnreadOnly)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tREAD\tTITLE\tMESSAGE")
	for _, n := range notifications {
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n", n.ID, n.Type, n.Read, n.Title, n.Message)
	}
	return w.Flush()
}

func printItems(items []models.Item) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tTYPE\tPRICE\tSTATUS\tPICKUP")
	for _, item := range items {
		price := "-"
		switch {
		case item.Price != nil:
			price = fmt.Sprintf("%.2f", *item.Price)
		case item.IsAuction():
			price = fmt.Sprintf("%.2f (bid)", item.MinimumBid())
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", item.ID, item.Title, item.ItemType, price, item.Status, item.PickupLocation)
	}
	w.Flush()
}
