package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"marketplace-client/internal/domain"
	"marketplace-client/internal/services"
)

// emit writes v as indented JSON or hands a tab writer to text.
func (c *cli) emit(v interface{}, text func(w io.Writer)) error {
	if c.format == "json" {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}

func (c *cli) emitUpdate(u domain.Update) error {
	if c.format == "json" {
		return c.emit(services.NewMirrorMessage(u.View.ListingID, u), nil)
	}
	return c.emit(nil, func(w io.Writer) { printUpdate(w, u) })
}

type snapshotOutput struct {
	Listing   *domain.Listing    `json:"listing"`
	Bids      []domain.BidRecord `json:"bids"`
	FetchedAt domain.Timestamp   `json:"fetched_at"`
}

func snapshotJSON(s *domain.Snapshot) snapshotOutput {
	return snapshotOutput{Listing: s.Listing, Bids: s.Bids, FetchedAt: s.FetchedAt}
}

func printListings(w io.Writer, listings []domain.Listing) {
	fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tTITLE\tCATEGORY\tPRICE")
	for _, l := range listings {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", l.ID, l.ListingType, l.Status, l.Title, l.Category, priceOf(&l))
	}
	if len(listings) == 0 {
		fmt.Fprintln(w, "(no listings)")
	}
}

// priceOf shows the buy price of a direct listing or the current bid of an
// auction.
func priceOf(l *domain.Listing) string {
	if l.IsAuction() {
		if l.CurrentHighestBid.IsPositive() {
			return l.CurrentHighestBid.StringFixed(2) + " (bid)"
		}
		if l.StartBid != nil {
			return l.StartBid.StringFixed(2) + " (start)"
		}
		return "-"
	}
	if l.Price == nil {
		return "-"
	}
	return l.Price.StringFixed(2)
}

func printSnapshot(w io.Writer, s *domain.Snapshot) {
	l := s.Listing
	fmt.Fprintf(w, "%s\t%s\n", l.Title, l.Status)
	fmt.Fprintf(w, "category\t%s\n", l.Category)
	fmt.Fprintf(w, "type\t%s\n", l.ListingType)
	fmt.Fprintf(w, "price\t%s\n", priceOf(l))
	if l.IsAuction() {
		fmt.Fprintf(w, "increment\t%s\n", l.MinBidIncrement.StringFixed(2))
		if l.EndTime != nil {
			fmt.Fprintf(w, "ends\t%s\n", l.EndTime.Local().Format(time.RFC1123))
		}
	} else if l.Stock > 0 {
		fmt.Fprintf(w, "stock\t%d\n", l.Stock)
	}
	fmt.Fprintln(w, l.Description)
	if l.IsAuction() {
		fmt.Fprintln(w)
		printBids(w, s.Bids)
	}
}

func printBids(w io.Writer, bids []domain.BidRecord) {
	fmt.Fprintln(w, "TIME\tBIDDER\tAMOUNT")
	for _, b := range bids {
		fmt.Fprintf(w, "%s\t%s\t%s\n", b.Timestamp.Local().Format(time.DateTime), b.Username, b.Amount.StringFixed(2))
	}
	if len(bids) == 0 {
		fmt.Fprintln(w, "(no bids yet)")
	}
}

func printUsers(w io.Writer, users []domain.User) {
	fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLE\tAPPROVED")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", u.ID, u.Username, u.Email, u.Role, u.IsApproved)
	}
}

func printDashboard(w io.Writer, d *services.Dashboard) {
	if d.User != nil {
		fmt.Fprintf(w, "%s (%s)\n\n", d.User.Username, d.User.Role)
	}
	fmt.Fprintf(w, "orders: %d\n", len(d.Orders))
	for _, o := range d.Orders {
		fmt.Fprintf(w, "  %s\tlisting %s\t%s\t%s\n", o.ID, o.ProductID, o.TotalAmount.StringFixed(2), o.Status)
	}
	fmt.Fprintf(w, "bids: %d\n", len(d.Bids))
	for _, b := range d.Bids {
		fmt.Fprintf(w, "  listing %s\t%s\t%s\n", b.ProductID, b.Amount.StringFixed(2), b.Timestamp.Local().Format(time.DateTime))
	}
	if d.Products != nil {
		fmt.Fprintf(w, "products: %d\n", len(d.Products))
		for _, p := range d.Products {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", p.ID, p.Title, p.Status, priceOf(&p))
		}
	}
}

func printUpdate(w io.Writer, u domain.Update) {
	v := u.View
	switch u.Kind {
	case domain.UpdateSnapshotLoaded:
		title := string(v.ListingID)
		if v.Listing != nil {
			title = v.Listing.Title
		}
		fmt.Fprintf(w, "%s: highest %s, next bid at least %s, %d bids\n",
			title, v.HighestBid.StringFixed(2), v.MinimumNextBid.StringFixed(2), len(v.Ledger))
	case domain.UpdateSnapshotUnavailable:
		fmt.Fprintf(w, "snapshot unavailable: %s\n", domain.Reason(u.Err))
	case domain.UpdateBidAccepted:
		if u.Bid != nil {
			fmt.Fprintf(w, "%s\t%s\t%s\tnext >= %s\n", u.Bid.Timestamp.Local().Format(time.TimeOnly),
				u.Bid.Username, u.Bid.Amount.StringFixed(2), v.MinimumNextBid.StringFixed(2))
		}
	case domain.UpdateStreamState:
		if v.LastError != "" {
			fmt.Fprintf(w, "stream %s: %s\n", v.StreamState, v.LastError)
			return
		}
		fmt.Fprintf(w, "stream %s\n", v.StreamState)
	case domain.UpdateResynced:
		fmt.Fprintf(w, "resynced: highest %s, %d bids\n", v.HighestBid.StringFixed(2), len(v.Ledger))
	case domain.UpdateClosed:
		fmt.Fprintln(w, "closed")
	}
}
