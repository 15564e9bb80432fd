// Package render draws list views as plain-text tables.
package render

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"user-order-console/internal/domain/order"
	"user-order-console/internal/domain/paging"
	"user-order-console/internal/domain/user"
	"user-order-console/internal/usecase/listing"
)

// Texts shared by every table.
const (
	NoResults   = "No results"
	Loading     = "Loading..."
	Placeholder = "—"
)

// column describes one table column.
type column[T any] struct {
	title string
	value func(T) string
}

var userColumns = []column[user.User]{
	{"ID", func(u user.User) string { return strconv.FormatInt(u.ID, 10) }},
	{"Name", func(u user.User) string { return u.Name }},
	{"Email", func(u user.User) string { return u.Email }},
	{"Created", func(u user.User) string { return u.CreatedAt.Display() }},
}

var orderColumns = []column[order.Order]{
	{"ID", func(o order.Order) string { return strconv.FormatInt(o.ID, 10) }},
	{"User", orderUser},
	{"Product", func(o order.Order) string { return o.ProductName }},
	{"Amount", func(o order.Order) string { return o.Amount.String() }},
	{"Created", func(o order.Order) string { return o.CreatedAt.Display() }},
}

func orderUser(o order.Order) string {
	if o.User == nil {
		return Placeholder
	}
	return fmt.Sprintf("%s <%s>", o.User.Name, o.User.Email)
}

// Users draws the users list view.
func Users(w io.Writer, s listing.State[user.User]) error {
	return view(w, userColumns, s)
}

// Orders draws the orders list view.
func Orders(w io.Writer, s listing.State[order.Order]) error {
	return view(w, orderColumns, s)
}

// UserOrders draws the orders of a single user without a pager.
func UserOrders(w io.Writer, items []order.Order, total int64) error {
	if err := table(w, orderColumns, items, false); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Total: %d\n", total)
	return err
}

// Footer returns the pager line. Before the first result arrives the page
// count reads 1 and the total 0.
func Footer[T any](page int64, result *paging.Page[T]) string {
	pages, total := int64(1), int64(0)
	if result != nil {
		pages, total = result.Pages, result.Total
	}
	return fmt.Sprintf("Page %d of %d — Total: %d", page, pages, total)
}

func view[T any](w io.Writer, cols []column[T], s listing.State[T]) error {
	var items []T
	if s.Result != nil {
		items = s.Result.Items
	}
	if err := table(w, cols, items, s.Loading); err != nil {
		return err
	}

	if s.Err != "" {
		if _, err := fmt.Fprintf(w, "! %s\n", s.Err); err != nil {
			return err
		}
	}
	if s.Query != "" {
		if _, err := fmt.Fprintf(w, "Search: %q\n", s.Query); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, Footer(s.Page, s.Result))
	return err
}

func table[T any](w io.Writer, cols []column[T], items []T, loading bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c.title)
	}
	fmt.Fprintln(tw)

	for _, it := range items {
		for i, c := range cols {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, c.value(it))
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	switch {
	case loading:
		_, err := fmt.Fprintln(w, Loading)
		return err
	case len(items) == 0:
		_, err := fmt.Fprintln(w, NoResults)
		return err
	}
	return nil
}
