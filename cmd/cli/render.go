package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"storefront/internal/cart"
	"storefront/pkg/models"
)

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// renderCart prints a reconciled cart the way the cart page shows it.
func renderCart(w io.Writer, res cart.Result) {
	if len(res.Lines) == 0 {
		fmt.Fprintln(w, "Cart is empty")
		return
	}
	hidden := make(map[string]bool, len(res.HiddenPriceProducts))
	for _, id := range res.HiddenPriceProducts {
		hidden[id] = true
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tITEM\tVARIANT\tQTY\tSTOCK\tPRICE")
	for i, l := range res.Lines {
		price := cart.FormatMoney(l.Price)
		if hidden[l.ID] {
			price = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%s\n", i, l.Title, variant(l), l.Quantity, l.Stock, price)
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "\nItems: %d\n", res.ItemCount)
	fmt.Fprintf(w, "Subtotal: %s\n", cart.FormatMoney(res.Subtotal))
	if res.FreeDelivery.Free {
		fmt.Fprintf(w, "Delivery: Free (%s)\n", res.FreeDelivery.Reason)
	} else {
		fmt.Fprintf(w, "Delivery (%s): %s\n", res.DeliveryChoice, cart.FormatMoney(res.ShippingFee))
	}
	fmt.Fprintf(w, "Total: %s\n", cart.FormatMoney(res.Total))
	if res.Dirty {
		fmt.Fprintln(w, "Note: quantities or stock were adjusted to current availability")
	}
	for _, warn := range res.Warnings {
		fmt.Fprintln(w, "warning:", warn)
	}
}

func variant(l models.CartLine) string {
	parts := make([]string, 0, 2)
	if l.Color != "" {
		parts = append(parts, l.Color)
	}
	if l.Size != "" {
		parts = append(parts, l.Size)
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " / ")
}

func renderProducts(w io.Writer, products []models.Product) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tVARIANTS\tCATEGORIES")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%v\t%d\t%s\n", p.ID, p.Title, p.Price, len(p.Variants), strings.Join(p.Categories, ","))
	}
	_ = tw.Flush()
}
