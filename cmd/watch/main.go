// watch tails the household purchase list in a terminal, re-rendering
// whenever the server broadcasts a change.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fiberbendr/OurShopper/internal/client"
	"github.com/fiberbendr/OurShopper/internal/models"
	"github.com/fiberbendr/OurShopper/internal/util"
)

func main() {
	if err := mainInner(); err != nil {
		log.Fatal(err)
	}
}

func mainInner() error {
	addrVar := flag.String("addr", "http://localhost:8080", "base URL of the OurShopper server")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c := client.New(*addrVar, client.WithStatusFunc(func(s client.Status) {
		log.Printf("sync: %s", s)
	}))
	go c.Listen(ctx)

	t := time.NewTicker(time.Second)
	defer t.Stop()

	var last string
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			purchases, err := c.Purchases(ctx)
			if err != nil {
				log.Printf("fetch: %v", err)
				continue
			}
			out := render(purchases)
			if out != last {
				fmt.Fprint(os.Stdout, out)
				last = out
			}
		}
	}
}

func render(purchases []models.Purchase) string {
	var b strings.Builder
	fmt.Fprintf(&b, "---- %d purchases ----\n", len(purchases))
	for _, p := range purchases {
		prices := make([]string, len(p.LineItems))
		for i, item := range p.LineItems {
			prices[i] = item.Price
		}
		fmt.Fprintf(&b, "%s  %-25s %-12s $%s (%d items)\n",
			p.Date.Format("2006-01-02"), p.Place, p.PaymentType,
			util.SumPrices(prices), len(p.LineItems))
	}
	return b.String()
}
