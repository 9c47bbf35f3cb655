package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bytedance/sonic"

	domain "github.com/shoplist/shopping-gateway/internal/domain/shopping"
	"github.com/shoplist/shopping-gateway/internal/providers/http/client"
	"github.com/shoplist/shopping-gateway/internal/providers/shopping"
)

// Items added by the populate action
var breakfast = []domain.Item{
	{Name: "coffee", Quantity: 2},
	{Name: "bacon", Quantity: 1},
	{Name: "eggs", Quantity: 3},
}

type options struct {
	url      string
	action   string
	product  string
	quantity int
}

func main() {
	var opts options
	flag.StringVar(&opts.url, "url", "", "Shopping list backend base URL (required)")
	flag.StringVar(&opts.action, "action", "get", "One of get, add, remove, populate")
	flag.StringVar(&opts.product, "product", "", "Product name for add and remove")
	flag.IntVar(&opts.quantity, "quantity", 1, "Quantity for add")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	if opts.url == "" {
		return fmt.Errorf("-url is required")
	}

	clientOpts := client.DefaultOptions()
	clientOpts.RetryCount = 3
	clientOpts.UserAgent = "shopping-cli/1.0"
	gw := shopping.NewGateway(client.New(clientOpts), opts.url, nil)

	switch opts.action {
	case "get":
	case "add":
		if err := gw.Add(ctx, domain.Item{Name: opts.product, Quantity: opts.quantity}); err != nil {
			return err
		}
	case "remove":
		if err := gw.Remove(ctx, opts.product); err != nil {
			return err
		}
	case "populate":
		for _, item := range breakfast {
			if err := gw.Add(ctx, item); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown action %q", opts.action)
	}

	items, err := gw.FetchList(ctx)
	if err != nil {
		return err
	}

	data, err := sonic.ConfigStd.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
