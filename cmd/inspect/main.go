package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"muebles-catalog/internal/client"
	"muebles-catalog/internal/config"
	"muebles-catalog/internal/database"
	"muebles-catalog/internal/logger"
	"muebles-catalog/internal/model"
	"muebles-catalog/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/errgroup"
)

const usage = `usage: inspect <command> [flags]

commands:
  ping                       check MongoDB connectivity
  collections                list collections with document counts
  users [-rol R]             list users without password hashes
  products [-tipo T]         list products through the REST API
  verify-duplicate [-keep]   POST one product twice and check the second is rejected
  duplicates                 list nombre values stored more than once
`

type command func(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error

var commands = map[string]command{
	"ping":             runPing,
	"collections":      runCollections,
	"users":            runUsers,
	"products":         runProducts,
	"verify-duplicate": runVerifyDuplicate,
	"duplicates":       runDuplicates,
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	logger.Instance()
	cfg := config.Instance()

	if err := cmd(ctx, cfg, os.Args[2:], os.Stdout); err != nil {
		logger.Error(ctx, "inspect "+os.Args[1]+" failed", logger.Err(err))
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func withMongo(ctx context.Context, cfg *config.Config, fn func(db *database.Mongo) error) error {
	db, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return err
	}
	defer db.Close(context.WithoutCancel(ctx))
	return fn(db)
}

func runPing(ctx context.Context, cfg *config.Config, _ []string, out io.Writer) error {
	return withMongo(ctx, cfg, func(db *database.Mongo) error {
		start := time.Now()
		if err := db.Ping(ctx); err != nil {
			return err
		}
		fmt.Fprintf(out, "ok %s/%s in %s\n", hostOf(cfg.MongoURI), cfg.MongoDBName, time.Since(start).Round(time.Millisecond))
		return nil
	})
}

func runCollections(ctx context.Context, cfg *config.Config, _ []string, out io.Writer) error {
	return withMongo(ctx, cfg, func(db *database.Mongo) error {
		names, err := db.Database.ListCollectionNames(ctx, bson.D{})
		if err != nil {
			return fmt.Errorf("list collections: %w", err)
		}
		sort.Strings(names)

		counts := make([]int64, len(names))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(4)
		for i, name := range names {
			g.Go(func() error {
				n, err := db.Database.Collection(name).CountDocuments(gctx, bson.D{})
				if err != nil {
					return fmt.Errorf("count %s: %w", name, err)
				}
				counts[i] = n
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "COLLECTION\tDOCUMENTS")
		for i, name := range names {
			fmt.Fprintf(tw, "%s\t%d\n", name, counts[i])
		}
		return tw.Flush()
	})
}

func runUsers(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("users", flag.ContinueOnError)
	rol := fs.String("rol", "", "only users with this rol")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withMongo(ctx, cfg, func(db *database.Mongo) error {
		users, err := repository.NewUserRepository(db.Database).FindAll(ctx, *rol)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tROL")
		for _, u := range users {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID.Hex(), u.Username, u.Email, u.Rol)
		}
		return tw.Flush()
	})
}

func runProducts(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("products", flag.ContinueOnError)
	tipo := fs.String("tipo", "", "only products of this tipo")
	baseURL := fs.String("api", cfg.APIBaseURL, "catalog API base URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	products, err := client.NewHTTPClient(*baseURL, 10*time.Second).ListProducts(ctx, *tipo)
	if err != nil {
		return err
	}
	printProducts(out, products)
	return nil
}

func printProducts(out io.Writer, products []model.Product) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNOMBRE\tCATEGORIA\tCODIGO\tTIPO\tPRECIO")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.2f\n", p.ID.Hex(), p.Nombre, p.Categoria, p.Codigo, p.Tipo, p.PrecioVenta)
	}
	tw.Flush()
	fmt.Fprintf(out, "%d producto(s)\n", len(products))
}

// verifyResult is what verify-duplicate observed for each of its two POSTs.
type verifyResult struct {
	FirstStatus  int
	SecondStatus int
	CreatedIDs   []string
}

func (r verifyResult) Rejected() bool {
	return r.SecondStatus >= 400 && r.SecondStatus < 500
}

func verifyDuplicate(ctx context.Context, c *client.HTTPClient, in model.ProductInput) (verifyResult, error) {
	var res verifyResult

	first, err := c.CreateProduct(ctx, in)
	if err != nil {
		return res, err
	}
	res.FirstStatus = first.StatusCode
	if !first.IsSuccess() {
		return res, fmt.Errorf("first create rejected: %w", first.APIError())
	}
	res.CreatedIDs = append(res.CreatedIDs, first.Data.ID.Hex())

	again := in
	again.Codigo = in.Codigo + "-B"
	again.Color = "azul"
	second, err := c.CreateProduct(ctx, again)
	if err != nil {
		return res, err
	}
	res.SecondStatus = second.StatusCode
	if second.IsSuccess() {
		res.CreatedIDs = append(res.CreatedIDs, second.Data.ID.Hex())
	}
	return res, nil
}

func runVerifyDuplicate(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("verify-duplicate", flag.ContinueOnError)
	baseURL := fs.String("api", cfg.APIBaseURL, "catalog API base URL")
	nombre := fs.String("nombre", "", "product name to check with (default: a random one)")
	keep := fs.Bool("keep", false, "keep the created product instead of deleting it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *nombre == "" {
		*nombre = "inspect-" + strings.SplitN(uuid.NewString(), "-", 2)[0]
	}

	c := client.NewHTTPClient(*baseURL, 10*time.Second)
	res, err := verifyDuplicate(ctx, c, model.ProductInput{
		Nombre:    *nombre,
		Color:     "rojo",
		Categoria: "sillas",
		Codigo:    "S-1",
		Tipo:      "Producto Terminado",
	})

	if !*keep {
		for _, id := range res.CreatedIDs {
			if delErr := c.DeleteProduct(ctx, id); delErr != nil {
				err = errors.Join(err, fmt.Errorf("delete test product %s: %w", id, delErr))
			}
		}
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "first POST %d, second POST %d\n", res.FirstStatus, res.SecondStatus)
	if !res.Rejected() {
		return fmt.Errorf("duplicate nombre %q was not rejected with 4xx", *nombre)
	}
	fmt.Fprintf(out, "ok duplicate nombre %q rejected\n", *nombre)
	return nil
}

func runDuplicates(ctx context.Context, cfg *config.Config, _ []string, out io.Writer) error {
	return withMongo(ctx, cfg, func(db *database.Mongo) error {
		dups, err := repository.NewProductRepository(db.Database).FindDuplicateNames(ctx)
		if err != nil {
			return err
		}
		if len(dups) == 0 {
			fmt.Fprintln(out, "no duplicated nombre values")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NOMBRE\tCOUNT\tIDS")
		for _, d := range dups {
			ids := make([]string, len(d.IDs))
			for i, id := range d.IDs {
				ids[i] = id.Hex()
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\n", d.Nombre, d.Count, strings.Join(ids, ","))
		}
		return tw.Flush()
	})
}

// hostOf strips credentials from a connection string for display.
func hostOf(uri string) string {
	rest := uri
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	if i := strings.LastIndex(rest, "@"); i >= 0 {
		rest = rest[i+1:]
	}
	if i := strings.IndexAny(rest, "/?"); i >= 0 {
		rest = rest[:i]
	}
	return rest
}
