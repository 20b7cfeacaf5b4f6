// cmd/timeline/main.go
package main

import (
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/shelfwatch/backend-go/internal/cache"
	"github.com/shelfwatch/backend-go/internal/config"
	"github.com/shelfwatch/backend-go/internal/repository/postgres"
	"github.com/shelfwatch/backend-go/internal/service"
	"github.com/shelfwatch/backend-go/internal/storage"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newProductFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "product",
		Usage:    "Product code",
		Required: true,
	}
}

func newTodayFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "today",
		Usage: "Render the calendar as of this date (YYYY-MM-DD)",
		Value: time.Now().Format("2006-01-02"),
	}
}

func buildService(c *cli.Context, withStorage bool) (*service.TimelineService, error) {
	db, err := sqlx.Connect("pgx", c.String("db-url"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	wrapped := postgres.Wrap(db)
	opts := []service.TimelineServiceOption{
		service.WithDefaultLeadTime(config.Load().App.DefaultLeadTimeDays),
	}

	if withStorage {
		cfg := config.Load()
		store, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			return nil, err
		}
		opts = append(opts, service.WithSnapshotStorage(store, cfg.App.SnapshotPrefix))
	}

	return service.NewTimelineService(
		postgres.NewProductRepository(wrapped),
		postgres.NewSalesHistoryRepository(wrapped),
		postgres.NewProjectionRepository(wrapped),
		postgres.NewPurchaseOrderRepository(wrapped),
		cache.NewNoopTimelineCache(),
		opts...,
	), nil
}

func parseTodayFlag(c *cli.Context) (time.Time, error) {
	today, err := time.Parse("2006-01-02", c.String("today"))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --today value: %w", err)
	}
	return today, nil
}

func runCompute(c *cli.Context) error {
	svc, err := buildService(c, false)
	if err != nil {
		return err
	}

	today, err := parseTodayFlag(c)
	if err != nil {
		return err
	}

	result, err := svc.Timeline(c.Context, c.String("product"), today)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tDAY\tSTOCK\tSOLD\tALERT\tNOTE")
	for _, entry := range result.Entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			entry.Date.Format("2006-01-02"),
			entry.Day,
			formatInt(entry.RemainingStock),
			formatFloat(entry.UnitsSold),
			entry.AlertType,
			entry.Note,
		)
	}
	w.Flush()

	if result.Trigger != nil {
		qty := "N/A"
		if result.Trigger.RequiredOrderQuantity != nil {
			qty = fmt.Sprintf("%d", *result.Trigger.RequiredOrderQuantity)
		}
		fmt.Printf("\nPlace order by %s (quantity: %s)\n",
			result.Trigger.PlaceOrderDate.Format("2006-01-02"), qty)
	} else {
		fmt.Println("\nNo reorder required on the current horizon")
	}

	return nil
}

func runExport(c *cli.Context) error {
	svc, err := buildService(c, true)
	if err != nil {
		return err
	}

	today, err := parseTodayFlag(c)
	if err != nil {
		return err
	}

	key, err := svc.ExportSnapshot(c.Context, c.String("product"), today)
	if err != nil {
		return err
	}

	fmt.Printf("Snapshot uploaded: %s\n", key)
	return nil
}

func runSnapshots(c *cli.Context) error {
	svc, err := buildService(c, true)
	if err != nil {
		return err
	}

	objects, err := svc.ListSnapshots(c.Context, c.String("product"))
	if err != nil {
		return err
	}

	if len(objects) == 0 {
		fmt.Println("No snapshots uploaded for this product")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tSIZE")
	for _, obj := range objects {
		fmt.Fprintf(w, "%s\t%d\n", obj.Key, obj.Size)
	}
	return w.Flush()
}

func runRefresh(c *cli.Context) error {
	svc, err := buildService(c, false)
	if err != nil {
		return err
	}

	if err := svc.Refresh(c.Context, c.String("product")); err != nil {
		return err
	}

	fmt.Println("Refresh requested")
	return nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "timeline",
		Usage: "Inspect and manage product depletion timelines",
		Commands: []*cli.Command{
			{
				Name:   "compute",
				Usage:  "Print the merged depletion timeline for a product",
				Flags:  []cli.Flag{newDBURLFlag(), newProductFlag(), newTodayFlag()},
				Action: runCompute,
			},
			{
				Name:   "export",
				Usage:  "Upload a CSV snapshot of the timeline to object storage",
				Flags:  []cli.Flag{newDBURLFlag(), newProductFlag(), newTodayFlag()},
				Action: runExport,
			},
			{
				Name:   "snapshots",
				Usage:  "List uploaded CSV snapshots for a product",
				Flags:  []cli.Flag{newDBURLFlag(), newProductFlag()},
				Action: runSnapshots,
			},
			{
				Name:   "refresh",
				Usage:  "Ask the report generator to regenerate a product's projections",
				Flags:  []cli.Flag{newDBURLFlag(), newProductFlag()},
				Action: runRefresh,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func formatInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func formatFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}
