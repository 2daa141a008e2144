// Command posadmin runs maintenance tasks against the POS database.
//
//	posadmin migrate [-down]
//	posadmin add-user -name Nimal -pin 1234
//	posadmin seed
//	posadmin tail-events [-group posadmin]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"wildcafe-pos/internal/apperr"
	"wildcafe-pos/internal/catalog"
	"wildcafe-pos/internal/config"
	"wildcafe-pos/internal/database"
	"wildcafe-pos/internal/database/migrations"
	"wildcafe-pos/internal/events"
	"wildcafe-pos/internal/kafka"
	"wildcafe-pos/internal/logger"
	"wildcafe-pos/internal/models"
	"wildcafe-pos/internal/users"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: posadmin <migrate|add-user|seed|tail-events> [flags]")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	cfg := config.Load()
	log := logger.New(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "migrate":
		err = migrate(ctx, cfg, log, os.Args[2:])
	case "add-user":
		err = addUser(ctx, cfg, log, os.Args[2:])
	case "seed":
		err = seed(ctx, cfg, log)
	case "tail-events":
		err = tailEvents(ctx, cfg, log, os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "posadmin %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func migrate(ctx context.Context, cfg *config.Config, log *logger.Logger, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	down := fs.Bool("down", false, "roll back every migration (Postgres only)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer bunDB.Close()

	if !database.UsesMigrations(cfg.Database.Driver) {
		if *down {
			return fmt.Errorf("-down needs a Postgres driver, got %s", cfg.Database.Driver)
		}
		return database.CreateSchema(ctx, bunDB)
	}
	runner := migrations.NewRunner(bunDB, log)
	if err := runner.Initialize(); err != nil {
		return err
	}
	defer runner.Close()
	if *down {
		err = runner.Down()
	} else {
		err = runner.Up()
	}
	if err != nil {
		return err
	}
	version, dirty, err := runner.Version()
	if err != nil {
		return err
	}
	fmt.Printf("schema version %d (dirty=%t)\n", version, dirty)
	return nil
}

func addUser(ctx context.Context, cfg *config.Config, log *logger.Logger, args []string) error {
	fs := flag.NewFlagSet("add-user", flag.ExitOnError)
	name := fs.String("name", "", "cashier name")
	pin := fs.String("pin", "", "login PIN")
	if err := fs.Parse(args); err != nil {
		return err
	}

	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer bunDB.Close()

	u, err := users.NewService(bunDB, log).CreateUser(ctx, *name, *pin)
	if err != nil {
		return err
	}
	fmt.Printf("created user #%d %s\n", u.ID, u.Name)
	return nil
}

var (
	demoCategories = []string{"Drinks", "Mains", "Desserts"}
	demoTables     = []string{"Table 1", "Table 2", "Table 3", "Garden 1", "Garden 2"}
)

var demoProducts = []models.ProductInput{
	{Name: "Ceylon Tea", Code: "D01", Category: "Drinks", Price: 250, IconClass: "fas fa-mug-hot"},
	{Name: "Iced Coffee", Code: "D02", Category: "Drinks", Price: 650, IconClass: "fas fa-glass-whiskey"},
	{Name: "Chicken Kottu", Code: "M01", Category: "Mains", Price: 1450},
	{Name: "Rice & Curry", Code: "M02", Category: "Mains", Price: 1200},
	{Name: "Watalappan", Code: "S01", Category: "Desserts", Price: 550, IconClass: "fas fa-ice-cream"},
}

// seed loads a small demo menu. Rows that already exist are skipped.
func seed(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer bunDB.Close()

	if err := seedDemo(ctx, catalog.NewService(bunDB, nil, log)); err != nil {
		return err
	}
	fmt.Println("demo data loaded")
	return nil
}

func seedDemo(ctx context.Context, svc *catalog.Service) error {
	for _, name := range demoCategories {
		if _, err := svc.AddCategory(ctx, name); err != nil && !isConflict(err) {
			return err
		}
	}
	for _, name := range demoTables {
		if _, err := svc.AddTable(ctx, name); err != nil && !isConflict(err) {
			return err
		}
	}

	existing, err := svc.ListProducts(ctx)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, p := range existing {
		have[p.Name] = true
	}
	for _, in := range demoProducts {
		if have[in.Name] {
			continue
		}
		if _, err := svc.AddProduct(ctx, in); err != nil {
			return err
		}
	}
	return nil
}

func isConflict(err error) bool {
	return errors.Is(err, apperr.ErrConflict)
}

// tailEvents prints the event stream other tools consume from Kafka.
func tailEvents(ctx context.Context, cfg *config.Config, log *logger.Logger, args []string) error {
	fs := flag.NewFlagSet("tail-events", flag.ExitOnError)
	group := fs.String("group", "posadmin", "consumer group id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, *group, log)
	defer consumer.Close()

	return consumer.Start(ctx, func(ev *events.Event, sale *models.SaleRecord) {
		switch {
		case sale != nil:
			fmt.Printf("%s sale #%d %s %.2f (%s)\n", sale.PaidAt.Format("15:04:05"), sale.OrderID, sale.TableName, sale.Total, sale.PaymentMode)
		case ev != nil:
			fmt.Printf("%s %s\n", ev.At.Format("15:04:05"), ev.Topic)
		}
	})
}
