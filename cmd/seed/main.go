// Command seed loads a product catalogue from a JSON file into the database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"ecoshopy/internal/config"
	"ecoshopy/internal/database"
	"ecoshopy/internal/model"
	"ecoshopy/internal/repository"

	"github.com/shopspring/decimal"
)

func main() {
	file := flag.String("file", "cmd/seed/products.json", "path to the product catalogue JSON file")
	migrate := flag.Bool("migrate", true, "create the schema before seeding")
	flag.Parse()

	if err := run(*file, *migrate); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(file string, migrate bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)

	products, err := readCatalogue(file)
	if err != nil {
		return err
	}

	ctx := context.Background()
	cfg.Database.Migrate = migrate
	pool, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	repo := repository.NewProductRepository(pool, logger)
	for i := range products {
		if err := repo.Upsert(ctx, &products[i]); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", products[i].ID, err)
		}
	}

	logger.Info().Int("count", len(products)).Str("file", file).Msg("catalogue seeded")
	return nil
}

func readCatalogue(path string) ([]model.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue: %w", err)
	}

	var products []model.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to parse catalogue: %w", err)
	}

	for _, p := range products {
		if p.ID == "" || p.Name == "" {
			return nil, fmt.Errorf("catalogue entry missing id or name: %+v", p)
		}
		if err := checkPricing(p.ID, p.Price, p.MRP); err != nil {
			return nil, err
		}
		for _, v := range p.Variants {
			if err := checkPricing(p.ID+"/"+v.Name, v.Price, v.MRP); err != nil {
				return nil, err
			}
		}
	}
	return products, nil
}

// checkPricing requires mrp >= price > 0.
func checkPricing(sku string, price, mrp decimal.Decimal) error {
	if !price.IsPositive() {
		return fmt.Errorf("catalogue entry %s: price must be positive", sku)
	}
	if mrp.LessThan(price) {
		return fmt.Errorf("catalogue entry %s: mrp %s is below price %s", sku, mrp, price)
	}
	return nil
}
