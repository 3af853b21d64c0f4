package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	appproduct "github.com/Zhima-Mochi/minishop-commerce/internal/application/product"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load products from a YAML catalog",
	Long: `Create every product listed in a YAML catalog.

The catalog looks like:

  products:
    - name: Notebook
      category: electronics
      price: "3499.90"
      stock: 10

Seeding the memory driver only lasts for the life of the process; use it with sqlite.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "catalog file")
	_ = seedCmd.MarkFlagRequired("file")
}

// Catalog is the seed file layout.
type Catalog struct {
	Products []CatalogProduct `yaml:"products"`
}

type CatalogProduct struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	Stock       int    `yaml:"stock"`
	Category    string `yaml:"category"`
	ImageURL    string `yaml:"image_url"`
}

// ReadCatalog parses a YAML catalog file.
func ReadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return &c, nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	catalog, err := ReadCatalog(seedFile)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	t, err := newTelemetry(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = t.shutdown(context.WithoutCancel(ctx)) }()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := seedCatalog(ctx, appproduct.NewCreateProductUseCase(st, id.NewUUID(), t.tel), catalog)
	if err != nil {
		return err
	}
	t.logger.Info("catalog_seeded",
		observability.F("file", seedFile),
		observability.F("products", n),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products\n", n)
	return nil
}

// seedCatalog creates the catalog products in order and stops at the first
// failure, reporting how many were created.
func seedCatalog(ctx context.Context, create application.UseCase[appproduct.CreateProductInput, *product.Product], c *Catalog) (int, error) {
	for i, p := range c.Products {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return i, fmt.Errorf("product %d (%s): price %q: %w", i, p.Name, p.Price, err)
		}
		if _, err := create.Execute(ctx, appproduct.CreateProductInput{
			Name:        p.Name,
			Description: p.Description,
			Price:       price,
			Stock:       p.Stock,
			Category:    p.Category,
			ImageURL:    p.ImageURL,
		}); err != nil {
			return i, fmt.Errorf("product %d (%s): %w", i, p.Name, err)
		}
	}
	return len(c.Products), nil
}
