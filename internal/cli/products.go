package cli

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/samvad-hq/samvad-catalog-client/internal/domain"
	"github.com/samvad-hq/samvad-catalog-client/internal/resource"
	"github.com/samvad-hq/samvad-catalog-client/pkg/endpoints"
)

func newProductsCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product"},
		Short:   "Read the product catalog",
	}
	cmd.AddCommand(newProductsListCommand(opts))
	return cmd
}

func newProductsListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := opts.resolve(endpoints.KindProducts)
			if err != nil {
				return err
			}
			svc := resource.NewProductService(t.api, t.url, t.params)
			products, err := loadOnce[domain.Product](cmd.Context(), "products", svc, opts.log)
			if err != nil {
				return err
			}

			if len(products) == 0 && opts.output == outputTable {
				fmt.Fprintln(opts.out, "No products found")
				return nil
			}
			return render(opts.out, opts.output, products, func(table *tablewriter.Table) {
				table.Header("ID", "Name", "Category", "Price")
				for _, p := range products {
					_ = table.Append(strconv.Itoa(p.ID), p.Name, p.Category, strconv.FormatFloat(p.Price, 'f', 2, 64))
				}
			})
		},
	}
}
