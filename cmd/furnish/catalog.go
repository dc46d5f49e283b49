package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newCatalogCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Load every catalog model and report its normalized size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(v)
			if err != nil {
				return err
			}
			loaded := a.preload(cmd.Context())

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ITEM\tPATH\tSIZE (m)\tSTATUS")
			for _, item := range a.catalog.Items() {
				t, ok := a.catalog.Cached(item.Key())
				if !ok {
					fmt.Fprintf(w, "%s\t%s\t-\tfailed\n", item.Key(), item.ModelPath())
					continue
				}
				size := t.Bounds().Size()
				fmt.Fprintf(w, "%s\t%s\t%.2f x %.2f x %.2f\tok\n",
					item.Key(), item.ModelPath(), size[0], size[1], size[2])
			}
			if err := w.Flush(); err != nil {
				return err
			}
			total := len(a.catalog.Items())
			if loaded < total {
				return fmt.Errorf("%d of %d models failed to load", total-loaded, total)
			}
			return nil
		},
	}
}
