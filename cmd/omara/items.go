package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/erazemk/omara/internal/client"
	"github.com/erazemk/omara/internal/model"
)

// criteriaFlags binds the four filter flags.
type criteriaFlags struct {
	name, category, color, brand string
}

func (f *criteriaFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "Name contains")
	cmd.Flags().StringVarP(&f.category, "category", "k", "", "Category (shirt, pants, shoes, jacket, accessory, other)")
	cmd.Flags().StringVar(&f.color, "color", "", "Color")
	cmd.Flags().StringVarP(&f.brand, "brand", "b", "", "Brand contains")
}

func (f *criteriaFlags) criteria() (model.FilterCriteria, error) {
	c := model.FilterCriteria{Name: f.name, Color: f.color, Brand: f.brand}
	if f.category != "" {
		cat, err := model.ParseCategory(f.category)
		if err != nil {
			return c, err
		}
		c.Category = string(cat)
	}
	return c, nil
}

func newListCmd(g *globals) *cobra.Command {
	var (
		flags  criteriaFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List clothing items",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := flags.criteria()
			if err != nil {
				return err
			}
			s, err := g.requireAuth(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.app.Cache.Load(cmd.Context(), criteria)
			if err != nil {
				return s.explain(err)
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res.Items)
			}
			printItems(cmd.OutOrStdout(), res.Items)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func printItems(w io.Writer, items []model.ClothingItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No items.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tCOLOR\tBRAND\tPHOTO")
	for _, it := range items {
		photo := ""
		if it.ImageURL != "" {
			photo = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(it.ID), it.Name, model.FormatCategory(it.Category), it.Color, it.Brand, photo)
	}
	tw.Flush()
	fmt.Fprintf(w, "%d item(s)\n", len(items))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printItem(w io.Writer, it *model.ClothingItem) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", it.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", it.Name)
	fmt.Fprintf(tw, "Category:\t%s\n", model.FormatCategory(it.Category))
	fmt.Fprintf(tw, "Color:\t%s\n", it.Color)
	if it.Brand != "" {
		fmt.Fprintf(tw, "Brand:\t%s\n", it.Brand)
	}
	if it.ImageURL != "" {
		fmt.Fprintf(tw, "Photo:\t%s\n", it.ImageURL)
	}
	fmt.Fprintf(tw, "Added:\t%s\n", humanize.Time(it.CreatedAt))
	if !it.UpdatedAt.Equal(it.CreatedAt) {
		fmt.Fprintf(tw, "Updated:\t%s\n", humanize.Time(it.UpdatedAt))
	}
	tw.Flush()
}

func newShowCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.requireAuth(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			id, err := s.resolveID(cmd, args[0])
			if err != nil {
				return err
			}
			item, err := s.app.API.GetClothing(cmd.Context(), id)
			if err != nil {
				return s.explain(err)
			}
			printItem(cmd.OutOrStdout(), item)
			return nil
		},
	}
}

// formFlags binds the item fields for add and edit.
type formFlags struct {
	name, category, color, brand, image string
}

func (f *formFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "Item name")
	cmd.Flags().StringVarP(&f.category, "category", "k", "", "Category (shirt, pants, shoes, jacket, accessory, other)")
	cmd.Flags().StringVar(&f.color, "color", "", "Color, e.g. Navy")
	cmd.Flags().StringVarP(&f.brand, "brand", "b", "", "Brand")
	cmd.Flags().StringVarP(&f.image, "image", "i", "", "Photo file (JPEG, PNG or WebP)")
}

// apply copies the flags the user set onto form.
func (f *formFlags) apply(cmd *cobra.Command, form *client.ItemForm) error {
	changed := cmd.Flags().Changed
	if changed("name") {
		form.Name = f.name
	}
	if changed("category") {
		cat, err := model.ParseCategory(f.category)
		if err != nil {
			return err
		}
		form.Category = cat
	}
	if changed("color") {
		form.Color = f.color
	}
	if changed("brand") {
		form.Brand = f.brand
	}
	if f.image != "" {
		data, err := os.ReadFile(f.image)
		if err != nil {
			return fmt.Errorf("reading photo: %w", err)
		}
		form.Image = data
		form.ImageName = filepath.Base(f.image)
	}
	return nil
}

func newAddCmd(g *globals) *cobra.Command {
	var flags formFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var form client.ItemForm
			if err := flags.apply(cmd, &form); err != nil {
				return err
			}
			if err := form.Validate(); err != nil {
				return err
			}
			s, err := g.requireAuth(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			item, err := s.app.Mutations.Create(cmd.Context(), form)
			if err != nil {
				return s.explain(err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Added %s (%s)\n", item.Name, item.ID)
			if len(form.Image) > 0 {
				fmt.Fprintf(out, "Uploaded photo %s (%s)\n", form.ImageName, humanize.Bytes(uint64(len(form.Image))))
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newEditCmd(g *globals) *cobra.Command {
	var flags formFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change an item; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.requireAuth(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			id, err := s.resolveID(cmd, args[0])
			if err != nil {
				return err
			}
			current, err := s.app.API.GetClothing(cmd.Context(), id)
			if err != nil {
				return s.explain(err)
			}
			form := client.FormFromItem(current)
			if err := flags.apply(cmd, &form); err != nil {
				return err
			}

			item, err := s.app.Mutations.Update(cmd.Context(), current.ID, form)
			if err != nil {
				return s.explain(err)
			}
			printItem(cmd.OutOrStdout(), item)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newRmCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Delete items",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.requireAuth(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			for _, arg := range args {
				id, err := s.resolveID(cmd, arg)
				if err != nil {
					return err
				}
				if err := s.app.Mutations.Delete(cmd.Context(), id); err != nil {
					return s.explain(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			}
			return nil
		},
	}
}

// resolveID expands a unique ID prefix, as printed by list, to the full ID.
func (s *cliSession) resolveID(cmd *cobra.Command, id string) (string, error) {
	if len(id) >= 36 {
		return id, nil
	}
	res, err := s.app.Cache.Load(cmd.Context(), model.FilterCriteria{})
	if err != nil {
		return "", s.explain(err)
	}
	var match string
	for _, it := range res.Items {
		if !strings.HasPrefix(it.ID, id) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("id %q is ambiguous", id)
		}
		match = it.ID
	}
	if match == "" {
		return "", fmt.Errorf("no item with id %q", id)
	}
	return match, nil
}
