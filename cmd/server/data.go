package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlessLeS/ism-partners-db/internal/auth"
	"github.com/AlessLeS/ism-partners-db/internal/export"
	"github.com/AlessLeS/ism-partners-db/internal/importer"
	"github.com/AlessLeS/ism-partners-db/internal/repository"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables and columns, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(false)
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			if !e.migration.Changed() {
				fmt.Fprintln(out, "schema is up to date")
				return nil
			}
			for _, t := range e.migration.CreatedTables {
				fmt.Fprintf(out, "created table %s\n", t)
			}
			for _, c := range e.migration.AddedColumns {
				fmt.Fprintf(out, "added column %s\n", c)
			}
			return nil
		},
	}
}

type importOptions struct {
	sheet  string
	maps   []string
	dryRun bool
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import partners from a CSV, XLSX or XLS file",
		Long: `Import one partner per row of a spreadsheet.

Columns are matched to partner fields automatically. Use --map to override:
  --map company_name="Raison sociale"   use that column
  --map city=                           leave the field empty`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "worksheet name (default: first sheet)")
	cmd.Flags().StringArrayVar(&opts.maps, "map", nil, "field=Header mapping override, repeatable")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print the mapping and row count without importing")
	return cmd
}

func runImport(out io.Writer, path string, opts importOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	ds, err := importer.Read(filepath.Base(path), data, opts.sheet)
	if err != nil {
		return err
	}

	m := importer.AutoMap(ds.Headers)
	for _, kv := range opts.maps {
		field, header, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("--map %q: expected field=Header", kv)
		}
		if err := m.Set(strings.TrimSpace(field), header); err != nil {
			return err
		}
	}

	for _, f := range importer.Fields {
		src := m.Source(f.Name)
		if src == importer.Unmapped {
			src = "(unmapped)"
		}
		fmt.Fprintf(out, "%-16s <- %s\n", f.Name, src)
	}

	if err := m.Validate(ds.Headers); err != nil {
		return err
	}
	if opts.dryRun {
		fmt.Fprintf(out, "%d rows would be imported\n", ds.Len())
		return nil
	}

	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	res, err := importer.New(repository.NewPartnerRepository(e.db), e.log.Named("import")).Run(ds, m)
	fmt.Fprintf(out, "inserted %d of %d rows (%d skipped, %d employee counts set to 0), run %s\n",
		res.Inserted, res.Rows, res.Skipped, res.Fallbacks, res.RunID)
	return err
}

type exportOptions struct {
	out    string
	filter repository.PartnerFilter
}

func newExportCmd() *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write partners as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&opts.filter.Query, "q", "", "search company name, activity, responsible, city and tags")
	cmd.Flags().StringVar(&opts.filter.City, "city", "", "filter on city")
	cmd.Flags().StringVar(&opts.filter.Sector, "sector", "", "filter on sector classification")
	return cmd
}

func runExport(stdout, stderr io.Writer, opts exportOptions) (err error) {
	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	partners, err := repository.NewPartnerRepository(e.db).List(opts.filter)
	if err != nil {
		return err
	}

	w := stdout
	if opts.out != "" {
		f, ferr := os.Create(opts.out)
		if ferr != nil {
			return ferr
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	if err := export.WritePartners(w, partners); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "%d partners exported\n", len(partners))
	return nil
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash to use as password_hash in users.yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
