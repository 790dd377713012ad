// Package main contains the cli implementation of the tool. It uses the
// cobra package for command wiring; defaults can come from a morph.toml
// config file or MORPH_* environment variables via viper.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"morph/internal/calculator"
	"morph/internal/datamodel"
	dmtoml "morph/internal/datamodel/toml"
	"morph/internal/differ"
	"morph/internal/flavour"
	"morph/internal/ingest/mysql"
	"morph/internal/introspect"
	_ "morph/internal/introspect/mysql"
	_ "morph/internal/introspect/postgresql"
	"morph/internal/relation"
	"morph/internal/sqlschema"
)

func main() {
	cobra.OnInitialize(initConfig)

	rootCmd := &cobra.Command{
		Use:   "morph",
		Short: "Model-first database schema tool",
	}

	rootCmd.AddCommand(calculateCmd())
	rootCmd.AddCommand(relationsCmd())
	rootCmd.AddCommand(diffCmd())
	rootCmd.AddCommand(introspectCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetConfigName("morph")
	viper.SetConfigType("toml")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("MORPH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	// A missing config file is fine; flags and env cover everything.
	_ = viper.ReadInConfig()
}

func calculateCmd() *cobra.Command {
	var family string
	var outFile string

	cmd := &cobra.Command{
		Use:   "calculate <model.toml>",
		Short: "Calculate the SQL schema for a data model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fl, err := resolveFlavour(family)
			if err != nil {
				return err
			}

			dm, err := dmtoml.NewParser().ParseFile(args[0])
			if err != nil {
				return err
			}

			schema, err := calculator.Calculate(dm, relation.Infer(dm), fl)
			if err != nil {
				return err
			}

			return writeSchema(schema, outFile)
		},
	}

	cmd.Flags().StringVarP(&family, "family", "f", "", "target database family (postgres, mysql, sqlite, mssql)")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "write the schema JSON to a file instead of stdout")
	return cmd
}

func relationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relations <model.toml>",
		Short: "Show the relations inferred from a data model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dm, err := dmtoml.NewParser().ParseFile(args[0])
			if err != nil {
				return err
			}

			store := relation.Infer(dm)
			if store.Len() == 0 {
				fmt.Println("No relations found.")
				return nil
			}

			store.All(func(_ relation.ID, r *relation.Relation) {
				fmt.Printf("%-24s %-14s %s <-> %s\n",
					r.DisplayName(dm), r.Shape,
					endpointLabel(dm, r.ModelA, r.FieldA),
					endpointLabel(dm, r.ModelB, r.FieldB))
			})
			return nil
		},
	}
	return cmd
}

func endpointLabel(dm *datamodel.Datamodel, m datamodel.ModelID, f datamodel.FieldID) string {
	model := dm.Model(m)
	if f == relation.NoField {
		return model.Name
	}
	return model.Name + "." + model.Field(f).Name
}

func diffCmd() *cobra.Command {
	var family string
	var url string

	cmd := &cobra.Command{
		Use:   "diff [<current>] <desired>",
		Short: "Compare two schemas",
		Long: `Compare two schemas. Each argument is either a .toml data model
(calculated for the target family) or a .sql DDL dump (parsed as MySQL DDL).
With --url the current side is introspected from the live database and a
single <desired> argument is expected.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fl, err := resolveFlavour(family)
			if err != nil {
				return err
			}

			var current *sqlschema.Schema
			desiredPath := args[len(args)-1]

			switch {
			case url != "":
				if len(args) != 1 {
					return fmt.Errorf("with --url only the desired schema argument is expected")
				}
				current, err = introspectLive(fl, url)
				if err != nil {
					return fmt.Errorf("introspect current schema: %w", err)
				}
			case len(args) == 2:
				current, err = loadSchema(args[0], fl)
				if err != nil {
					return fmt.Errorf("load current schema: %w", err)
				}
			default:
				return fmt.Errorf("either two schema arguments or --url with one are required")
			}

			desired, err := loadSchema(desiredPath, fl)
			if err != nil {
				return fmt.Errorf("load desired schema: %w", err)
			}

			fmt.Print(differ.Diff(current, desired).String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&family, "family", "f", "", "target database family (postgres, mysql, sqlite, mssql)")
	cmd.Flags().StringVarP(&url, "url", "u", "", "introspect the current schema from this database")
	return cmd
}

func introspectLive(fl flavour.Flavour, url string) (*sqlschema.Schema, error) {
	in, err := introspect.New(fl.Family())
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName(fl.Family()), url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return in.Introspect(ctx, db)
}

func introspectCmd() *cobra.Command {
	var family string
	var url string
	var outFile string

	cmd := &cobra.Command{
		Use:   "introspect",
		Short: "Read the schema of a live database",
		RunE: func(cmd *cobra.Command, args []string) error {
			fl, err := resolveFlavour(family)
			if err != nil {
				return err
			}
			if url == "" {
				url = viper.GetString("database.url")
			}
			if url == "" {
				return fmt.Errorf("no database url given; use --url, MORPH_DATABASE_URL, or morph.toml")
			}

			schema, err := introspectLive(fl, url)
			if err != nil {
				return err
			}

			return writeSchema(schema, outFile)
		},
	}

	cmd.Flags().StringVarP(&family, "family", "f", "", "database family (postgres, mysql)")
	cmd.Flags().StringVarP(&url, "url", "u", "", "database connection string")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "write the schema JSON to a file instead of stdout")
	return cmd
}

// loadSchema reads a schema source: .toml files are data models run
// through the calculator, everything else is treated as a DDL dump.
func loadSchema(path string, fl flavour.Flavour) (*sqlschema.Schema, error) {
	if strings.HasSuffix(path, ".toml") {
		dm, err := dmtoml.NewParser().ParseFile(path)
		if err != nil {
			return nil, err
		}
		return calculator.Calculate(dm, relation.Infer(dm), fl)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return mysql.NewIngester().Ingest(string(data))
}

func resolveFlavour(family string) (flavour.Flavour, error) {
	if family == "" {
		family = viper.GetString("database.family")
	}
	if family == "" {
		return nil, fmt.Errorf("no database family given; use --family, MORPH_DATABASE_FAMILY, or morph.toml (supported: %v)", flavour.Families())
	}
	return flavour.New(flavour.Family(strings.ToLower(family)))
}

func driverName(f flavour.Family) string {
	if f == flavour.Postgres {
		return "pgx"
	}
	return string(f)
}

func writeSchema(schema *sqlschema.Schema, outFile string) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return err
	}

	if outFile == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(outFile, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write schema: %w", err)
	}
	return nil
}
