package main

import (
	"context"
	"fmt"
	"os"

	"github.com/UCLALibrary/ftva-lab-data/internal/cleanup"
	"github.com/UCLALibrary/ftva-lab-data/internal/config"
	"github.com/UCLALibrary/ftva-lab-data/internal/db"
	"github.com/UCLALibrary/ftva-lab-data/internal/ingestion"
	"github.com/UCLALibrary/ftva-lab-data/internal/repository"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// cliApp bundles the database connection and repositories behind the data
// management commands. The caller must defer app.Close().
type cliApp struct {
	conn     *db.Connection
	items    repository.ItemRepository
	statuses repository.StatusRepository
	users    repository.UserRepository
}

func newApp(ctx context.Context) (*cliApp, error) {
	cfg, err := config.Load(".")
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := db.RunMigrations(cfg.Database); err != nil {
		conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &cliApp{
		conn:     conn,
		items:    repository.NewItemRepository(conn.Pool),
		statuses: repository.NewStatusRepository(conn.Pool),
		users:    repository.NewUserRepository(conn.Pool),
	}, nil
}

func (a *cliApp) Close() {
	a.conn.Close()
}

var rootCmd = &cobra.Command{
	Use:   "labdata",
	Short: "Digital Lab inventory data management",
}

// convert command
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert tracking workbook sheets to a load batch",
	RunE: func(cmd *cobra.Command, args []string) error {
		fileName, _ := cmd.Flags().GetString("file_name")
		sheets, _ := cmd.Flags().GetStringSlice("sheets")
		output, _ := cmd.Flags().GetString("output")

		batch, err := ingestion.NewConverter().Convert(fileName, sheets)
		if err != nil {
			return fmt.Errorf("converting workbook: %w", err)
		}
		if err := batch.WriteFile(output); err != nil {
			return err
		}

		for _, sheet := range batch.Sheets {
			fmt.Printf("Read %d rows from %s / %s\n", sheet.Records, fileName, sheet.Sheet)
		}
		fmt.Printf("Finished: wrote %d records from all sheets to %s.\n", len(batch.Records), output)
		return nil
	},
}

// load command
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a converted batch into the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		batchFile, _ := cmd.Flags().GetString("file_name")
		dryRun, _ := cmd.Flags().GetBool("dry_run")

		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		count, err := ingestion.NewLoader(app.items).Load(cmd.Context(), batchFile, dryRun)
		if err != nil {
			return err
		}
		if dryRun {
			fmt.Printf("Dry run: %d records would be loaded\n", count)
		} else {
			fmt.Printf("Loaded %d records\n", count)
		}
		return nil
	},
}

// clean command and subcommands
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Run the post-import cleanup passes",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		report, err := cleanup.NewRunner(app.items, nil).Run(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Empty records deleted: %d\n", report.EmptyDeleted)
		fmt.Printf("Header rows deleted: %d\n", report.HeaderDeleted)
		fmt.Printf("Records backfilled: %d\n", report.Backfilled)
		fmt.Printf("Drive-only rows deleted: %d\n", report.DriveOnlyDeleted)
		return nil
	},
}

var cleanTapesCmd = &cobra.Command{
	Use:   "tapes",
	Short: "Split carrier fields into tape id and vault location",
	RunE: func(cmd *cobra.Command, args []string) error {
		updateRecords, _ := cmd.Flags().GetBool("update_records")
		reportProblems, _ := cmd.Flags().GetBool("report_problems")

		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		cleaner := cleanup.NewTapeCleaner(app.items, nil)
		report, err := cleaner.Clean(cmd.Context(), cleanup.TapeOptions{
			UpdateRecords:  updateRecords,
			ReportProblems: reportProblems,
		})
		if err != nil {
			return err
		}
		for _, carrier := range []string{"carrier_a", "carrier_b"} {
			fmt.Printf("Carrier info updated for %s: %d\n", carrier, report.Updated[carrier])
		}
		if reportProblems {
			fmt.Printf("Unsupported formats found: %d\n", len(report.Problems))
		}
		return nil
	},
}

// import command and subcommands
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import data from external workbooks",
}

var importStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Import status info and inventory numbers from the review sheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		fileName, _ := cmd.Flags().GetString("file_name")
		inventory, _ := cmd.Flags().GetBool("inventory_numbers")
		status, _ := cmd.Flags().GetBool("status_info")
		reportPath, _ := cmd.Flags().GetString("report")

		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		importer := cleanup.NewStatusImporter(app.items, app.statuses, nil)
		report, err := importer.Run(cmd.Context(), fileName, cleanup.StatusImportOptions{
			Inventory:  inventory,
			Status:     status,
			ReportPath: reportPath,
		})
		if err != nil {
			return err
		}
		fmt.Printf("%d records updated\n", report.Updated)
		fmt.Printf("%d rows returned more than one match\n", len(report.MultipleMatches))
		fmt.Printf("%d rows returned no match\n", len(report.NoMatches))
		if inventory {
			fmt.Printf("%d records had changed inventory numbers\n", len(report.InventoryChanges))
		}
		return nil
	},
}

var importUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "Create staff accounts from a staff workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		fileName, _ := cmd.Flags().GetString("file_name")

		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		result, err := ingestion.ImportUsers(cmd.Context(), app.users, fileName)
		if err != nil {
			return err
		}
		fmt.Printf("Users created: %d, skipped: %d\n", result.Created, result.Skipped)
		return nil
	},
}

// extract-inventory command
var extractInventoryCmd = &cobra.Command{
	Use:   "extract-inventory",
	Short: "Extract inventory numbers from path info for existing records",
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry_run")
		outDir, _ := cmd.Flags().GetString("out_dir")

		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		extractor := cleanup.NewInventoryExtractor(app.items, nil)
		updates, summaryPath, err := extractor.Run(cmd.Context(), outDir, dryRun)
		if err != nil {
			return err
		}
		fmt.Printf("Total records to update: %d\n", len(updates))
		fmt.Printf("Summary written to %s\n", summaryPath)
		return nil
	},
}

// flag command and subcommands
var flagCmd = &cobra.Command{
	Use:   "flag",
	Short: "Tag records with data quality statuses",
}

var flagEmptyInventoryCmd = &cobra.Command{
	Use:   "empty-inventory",
	Short: "Tag records with an empty inventory number as 'Invalid inv no'",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		added, err := cleanup.NewStatusPasses(app.items, app.statuses, nil).FlagEmptyInventory(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Added 'Invalid inv no' status to %d records\n", added)
		return nil
	},
}

var flagEmptyLocationCmd = &cobra.Command{
	Use:   "empty-location",
	Short: "Tag records with no location information as 'Invalid vault'",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		added, err := cleanup.NewStatusPasses(app.items, app.statuses, nil).FlagEmptyLocations(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Added 'Invalid vault' status to %d records\n", added)
		return nil
	},
}

// set command and subcommands
var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Bulk-set field values",
}

var setDriveLocationCmd = &cobra.Command{
	Use:   "drive-location",
	Short: "Set hard_drive_location for all records with a hard drive name",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		updated, untagged, err := cleanup.NewStatusPasses(app.items, app.statuses, nil).SetHardDriveLocation(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Set hard_drive_location for %d records\n", updated)
		fmt.Printf("Removed 'Invalid vault' status from %d records\n", untagged)
		return nil
	},
}

func init() {
	convertCmd.Flags().StringP("file_name", "f", "", "Name of the Excel file with tracking data")
	convertCmd.Flags().StringSliceP("sheets", "s", nil, "Sheet layouts to convert (main, hearst); default all present")
	convertCmd.Flags().StringP("output", "o", ingestion.DefaultBatchFile, "Output batch file")
	_ = convertCmd.MarkFlagRequired("file_name")

	loadCmd.Flags().StringP("file_name", "f", ingestion.DefaultBatchFile, "Batch file to load")
	loadCmd.Flags().Bool("dry_run", false, "Show what would be loaded without writing")

	cleanTapesCmd.Flags().Bool("update_records", false, "Update records")
	cleanTapesCmd.Flags().Bool("report_problems", false, "Report on tape (carrier) fields which can't be updated")
	cleanTapesCmd.MarkFlagsMutuallyExclusive("update_records", "report_problems")
	cleanTapesCmd.MarkFlagsOneRequired("update_records", "report_problems")
	cleanCmd.AddCommand(cleanTapesCmd)

	importStatusCmd.Flags().StringP("file_name", "f", "", "Path to XLSX copy of the review sheet")
	importStatusCmd.Flags().BoolP("inventory_numbers", "i", false, "Import inventory numbers from the sheet")
	importStatusCmd.Flags().BoolP("status_info", "s", false, "Import status info from the sheet")
	importStatusCmd.Flags().String("report", cleanup.DefaultStatusReportFile, "Report workbook path")
	_ = importStatusCmd.MarkFlagRequired("file_name")
	importStatusCmd.MarkFlagsOneRequired("inventory_numbers", "status_info")
	importCmd.AddCommand(importStatusCmd)

	importUsersCmd.Flags().StringP("file_name", "f", "", "Path to XLSX staff workbook")
	_ = importUsersCmd.MarkFlagRequired("file_name")
	importCmd.AddCommand(importUsersCmd)

	extractInventoryCmd.Flags().Bool("dry_run", false, "Write the summary without applying updates")
	extractInventoryCmd.Flags().String("out_dir", ".", "Directory for the summary CSV")

	flagCmd.AddCommand(flagEmptyInventoryCmd)
	flagCmd.AddCommand(flagEmptyLocationCmd)

	setCmd.AddCommand(setDriveLocationCmd)

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(extractInventoryCmd)
	rootCmd.AddCommand(flagCmd)
	rootCmd.AddCommand(setCmd)
}
