package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"codearena/internal/config"
	"codearena/internal/database"
	"codearena/internal/repository"
	"codearena/internal/service"
)

func main() {
	// Define subcommands
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	seedCmd := flag.NewFlagSet("seed", flag.ExitOnError)

	// Export flags
	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	// Import flags
	importInput := importCmd.String("input", "", "Input file path (required)")
	importClear := importCmd.Bool("clear", false, "Clear existing data before import (WARNING: destructive)")
	importYes := importCmd.Bool("yes", false, "Skip the confirmation prompt of -clear")

	// Seed flags
	seedDir := seedCmd.String("dir", "", "Content directory (default: CONTENT_PATH)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx := context.Background()
	backupService := service.NewBackupService(db)

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		handleExport(ctx, backupService, *exportOutput)

	case "import":
		importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		handleImport(ctx, backupService, *importInput, *importClear, *importYes)

	case "seed":
		seedCmd.Parse(os.Args[2:])
		dir := *seedDir
		if dir == "" {
			dir = cfg.ContentPath
		}
		handleSeed(ctx, db, dir)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleExport(ctx context.Context, backupService *service.BackupService, outputPath string) {
	// Generate default filename if not provided
	if outputPath == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputPath = fmt.Sprintf("backup_%s.json", timestamp)
	}

	// Ensure directory exists
	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
	}

	log.Printf("Exporting database to: %s", outputPath)
	if err := backupService.Export(ctx, outputPath); err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	fileInfo, err := os.Stat(outputPath)
	if err == nil {
		log.Printf("Export complete! File size: %.2f KB", float64(fileInfo.Size())/1024)
	}
}

func handleImport(ctx context.Context, backupService *service.BackupService, inputPath string, clearData, skipConfirm bool) {
	// Check if file exists
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		log.Fatalf("Input file does not exist: %s", inputPath)
	}

	if clearData {
		if !skipConfirm {
			fmt.Print("WARNING: This will delete all exercises, reward markers and attempts. Type 'yes' to confirm: ")
			var confirmation string
			fmt.Scanln(&confirmation)
			if confirmation != "yes" {
				log.Println("Import cancelled")
				return
			}
		}

		log.Println("Clearing existing data...")
		if err := backupService.Clear(ctx); err != nil {
			log.Fatalf("Failed to clear database: %v", err)
		}
	}

	log.Printf("Importing database from: %s", inputPath)
	if err := backupService.Import(ctx, inputPath); err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	log.Println("Import complete!")
}

func handleSeed(ctx context.Context, db *database.DB, dir string) {
	contentService := service.NewContentService(repository.NewExerciseRepository(db))
	n, err := contentService.SeedFromDir(ctx, dir)
	if err != nil {
		log.Fatalf("Seed failed: %v", err)
	}
	log.Printf("Seeded %d exercises from %s", n, dir)
}

func printUsage() {
	fmt.Println("Code Arena Database Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [options]    Export exercises, reward markers and attempts to JSON")
	fmt.Println("  backup import [options]    Import a JSON backup")
	fmt.Println("  backup seed [options]      Load exercise definitions (JSON/YAML) into the database")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>    Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -input <file>     Input file path (required)")
	fmt.Println("  -clear            Clear existing data before import (WARNING: destructive)")
	fmt.Println("  -yes              Do not ask for confirmation when clearing")
	fmt.Println()
	fmt.Println("Seed Options:")
	fmt.Println("  -dir <path>       Content directory (default: CONTENT_PATH)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  backup export -output mybackup.json")
	fmt.Println("  backup import -input backup.json")
	fmt.Println("  backup import -input backup.json -clear")
	fmt.Println("  backup seed -dir ./content")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DATABASE_TYPE    Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./codearena.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
	fmt.Println("  CONTENT_PATH     Exercise content directory (default: ./content)")
}
