package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"cybercafe/internal/config"
	"cybercafe/internal/database"
	"cybercafe/internal/logging"
	"cybercafe/internal/service"
)

func main() {
	// Define subcommands
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)

	// Export flags
	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	// Import flags
	importInput := importCmd.String("input", "", "Input file path (required)")
	importClear := importCmd.Bool("clear", false, "Clear existing data before import (WARNING: destructive)")
	importYes := importCmd.Bool("yes", false, "Skip the confirmation prompt for -clear")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatal().Err(err).Msg("failed to configure logging")
	}

	switch os.Args[1] {
	case "export":
		_ = exportCmd.Parse(os.Args[2:])
		backupService, closeDB := openBackupService(ctx, cfg)
		defer closeDB()
		handleExport(ctx, backupService, *exportOutput)

	case "import":
		_ = importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		backupService, closeDB := openBackupService(ctx, cfg)
		defer closeDB()
		handleImport(ctx, backupService, *importInput, *importClear, *importYes)

	default:
		printUsage()
		os.Exit(1)
	}
}

func openBackupService(ctx context.Context, cfg *config.Config) (*service.BackupService, func()) {
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(ctx); err != nil {
		db.Close()
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	return service.NewBackupService(db), func() { db.Close() }
}

func handleExport(ctx context.Context, backupService *service.BackupService, outputPath string) {
	// Generate default filename if not provided
	if outputPath == "" {
		outputPath = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
	}

	if dir := filepath.Dir(outputPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal().Err(err).Msg("failed to create output directory")
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", outputPath).Msg("failed to create backup file")
	}

	log.Info().Str("path", outputPath).Msg("exporting database")
	backup, err := backupService.Export(ctx, file)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		log.Fatal().Err(err).Msg("export failed")
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to stat backup file")
	}
	log.Info().
		Int("students", len(backup.Students)).
		Int("payments", len(backup.Payments)).
		Int("usage_sessions", len(backup.UsageSessions)).
		Str("size", fmt.Sprintf("%.2f MB", float64(info.Size())/1024/1024)).
		Msg("export complete")
}

func handleImport(ctx context.Context, backupService *service.BackupService, inputPath string, clearData, skipPrompt bool) {
	file, err := os.Open(inputPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", inputPath).Msg("failed to open backup file")
	}
	defer file.Close()

	if clearData && !skipPrompt {
		fmt.Print("WARNING: This will delete all existing data. Type 'yes' to confirm: ")
		confirmation, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.TrimSpace(confirmation) != "yes" {
			log.Info().Msg("import cancelled")
			return
		}
	}

	log.Info().Str("path", inputPath).Bool("clear", clearData).Msg("importing database")
	if _, err := backupService.Import(ctx, file, clearData); err != nil {
		log.Fatal().Err(err).Msg("import failed")
	}

	log.Info().Msg("import complete")
}

func printUsage() {
	fmt.Println("Cyber Cafe Database Backup Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [options]    Export database to JSON file")
	fmt.Println("  backup import [options]    Import database from JSON file")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>    Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -input <file>     Input file path (required)")
	fmt.Println("  -clear            Clear existing data before import (WARNING: destructive)")
	fmt.Println("  -yes              Do not ask for confirmation with -clear")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  backup export -output backups/cafe.json")
	fmt.Println("  backup import -input backups/cafe.json")
	fmt.Println("  backup import -input backups/cafe.json -clear")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DATABASE_TYPE    Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./cybercafe.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
}
