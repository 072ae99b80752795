package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"circulation-desk/config"
	"circulation-desk/library"
	"circulation-desk/logger"
)

func main() {
	fresh := flag.Bool("fresh", false, "remove the existing database before importing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if *fresh {
		// Clean up any existing database files
		fmt.Println("Cleaning up existing database files...")
		for _, file := range []string{cfg.DBFile, cfg.DBFile + "-shm", cfg.DBFile + "-wal"} {
			if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
				fmt.Printf("Warning: Could not remove %s: %v\n", file, err)
			}
		}
	}

	catalog := library.DemoCatalog()
	if path := flag.Arg(0); path != "" {
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening catalog: %v\n", err)
			os.Exit(1)
		}
		catalog, err = library.ReadCatalog(f)
		f.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading catalog %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("Importing catalog from %s...\n", path)
	} else {
		fmt.Println("No catalog given, importing the demo collection...")
	}

	log := logger.NewLogger(cfg.Log, "import_items")
	defer log.Sync() //nolint:errcheck

	manager, err := library.NewLibraryManager(cfg.DBFile, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer manager.Close()

	rep, err := manager.Import(catalog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import failed after %d records: %v\n", rep.Added, err)
		os.Exit(1)
	}

	fmt.Printf("\nImport complete!\n")
	fmt.Printf("Successfully imported: %d records\n", rep.Added)
	for _, s := range rep.Skipped {
		fmt.Printf("Skipped %s: ID already registered\n", s)
	}

	status := manager.Status()
	if len(status.Items) > 0 {
		fmt.Println("\nCollection:")
		fmt.Printf("%-8s %-6s %-40s %-25s %s\n", "ID", "Kind", "Title", "Creator", "Loan")
		fmt.Println(strings.Repeat("-", 90))
		for _, it := range status.Items {
			fmt.Printf("%-8s %-6s %-40s %-25s %d days\n",
				truncateString(it.ID, 8), it.Kind, truncateString(it.Title, 40), truncateString(it.Creator, 25), it.LoanPeriod)
		}
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
