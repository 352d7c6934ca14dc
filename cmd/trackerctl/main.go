package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/warp/phase-tracker/cli"
	"github.com/warp/phase-tracker/factory"
	"github.com/warp/phase-tracker/format"
	"github.com/warp/phase-tracker/store/sqlite"
	"github.com/warp/phase-tracker/tracker"
	"github.com/warp/phase-tracker/tradelog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dbPath := os.Getenv("TRACKER_DB")
	if dbPath == "" {
		dbPath = "tracker.db"
	}
	currency := os.Getenv("TRACKER_CURRENCY")
	if currency == "" {
		currency = format.DefaultCurrency
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	templates, err := loadTemplates()
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}

	// Short-lived process: fail fast instead of retrying a write forever.
	policy := tracker.DefaultRetryPolicy()
	policy.MaxAttempts = 3
	book := tracker.NewBook(store, templates, tracker.NewSaveQueue(store, policy))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := book.Open(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	journal, err := tradelog.NewJournal(store, tradelog.DefaultLossPolicy())
	if err != nil {
		return err
	}

	root := cli.NewRootCmd(&cli.App{Book: book, Journal: journal, Currency: currency})
	cmdErr := root.ExecuteContext(ctx)

	if err := book.Close(ctx); err != nil && cmdErr == nil {
		return err
	}
	return cmdErr
}

func loadTemplates() (*tracker.TemplateSet, error) {
	f := factory.NewTemplateFactory()
	if dir := os.Getenv("TRACKER_TEMPLATES"); dir != "" {
		return f.LoadTemplateSet(dir)
	}
	presets := os.Getenv("TRACKER_PRESETS")
	if presets == "" {
		return f.Presets()
	}
	var ids []string
	for _, id := range strings.Split(presets, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return f.PresetSet(ids...)
}
