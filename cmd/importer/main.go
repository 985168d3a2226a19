// Command importer runs one import, preview, export, restore or delete for a
// tenant from the command line and prints the result as JSON.
//
//	importer -tenant <uuid> -entity contacts -file contacts.csv -delimiter ';'
//	importer -tenant <uuid> -entity products -file products.json -dry-run
//	importer -tenant <uuid> -export backup.json
//	importer -tenant <uuid> -restore backup.json
//	importer -tenant <uuid> -delete all
//	importer -list
//
// With -offline the engine runs against an in-memory store and needs no
// database; combined with -file it validates a file end to end.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/backoffice/internal/config"
	"github.com/JonMunkholm/backoffice/internal/core"
	_ "github.com/JonMunkholm/backoffice/internal/core/entities" // Register all entities
	"github.com/JonMunkholm/backoffice/internal/logging"
	"github.com/JonMunkholm/backoffice/internal/store"
	"github.com/joho/godotenv"
)

type options struct {
	tenant    string
	entity    string
	file      string
	format    string
	delimiter string
	dryRun    bool
	offline   bool
	export    string
	restore   string
	delete    string
	list      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "importer:", core.FormatUserError(err))
		slog.Debug("importer failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func parseFlags(args []string) (*options, error) {
	var o options
	fs := flag.NewFlagSet("importer", flag.ContinueOnError)
	fs.StringVar(&o.tenant, "tenant", "", "tenant id (UUID)")
	fs.StringVar(&o.entity, "entity", "", "entity key to import into")
	fs.StringVar(&o.file, "file", "", "input file (csv, tsv or json)")
	fs.StringVar(&o.format, "format", "", "input format: csv or json (default: inferred)")
	fs.StringVar(&o.delimiter, "delimiter", "", "delimiter for delimited input (default: comma, tab for .tsv)")
	fs.BoolVar(&o.dryRun, "dry-run", false, "preview the import without persisting")
	fs.BoolVar(&o.offline, "offline", false, "use an in-memory store instead of the database")
	fs.StringVar(&o.export, "export", "", "write a backup of every entity to this file")
	fs.StringVar(&o.restore, "restore", "", "restore a backup file")
	fs.StringVar(&o.delete, "delete", "", `delete records: "all" or an entity key`)
	fs.BoolVar(&o.list, "list", false, "list importable entities")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	actions := 0
	for _, set := range []bool{o.file != "", o.export != "", o.restore != "", o.delete != "", o.list} {
		if set {
			actions++
		}
	}
	switch {
	case actions != 1:
		return nil, errors.New("exactly one of -file, -export, -restore, -delete or -list is required")
	case o.file != "" && o.entity == "":
		return nil, errors.New("-file requires -entity")
	case !o.list && o.tenant == "":
		return nil, errors.New("-tenant is required")
	}
	return &o, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}

	_ = godotenv.Load()

	var cfg *config.Config
	if o.offline || o.list {
		cfg, err = config.LoadOffline()
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	slog.SetDefault(logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format))

	if o.list {
		return printJSON(stdout, core.Keys())
	}

	var st core.Store
	if o.offline {
		st = core.NewMemoryStore()
	} else {
		pool, err := store.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()
		st = store.NewPostgres(pool)
	}

	svc := core.NewService(st, cfg.Import.ServiceOptions())

	switch {
	case o.file != "":
		return runImport(ctx, svc, o, stdout)
	case o.export != "":
		return runExport(ctx, svc, o, stdout)
	case o.restore != "":
		return runRestore(ctx, svc, o, stdout)
	default:
		return runDelete(ctx, svc, o, stdout)
	}
}

func runImport(ctx context.Context, svc *core.Service, o *options, stdout io.Writer) error {
	data, err := os.ReadFile(o.file)
	if err != nil {
		return err
	}

	format := core.DetectFormat(o.file, "", data)
	if o.format != "" {
		if format, err = core.ParseFormat(o.format); err != nil {
			return err
		}
	}
	delimiter := o.delimiter
	if delimiter == "" {
		delimiter = core.DefaultDelimiter(o.file)
	}

	if o.dryRun {
		var preview *core.PreviewResponse
		if format == core.FormatDocument {
			preview, err = svc.PreviewDocument(ctx, o.tenant, o.entity, data)
		} else {
			preview, err = svc.PreviewDelimited(ctx, o.tenant, o.entity, data, delimiter)
		}
		if err != nil {
			return err
		}
		return printJSON(stdout, preview)
	}

	var result *core.ImportResult
	if format == core.FormatDocument {
		result, err = svc.ImportDocument(ctx, o.tenant, o.entity, data)
	} else {
		result, err = svc.ImportDelimited(ctx, o.tenant, o.entity, data, delimiter)
	}
	if err != nil {
		return err
	}
	return printJSON(stdout, result)
}

func runExport(ctx context.Context, svc *core.Service, o *options, stdout io.Writer) error {
	backup, err := svc.ExportAll(ctx, o.tenant)
	if err != nil {
		return err
	}

	f, err := os.Create(o.export)
	if err != nil {
		return err
	}
	if err := printJSON(f, backup); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	counts := make(map[string]int, len(backup))
	for key, recs := range backup {
		counts[key] = len(recs)
	}
	return printJSON(stdout, map[string]any{"file": o.export, "records": counts})
}

func runRestore(ctx context.Context, svc *core.Service, o *options, stdout io.Writer) error {
	data, err := os.ReadFile(o.restore)
	if err != nil {
		return err
	}
	result, err := svc.RestoreBackup(ctx, o.tenant, data)
	if err != nil {
		return err
	}
	return printJSON(stdout, result)
}

func runDelete(ctx context.Context, svc *core.Service, o *options, stdout io.Writer) error {
	if o.delete == "all" {
		counts, err := svc.DeleteAll(ctx, o.tenant)
		if err != nil {
			return err
		}
		return printJSON(stdout, map[string]any{"deleted": counts})
	}

	n, err := svc.DeleteByType(ctx, o.tenant, o.delete)
	if err != nil {
		return err
	}
	return printJSON(stdout, map[string]any{"deleted": []core.DeleteCount{{EntityKey: o.delete, Deleted: n}}})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
