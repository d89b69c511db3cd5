// Command formrig validates a form submission gathered from an input file, environment
// variables or interactive prompts, uploads its files and prints the normalized result.
//
// Usage:
//
//	formrig -input signup.yaml
//	FORM_NAME="john doe" formrig -input signup.yaml -json
//	formrig -schema contact.yaml -interactive -receipt receipts/{{timestamp}}.json
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/Azhovan/formrig"
	"github.com/Azhovan/formrig/internal/config"
	"github.com/Azhovan/formrig/internal/logging"
	"github.com/Azhovan/formrig/prompt"
	"github.com/Azhovan/formrig/schemafile"
	"github.com/Azhovan/formrig/signup"
	"github.com/Azhovan/formrig/sourceenv"
	"github.com/Azhovan/formrig/sourcefile"
	"github.com/Azhovan/formrig/upload"
)

// exitInvalid is the exit code for input that failed validation.
const exitInvalid = 1

type options struct {
	configPath  string
	schemaPath  string
	inputPath   string
	envPrefix   string
	interactive bool
	asJSON      bool
	receipt     string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "config file (yaml, json or toml)")
	flag.StringVar(&opts.schemaPath, "schema", "", "schema file; defaults to the sign-up form")
	flag.StringVar(&opts.inputPath, "input", "", "input file (yaml, json or toml)")
	flag.StringVar(&opts.envPrefix, "env-prefix", "FORM_", "prefix of environment variables read as input; empty disables")
	flag.BoolVar(&opts.interactive, "interactive", false, "prompt for every field")
	flag.BoolVar(&opts.asJSON, "json", false, "print values as JSON")
	flag.StringVar(&opts.receipt, "receipt", "", "write a submission receipt to this path ({{timestamp}} and {{id}} expand)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	code, err := run(ctx, opts, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "formrig:", err)
		os.Exit(2)
	}
	os.Exit(code)
}

func run(ctx context.Context, opts options, stdout, stderr io.Writer) (int, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return 0, err
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.FilePath = cfg.Log.File
	logCfg.Output = stderr
	cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return 0, fmt.Errorf("setup logging: %w", err)
	}
	defer cleanup()

	schema, err := loadSchema(opts.schemaPath, cfg)
	if err != nil {
		return 0, err
	}

	collector := formrig.NewCollector(schema)
	if opts.inputPath != "" {
		collector.WithSource(sourcefile.New(opts.inputPath, sourcefile.Options{Required: true}))
	}
	if opts.envPrefix != "" {
		collector.WithSource(sourceenv.New(sourceenv.Options{Prefix: opts.envPrefix}))
	}
	if opts.interactive {
		collector.WithSource(prompt.New(schema))
	}

	var errOpts []formrig.DumpOption
	if opts.asJSON {
		errOpts = append(errOpts, formrig.AsJSON())
	}

	input, prov, err := collector.Collect(ctx)
	var verr *formrig.ValidationError
	if errors.As(err, &verr) {
		return exitInvalid, formrig.DumpErrors(stderr, verr, errOpts...)
	}
	if err != nil {
		return 0, err
	}

	res := schema.Validate(input)
	if !res.OK() {
		slog.Info("submission rejected", "errors", len(res.Err.FieldErrors))
		return exitInvalid, formrig.DumpErrors(stderr, res.Err, errOpts...)
	}

	up, err := newUploader(ctx, cfg.Upload)
	if err != nil {
		return 0, err
	}
	uploads, err := formrig.SubmitFiles(ctx, schema, res.Values, up)
	if err != nil {
		return 0, err
	}
	slog.Info("submission accepted", "uploads", len(uploads))

	dumpOpts := []formrig.DumpOption{formrig.WithSources(prov)}
	if opts.asJSON {
		dumpOpts = append(dumpOpts, formrig.AsJSON())
	}
	if err := formrig.Dump(stdout, schema, res.Values, dumpOpts...); err != nil {
		return 0, err
	}

	if opts.receipt != "" {
		r, err := formrig.NewReceipt(schema, res.Values, uploads)
		if err != nil {
			return 0, err
		}
		path, err := formrig.WriteReceipt(r, opts.receipt)
		if err != nil {
			return 0, err
		}
		slog.Info("receipt written", "path", path, "id", r.ID)
	}

	return 0, nil
}

func loadSchema(path string, cfg *config.Config) (*formrig.Schema, error) {
	if path != "" {
		return schemafile.Load(path)
	}
	return signup.NewSchema(signup.Options{
		EmailDomain:    cfg.Signup.EmailDomain,
		MaxAvatarBytes: cfg.Signup.MaxAvatarBytes,
	})
}

func newUploader(ctx context.Context, cfg config.UploadConfig) (formrig.Uploader, error) {
	switch cfg.Backend {
	case config.BackendS3:
		return upload.NewS3(ctx, upload.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Endpoint:        cfg.S3.Endpoint,
			KeyPrefix:       cfg.S3.KeyPrefix,
		})
	default:
		return upload.NewDir(cfg.Dir)
	}
}
