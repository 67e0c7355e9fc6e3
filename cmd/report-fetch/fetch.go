// Copyright Veracode, Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/veracode-customer-success/veracode-report-fetch-reporting-api/internal/console"
	"github.com/veracode-customer-success/veracode-report-fetch-reporting-api/internal/export"
	"github.com/veracode-customer-success/veracode-report-fetch-reporting-api/internal/report"
	"github.com/veracode-customer-success/veracode-report-fetch-reporting-api/internal/transport"
	"github.com/veracode-customer-success/veracode-report-fetch-reporting-api/internal/verify"
	"github.com/veracode-customer-success/veracode-report-fetch-reporting-api/internal/window"
	"github.com/veracode-customer-success/veracode-report-fetch-reporting-api/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "report-fetch/0.1"
	ledgerFile       = "ledger.db"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch findings for a date range and write all output formats",
	Long: `Fetch splits the requested range into 180-day windows, submits one
analytics report per window, polls it to completion, and drains its
pages. All windows' records flow into one set of outputs: a JSONL file
(the authoritative stream), a JSON array, a single CSV file, and one
multi-sheet XLSX workbook. With --verify, each window also produces an
audit document and a row in the audit ledger.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("from", "", "range start, YYYY-MM-DD (required)")
	fetchCmd.Flags().String("to", "", "range end, YYYY-MM-DD (required)")
	fetchCmd.Flags().String("report-type", "FINDINGS", "analytics report type")
	fetchCmd.Flags().Int("size", 1000, "page size for report reads")
	fetchCmd.Flags().String("out", "./out", "output directory")
	fetchCmd.Flags().String("filters", "", "path to a JSON or YAML mapping of extra submission filters")
	fetchCmd.Flags().Duration("sleep", 500*time.Millisecond, "pause between submission and the first poll")
	fetchCmd.Flags().Duration("poll-timeout", 10*time.Minute, "wall-clock limit for one report to complete")
	fetchCmd.Flags().Duration("poll-interval", 2*time.Second, "pause between status polls")
	fetchCmd.Flags().Duration("timeout", defaultTimeout, "HTTP request timeout")
	fetchCmd.Flags().Bool("icons", false, "decorate progress lines with icons")
	fetchCmd.Flags().Bool("no-stamp", false, "do not add source_report_id/window_start/window_end to records")
	fetchCmd.Flags().Bool("verify", false, "audit pages seen against server-reported totals per window")
	fetchCmd.Flags().Bool("strict", false, "with --verify, fail on any mismatch or duplicate")
	fetchCmd.Flags().String("id-field", "", "record field checked for duplicate values during verification")
	fetchCmd.Flags().Bool("no-csv", false, "skip the CSV output")
	fetchCmd.Flags().Bool("no-xlsx", false, "skip the XLSX output")

	fetchCmd.MarkFlagRequired("from")
	fetchCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	creds, err := loadCredentials()
	if err != nil {
		return err
	}

	cfg, from, to, icons, err := fetchConfig(cmd)
	if err != nil {
		return err
	}

	start, end, err := window.Parse(from, to)
	if err != nil {
		return err
	}
	windows := window.Split(start, end)

	p := console.New(icons)
	p.Infof("Windows:")
	for _, w := range windows {
		if icon := p.Icon("window"); icon != "" {
			p.Infof("  - %s %s -> %s", icon, w.StartDate(), w.EndDate())
		} else {
			p.Infof("  - %s -> %s", w.StartDate(), w.EndDate())
		}
	}

	client := &transport.Client{
		BaseURL:   viper.GetString("api_base_url"),
		HTTP:      &http.Client{Timeout: cfg.Timeout},
		Creds:     creds,
		UserAgent: cfg.UserAgent,
		Printer:   p,
	}
	svc := &report.Service{Client: client, Printer: p}

	var ledger *verify.Ledger
	auditDir := filepath.Join(cfg.OutDir, "audit")
	if cfg.Verify {
		if err := os.MkdirAll(auditDir, 0o755); err != nil {
			return fmt.Errorf("creating audit directory: %w", err)
		}
		ledger, err = verify.OpenLedger(filepath.Join(auditDir, ledgerFile))
		if err != nil {
			return err
		}
		defer ledger.Close()
	}

	ctx := cmd.Context()
	var allRecords []types.Record
	grandTotal := 0

	for _, w := range windows {
		p.Infof("%s=== Window %s -> %s ===", iconPrefix(p, "window"), w.StartDate(), w.EndDate())

		rid, err := svc.Submit(ctx, cfg.ReportType, w, cfg.Filters)
		if err != nil {
			return err
		}
		p.Infof("  %sreport id: %s", iconPrefix(p, "report"), rid)

		if cfg.PostSubmitDelay > 0 {
			time.Sleep(cfg.PostSubmitDelay)
		}
		if err := svc.PollUntilComplete(ctx, rid, cfg.PollTimeout, cfg.PollInterval); err != nil {
			return err
		}

		var markers []types.PageMarker
		var windowRecords []types.Record
		windowTotal := 0

		onPage := func(m types.PageMarker) error {
			markers = append(markers, m)
			p.Infof("    %spage %d: %d items  window_total=%d, grand_total=%d",
				iconPrefix(p, "page"), m.PageNo, m.Count, windowTotal, grandTotal)
			return nil
		}
		onRecord := func(r types.Record) error {
			if cfg.Stamp {
				r = r.Stamp(rid, w.StartDate(), w.EndDate())
			}
			allRecords = append(allRecords, r)
			windowRecords = append(windowRecords, r)
			windowTotal++
			grandTotal++
			return nil
		}
		if err := svc.Stream(ctx, rid, cfg.PageSize, onPage, onRecord); err != nil {
			return err
		}

		if cfg.Verify {
			p.Infof("    %srunning verification ...", iconPrefix(p, "audit"))
			audit := verify.Run(rid, markers, windowRecords, cfg.IDField, p)
			if _, err := verify.WriteAudit(auditDir, audit); err != nil {
				return err
			}
			if err := ledger.Record(ctx, audit); err != nil {
				return err
			}
			if cfg.Strict && !audit.StrictOK {
				return fmt.Errorf("strict verification failed for report %s", rid)
			}
		}

		p.Infof("  %swindow complete: %d items  (grand_total=%d)", iconPrefix(p, "done"), windowTotal, grandTotal)
	}

	writer := export.NewWriter(cfg.OutDir, cfg.WriteCSV, cfg.WriteXLSX, p)
	paths, err := writer.WriteAll(allRecords)
	if err != nil {
		return err
	}

	p.Infof("Outputs:")
	p.Infof("  JSONL : %s", paths.JSONL)
	p.Infof("  JSON  : %s", paths.JSON)
	p.Infof("  CSV   : %s", orSkipped(paths.CSV))
	p.Infof("  XLSX  : %s", orSkipped(paths.XLSX))
	p.Infof("%sGrand total items: %d", iconPrefix(p, "done"), grandTotal)
	return nil
}

// fetchConfig resolves the run configuration from flags, falling back
// to config-file values for settings the caller did not pass.
func fetchConfig(cmd *cobra.Command) (types.FetchConfig, string, string, bool, error) {
	flags := cmd.Flags()

	from, _ := flags.GetString("from")
	to, _ := flags.GetString("to")
	icons, _ := flags.GetBool("icons")

	reportType, _ := flags.GetString("report-type")
	if !flags.Changed("report-type") && viper.IsSet("report_type") {
		reportType = viper.GetString("report_type")
	}
	size, _ := flags.GetInt("size")
	if !flags.Changed("size") && viper.IsSet("page_size") {
		size = viper.GetInt("page_size")
	}
	outDir, _ := flags.GetString("out")
	if !flags.Changed("out") && viper.IsSet("out_dir") {
		outDir = viper.GetString("out_dir")
	}

	filtersPath, _ := flags.GetString("filters")
	filters, err := loadFilters(filtersPath)
	if err != nil {
		return types.FetchConfig{}, "", "", false, err
	}

	postSubmitDelay, _ := flags.GetDuration("sleep")
	pollTimeout, _ := flags.GetDuration("poll-timeout")
	pollInterval, _ := flags.GetDuration("poll-interval")
	timeout, _ := flags.GetDuration("timeout")
	noStamp, _ := flags.GetBool("no-stamp")
	verifyOn, _ := flags.GetBool("verify")
	strict, _ := flags.GetBool("strict")
	idField, _ := flags.GetString("id-field")
	noCSV, _ := flags.GetBool("no-csv")
	noXLSX, _ := flags.GetBool("no-xlsx")

	cfg := types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		ReportType:      reportType,
		PageSize:        size,
		OutDir:          outDir,
		Filters:         filters,
		PostSubmitDelay: postSubmitDelay,
		PollTimeout:     pollTimeout,
		PollInterval:    pollInterval,
		Stamp:           !noStamp,
		Verify:          verifyOn,
		Strict:          strict,
		IDField:         idField,
		WriteCSV:        !noCSV,
		WriteXLSX:       !noXLSX,
	}
	return cfg, from, to, icons, nil
}

// loadCredentials reads the API key pair from the environment. Missing
// credentials are a fatal precondition; legacy variable names draw a
// warning because the HMAC signer ignores them.
func loadCredentials() (transport.Credentials, error) {
	id := os.Getenv("VERACODE_API_KEY_ID")
	secret := os.Getenv("VERACODE_API_KEY_SECRET")
	if id == "" || secret == "" {
		return transport.Credentials{}, fmt.Errorf("set VERACODE_API_KEY_ID and VERACODE_API_KEY_SECRET")
	}
	if os.Getenv("VERACODE_API_ID") != "" || os.Getenv("VERACODE_API_KEY") != "" {
		fmt.Fprintln(os.Stderr, "WARN: legacy VERACODE_API_ID/VERACODE_API_KEY are set; signing uses *_KEY_ID/*_KEY_SECRET.")
	}
	return transport.Credentials{APIID: id, APIKey: secret}, nil
}

// loadFilters reads an optional JSON or YAML filter document. The
// document must be a mapping; anything else is a fatal input error.
func loadFilters(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading --filters: %w", err)
	}

	var filters map[string]any
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		err = yaml.Unmarshal(data, &filters)
	} else {
		err = json.Unmarshal(data, &filters)
	}
	if err != nil {
		return nil, fmt.Errorf("--filters must be a JSON or YAML mapping: %w", err)
	}
	return filters, nil
}

func iconPrefix(p *console.Printer, name string) string {
	if icon := p.Icon(name); icon != "" {
		return icon + " "
	}
	return ""
}

func orSkipped(path string) string {
	if path == "" {
		return "(skipped)"
	}
	return path
}
