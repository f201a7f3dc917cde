package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"findash/pkg/config"
	"findash/pkg/core/assemble"
	"findash/pkg/models"

	"github.com/joho/godotenv"
)

// finstmt builds one financial statement and prints it as JSON, for
// piping into jq or spreadsheets without running the API server.
func main() {
	godotenv.Load()

	statement := flag.String("statement", "income", "statement to build: income | balance | cashflow")
	startFlag := flag.String("start", "", "period start (YYYY-MM-DD), income/cashflow only")
	endFlag := flag.String("end", "", "period end (YYYY-MM-DD), income/cashflow only")
	asOfFlag := flag.String("as-of", "", "as-of date (YYYY-MM-DD), balance only, defaults to today")
	configPath := flag.String("config", "", "optional config file (yaml or hjson), overlays env")
	flag.Parse()

	cfg := config.FromEnv()
	if *configPath != "" {
		loaded, err := config.LoadFile(cfg, *configPath)
		if err != nil {
			fatalf("config load failed: %v", err)
		}
		cfg = loaded
	}

	assembler := assemble.New(cfg)
	ctx := context.Background()

	var result interface{}
	var err error
	switch *statement {
	case "income":
		result, err = assembler.IncomeStatement(ctx, parsePeriod(*startFlag, *endFlag))
	case "cashflow":
		result, err = assembler.CashFlowStatement(ctx, parsePeriod(*startFlag, *endFlag))
	case "balance":
		asOf := time.Now().UTC()
		if *asOfFlag != "" {
			asOf = parseDate(*asOfFlag)
		}
		result, err = assembler.BalanceSheet(ctx, asOf)
	default:
		fatalf("unknown statement %q: want income, balance, or cashflow", *statement)
	}
	if err != nil {
		fatalf("build failed: %v", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fatalf("encode failed: %v", err)
	}
	fmt.Println(string(out))
}

// parsePeriod defaults to the trailing twelve full months ending last
// month, matching the API server's default window.
func parsePeriod(startRaw, endRaw string) models.Period {
	if startRaw == "" && endRaw == "" {
		now := time.Now().UTC()
		firstOfThisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return models.NewPeriod(firstOfThisMonth.AddDate(-1, 0, 0), firstOfThisMonth.AddDate(0, 0, -1))
	}
	start := parseDate(startRaw)
	end := parseDate(endRaw)
	if start.After(end) {
		fatalf("start %s is after end %s", startRaw, endRaw)
	}
	return models.NewPeriod(start, end)
}

func parseDate(raw string) time.Time {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		fatalf("bad date %q: want YYYY-MM-DD", raw)
	}
	return t
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[FATAL] "+format+"\n", args...)
	os.Exit(1)
}
