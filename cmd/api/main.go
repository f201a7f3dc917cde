package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	apiconfig "findash/pkg/api/config"
	"findash/pkg/api/statements"
	"findash/pkg/api/status"
	"findash/pkg/config"
	"findash/pkg/core/assemble"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	configPath := flag.String("config", "", "optional config file (yaml or hjson), overlays env")
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	cfg := config.FromEnv()
	if *configPath != "" {
		loaded, err := config.LoadFile(cfg, *configPath)
		if err != nil {
			fmt.Printf("[FATAL] Config load failed: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
		fmt.Printf("[CONFIG] Loaded overrides from %s\n", *configPath)
	}

	assembler := assemble.New(cfg)

	// Statement endpoints
	stmtHandler := statements.NewHandler(assembler)
	http.HandleFunc("/api/statements/income", stmtHandler.HandleIncome)
	http.HandleFunc("/api/statements/balance", stmtHandler.HandleBalance)
	http.HandleFunc("/api/statements/cashflow", stmtHandler.HandleCashFlow)

	// Status and config endpoints
	statusHandler := status.NewHandler(cfg)
	http.HandleFunc("/api/status", statusHandler.HandleStatus)
	cfgHandler := apiconfig.NewHandler(cfg)
	http.HandleFunc("/api/config", cfgHandler.HandleConfig)

	fmt.Printf("API server starting on %s...\n", *addr)
	fmt.Println("  - GET /api/statements/income?start=&end=")
	fmt.Println("  - GET /api/statements/balance?as_of=")
	fmt.Println("  - GET /api/statements/cashflow?start=&end=")
	fmt.Println("  - GET /api/status")
	fmt.Println("  - GET /api/config")
	if cfg.UseDemoData {
		fmt.Println("[CONFIG] Demo mode is ON: statements are built from fixture data.")
	}

	if err := http.ListenAndServe(*addr, nil); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}
