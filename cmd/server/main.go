package main

import (
	"fmt"
	"log"
	"os"

	"github.com/barcodelens/backend/config"
	httpDelivery "github.com/barcodelens/backend/internal/delivery/http"
	"github.com/barcodelens/backend/internal/domain"
	"github.com/barcodelens/backend/internal/infrastructure/catalogfile"
	"github.com/barcodelens/backend/internal/infrastructure/decoder"
	"github.com/barcodelens/backend/internal/infrastructure/history"
	"github.com/barcodelens/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting BarcodeLens Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	// Load the product catalog. A broken catalog is not fatal: the server
	// runs degraded (code-only scanning still works) and catalog endpoints
	// report unavailable.
	var catalog *usecase.CatalogIndex
	if data, err := catalogfile.Load(cfg.Catalog.Path); err != nil {
		log.Printf("WARNING: catalog %s unavailable, running degraded: %v", cfg.Catalog.Path, err)
	} else if catalog, err = usecase.BuildCatalogIndex(data); err != nil {
		log.Printf("WARNING: catalog index build failed, running degraded: %v", err)
		catalog = nil
	} else {
		log.Printf("Catalog loaded: %d products", catalog.Size())
	}

	// Infrastructure
	barcodeDecoder := decoder.NewZXingDecoder(cfg.Scanner.EnableDebugLogging)
	frameCodec := decoder.Codec{}

	var historyStore domain.HistoryStore
	if cfg.History.Enabled {
		store, err := history.NewBoltStore(cfg.History.Path)
		if err != nil {
			log.Printf("WARNING: scan history disabled: %v", err)
		} else {
			historyStore = store
			defer store.Close()
			log.Printf("Scan history: %s", cfg.History.Path)
		}
	}

	log.Printf("Scanner: max %.0f frames/s (burst %d), debug=%v",
		cfg.Scanner.MaxFramesPerSecond,
		cfg.Scanner.FrameBurst,
		cfg.Scanner.EnableDebugLogging)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(catalog, barcodeDecoder, frameCodec, historyStore, cfg)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
