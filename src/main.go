package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"shopfront/src/server"
	"shopfront/src/settings"

	"go.uber.org/zap"
)

// printUsage prints helpful usage information
func printUsage() {
	log.Println("shopfront - A small catalog service for phone accessories")
	log.Println("\nUsage:")
	log.Println("  shopfront [options]")
	log.Println("\nOptions:")
	flag.PrintDefaults()

	log.Println("\nExamples:")
	log.Println("  shopfront --datadir=/data")
	log.Println("  shopfront --port=8080 --storage_engine=sqlite --logdir=./log_files")
	log.Println("  shopfront --config=shopfront.yaml --auth")
}

func main() {
	// Get the global settings instance
	args := settings.GetSettings()

	// Define command line flags that map to the Arguments struct
	flag.StringVar(&args.DataDir, "datadir", args.DataDir, "Directory to store data files")
	flag.StringVar(&args.LogDir, "logdir", args.LogDir, "Directory to store log files (default: stdout only)")
	flag.StringVar(&args.ConfigFile, "config", "", "Path to YAML config file")
	flag.StringVar(&args.Host, "host", args.Host, "Host name or IP address to listen on")
	flag.IntVar(&args.Port, "port", args.Port, "Port for the HTTP server")
	flag.BoolVar(&args.Verbose, "verbose", args.Verbose, "Enable verbose logging")
	flag.BoolVar(&args.Debug, "debug", args.Debug, "Enable debug mode")
	flag.BoolVar(&args.PrintToScreen, "print", args.PrintToScreen, "Print Log Messages to screen")
	flag.BoolVar(&args.AuthEnabled, "auth", args.AuthEnabled, "Require basic auth on write endpoints")
	flag.StringVar(&args.StorageEngine, "storage_engine", args.StorageEngine, "Accessory storage engine (bson, sqlite)")
	flag.IntVar(&args.CacheTTLSeconds, "cache_ttl", args.CacheTTLSeconds, "Read cache TTL in seconds (0 disables the cache)")
	flag.BoolVar(&args.SeedData, "seed", args.SeedData, "Insert the default accessories into an empty store")
	flag.BoolVar(&args.JournalEnabled, "journal", args.JournalEnabled, "Record accessory mutations in the journal")
	flag.Int64Var(&args.MaxJournalFileSize, "maxjournalfilesize", args.MaxJournalFileSize, "Maximum size of journal files in bytes")
	flag.IntVar(&args.ShutdownTimeoutSeconds, "shutdown_timeout", args.ShutdownTimeoutSeconds, "Graceful shutdown timeout in seconds")
	flag.StringVar(&args.UserStoreFile, "userstore", args.UserStoreFile, "Encrypted user store file (default: memory only)")
	flag.StringVar(&args.EncryptionKey, "encryptionkey", args.EncryptionKey, "Key for the user store file")

	// Parse the command line
	flag.Parse()

	// Config file values sit between defaults and explicit flags,
	// so parse the command line again after loading it.
	if args.ConfigFile != "" {
		if err := settings.LoadConfigFile(args.ConfigFile, args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n\n", err)
			printUsage()
			os.Exit(1)
		}
		if err := flag.CommandLine.Parse(os.Args[1:]); err != nil {
			os.Exit(2)
		}
	}

	// Validate the arguments
	if err := settings.ValidateArguments(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n\n", err)
		printUsage()
		os.Exit(1)
	}

	// Create and start the server
	srv, err := server.InitServer(args)
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}
	logger := zap.S()

	// Print the arguments if in verbose mode
	if args.Verbose {
		logger.Infow("shopfront starting with options",
			"datadir", args.DataDir,
			"logdir", args.LogDir,
			"host", args.Host,
			"port", args.Port,
			"config", args.ConfigFile,
			"storage_engine", args.StorageEngine,
			"cache_ttl_seconds", args.CacheTTLSeconds,
			"journal", args.JournalEnabled,
			"auth", args.AuthEnabled)
	}

	// Start the server
	if err := srv.Start(); err != nil {
		srv.Stop()
		logger.Fatalf("Failed to start server: %v", err)
	}

	// Handle graceful shutdown
	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, syscall.SIGINT, syscall.SIGTERM)

	<-shutdownSignal
	logger.Info("Shutting down server...")

	if err := srv.Stop(); err != nil {
		logger.Errorf("Error stopping server: %v", err)
		os.Exit(1)
	}
}
