// Package main converts Flipper Zero .nfc text files to raw Mifare Classic
// .dump images and back. Files named on the command line are converted
// once; -watch converts files dropped into a folder, -serve exposes the
// converter over HTTP and WebSocket, and -tray runs both from the system tray.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"fyne.io/systray"

	"github.com/nedpals/nfc-dump-converter/buildinfo"
	"github.com/nedpals/nfc-dump-converter/config"
	"github.com/nedpals/nfc-dump-converter/converter"
)

// cliFlags holds the command-line overrides of config.Config.
type cliFlags struct {
	envFile   string
	outputDir string
	strict    bool
	serve     bool
	port      int
	watchDir  string
	existing  bool
	tray      bool
	mdns      bool
	autoTLS   bool
	certFile  string
	keyFile   string
	version   bool
}

func registerFlags(fs *flag.FlagSet) *cliFlags {
	f := &cliFlags{}
	defaults := config.Default()

	fs.StringVar(&f.envFile, "env", ".env", "Environment file with "+config.EnvPrefix+"* settings")
	fs.StringVar(&f.outputDir, "o", "", "Output directory (default: next to each input)")
	fs.BoolVar(&f.strict, "strict", false, "Require block indexes to be consecutive from 0")
	fs.BoolVar(&f.serve, "serve", false, "Run the HTTP/WebSocket conversion service")
	fs.IntVar(&f.port, "port", defaults.Port, "Port for the conversion service")
	fs.StringVar(&f.watchDir, "watch", "", "Convert files dropped into this folder")
	fs.BoolVar(&f.existing, "existing", false, "With -watch, also convert files already in the folder")
	fs.BoolVar(&f.tray, "tray", false, "Run from the system tray (implies -serve)")
	fs.BoolVar(&f.mdns, "mdns", false, "Advertise the service with mDNS")
	fs.BoolVar(&f.autoTLS, "tls-auto", false, "Serve HTTPS with a locally trusted certificate")
	fs.StringVar(&f.certFile, "cert", "", "TLS certificate file")
	fs.StringVar(&f.keyFile, "key", "", "TLS private key file")
	fs.BoolVar(&f.version, "version", false, "Print version information and exit")
	return f
}

// apply copies the flags that were set explicitly onto cfg, so they win
// over the environment.
func (f *cliFlags) apply(fs *flag.FlagSet, cfg *config.Config) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "o":
			cfg.OutputDir = f.outputDir
		case "strict":
			cfg.StrictBlockIndex = f.strict
		case "port":
			cfg.Port = f.port
		case "watch":
			cfg.WatchDir = f.watchDir
		case "existing":
			cfg.ConvertExisting = f.existing
		case "mdns":
			cfg.EnableMDNS = f.mdns
		case "tls-auto":
			cfg.AutoTLS = f.autoTLS
		case "cert":
			cfg.CertFile = f.certFile
		case "key":
			cfg.KeyFile = f.keyFile
		}
	})
}

func main() {
	fs := flag.CommandLine
	flags := registerFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "%s %s\n\n", buildinfo.DisplayName, buildinfo.FullVersion())
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] [file.nfc|file.dump ...]\n\n", buildinfo.Name)
		fs.PrintDefaults()
	}
	flag.Parse()

	if flags.version {
		fmt.Println(buildinfo.Current())
		return
	}

	cfg, err := config.Load(flags.envFile)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	flags.apply(fs, &cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	files := fs.Args()
	longRunning := flags.tray || flags.serve || cfg.WatchDir != ""

	if len(files) == 0 && !longRunning {
		fs.Usage()
		os.Exit(2)
	}

	if len(files) > 0 {
		logger := log.New(os.Stderr, "", log.LstdFlags)
		conv := converter.New(converter.Options{StrictBlockIndex: cfg.StrictBlockIndex})
		if failed := convertFiles(logger, conv, files, cfg.OutputDir); failed > 0 && !longRunning {
			os.Exit(1)
		}
		if !longRunning {
			return
		}
	}

	if buildinfo.IsDev() {
		log.Printf("Running development build of %s", buildinfo.Name)
	}

	agent := NewAgent(cfg, flags.tray || flags.serve)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if flags.tray {
		go func() {
			<-sigChan
			systray.Quit()
		}()
		NewSystrayApp(agent).Run()
		return
	}

	if err := agent.Start(); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer agent.Stop()

	<-sigChan
	log.Println("Shutdown signal received, stopping...")
}
