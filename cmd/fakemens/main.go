package main

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"

	"github.com/simonwyatt/fake-menstruator/internal/config"
	"github.com/simonwyatt/fake-menstruator/internal/storage"
)

var version = "dev"

var (
	noColor     bool
	dataDirFlag string
	seedFlag    uint64
)

var rootCmd = &cobra.Command{
	Use:   "fakemens",
	Short: "Generate plausible synthetic menstrual-cycle data",
	Long: `fakemens synthesizes menstrual-cycle timelines that statistically
resemble real tracked data, for injection into period-tracker datasets
as indistinguishable chaff.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "data directory (overrides config)")
	rootCmd.PersistentFlags().Uint64Var(&seedFlag, "seed", 0, "random seed for reproducible runs (0 = random)")

	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(remindCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if dataDirFlag != "" {
		cfg.Storage.DataDir = dataDirFlag
	}
	return cfg, nil
}

func openStore() (*storage.Store, config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, config.Config{}, err
	}
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("opening storage: %w", err)
	}
	return store, cfg, nil
}

// newRand builds the process's random stream: seeded from --seed for
// reproducible runs, otherwise from OS entropy. Nothing in the module
// touches the global rand state.
func newRand() *rand.Rand {
	if seedFlag != 0 {
		return rand.New(rand.NewPCG(seedFlag, seedFlag))
	}
	var b [16]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("reading entropy: %v", err))
	}
	return rand.New(rand.NewPCG(
		binary.LittleEndian.Uint64(b[:8]),
		binary.LittleEndian.Uint64(b[8:]),
	))
}
