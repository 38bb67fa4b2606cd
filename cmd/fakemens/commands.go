package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/simonwyatt/fake-menstruator/internal/export"
	"github.com/simonwyatt/fake-menstruator/internal/remind"
	"github.com/simonwyatt/fake-menstruator/internal/sim"
	"github.com/simonwyatt/fake-menstruator/internal/storage"
)

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage simulated user profiles",
}

var profileNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Derive and persist fresh profiles from population statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		label, _ := cmd.Flags().GetString("label")

		store, cfg, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if count == 0 {
			count = cfg.Generate.Profiles
		}

		runner := sim.New(store, newRand())
		profiles, err := runner.NewProfiles(cmd.Context(), count, label)
		if err != nil {
			return err
		}

		for _, p := range profiles {
			fmt.Printf("%s  %s\n", colorize(colorCyan, p.ID[:8]), p.Description)
		}
		printSuccess("Created %d profile(s)", len(profiles))
		return nil
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		profiles, err := store.ListProfiles()
		if err != nil {
			return err
		}
		if len(profiles) == 0 {
			fmt.Println("No profiles found.")
			return nil
		}

		for _, p := range profiles {
			label := p.Label
			if label != "" {
				label = " (" + label + ")"
			}
			fmt.Printf("%s  %s%s  %s\n",
				colorize(colorCyan, p.ID[:8]),
				p.CreatedAt.Format("2006-01-02"),
				label,
				p.Description,
			)
		}
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one profile's parameters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		p, err := resolveProfile(store, args[0])
		if err != nil {
			return err
		}
		n, err := store.CountCycles(p.ID)
		if err != nil {
			return err
		}

		fmt.Printf("ID:          %s\n", p.ID)
		fmt.Printf("Created:     %s\n", p.CreatedAt.Format(time.RFC3339))
		if p.Label != "" {
			fmt.Printf("Label:       %s\n", p.Label)
		}
		fmt.Printf("Description: %s\n", p.Description)
		fmt.Printf("Cycle:       %.2f +- %.2f days\n", p.CycleMu, p.CycleSigma)
		fmt.Printf("Bleed:       %.2f +- %.2f days\n", p.BleedMu, p.BleedSigma)
		fmt.Printf("Anomaly p:   %.3f per cycle\n", p.AnomalyP)
		fmt.Printf("Cycles:      %d stored\n", n)
		return nil
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a profile and its cycles",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		p, err := resolveProfile(store, args[0])
		if err != nil {
			return err
		}
		if err := store.DeleteProfile(p.ID); err != nil {
			return err
		}
		printSuccess("Deleted profile %s", p.ID[:8])
		return nil
	},
}

func init() {
	profileNewCmd.Flags().Int("count", 0, "number of profiles to derive (default from config)")
	profileNewCmd.Flags().String("label", "", "label attached to the new profiles")
	profileCmd.AddCommand(profileNewCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileDeleteCmd)
}

// resolveProfile accepts a full ID or an unambiguous prefix.
func resolveProfile(store *storage.Store, id string) (storage.Profile, error) {
	p, err := store.GetProfile(id)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return storage.Profile{}, err
	}

	profiles, err := store.ListProfiles()
	if err != nil {
		return storage.Profile{}, err
	}
	var match *storage.Profile
	for i := range profiles {
		if len(id) > 0 && len(profiles[i].ID) >= len(id) && profiles[i].ID[:len(id)] == id {
			if match != nil {
				return storage.Profile{}, fmt.Errorf("profile prefix %q is ambiguous", id)
			}
			match = &profiles[i]
		}
	}
	if match == nil {
		return storage.Profile{}, fmt.Errorf("profile %q: %w", id, storage.ErrNotFound)
	}
	return *match, nil
}

// --- generate ---

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a batch of cycles for a profile",
	Long: `Generate a batch of cycles for a profile and persist them.

The anchor date defaults to today, and the day-within-current-cycle
offset defaults to a random day in [0, cycle_length), so generated
histories line up believably with the real calendar.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		profileID, _ := cmd.Flags().GetString("profile")
		count, _ := cmd.Flags().GetInt("count")
		startStr, _ := cmd.Flags().GetString("start")
		cycleDay, _ := cmd.Flags().GetInt("cycle-day")

		store, cfg, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if count == 0 {
			count = cfg.Generate.Cycles
		}

		var prof storage.Profile
		if profileID == "" {
			prof, err = store.LatestProfile()
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("no profiles stored; run `fakemens profile new` first")
			}
		} else {
			prof, err = resolveProfile(store, profileID)
		}
		if err != nil {
			return err
		}

		var start time.Time
		if startStr != "" {
			start, err = time.Parse("2006-01-02", startStr)
			if err != nil {
				return fmt.Errorf("invalid --start date: %w", err)
			}
		}

		runner := sim.New(store, newRand())
		cycles, err := runner.GenerateBatch(prof.ID, start, count, cycleDay)
		if err != nil {
			return err
		}

		fmt.Printf("Your cycle parameters: %s\n", prof.Description)
		fmt.Printf("Your next %d cycles:\n", len(cycles))
		for _, c := range cycles {
			fmt.Printf("    %s\n", formatCycle(c))
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().String("profile", "", "profile ID (default: most recently created)")
	generateCmd.Flags().Int("count", 0, "number of cycles to generate (default from config)")
	generateCmd.Flags().String("start", "", "anchor date YYYY-MM-DD (default: today)")
	generateCmd.Flags().Int("cycle-day", sim.RandomCycleDay, "days into the current cycle at the anchor date (default: random)")
}

// --- export ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored cycles as JSONL or CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		profileID, _ := cmd.Flags().GetString("profile")
		formatStr, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		format, err := export.ParseFormat(formatStr)
		if err != nil {
			return err
		}

		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		var cycles []storage.Cycle
		if profileID == "" {
			cycles, err = store.ListAllCycles()
		} else {
			var prof storage.Profile
			prof, err = resolveProfile(store, profileID)
			if err != nil {
				return err
			}
			cycles, err = store.ListCycles(prof.ID)
		}
		if err != nil {
			return err
		}

		writer := os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			writer = f
		}

		if err := export.Write(writer, format, cycles); err != nil {
			return err
		}
		if output != "" {
			printSuccess("Exported %d cycle(s) to %s", len(cycles), output)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().String("profile", "", "export a single profile's cycles (default: all)")
	exportCmd.Flags().String("format", "jsonl", "output format: jsonl or csv")
	exportCmd.Flags().String("output", "", "output file path (default: stdout)")
}

// --- remind ---

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Show or schedule data-entry reminders",
	Long: `Show upcoming data-entry reminders, or run a foreground scheduler
that logs them on a cron spec. Reminders tell you when to log each
profile's period start and end into the target app so entries appear
at believable times.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		once, _ := cmd.Flags().GetBool("once")

		store, cfg, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		planner := remind.NewPlanner(cfg.Remind.HorizonDays)

		if once {
			due, err := planner.Upcoming(store, time.Now())
			if err != nil {
				return err
			}
			if len(due) == 0 {
				fmt.Printf("Nothing due in the next %d days.\n", cfg.Remind.HorizonDays)
				return nil
			}
			for _, r := range due {
				fmt.Printf("%s  %s\n", r.Due.Format("2006-01-02"), r.Message)
			}
			return nil
		}

		setupLogging(cfg.Log.Level)
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sched := remind.NewScheduler(planner, store, cfg.Remind.CronSpec, nil)
		return sched.Start(ctx)
	},
}

func init() {
	remindCmd.Flags().Bool("once", false, "print due reminders and exit")
}

// --- purge ---

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all stored profiles and cycles",
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			printWarning("This will delete ALL stored data. Use --confirm to proceed.")
			return nil
		}

		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		printStep("Deleting profiles and cycles...")
		if err := store.PurgeAll(); err != nil {
			return err
		}
		printSuccess("All data purged")
		return nil
	},
}

func init() {
	purgeCmd.Flags().Bool("confirm", false, "confirm data purge")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		token := "(unset, auth disabled)"
		if cfg.Server.Token != "" {
			token = "(set)"
		}

		show := []struct{ key, value string }{
			{"storage.data_dir", cfg.Storage.DataDir},
			{"server.port", fmt.Sprintf("%d", cfg.Server.Port)},
			{"server.token", token},
			{"generate.cycles", fmt.Sprintf("%d", cfg.Generate.Cycles)},
			{"generate.profiles", fmt.Sprintf("%d", cfg.Generate.Profiles)},
			{"remind.cron", cfg.Remind.CronSpec},
			{"remind.horizon_days", fmt.Sprintf("%d", cfg.Remind.HorizonDays)},
			{"log.level", cfg.Log.Level},
		}
		for _, kv := range show {
			fmt.Printf("  %s = %s\n", colorize(colorBold, kv.key), kv.value)
		}
		return nil
	},
}
