package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	usagepkg "mercator-hq/callisto/pkg/usage"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Summarize recorded token usage",
	Long: `Summarize token usage from the persistent usage store. Requires the
sqlite usage backend:

  callisto usage --since 24h
  callisto usage --since 168h   # last week`,
	RunE: runUsage,
}

func runUsage(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openUsageStore(&cfg.Usage)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("usage reporting requires the sqlite backend (usage.backend: sqlite)")
	}
	defer store.Close()

	since, _ := cmd.Flags().GetDuration("since")
	records, err := store.RecordsSince(cmd.Context(), time.Now().Add(-since))
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no usage recorded in the requested window")
		return nil
	}

	type aggregate struct {
		calls      int
		prompt     int
		completion int
		total      int
	}
	byModel := make(map[string]*aggregate)
	var order []string
	grand := aggregate{}

	for _, rec := range records {
		key := rec.Provider + "/" + rec.Model
		agg, ok := byModel[key]
		if !ok {
			agg = &aggregate{}
			byModel[key] = agg
			order = append(order, key)
		}
		for _, a := range []*aggregate{agg, &grand} {
			a.calls++
			a.prompt += rec.PromptTokens
			a.completion += rec.CompletionTokens
			a.total += rec.TotalTokens
		}
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER/MODEL\tCALLS\tPROMPT\tCOMPLETION\tTOTAL")
	for _, key := range order {
		agg := byModel[key]
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", key, agg.calls, agg.prompt, agg.completion, agg.total)
	}
	fmt.Fprintf(w, "all\t%d\t%d\t%d\t%d\n", grand.calls, grand.prompt, grand.completion, grand.total)
	return w.Flush()
}

var usagePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete usage records older than the retention period",
	RunE:  runUsagePrune,
}

func runUsagePrune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openUsageStore(&cfg.Usage)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("pruning requires the sqlite backend (usage.backend: sqlite)")
	}
	defer store.Close()

	pruner := usagepkg.NewPruner(store, &usagepkg.RetentionConfig{
		RetentionDays: cfg.Usage.RetentionDays,
	})

	deleted, err := pruner.Prune(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d record(s)\n", deleted)
	return nil
}

func init() {
	usageCmd.Flags().Duration("since", 24*time.Hour, "reporting window")
	usageCmd.AddCommand(usagePruneCmd)
	rootCmd.AddCommand(usageCmd)
}
