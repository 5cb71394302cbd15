package main

import (
	"context"
	"fmt"

	"github.com/kasuganosora/itemvault/registry"
	"github.com/kasuganosora/itemvault/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	seedType  string
	seedCount int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert placeholder items of one type",
	Long: `Seed inserts --count placeholder items of the given --type through the
same create path the HTTP API uses, so every item gets a fresh shared id.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedType, "type", string(registry.Weapon), "item type tag or short code")
	seedCmd.Flags().IntVar(&seedCount, "count", 10, "number of items to create")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	tag, err := registry.Parse(seedType)
	if err != nil {
		return err
	}
	if seedCount <= 0 {
		return fmt.Errorf("--count must be positive, got %d", seedCount)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Server.Debug)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	db, err := openDB(cfg.Database)
	if err != nil {
		return err
	}
	items := store.NewEntityStore(db, nil, 0, logger)
	ids, err := seedItems(cmd.Context(), items, tag, seedCount)
	if err != nil {
		return err
	}
	logger.Info("seeded items", zap.String("type", string(tag)), zap.Int("count", len(ids)))
	if len(ids) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "created %d %s items (ids %d-%d)\n", len(ids), tag, ids[0], ids[len(ids)-1])
	}
	return nil
}

// seedItems creates count items of tag and returns their ids in order.
func seedItems(ctx context.Context, items *store.EntityStore, tag registry.Tag, count int) ([]int64, error) {
	schema, err := registry.Lookup(tag)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, count)
	for i := 1; i <= count; i++ {
		res, err := items.Create(ctx, tag, seedPayload(schema.Fields, i))
		if err != nil {
			return ids, fmt.Errorf("seed %s #%d: %w", tag, i, err)
		}
		ids = append(ids, res.ItemID)
	}
	return ids, nil
}

func seedPayload(fields registry.FieldSet, i int) map[string]any {
	payload := make(map[string]any, len(fields))
	for _, f := range fields {
		switch {
		case f.Name == "name":
			payload[f.Name] = fmt.Sprintf("Test Item %d", i)
		case f.Name == "note":
			payload[f.Name] = "Test"
		case f.Name == "weight":
			payload[f.Name] = 1
		case f.Kind == registry.KindInt:
			payload[f.Name] = 0
		case f.Kind == registry.KindBool:
			payload[f.Name] = false
		case f.Kind == registry.KindString:
			payload[f.Name] = ""
		}
	}
	return payload
}
