package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/navikit/navgraph/internal/config"
	"github.com/navikit/navgraph/pkg/client"
	"github.com/navikit/navgraph/pkg/schema"
)

// newSeedCmd builds a small demo graph and writes it to the snapshot
// database, so a fresh deployment has something to query.
func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Populate the snapshot with a demo navigation graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if cfg.SnapshotPath == "" {
				return fmt.Errorf("seed requires snapshot_path to be configured")
			}

			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Sync()

			c, db, err := buildClient(cfg, log)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := seedDemo(c); err != nil {
				return err
			}
			if err := saveSnapshot(c, db, log); err != nil {
				return err
			}

			stats := c.GraphStats()
			log.Info("demo graph seeded",
				zap.Int("pages", stats.TotalPages),
				zap.Int("transitions", stats.TotalTransitions))
			return nil
		},
	}
}

// seedDemo builds a three-page food-ordering flow with a registered intent.
func seedDemo(c *client.Client) error {
	const appID = "com.example.food"
	c.Builder().CreateApp(appID, "Food Demo", "", "")

	pages := []struct {
		name, ptype, desc string
		intents           []string
	}{
		{"home", "home", "app landing screen with search and categories", nil},
		{"restaurant_list", "list", "browseable list of nearby restaurants", []string{"find restaurants"}},
		{"restaurant_detail", "detail", "menu and ordering screen for one restaurant", []string{"order food"}},
	}

	ids := make(map[string]string, len(pages))
	for _, p := range pages {
		id, err := c.AddPage(appID, p.name, p.ptype, p.desc, p.intents)
		if err != nil {
			return err
		}
		ids[p.name] = id
	}

	now := time.Now()
	edges := []struct {
		from, to, widget string
	}{
		{"home", "restaurant_list", "Nearby"},
		{"restaurant_list", "restaurant_detail", "Restaurant"},
	}
	for _, e := range edges {
		c.Graph().AddTransition(&schema.Transition{
			TransitionID:      schema.TransitionID(ids[e.from], ids[e.to], schema.ActionClick),
			SourcePageID:      ids[e.from],
			TargetPageID:      ids[e.to],
			TriggerWidgetText: e.widget,
			ActionType:        schema.ActionClick,
			SuccessCount:      1,
			DiscoveredAt:      now,
		})
	}

	if _, err := c.RegisterIntent(appID, "order food", ids["restaurant_detail"], nil); err != nil {
		return err
	}
	_, err := c.RegisterIntent(appID, "find restaurants", ids["restaurant_list"], nil)
	return err
}
