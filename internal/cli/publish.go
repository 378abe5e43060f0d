package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/geoportal-waw/waw-events/internal/logger"
	"github.com/geoportal-waw/waw-events/internal/notifier"
)

var flagDryRun bool

func newPublishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish scraped records to Kafka",
		Long: `Scrape a day, a range or the home page and publish one Kafka message
per record, keyed by record ID, to WAW_KAFKA_TOPIC on WAW_KAFKA_BROKERS.`,
		Args: cobra.NoArgs,
		RunE: runPublish,
	}
	addSourceFlags(cmd)
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Print the messages instead of publishing them")
	return cmd
}

func runPublish(cmd *cobra.Command, args []string) error {
	src, err := sourceFromFlags()
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	var n notifier.Notifier
	if flagDryRun {
		n = notifier.NewDryRunNotifier(cmd.OutOrStdout())
	} else {
		kn, err := notifier.NewKafkaNotifier(a.cfg.KafkaBrokers, a.cfg.KafkaTopic)
		if err != nil {
			return fmt.Errorf("creating Kafka notifier: %w", err)
		}
		n = kn
	}
	defer func() {
		if err := n.Close(); err != nil {
			a.log.Error("Closing notifier failed", nil, err)
		}
	}()

	drv, cleanup, err := a.lateDriver(modeFor(flagNoAddress, flagNoGeocode))
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	records, err := src.collect(ctx, drv)
	if err != nil {
		return fmt.Errorf("fetching events: %w", err)
	}
	drv.Enrich(ctx, records)

	if err := n.Notify(ctx, records); err != nil {
		return fmt.Errorf("publishing records: %w", err)
	}

	a.log.Info("Publish finished", logger.Fields{"records": len(records), "dry_run": flagDryRun})
	return nil
}
