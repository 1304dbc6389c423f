package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/openhours/libs/config"
	"github.com/md-rashed-zaman/openhours/libs/grpcx"
	"github.com/md-rashed-zaman/openhours/libs/kafkax"
	"github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var (
	probeAddr    string
	probeService string
	watchBrokers string
	watchGroup   string
	watchTopics  []string
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Query the gRPC health service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := grpcx.Probe(cmd.Context(), probeAddr, probeService, grpcx.DialOptions{Timeout: 3 * time.Second})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", probeAddr, st)
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print business hours events as they are published",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		brokers := kafkax.SplitBrokers(watchBrokers)
		if len(brokers) == 0 {
			return errors.New("--brokers (or KAFKA_BROKERS) is required")
		}
		otel.SetTextMapPropagator(propagation.TraceContext{})

		reader := kafkax.NewReader(brokers, watchGroup, watchTopics...)
		defer reader.Close()

		ctx := cmd.Context()
		for {
			msg, err := reader.ReadMessage(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatEvent(ctx, msg))
		}
	},
}

func init() {
	probeCmd.Flags().StringVar(&probeAddr, "addr", config.String("GRPC_ADDR", "localhost:9090"), "gRPC address")
	probeCmd.Flags().StringVar(&probeService, "service", "openhours.HoursService", "health service name (empty for the server)")
	watchCmd.Flags().StringVar(&watchBrokers, "brokers", config.String("KAFKA_BROKERS", "localhost:9092"), "comma separated Kafka brokers")
	watchCmd.Flags().StringVar(&watchGroup, "group", "hours-eval", "consumer group")
	watchCmd.Flags().StringSliceVar(&watchTopics, "topics", []string{
		"business.hours.opened.v1",
		"business.hours.closed.v1",
		"business.hours.updated.v1",
		"business.hours.deleted.v1",
	}, "topics to follow")
	rootCmd.AddCommand(probeCmd, watchCmd)
}

func formatEvent(ctx context.Context, msg kafka.Message) string {
	meta := kafkax.ExtractEventMeta(msg)
	line := fmt.Sprintf("%s %s key=%s id=%s", msg.Time.UTC().Format(time.RFC3339), meta.EventType, msg.Key, meta.EventID)
	if sc := trace.SpanContextFromContext(kafkax.ExtractTraceContext(ctx, msg)); sc.IsValid() {
		line += " trace=" + sc.TraceID().String()
	}
	return line + " " + string(msg.Value)
}
