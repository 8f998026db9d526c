package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/wassi-real/lidforms/internal/events"
)

var watchCmd = &cobra.Command{
	Use:               "watch",
	Short:             "Stream form and submission events from NATS",
	GroupID:           "forms",
	Args:              cobra.NoArgs,
	PersistentPreRunE: noClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		natsURL, _ := cmd.Flags().GetString("nats-url")
		topic, _ := cmd.Flags().GetString("topic")
		if natsURL == "" {
			return fmt.Errorf("--nats-url or LIDFORMS_NATS_URL is required")
		}

		sub, err := events.NewNATSSubscriber(natsURL,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				if err != nil {
					fmt.Fprintf(os.Stderr, "disconnected: %v\n", err)
				}
			}),
			nats.ReconnectHandler(func(c *nats.Conn) {
				fmt.Fprintf(os.Stderr, "reconnected to %s\n", c.ConnectedUrl())
			}),
		)
		if err != nil {
			return err
		}
		defer sub.Close()

		msgs, cancel, err := sub.Subscribe(topic)
		if err != nil {
			return err
		}
		defer cancel()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sig)

		for {
			select {
			case <-sig:
				return nil
			case msg, ok := <-msgs:
				if !ok {
					return nil
				}
				printEvent(msg)
			}
		}
	},
}

func printEvent(msg events.Message) {
	if jsonOutput {
		fmt.Printf("{\"topic\":%q,\"data\":%s}\n", msg.Topic, msg.Data)
		return
	}
	var body map[string]any
	if err := json.Unmarshal(msg.Data, &body); err != nil {
		fmt.Printf("%s  %s  %s\n", time.Now().Format("15:04:05"), msg.Topic, msg.Data)
		return
	}
	switch msg.Topic {
	case events.TopicSubmissionCreated:
		fmt.Printf("%s  submission %v on form %v (%v responses)\n",
			time.Now().Format("15:04:05"), body["submission_id"], body["form_id"], body["response_count"])
	case events.TopicFormCreated:
		fmt.Printf("%s  form %v created: %v (%v fields)\n",
			time.Now().Format("15:04:05"), body["form_id"], body["title"], body["field_count"])
	default:
		fmt.Printf("%s  %s  %s\n", time.Now().Format("15:04:05"), msg.Topic, msg.Data)
	}
}

func init() {
	watchCmd.Flags().String("nats-url", os.Getenv("LIDFORMS_NATS_URL"), "NATS server URL")
	watchCmd.Flags().String("topic", events.TopicAll, "subject to subscribe to")
}
