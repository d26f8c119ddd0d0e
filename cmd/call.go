package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/liftsim/config"
	"github.com/kilianp07/liftsim/core/model"
	"github.com/kilianp07/liftsim/infra/mqtt"
)

var (
	callLevel int
	callUp    bool
	callDown  bool
)

var callCmd = &cobra.Command{
	Use:   "call",
	Short: "Publish a hall call to a running simulator",
	RunE:  publishCall,
}

func init() {
	callCmd.Flags().IntVar(&callLevel, "level", 0, "requested level")
	callCmd.Flags().BoolVar(&callUp, "up", false, "prefer an upward-heading unit")
	callCmd.Flags().BoolVar(&callDown, "down", false, "prefer a downward-heading unit")
	rootCmd.AddCommand(callCmd)
}

func publishCall(cmd *cobra.Command, args []string) error {
	if callUp && callDown {
		return fmt.Errorf("--up and --down are mutually exclusive")
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.MQTT.Broker == "" {
		return fmt.Errorf("no MQTT broker configured")
	}

	mqttCfg := cfg.MQTT
	mqttCfg.ClientID = fmt.Sprintf("%s-call-%d", mqttCfg.ClientID, time.Now().UnixNano())
	client, err := mqtt.NewPahoClient(mqttCfg)
	if err != nil {
		return fmt.Errorf("mqtt client: %w", err)
	}
	defer client.Close()

	heading := model.HeadingNone
	if callUp {
		heading = model.HeadingUp
	} else if callDown {
		heading = model.HeadingDown
	}
	payload, err := json.Marshal(model.HallCall{Level: callLevel, Heading: heading})
	if err != nil {
		return err
	}
	if err := client.Publish("call", mqttCfg.CallTopic, payload); err != nil {
		return fmt.Errorf("publish call: %w", err)
	}
	fmt.Printf("call published: level %d heading %s\n", callLevel, heading)
	return nil
}
