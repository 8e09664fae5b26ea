// Command produce sends a fixed number of records to a topic and exits.
// It exercises the full Producer path end to end: flag/YAML config loading,
// bootstrap metadata discovery, leader resolution, and send. Config loading
// follows the common pattern of building a struct from flag.StringVar calls,
// then optionally overlaying a YAML file on top of the flag defaults.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mkocikowski/corekafka/metrics"
	"github.com/mkocikowski/corekafka/producer"
)

// cliConfig is the YAML-overridable subset of producer.ProducerConfig plus
// this binary's own workload knobs. Kept separate from producer.ProducerConfig
// so the core library package carries no yaml tags of its own.
type cliConfig struct {
	BootstrapServers []string `yaml:"bootstrap_servers"`
	Topic            string   `yaml:"topic"`
	Partition        int32    `yaml:"partition"`
	Acks             int16    `yaml:"acks"`
	TimeoutMs        int32    `yaml:"timeout_ms"`
	Retries          int      `yaml:"retries"`
	ClientId         string   `yaml:"client_id"`
	NumMessages      int      `yaml:"num_messages"`
	MetricsPort      int      `yaml:"metrics_port"`
}

func loadConfig() (*cliConfig, error) {
	cfg := &cliConfig{}
	var bootstrap string
	flag.StringVar(&bootstrap, "bootstrap", "localhost:9092", "comma-separated list of host:port bootstrap brokers")
	flag.StringVar(&cfg.Topic, "topic", "", "topic to produce to")
	var partition int
	flag.IntVar(&partition, "partition", 0, "partition to produce to")
	var acks int
	flag.IntVar(&acks, "acks", 1, "acks: -1, 0, or 1")
	var timeoutMs int
	flag.IntVar(&timeoutMs, "timeout-ms", 30000, "broker-side ack timeout, in milliseconds")
	flag.IntVar(&cfg.Retries, "retries", 0, "max retries on retriable errors")
	flag.StringVar(&cfg.ClientId, "client-id", "corekafka-produce", "client id echoed in every request")
	flag.IntVar(&cfg.NumMessages, "num-messages", 1, "number of records to send")
	flag.IntVar(&cfg.MetricsPort, "metrics-port", 0, "if >0, serve Prometheus metrics on this port")
	configPath := flag.String("config", "", "optional YAML config file overlaying the flags above")
	flag.Parse()

	cfg.BootstrapServers = strings.Split(bootstrap, ",")
	cfg.Partition = int32(partition)
	cfg.Acks = int16(acks)
	cfg.TimeoutMs = int32(timeoutMs)

	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", *configPath, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file %s: %w", *configPath, err)
		}
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	return cfg, nil
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("produce: %v", err)
	}

	if cfg.MetricsPort > 0 {
		metrics.StartExporter(cfg.MetricsPort)
	}

	pcfg := producer.NewProducerConfig()
	pcfg.BootstrapServers = cfg.BootstrapServers
	pcfg.Acks = cfg.Acks
	pcfg.TimeoutMs = cfg.TimeoutMs
	pcfg.Retries = cfg.Retries
	pcfg.ClientId = cfg.ClientId

	p := producer.New(pcfg)
	defer p.Close()

	ctx := context.Background()
	for i := 0; i < cfg.NumMessages; i++ {
		record := &producer.ProducerRecord{
			Topic:     cfg.Topic,
			Partition: cfg.Partition,
			Value:     []byte(fmt.Sprintf("message %d from %s", i, cfg.ClientId)),
		}
		sendCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.TimeoutMs)*time.Millisecond)
		result, err := p.Send(sendCtx, record)
		cancel()
		if err != nil {
			log.Fatalf("produce: error sending record %d: %v", i, err)
		}
		log.Printf("produce: sent record %d to %s/%d at offset %d", i, result.TopicPartition.Topic, result.TopicPartition.Partition, result.Offset)
	}
}
