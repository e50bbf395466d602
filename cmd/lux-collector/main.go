// Command lux-collector is the standalone process started inside the
// collector container: it loads the eBPF sensor, attaches its
// tracepoints, and drains its ring buffer into the active run's
// collector/raw/ebpf.jsonl file until asked to stop.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/lux-run/lux/pkg/event"
	"github.com/lux-run/lux/pkg/log"
	"github.com/lux-run/lux/pkg/sensor"
)

func main() {
	objectPath := flag.String("object", "/opt/lux/sensor.o", "path to the compiled eBPF sensor object")
	runRoot := flag.String("run-root", "", "run-root directory; ebpf.jsonl is written under <run-root>/collector/raw/")
	outputPath := flag.String("output", "", "explicit output path, overriding --run-root's default location")
	jsonLogs := flag.Bool("log-json", true, "emit structured JSON logs")
	flag.Parse()

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: *jsonLogs})
	logger := log.WithComponent("collector")

	sinkPath := *outputPath
	if sinkPath == "" {
		if *runRoot == "" {
			logger.Fatal().Msg("one of --output or --run-root is required")
		}
		sinkPath = filepath.Join(*runRoot, "collector", "raw", "ebpf.jsonl")
	}
	if err := os.MkdirAll(filepath.Dir(sinkPath), 0o755); err != nil {
		logger.Fatal().Err(err).Str("path", sinkPath).Msg("create output directory")
	}

	sink, err := os.OpenFile(sinkPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		logger.Fatal().Err(err).Str("path", sinkPath).Msg("open output file")
	}
	defer sink.Close()

	sen, err := sensor.Load(*objectPath)
	if err != nil {
		logger.Fatal().Err(err).Str("object", *objectPath).Msg("load sensor")
	}
	defer sen.Close()

	if err := sen.Attach(); err != nil {
		logger.Fatal().Err(err).Msg("attach sensor")
	}

	decoder := event.NewDecoder(sen, sink)

	stop := make(chan struct{})
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Info().Msg("collector: received shutdown signal")
		close(stop)
	}()

	logger.Info().Str("object", *objectPath).Str("sink", sinkPath).Int("ring_buffer_size", sen.RingBufferSize()).Msg("collector: attached, draining ring buffer")

	if err := decoder.Run(stop); err != nil {
		logger.Fatal().Err(err).Msg("decoder run loop failed")
	}

	decoded, dropped := decoder.Stats()
	logger.Info().Uint64("decoded", decoded).Uint64("dropped", dropped).Msg("collector: shutting down")
	fmt.Fprintf(os.Stderr, "decoded=%d dropped=%d\n", decoded, dropped)
}
