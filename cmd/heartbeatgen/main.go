// Command heartbeatgen simulates a receiver client: it builds a batch
// of heartbeats for a chosen satellite preset, encodes them with the v1
// wire codec, and either writes the encoded stream to stdout or posts
// it to a monitord collect endpoint.
package main

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/othernet-project/monitoring/pkg/codec"
	"github.com/othernet-project/monitoring/pkg/presets"
)

func main() {
	preset := pflag.IntP("preset", "p", 1, "Satellite preset id to simulate.")
	count := pflag.IntP("count", "n", 10, "Number of heartbeats in the batch.")
	intervalSecs := pflag.Float64P("interval", "i", 30, "Seconds between successive heartbeats.")
	post := pflag.String("post", "", "If set, POST the encoded stream to this monitord /collect URL instead of printing it.")
	clientID := pflag.String("client-id", "", "Client UUID to use; random if empty.")
	strict := pflag.Bool("strict", false, "Refuse to encode a batch whose timestamp delta would silently truncate.")
	verbose := pflag.BoolP("verbose", "v", false, "Enable debug-level logging.")
	pflag.Parse()

	logger := log.StandardLogger()
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	if err := presets.Validate(*preset); err != nil {
		logger.WithError(err).Fatal("invalid preset")
	}

	id := uuid.New()
	if *clientID != "" {
		parsed, err := uuid.Parse(*clientID)
		if err != nil {
			logger.WithError(err).Fatal("invalid client id")
		}
		id = parsed
	}

	batch := simulateBatch(id, *preset, *count, *intervalSecs)

	opts := codec.Options{Strict: *strict}
	stream, err := codec.EncodeNow(batch, codec.Version, opts)
	if err != nil {
		logger.WithError(err).Fatal("encoding heartbeat batch failed")
	}

	if *post == "" {
		os.Stdout.Write(stream)
		return
	}

	if err := submit(*post, stream); err != nil {
		logger.WithError(err).Fatal("posting heartbeat batch failed")
	}
	logger.WithFields(log.Fields{"preset": presets.Name(*preset), "count": len(batch)}).Info("batch delivered")
}

// simulateBatch builds count heartbeats, newest-first (spec.md §3),
// spaced intervalSecs apart ending at the current wall clock, all
// reporting a healthy receiver on preset.
func simulateBatch(id uuid.UUID, preset, count int, intervalSecs float64) codec.Batch {
	now := float64(time.Now().UnixNano()) / 1e9
	batch := make(codec.Batch, count)
	for i := 0; i < count; i++ {
		batch[i] = codec.Heartbeat{
			ClientID:       id,
			Timestamp:      now - float64(i)*intervalSecs,
			TunerVendor:    "1d6b",
			TunerModel:     "0002",
			TunerPreset:    preset,
			SignalLock:     true,
			ServiceLock:    true,
			SignalStrength: 80 + rand.Intn(20),
			SNR:            2.5,
			Bitrate:        30_000_000,
			CarouselCount:  4,
			CarouselStatus: []bool{true, true, true, true},
		}
	}
	return batch
}

func submit(url string, stream []byte) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("stream", "heartbeat.bin")
	if err != nil {
		return err
	}
	if _, err := part.Write(stream); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	resp, err := http.Post(url, writer.FormDataContentType(), &body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server responded %s: %s", resp.Status, respBody)
	}
	return nil
}
