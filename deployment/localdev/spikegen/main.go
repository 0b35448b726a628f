// Command spikegen sends a synthetic bursty spike train to a running burst-detector.
package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/burst-detector/internal/api"
	"github.com/miradorstack/burst-detector/internal/utils"
)

func main() {
	addr := flag.String("addr", "localhost:50051", "burst-detector gRPC address")
	duration := flag.Float64("duration", 60, "train length in seconds")
	rate := flag.Float64("rate", 2, "background firing rate in Hz")
	bursts := flag.Int("bursts", 5, "number of injected bursts")
	burstSize := flag.Int("burst-size", 15, "spikes per burst")
	order := flag.Int("order", 10, "ISI_N order")
	threshold := flag.Float64("threshold-ms", 50, "ISI_N threshold in milliseconds")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	logger := utils.NewLogger("info", false)

	train := generate(rand.New(rand.NewSource(*seed)), *duration, *rate, *bursts, *burstSize)
	timestamps := make([]interface{}, len(train))
	for i, t := range train {
		timestamps[i] = t
	}
	req, err := structpb.NewStruct(map[string]interface{}{
		"timestamps":   timestamps,
		"unit":         "s",
		"order":        *order,
		"threshold_ms": *threshold,
	})
	if err != nil {
		logger.Error("build request", slog.Any("error", err))
		os.Exit(1)
	}

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		logger.Error("dial", slog.String("address", *addr), slog.Any("error", err))
		os.Exit(1)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := api.NewClient(conn).Detect(ctx, req)
	if err != nil {
		logger.Error("detect", slog.Any("error", err))
		os.Exit(1)
	}

	intervals := resp.GetFields()["intervals"].GetListValue().GetValues()
	logger.Info("detected bursts", slog.Int("events", len(train)), slog.Int("injected", *bursts), slog.Int("found", len(intervals)))
	for _, v := range intervals {
		iv := v.GetStructValue().GetFields()
		logger.Info("burst",
			slog.Float64("start", iv["start"].GetNumberValue()),
			slog.Float64("end", iv["end"].GetNumberValue()),
			slog.Float64("events", iv["events"].GetNumberValue()),
		)
	}
}

// generate returns a Poisson background with tight clusters injected at random offsets.
func generate(rng *rand.Rand, duration, rate float64, bursts, burstSize int) []float64 {
	var train []float64
	if rate > 0 {
		for t := rng.ExpFloat64() / rate; t < duration; t += rng.ExpFloat64() / rate {
			train = append(train, t)
		}
	}
	for b := 0; b < bursts; b++ {
		t := rng.Float64() * duration
		for i := 0; i < burstSize; i++ {
			train = append(train, t)
			t += 0.002 + rng.Float64()*0.003
		}
	}
	sort.Float64s(train)
	return train
}
