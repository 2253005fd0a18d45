package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goCare "github.com/MrEthical07/goCare"
	"github.com/MrEthical07/goCare/codec"
	"github.com/MrEthical07/goCare/internal/refapi"
	promexport "github.com/MrEthical07/goCare/metrics/export/prometheus"
	"github.com/MrEthical07/goCare/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

func main() {
	var (
		users       = flag.Int("users", 200, "number of accounts to register and keep logged in")
		concurrency = flag.Int("concurrency", 32, "number of concurrent workers")
		ops         = flag.Int("ops", 20000, "requests in the fetch phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "gocare-lt", "redis key prefix for stored sessions")
		sealed      = flag.Bool("sealed", false, "have the reference backend return sealed tokens")
		metrics     = flag.Bool("metrics", false, "print aggregated client metrics in Prometheus text format")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		rdb     redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() {
			_ = rdb.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = rdb.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	opts := refapi.Options{Secret: []byte("gocare-loadtest-secret-0123456789"), TokenTTL: time.Hour}
	if *sealed {
		cd, err := codec.NewCodec("")
		if err != nil {
			fmt.Fprintf(os.Stderr, "codec: %v\n", err)
			os.Exit(1)
		}
		opts.Codec = cd
	}
	backend := refapi.New(opts)
	ts := httptest.NewServer(backend.Handler())
	defer ts.Close()
	fmt.Printf("reference backend at %s\n", ts.URL)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	newClient := func(i int) (*goCare.Client, error) {
		return goCare.New().
			WithBaseURL(ts.URL).
			WithStorage(session.NewRedisStorage(rdb, fmt.Sprintf("%s:%d", *prefix, i), 0)).
			WithLogger(logger).
			WithMetricsEnabled(true).
			WithLatencyHistograms(true).
			Build()
	}

	clients := make([]*goCare.Client, *users)
	for i := range clients {
		c, err := newClient(i)
		if err != nil {
			fmt.Fprintf(os.Stderr, "build client: %v\n", err)
			os.Exit(1)
		}
		clients[i] = c
	}

	registerStats := runPhase(*users, *concurrency, func(i int, _ *rand.Rand) error {
		_, err := clients[i].Register(ctx, goCare.RegisterRequest{
			Name:     fmt.Sprintf("User %d", i),
			Email:    fmt.Sprintf("user-%d@loadtest.local", i),
			Password: "loadtest-password",
		})
		return err
	})

	fetchStats := runPhase(*ops, *concurrency, func(_ int, r *rand.Rand) error {
		_, err := clients[r.Intn(len(clients))].Fetch(ctx, "/patients")
		return err
	})

	restored := make([]*goCare.Client, *users)
	hydrateStats := runPhase(*users, *concurrency, func(i int, _ *rand.Rand) error {
		c, err := newClient(i)
		if err != nil {
			return err
		}
		restored[i] = c
		ok, err := c.Hydrate(ctx)
		if err == nil && !ok {
			err = goCare.ErrNoCredential
		}
		return err
	})

	fmt.Println("---- results ----")
	printStats("register", registerStats)
	printStats("fetch", fetchStats)
	printStats("hydrate", hydrateStats)
	fmt.Printf("backend: logins=%d requests=%d\n", backend.Logins(), backend.Requests())

	if *metrics {
		all := append(clients, restored...)
		rec := httptest.NewRecorder()
		promexport.NewExporterFromSource(aggregate(all)).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		fmt.Println("---- metrics ----")
		_, _ = io.Copy(os.Stdout, rec.Body)
	}
}

// aggregate sums the snapshots of many clients.
type aggregate []*goCare.Client

func (a aggregate) MetricsSnapshot() goCare.MetricsSnapshot {
	out := goCare.MetricsSnapshot{
		Counters:   map[goCare.MetricID]uint64{},
		Histograms: map[goCare.MetricID][]uint64{},
	}
	for _, c := range a {
		if c == nil {
			continue
		}
		s := c.MetricsSnapshot()
		for id, v := range s.Counters {
			out.Counters[id] += v
		}
		for id, buckets := range s.Histograms {
			sum := out.Histograms[id]
			if len(sum) < len(buckets) {
				sum = append(sum, make([]uint64, len(buckets)-len(sum))...)
			}
			for i, v := range buckets {
				sum[i] += v
			}
			out.Histograms[id] = sum
		}
	}
	return out
}

func runPhase(ops, concurrency int, op func(i int, r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(i, r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
