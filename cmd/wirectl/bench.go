package main

import (
	"flag"
	"fmt"
	"io"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/danmuck/ethoswire/internal/protocol/client"
	"github.com/danmuck/ethoswire/internal/protocol/server"
	"github.com/danmuck/ethoswire/internal/protocol/wire"
)

type opStat struct {
	mtx       sync.Mutex
	hist      *hdrhistogram.Histogram
	total     time.Duration
	numErrors int64
}

type opSummary struct {
	count     int64
	errors    int64
	avg       time.Duration
	min       time.Duration
	max       time.Duration
	p50       time.Duration
	p95       time.Duration
	p99       time.Duration
	p9999     time.Duration
	opsPerSec float64
}

func newOpStat() *opStat {
	return &opStat{hist: hdrhistogram.New(1, int64(10*time.Second), 3)}
}

func (s *opStat) put(d time.Duration, err error) {
	s.mtx.Lock()
	_ = s.hist.RecordValue(int64(d))
	s.total += d
	if err != nil {
		s.numErrors++
	}
	s.mtx.Unlock()
}

func (s *opStat) summary() (out opSummary) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	out.count = s.hist.TotalCount()
	out.errors = s.numErrors
	out.min = time.Duration(s.hist.Min())
	out.max = time.Duration(s.hist.Max())
	out.p50 = time.Duration(s.hist.ValueAtQuantile(50.))
	out.p95 = time.Duration(s.hist.ValueAtQuantile(95.))
	out.p99 = time.Duration(s.hist.ValueAtQuantile(99.))
	out.p9999 = time.Duration(s.hist.ValueAtQuantile(99.99))
	if out.count != 0 {
		out.avg = s.total / time.Duration(out.count)
		if out.avg > 0 {
			out.opsPerSec = float64(time.Second) / float64(out.avg)
		}
	}
	return out
}

type benchOp struct {
	name string
	run  func(i int) error
}

// benchOps builds encode and decode operations per direction. Each worker
// gets its own buffers.
func benchOps() []benchOp {
	cbuf := make([]byte, client.PackBufferSize)
	sbuf := make([]byte, 64)
	cframe, _ := client.Framer.EncodeAppend(nil, client.NewMessage(client.Key{Key: wire.MaxUint128}))
	sframe, _ := server.Framer.EncodeAppend(nil, server.NewMessage(server.Timestamp{Millis: 1}, server.Action{Kind: 1, Character: 2, Value: 3, Extra: 4}))
	clock := server.NewClock()
	return []benchOp{
		{name: "client.encode", run: func(i int) error {
			_, err := client.Encode(client.NewMessage(client.Key{Key: wire.U128(0, uint64(i))}), cbuf)
			return err
		}},
		{name: "client.decode", run: func(int) error {
			_, err := client.Decode(cframe)
			return err
		}},
		{name: "server.encode", run: func(i int) error {
			_, err := server.Encode(clock.Stamp(server.Action{Kind: 1, Value: uint32(i)}), sbuf)
			return err
		}},
		{name: "server.decode", run: func(int) error {
			_, err := server.Decode(sframe)
			return err
		}},
	}
}

func runBench(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("bench", flag.ContinueOnError)
	fs.SetOutput(stderr)
	n := fs.Int("n", 100000, "operations per worker and op")
	workers := fs.Int("workers", 1, "concurrent workers")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *n <= 0 || *workers <= 0 {
		return fmt.Errorf("n and workers must be positive")
	}

	names := make([]string, 0)
	stats := make(map[string]*opStat)
	for _, op := range benchOps() {
		names = append(names, op.name)
		stats[op.name] = newOpStat()
	}

	start := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, op := range benchOps() {
				stat := stats[op.name]
				for i := 0; i < *n; i++ {
					t0 := time.Now()
					err := op.run(i)
					stat.put(time.Since(t0), err)
				}
			}
		}()
	}
	wg.Wait()

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "op\tcount\terrors\tavg\tmin\tp50\tp95\tp99\tp99.99\tmax\tops/s")
	for _, name := range names {
		s := stats[name].summary()
		fmt.Fprintf(tw, "%s\t%d\t%d\t%v\t%v\t%v\t%v\t%v\t%v\t%v\t%.0f\n",
			name, s.count, s.errors, s.avg, s.min, s.p50, s.p95, s.p99, s.p9999, s.max, s.opsPerSec)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "elapsed %v workers=%d\n", time.Since(start).Round(time.Millisecond), *workers)
	return nil
}
