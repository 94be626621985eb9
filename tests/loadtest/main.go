package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"
)

const (
	baseURL      = "http://127.0.0.1:18090"
	numWorkers   = 50
	testDuration = 10 * time.Second
	numHabits    = 200
)

var habitNames = []string{"run", "read", "meditate", "stretch", "journal"}

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

// seeded habit ids, shared read-only once phase 1 finishes
var (
	idsMu    sync.Mutex
	habitIDs []string
)

func randomHabitID(rng *rand.Rand) string {
	idsMu.Lock()
	defer idsMu.Unlock()
	if len(habitIDs) == 0 {
		return ""
	}
	return habitIDs[rng.Intn(len(habitIDs))]
}

func rememberHabitID(id string) {
	idsMu.Lock()
	defer idsMu.Unlock()
	if len(habitIDs) < numHabits {
		habitIDs = append(habitIDs, id)
	}
}

func main() {
	fmt.Println("=== habitd Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s | Habits: %d\n\n", numWorkers, testDuration, numHabits)

	// Wait for server
	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	// Phase 1: Seed habits
	fmt.Println("\n--- Phase 1: Seeding habits (POST /habits) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		return doCreate(rng)
	})

	// Phase 2: Mixed toggle/read load
	fmt.Println("\n--- Phase 2: Mixed load (60% toggle, 40% GET) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.60:
			return doToggle(rng)
		case r < 0.80:
			return doGetHabits()
		case r < 0.92:
			return doGetProgress()
		default:
			return doGetHistory()
		}
	})

	// Phase 3: Read-heavy load
	fmt.Println("\n--- Phase 3: Read-heavy load (10% toggle, 90% GET) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.10:
			return doToggle(rng)
		case r < 0.55:
			return doGetHabits()
		case r < 0.85:
			return doGetProgress()
		default:
			return doGetHistory()
		}
	})
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					results <- workFn(rng)
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps int64
	var totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-22s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + repeat("-", 88))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		avg := avgDuration(s.latencies)
		p50 := percentile(s.latencies, 0.50)
		p95 := percentile(s.latencies, 0.95)
		p99 := percentile(s.latencies, 0.99)

		fmt.Printf("  %-22s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors, fmtDur(avg), fmtDur(p50), fmtDur(p95), fmtDur(p99))
	}

	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + repeat("-", 88))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, rps)
}

func doCreate(rng *rand.Rand) result {
	body := map[string]interface{}{
		"name":             fmt.Sprintf("%s-%d", habitNames[rng.Intn(len(habitNames))], rng.Intn(100000)),
		"target_frequency": rng.Intn(7) + 1,
	}

	data, _ := json.Marshal(body)
	start := time.Now()
	resp, err := httpClient.Post(baseURL+"/habits", "application/json", bytes.NewReader(data))
	lat := time.Since(start)
	if err != nil {
		return result{"POST /habits", 0, lat, true}
	}
	defer resp.Body.Close()

	if resp.StatusCode == 201 {
		var created struct {
			ID string `json:"id"`
		}
		if json.NewDecoder(resp.Body).Decode(&created) == nil && created.ID != "" {
			rememberHabitID(created.ID)
		}
	}
	io.Copy(io.Discard, resp.Body)
	return result{"POST /habits", resp.StatusCode, lat, resp.StatusCode != 201}
}

func doToggle(rng *rand.Rand) result {
	id := randomHabitID(rng)
	if id == "" {
		return doCreate(rng)
	}
	day := time.Now().AddDate(0, 0, -rng.Intn(7)).Format("2006-01-02")
	body := map[string]string{"id": id, "date": day}

	data, _ := json.Marshal(body)
	start := time.Now()
	resp, err := httpClient.Post(baseURL+"/habits/toggle", "application/json", bytes.NewReader(data))
	lat := time.Since(start)
	if err != nil {
		return result{"POST /habits/toggle", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"POST /habits/toggle", resp.StatusCode, lat, resp.StatusCode != 200}
}

func doGetHabits() result {
	start := time.Now()
	resp, err := httpClient.Get(baseURL + "/habits")
	lat := time.Since(start)
	if err != nil {
		return result{"GET /habits", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET /habits", resp.StatusCode, lat, resp.StatusCode != 200}
}

func doGetProgress() result {
	start := time.Now()
	resp, err := httpClient.Get(baseURL + "/progress")
	lat := time.Since(start)
	if err != nil {
		return result{"GET /progress", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET /progress", resp.StatusCode, lat, resp.StatusCode != 200}
}

func doGetHistory() result {
	start := time.Now()
	resp, err := httpClient.Get(baseURL + "/history")
	lat := time.Since(start)
	if err != nil {
		return result{"GET /history", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET /history", resp.StatusCode, lat, resp.StatusCode != 200}
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}
