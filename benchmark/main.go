// Package main provides a performance benchmarking tool for the riskscan CLI.
// It measures how long registry scans take with the registry cache disabled
// and enabled, running each case multiple times, treating the first cached run
// as cold and averaging the rest as warm, and writes CSV output for analysis.
//
// Prerequisites:
// - riskscan binary installed and available in PATH
// - GITHUB_TOKEN set, since unauthenticated runs hit the rate limit quickly
//
// Usage: go run benchmark/main.go [cache-dir]
//
//	cache-dir: Scratch directory for the file registry cache
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark case (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Command     string
	Limit       int
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	CacheDir    string
	Timeout     time.Duration
	Concurrency int
	NoCacheRuns int
	CacheRuns   int
	Commands    []string
	Limits      []int
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [cache-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		CacheDir:    os.Args[1],
		Timeout:     10 * time.Minute,
		Concurrency: 20,
		NoCacheRuns: 2,
		CacheRuns:   3,
		Commands:    []string{"scan-npm", "scan-pypi"},
		Limits:      []int{50, 200},
	}

	if err := checkPrerequisites(); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	// Clear the cache using riskscan cache clear
	fmt.Printf("Clearing cache...\n")
	clearCmd := exec.Command("riskscan", "cache", "clear", "--cache-dir", config.CacheDir)
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	} else {
		fmt.Printf("Cache cleared successfully\n")
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the riskscan binary and a token are available
func checkPrerequisites() error {
	if _, err := exec.LookPath("riskscan"); err != nil {
		return fmt.Errorf("riskscan binary not found in PATH")
	}
	if os.Getenv("GITHUB_TOKEN") == "" {
		return fmt.Errorf("GITHUB_TOKEN is not set")
	}
	return nil
}

// runBenchmarks executes every command at every limit
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d commands, %v timeout, concurrency %d, no-cache: %d runs, cache: %d runs\n",
		len(config.Commands), config.Timeout, config.Concurrency, config.NoCacheRuns, config.CacheRuns)

	for _, command := range config.Commands {
		for _, limit := range config.Limits {
			results = append(results, runBenchmarkSuite(config, command, limit))
		}
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache phases for a command
func runBenchmarkSuite(config BenchmarkConfig, command string, limit int) BenchmarkResult {
	fmt.Printf("Running %s with limit %d\n", command, limit)

	// Helper to run a benchmark phase
	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, command, limit, cacheBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs
	coldTime, warmAvg := runPhase("file", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Command:     command,
		Limit:       limit,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a riskscan command multiple times and returns the cold time and warm times.
// The snapshot store is disabled so that only discovery and fetching are measured.
func runBenchmark(config BenchmarkConfig, command string, limit int, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{
		command,
		"--limit", strconv.Itoa(limit),
		"--concurrency", strconv.Itoa(config.Concurrency),
		"--cache-backend", cacheBackend,
		"--cache-dir", config.CacheDir,
		"--store-backend", "none",
	}

	var times []float64
	for range numRuns {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		start := time.Now()
		output, err := exec.CommandContext(ctx, "riskscan", args...).CombinedOutput()
		elapsed := time.Since(start).Seconds()
		cancel()

		if err == nil && isSuccess(output) {
			times = append(times, elapsed)
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "Scan completed in") &&
		strings.Contains(outputStr, "with concurrency")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/riskscan_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	if err := writer.Write([]string{"cmd", "limit", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		rec := []string{result.Command, strconv.Itoa(result.Limit), result.NoCacheTime, result.ColdTime, result.WarmTime}
		if err := writer.Write(rec); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-10s limit %-5d: No-cache: %s, Cold: %s, Warm: %s\n",
			result.Command, result.Limit, result.NoCacheTime, result.ColdTime, result.WarmTime)
	}
}
