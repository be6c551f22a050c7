// Fakesync is a stand-in sync command used for manual end-to-end testing
// of syncguard. It fails a configurable number of times before succeeding,
// tracking its attempt count in a state file so consecutive invocations
// see each other.
//
// Usage:
//
//	go run fakesync.go -fail 3 -message "connection timed out" -exit 1
//
// Point a service's command at this script to watch the circuit breaker
// trip, recover, and close without touching a real cloud mount:
//
//	services:
//	  - id: fake
//	    command: ["go", "run", "scripts/fakesync.go", "-fail", "6"]
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
)

func main() {
	var (
		failCount = flag.Int("fail", 3, "Number of invocations to fail before succeeding")
		message   = flag.String("message", "connection timed out", "Error text to print on failure")
		exitCode  = flag.Int("exit", 1, "Exit status for failing invocations")
		hang      = flag.Duration("hang", 0, "Sleep this long before exiting (to trigger timeouts)")
		stateFile = flag.String("state", ".fakesync-count", "File tracking the attempt counter")
		reset     = flag.Bool("reset", false, "Zero the attempt counter and exit")
	)
	flag.Parse()

	if *reset {
		os.Remove(*stateFile)
		fmt.Println(colorYellow + "fakesync: counter reset" + colorReset)
		return
	}

	attempt := readCount(*stateFile) + 1
	writeCount(*stateFile, attempt)

	if *hang > 0 {
		fmt.Printf("fakesync: attempt %d hanging for %s\n", attempt, *hang)
		time.Sleep(*hang)
	}

	if attempt <= *failCount {
		fmt.Printf(colorRed+"fakesync: attempt %d/%d failed: %s\n"+colorReset,
			attempt, *failCount, *message)
		fmt.Fprintln(os.Stderr, *message)
		os.Exit(*exitCode)
	}

	os.Remove(*stateFile)
	fmt.Printf(colorGreen+"fakesync: attempt %d succeeded, counter cleared\n"+colorReset, attempt)
}

func readCount(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return n
}

func writeCount(path string, n int) {
	if err := os.WriteFile(path, []byte(strconv.Itoa(n)+"\n"), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "fakesync: cannot write counter: %v\n", err)
	}
}
