package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/miradorstack/failure-insights/internal/models"
	"github.com/miradorstack/failure-insights/internal/utils"
)

var failureLines = [][]string{
	{"[task 2024-03-01T10:00:00.000Z] 10:00:01 INFO - TEST-UNEXPECTED-FAIL | dom/tests/mochitest/test_focus.html | focus lost"},
	{"[task 2024-03-01T11:00:00.000Z] 11:00:01 INFO - TEST-UNEXPECTED-FAIL | dom/tests/mochitest/test_focus.html | focus lost"},
	{"[task 2024-03-01T12:00:00.000Z] 12:00:01 INFO - TEST-UNEXPECTED-TIMEOUT | devtools/client/test/browser_net.js | timed out", "PROCESS-CRASH | application crashed [@ mozilla::dom::Focus]"},
	nil,
}

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/failuresbybug/", func(w http.ResponseWriter, r *http.Request) {
		start, end, ok := parseRange(w, r)
		if !ok {
			return
		}
		tree := r.URL.Query().Get("tree")
		if tree == "" {
			tree = "autoland"
		}
		var records []models.FailureRecord
		i := 0
		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			job := strconv.Itoa(40000 + i)
			if i%5 == 4 {
				job = ""
			}
			records = append(records, models.FailureRecord{
				PushTime:    day.Add(time.Duration(9+i%8) * time.Hour),
				Tree:        tree,
				Revision:    fmt.Sprintf("%012x", 0xabc000+i),
				Platform:    []string{"linux64", "windows11-64", "macosx1015-64"}[i%3],
				BuildType:   []string{"opt", "debug", "asan"}[i%3],
				TestSuite:   "mochitest-plain",
				MachineName: fmt.Sprintf("t-linux-%03d", i),
				JobID:       job,
				LogLines:    failureLines[i%len(failureLines)],
			})
			i++
		}
		writeJSON(w, records)
	})

	mux.HandleFunc("/api/failurecount/", func(w http.ResponseWriter, r *http.Request) {
		start, end, ok := parseRange(w, r)
		if !ok {
			return
		}
		var points []models.TimeSeriesPoint
		i := 0
		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			count := float64(1 + i%3)
			if i == 5 {
				count = 14
			}
			points = append(points, models.TimeSeriesPoint{Timestamp: day, Count: count, TestRuns: 120})
			i++
		}
		writeJSON(w, points)
	})

	logger := log.New(log.Writer(), "backend-mock ", log.LstdFlags|log.Lmicroseconds)
	srv := &http.Server{
		Addr:    ":8080",
		Handler: logRequests(logger, mux),
	}

	logger.Println("listening on :8080")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

func parseRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return time.Time{}, time.Time{}, false
	}
	q := r.URL.Query()
	start, err := utils.ParseDay(q.Get("startday"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	end, err := utils.ParseDay(q.Get("endday"))
	if err != nil || end.Before(start) {
		http.Error(w, "invalid endday", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode error: %v", err)
	}
}

func logRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Printf("%s %s?%s %d %s", r.Method, r.URL.Path, r.URL.RawQuery, rw.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
