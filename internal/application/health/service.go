// Package health reports the state of the console's dependencies and the
// request counters kept by middleware.HealthMarker.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"marketdesk/internal/middleware"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	StatusOK    = "ok"
	StatusIssue = "issue"

	pingTimeout = 3 * time.Second
)

// DBPinger is optional. A nil pinger reports the action log as disabled.
type DBPinger interface {
	Ping() error
}

type Report struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64      `json:"uptimeSeconds"`
	Memory        MemoryInfo `json:"memory"`
	Goroutines    int        `json:"goroutines"`
	Platform      string     `json:"platform"`
	GoVersion     string     `json:"goVersion"`
}

type MemoryInfo struct {
	AllocMB  int `json:"allocMb"`
	HeapUsed int `json:"heapUsed"`
}

type TrafficInfo struct {
	TotalRequests   int         `json:"totalRequests"`
	SuccessCount    int         `json:"successCount"`
	FailedCount     int         `json:"failedCount"`
	SuccessRate     string      `json:"successRate"`
	AvgResponseTime interface{} `json:"avgResponseTime"`
	LastRequest     interface{} `json:"lastRequest"`
}

type DepStatus struct {
	Status string `json:"status"`
	PingMs *int64 `json:"pingMs"`
}

// Checker collects a Report. Zero fields are reported as disconnected or disabled.
type Checker struct {
	Rdb         *redis.Client
	DB          DBPinger
	UpstreamURL string
	HTTP        *http.Client
}

// Collect pings every dependency concurrently and reads the traffic counters.
func (c *Checker) Collect(ctx context.Context) Report {
	var (
		g        errgroup.Group
		db       DepStatus
		cache    DepStatus
		upstream DepStatus
		traffic  = TrafficInfo{AvgResponseTime: 0, SuccessRate: "100"}
		started  = time.Now().UnixMilli()
	)
	g.Go(func() error {
		db = c.pingDB()
		return nil
	})
	g.Go(func() error {
		cache = c.pingRedis(ctx)
		if cache.Status == "connected" {
			traffic, started = c.readTraffic(ctx, started)
		}
		return nil
	})
	g.Go(func() error {
		upstream = c.pingUpstream(ctx)
		return nil
	})
	_ = g.Wait()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptime := (time.Now().UnixMilli() - started) / 1000
	if uptime < 0 {
		uptime = 0
	}

	report := Report{
		Runtime: RuntimeInfo{
			UptimeSeconds: uptime,
			Memory:        MemoryInfo{AllocMB: int(m.Alloc / 1024 / 1024), HeapUsed: int(m.HeapInuse / 1024 / 1024)},
			Goroutines:    runtime.NumGoroutine(),
			Platform:      runtime.GOOS + " (" + runtime.GOARCH + ")",
			GoVersion:     runtime.Version(),
		},
		Traffic: traffic,
		Dependencies: map[string]DepStatus{
			"database": db,
			"redis":    cache,
			"upstream": upstream,
		},
		Status: StatusIssue,
	}
	dbOK := db.Status == "connected" || db.Status == "disabled"
	if dbOK && cache.Status == "connected" && upstream.Status == "reachable" {
		report.Status = StatusOK
	}
	return report
}

func (c *Checker) pingDB() DepStatus {
	if c.DB == nil {
		return DepStatus{Status: "disabled"}
	}
	start := time.Now()
	if err := c.DB.Ping(); err != nil {
		return DepStatus{Status: "error"}
	}
	return DepStatus{Status: "connected", PingMs: since(start)}
}

func (c *Checker) pingRedis(ctx context.Context) DepStatus {
	if c.Rdb == nil {
		return DepStatus{Status: "disconnected"}
	}
	start := time.Now()
	if err := c.Rdb.Ping(ctx).Err(); err != nil {
		return DepStatus{Status: "error"}
	}
	return DepStatus{Status: "connected", PingMs: since(start)}
}

// pingUpstream treats any HTTP answer as reachable; only transport errors count.
func (c *Checker) pingUpstream(ctx context.Context) DepStatus {
	if c.UpstreamURL == "" {
		return DepStatus{Status: "unconfigured"}
	}
	client := c.HTTP
	if client == nil {
		client = &http.Client{Timeout: pingTimeout}
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.UpstreamURL, nil)
	if err != nil {
		return DepStatus{Status: "unreachable"}
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return DepStatus{Status: "unreachable"}
	}
	resp.Body.Close()
	return DepStatus{Status: "reachable", PingMs: since(start)}
}

func (c *Checker) readTraffic(ctx context.Context, started int64) (TrafficInfo, int64) {
	stats := TrafficInfo{AvgResponseTime: 0, SuccessRate: "100"}
	vals, err := c.Rdb.MGet(ctx,
		middleware.KeyReqTotal, middleware.KeyReqErrors, middleware.KeyResTime,
		middleware.KeyResCount, middleware.KeyStartTime, middleware.KeyLastReq,
	).Result()
	if err != nil {
		return stats, started
	}
	str := func(i int) string {
		s, _ := vals[i].(string)
		return s
	}

	if t, err := strconv.ParseInt(str(4), 10, 64); err == nil {
		started = t
	} else {
		c.Rdb.SetNX(ctx, middleware.KeyStartTime, started, 0)
	}

	stats.TotalRequests, _ = strconv.Atoi(str(0))
	stats.FailedCount, _ = strconv.Atoi(str(1))
	stats.SuccessCount = stats.TotalRequests - stats.FailedCount
	if stats.TotalRequests > 0 {
		stats.SuccessRate = strconv.FormatFloat(float64(stats.SuccessCount)/float64(stats.TotalRequests)*100, 'f', 1, 64)
	}
	timeSum, _ := strconv.ParseFloat(str(2), 64)
	count, _ := strconv.Atoi(str(3))
	if count > 0 {
		stats.AvgResponseTime = strconv.FormatFloat(timeSum/float64(count), 'f', 2, 64)
	}
	if last := str(5); last != "" {
		var lastReq map[string]interface{}
		_ = json.Unmarshal([]byte(last), &lastReq)
		stats.LastRequest = lastReq
	}
	return stats, started
}

func since(start time.Time) *int64 {
	ms := time.Since(start).Milliseconds()
	return &ms
}
