package monitor

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Status 标记一次请求的延迟档位。
type Status string

const (
	StatusOK   Status = "OK"   // 延迟在阈值内
	StatusSlow Status = "SLOW" // 超过慢阈值
)

// Source 标记一次请求结果的来源。
type Source string

const (
	SourceCache    Source = "cache"    // 缓存命中
	SourceComputed Source = "computed" // 实时计算
	SourceFallback Source = "fallback" // 兜底路径
)

// Sample 是一次请求的观测记录。
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	ElapsedMs float64   `json:"elapsed_ms"`
	Status    Status    `json:"status"`
	Source    Source    `json:"source"`
}

// Metrics 是按操作聚合的性能视图。
type Metrics struct {
	AverageResponseTime float64 `json:"average_response_time_ms"`
	P50                 float64 `json:"p50_ms"`
	P95                 float64 `json:"p95_ms"`
	P99                 float64 `json:"p99_ms"`
	CacheHitRate        float64 `json:"cache_hit_rate"`    // 百分比
	FallbackRate        float64 `json:"fallback_rate"`     // 百分比
	SlowRequestRate     float64 `json:"slow_request_rate"` // 百分比
	TotalRequests       int     `json:"total_requests"`
}

// AlertFunc 在单次延迟超过慢阈值 2 倍时触发。
type AlertFunc func(operation string, sample Sample)

// Tracker 按操作维度维护最近 N 条观测的环形窗口并产出聚合指标。
// 并发安全。
type Tracker struct {
	// SlowThreshold 慢请求阈值，默认 200ms
	SlowThreshold time.Duration

	// WindowSize 每个操作保留的样本数，默认 1000
	WindowSize int

	// OnAlert 可选的告警回调
	OnAlert AlertFunc

	// Logger 结构化日志，零值禁用
	Logger zerolog.Logger

	mu      sync.RWMutex
	windows map[string]*ring
}

type ring struct {
	samples []Sample
	next    int
	full    bool
}

func (r *ring) add(s Sample) {
	r.samples[r.next] = s
	r.next++
	if r.next == len(r.samples) {
		r.next = 0
		r.full = true
	}
}

func (r *ring) snapshot() []Sample {
	if r.full {
		out := make([]Sample, len(r.samples))
		copy(out, r.samples)
		return out
	}
	out := make([]Sample, r.next)
	copy(out, r.samples[:r.next])
	return out
}

// NewTracker 创建使用默认阈值和窗口的 Tracker。
func NewTracker(logger zerolog.Logger) *Tracker {
	return &Tracker{
		SlowThreshold: 200 * time.Millisecond,
		WindowSize:    1000,
		Logger:        logger,
		windows:       make(map[string]*ring),
	}
}

func (t *Tracker) slowThreshold() time.Duration {
	if t.SlowThreshold > 0 {
		return t.SlowThreshold
	}
	return 200 * time.Millisecond
}

func (t *Tracker) windowSize() int {
	if t.WindowSize > 0 {
		return t.WindowSize
	}
	return 1000
}

// Record 记录一次请求观测。
func (t *Tracker) Record(operation string, elapsed time.Duration, source Source) {
	threshold := t.slowThreshold()
	status := StatusOK
	if elapsed > threshold {
		status = StatusSlow
	}
	sample := Sample{
		Timestamp: time.Now(),
		ElapsedMs: float64(elapsed) / float64(time.Millisecond),
		Status:    status,
		Source:    source,
	}

	t.mu.Lock()
	if t.windows == nil {
		t.windows = make(map[string]*ring)
	}
	w, ok := t.windows[operation]
	if !ok {
		w = &ring{samples: make([]Sample, t.windowSize())}
		t.windows[operation] = w
	}
	w.add(sample)
	t.mu.Unlock()

	if elapsed > 2*threshold {
		t.Logger.Warn().
			Str("operation", operation).
			Float64("elapsed_ms", sample.ElapsedMs).
			Str("source", string(source)).
			Msg("response time exceeded 2x slow threshold")
		if t.OnAlert != nil {
			t.OnAlert(operation, sample)
		}
	}
}

// MetricsFor 返回指定操作的聚合指标；无观测时返回零值。
func (t *Tracker) MetricsFor(operation string) Metrics {
	t.mu.RLock()
	w, ok := t.windows[operation]
	var samples []Sample
	if ok {
		samples = w.snapshot()
	}
	t.mu.RUnlock()

	var m Metrics
	m.TotalRequests = len(samples)
	if len(samples) == 0 {
		return m
	}

	elapsed := make([]float64, 0, len(samples))
	var sum float64
	cacheHits, fallbacks, slow := 0, 0, 0
	for _, s := range samples {
		elapsed = append(elapsed, s.ElapsedMs)
		sum += s.ElapsedMs
		switch s.Source {
		case SourceCache:
			cacheHits++
		case SourceFallback:
			fallbacks++
		}
		if s.Status == StatusSlow {
			slow++
		}
	}
	sort.Float64s(elapsed)

	total := float64(len(samples))
	m.AverageResponseTime = sum / total
	m.P50 = percentile(elapsed, 50)
	m.P95 = percentile(elapsed, 95)
	m.P99 = percentile(elapsed, 99)
	m.CacheHitRate = 100 * float64(cacheHits) / total
	m.FallbackRate = 100 * float64(fallbacks) / total
	m.SlowRequestRate = 100 * float64(slow) / total
	return m
}

// Operations 返回有观测记录的操作名列表（排序）。
func (t *Tracker) Operations() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ops := make([]string, 0, len(t.windows))
	for op := range t.windows {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// percentile 最近秩法取分位数，输入必须已排序。
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
