package progress

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

const updateInterval = 50 * time.Millisecond

// Bar wraps progressbar with enabled/disabled handling.
// All methods are no-ops when disabled.
type Bar struct {
	bar *progressbar.ProgressBar
}

// New creates a progress bar.
// If enabled=false, returns a Bar where all methods are no-ops.
// Use total=-1 for spinner mode, or total>0 for determinate progress.
func New(enabled bool, total int64) *Bar {
	if !enabled {
		return &Bar{}
	}

	opts := []progressbar.Option{
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionThrottle(updateInterval),
		progressbar.OptionClearOnFinish(),
	}

	if total < 0 {
		// Spinner mode
		opts = append(opts,
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetElapsedTime(false),
		)
		return &Bar{bar: progressbar.NewOptions(-1, opts...)}
	}

	// Progress bar mode
	opts = append(opts, progressbar.OptionSetWidth(40), progressbar.OptionShowCount())
	return &Bar{bar: progressbar.NewOptions64(total, opts...)}
}

// Set sets the progress bar to a specific value.
func (b *Bar) Set(n uint64) {
	if b.bar != nil {
		_ = b.bar.Set64(int64(n))
	}
}

// Describe updates the progress bar description.
func (b *Bar) Describe(s fmt.Stringer) {
	if b.bar != nil {
		b.bar.Describe(s.String())
	}
}

// Finish completes the progress bar and prints a final message.
func (b *Bar) Finish(s fmt.Stringer) {
	if b.bar != nil {
		_ = b.bar.Finish()
		fmt.Fprintln(os.Stderr, "✔ "+s.String())
	}
}

// Reporter renders hashing progress events as a determinate bar.
// Start must be called before Progress; Close finishes the bar.
type Reporter struct {
	enabled bool
	bar     *Bar
	stats   *hashStats
}

// NewReporter creates a Reporter. A disabled Reporter ignores all events.
func NewReporter(enabled bool) *Reporter {
	return &Reporter{enabled: enabled, bar: &Bar{}}
}

type hashStats struct {
	done, total int
	startTime   time.Time
}

func (s *hashStats) String() string {
	return fmt.Sprintf("Hashed %d/%d candidates in %.1fs", s.done, s.total, time.Since(s.startTime).Seconds())
}

// Start begins a new bar for total candidates.
func (r *Reporter) Start(total int) {
	r.bar = New(r.enabled, int64(total))
	r.stats = &hashStats{total: total, startTime: time.Now()}
	r.bar.Describe(r.stats)
}

// Progress moves the bar to done out of total.
func (r *Reporter) Progress(done, total int) {
	if r.stats == nil {
		return
	}
	r.stats.done, r.stats.total = done, total
	r.bar.Set(uint64(done))
	r.bar.Describe(r.stats)
}

// Close finishes the bar, if one was started.
func (r *Reporter) Close() {
	if r.stats != nil {
		r.bar.Finish(r.stats)
	}
}
