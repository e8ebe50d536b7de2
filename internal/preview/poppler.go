package preview

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"doclib/internal/config"
	"doclib/internal/logger"
)

// Poppler rasterizes with the pdftoppm binary. Calls go through a circuit breaker so a
// missing or hanging binary stops costing a subprocess per upload.
type Poppler struct {
	bin     string
	width   int
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
}

var _ Rasterizer = (*Poppler)(nil)

func NewPoppler(cfg config.PreviewConfig, log *slog.Logger) *Poppler {
	log = logger.Component(log, "poppler")
	return &Poppler{
		bin:     cfg.PdftoppmPath,
		width:   cfg.ThumbnailWidth,
		timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "pdftoppm",
			MaxRequests: 2,
			Interval:    30 * time.Second,
			Timeout:     60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 5 && failureRatio >= 0.6
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				log.Warn("circuit breaker state change",
					slog.String("breaker", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()))
			},
		}),
	}
}

func (p *Poppler) FirstPageJPEG(ctx context.Context, path string) ([]byte, error) {
	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.render(ctx, path)
	})
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}

func (p *Poppler) render(ctx context.Context, path string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "thumb-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	prefix := filepath.Join(dir, "page")
	cmd := exec.CommandContext(ctx, p.bin,
		"-jpeg", "-jpegopt", "quality=80",
		"-f", "1", "-l", "1",
		"-scale-to", strconv.Itoa(p.width),
		"-singlefile",
		path, prefix)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %v, stderr: %s", err, stderr.String())
	}
	return os.ReadFile(prefix + ".jpg")
}
