package storageclient

import (
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

const progressLogPeriod = 2 * time.Second

// progress пишет в debug-лог ход передачи payload не чаще progressLogPeriod.
type progress struct {
	log     *zap.Logger
	op      string
	node    string
	id      int64
	total   int64
	started time.Time

	mu       sync.Mutex
	current  int64
	lastLog  time.Time
	finished bool
}

func newProgress(log *zap.Logger, op, node string, id int64, total int64) *progress {
	now := time.Now()
	return &progress{
		log:     log,
		op:      op,
		node:    node,
		id:      id,
		total:   total,
		started: now,
		lastLog: now,
	}
}

func (p *progress) AddBytes(n int64) {
	if p == nil || n <= 0 {
		return
	}
	p.mu.Lock()
	if p.finished {
		p.mu.Unlock()
		return
	}
	p.current += n
	now := time.Now()
	if now.Sub(p.lastLog) < progressLogPeriod {
		p.mu.Unlock()
		return
	}
	p.lastLog = now
	current := p.current
	p.mu.Unlock()

	p.log.Debug("blob transfer in progress", p.fields(current)...)
}

func (p *progress) Finish() {
	if current, ok := p.finish(); ok {
		p.log.Debug("blob transfer done", append(p.fields(current), zap.Duration("elapsed", time.Since(p.started)))...)
	}
}

func (p *progress) Fail(err error) {
	if current, ok := p.finish(); ok {
		p.log.Warn("blob transfer failed", append(p.fields(current), zap.Error(err))...)
	}
}

func (p *progress) finish() (int64, bool) {
	if p == nil {
		return 0, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return 0, false
	}
	p.finished = true
	return p.current, true
}

func (p *progress) fields(current int64) []zap.Field {
	fields := []zap.Field{
		zap.String("op", p.op),
		zap.String("node", p.node),
		zap.Int64("id", p.id),
		zap.Int64("bytes", current),
	}
	if p.total > 0 {
		fields = append(fields, zap.Int64("total", p.total))
	}
	return fields
}

type progressWriter struct {
	p *progress
}

func (w progressWriter) Write(b []byte) (int, error) {
	w.p.AddBytes(int64(len(b)))
	return len(b), nil
}

type progressReadCloser struct {
	io.ReadCloser
	p *progress
}

func newProgressReadCloser(rc io.ReadCloser, p *progress) io.ReadCloser {
	return &progressReadCloser{ReadCloser: rc, p: p}
}

func (r *progressReadCloser) Read(b []byte) (int, error) {
	n, err := r.ReadCloser.Read(b)
	r.p.AddBytes(int64(n))
	switch {
	case err == io.EOF:
		r.p.Finish()
	case err != nil:
		r.p.Fail(err)
	}
	return n, err
}

func (r *progressReadCloser) Close() error {
	err := r.ReadCloser.Close()
	r.p.Finish()
	return err
}
