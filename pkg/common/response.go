package common

import (
	"io"
	"net/http"
	"os"
	"runtime/debug"
	"strconv"
	"sync"

	"github.com/Vishwa-Ansh/vishwaexpo-framework/pkg/codec"
	"github.com/Vishwa-Ansh/vishwaexpo-framework/pkg/render"
	"go.uber.org/zap"
)

// Response is the per-request output state plus the helper operations used to
// produce the answer. Exactly one terminal write (Send, JSON, Redirect,
// SendFile, Render or End) is permitted per request.
//
// A second terminal write is a no-op that logs a warning and returns
// ErrResponseCommitted. In debug mode it panics instead.
type Response struct {
	w      http.ResponseWriter
	logger *zap.Logger
	debug  bool
	json   *codec.JSONCodec

	mu           sync.Mutex
	status       int
	committed    bool
	abandoned    bool
	quiet        bool        // commit violations are expected and not reported
	detached     http.Header // replaces the writer's header once committed
	bytesWritten int64
	done         chan struct{}
	hooks        []func(*Response)
}

// NewResponse wraps w. A nil logger discards warnings.
func NewResponse(w http.ResponseWriter, logger *zap.Logger, debug bool) *Response {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Response{
		w:      w,
		logger: logger,
		debug:  debug,
		json:   codec.NewJSONCodec(),
		status: http.StatusOK,
		done:   make(chan struct{}),
	}
}

// Header returns the response header map. Once the response is committed or
// abandoned it returns a detached copy, so changes have no effect. Code that
// may run concurrently with the router should use Set.
func (r *Response) Header() http.Header {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.headerLocked()
}

// Set sets a response header and returns r for chaining.
func (r *Response) Set(key, value string) *Response {
	r.mu.Lock()
	r.headerLocked().Set(key, value)
	r.mu.Unlock()
	return r
}

// Status sets the status code used by the terminal write and returns r for
// chaining. It has no effect once the response is committed.
func (r *Response) Status(code int) *Response {
	r.mu.Lock()
	if !r.committed {
		r.status = code
	}
	r.mu.Unlock()
	return r
}

// StatusCode returns the status code that was or will be written.
func (r *Response) StatusCode() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Committed reports whether the terminal write happened.
func (r *Response) Committed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.committed
}

// Abandoned reports whether the response was given up without being written,
// for example because the client went away.
func (r *Response) Abandoned() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.abandoned
}

// BytesWritten returns the number of body bytes written.
func (r *Response) BytesWritten() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bytesWritten
}

// Done is closed once the response is committed or abandoned.
func (r *Response) Done() <-chan struct{} {
	return r.done
}

// OnCommit registers fn to run right after the terminal write. If the response
// is already committed fn runs immediately.
func (r *Response) OnCommit(fn func(*Response)) {
	r.mu.Lock()
	if r.committed {
		r.mu.Unlock()
		r.runHook(fn)
		return
	}
	r.hooks = append(r.hooks, fn)
	r.mu.Unlock()
}

// Send writes a generic payload: strings and byte slices are sent as
// text/html, every other value as JSON.
func (r *Response) Send(data any) error {
	switch v := data.(type) {
	case string:
		return r.commit(contentTypeHTML, []byte(v))
	case []byte:
		return r.commit(contentTypeHTML, v)
	default:
		return r.JSON(v)
	}
}

// JSON writes v as an application/json payload.
func (r *Response) JSON(v any) error {
	if r.Committed() {
		return r.violation()
	}
	body, err := r.json.Marshal(v)
	if err != nil {
		return err
	}
	return r.commit(codec.ContentTypeJSON, body)
}

// Redirect ends the response with a Location header. The status is 302 Found
// unless a 3xx status was set beforehand with Status.
func (r *Response) Redirect(location string) error {
	return r.commitWith("", func(h http.Header) {
		if r.status < 300 || r.status > 399 {
			r.status = http.StatusFound
		}
		h.Set("Location", location)
	}, nil)
}

// SendFile streams the file at path with a content type derived from its
// extension. A missing path, or one that is not a regular file, ends the
// response with 404 Not Found.
func (r *Response) SendFile(path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return r.Status(http.StatusNotFound).Send("Not Found")
	}
	f, err := os.Open(path)
	if err != nil {
		return r.Status(http.StatusNotFound).Send("Not Found")
	}
	defer f.Close()

	size := strconv.FormatInt(info.Size(), 10)
	return r.commitWith(ContentTypeForFile(path), func(h http.Header) {
		h.Set("Content-Length", size)
	}, func(w io.Writer) (int64, error) {
		return io.Copy(w, f)
	})
}

// Render executes the template file at path with data and sends the result
// as text/html.
func (r *Response) Render(path string, data map[string]any) error {
	if r.Committed() {
		return r.violation()
	}
	html, err := render.File(path, data)
	if err != nil {
		return err
	}
	return r.commit(contentTypeHTML, []byte(html))
}

// Delegate commits the response by handing the underlying writer to h. The
// status and byte count h writes are recorded for commit hooks. A panic in h
// answers 500 if h wrote nothing and finishes the response before it
// propagates.
func (r *Response) Delegate(h http.Handler, req *http.Request) error {
	r.mu.Lock()
	if r.committed {
		r.mu.Unlock()
		return r.violation()
	}
	r.committed = true
	r.detached = r.w.Header().Clone()
	rw := &statusWriter{ResponseWriter: r.w, status: r.status}
	r.mu.Unlock()

	defer func() {
		v := recover()
		if v != nil && !rw.wroteHeader {
			rw.Header().Set("Content-Type", contentTypeText)
			rw.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(rw, http.StatusText(http.StatusInternalServerError))
		}

		r.mu.Lock()
		r.status = rw.status
		r.bytesWritten = rw.bytes
		hooks := r.detachHooks()
		r.mu.Unlock()
		r.finish(hooks)

		if v != nil {
			panic(v)
		}
	}()
	h.ServeHTTP(rw, req)
	return nil
}

// statusWriter captures the status code and body size written through it.
type statusWriter struct {
	http.ResponseWriter
	status      int
	bytes       int64
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.status = statusCode
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

// Flush calls the underlying ResponseWriter.Flush if it implements http.Flusher
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// End commits the response with the current status and no body.
func (r *Response) End() error {
	return r.commitWith("", nil, nil)
}

// Abandon marks the response as finished without writing anything. It
// returns false if the response was already committed. Later terminal writes
// fail quietly with ErrResponseCommitted.
func (r *Response) Abandon() bool {
	r.mu.Lock()
	if r.committed {
		r.mu.Unlock()
		return false
	}
	r.committed = true
	r.abandoned = true
	r.quiet = true
	r.detached = r.w.Header().Clone()
	hooks := r.detachHooks()
	r.mu.Unlock()

	r.finish(hooks)
	return true
}

// Preempt commits status with a text/html body unless the response is already
// committed, and reports whether it wrote. Terminal writes that lose the race
// fail quietly with ErrResponseCommitted.
func (r *Response) Preempt(status int, body string) bool {
	r.mu.Lock()
	if r.committed {
		r.mu.Unlock()
		return false
	}
	r.status = status
	r.quiet = true
	_ = r.commitLocked(contentTypeHTML, nil, func(w io.Writer) (int64, error) {
		n, err := io.WriteString(w, body)
		return int64(n), err
	})
	return true
}

func (r *Response) commit(contentType string, body []byte) error {
	return r.commitWith(contentType, nil, func(w io.Writer) (int64, error) {
		n, err := w.Write(body)
		return int64(n), err
	})
}

// commitWith performs the terminal write unless the response is already
// committed. prepare runs under the lock after that check and may adjust the
// status and headers.
func (r *Response) commitWith(contentType string, prepare func(http.Header), write func(io.Writer) (int64, error)) error {
	r.mu.Lock()
	if r.committed {
		r.mu.Unlock()
		return r.violation()
	}
	return r.commitLocked(contentType, prepare, write)
}

// commitLocked performs the terminal write. r.mu must be held and is released.
func (r *Response) commitLocked(contentType string, prepare func(http.Header), write func(io.Writer) (int64, error)) error {
	r.committed = true

	header := r.w.Header()
	if prepare != nil {
		prepare(header)
	}
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	r.w.WriteHeader(r.status)
	r.detached = header.Clone()

	var err error
	if write != nil {
		r.bytesWritten, err = write(r.w)
	}
	hooks := r.detachHooks()
	r.mu.Unlock()

	r.finish(hooks)
	return err
}

// headerLocked returns the header map callers may change. r.mu must be held.
func (r *Response) headerLocked() http.Header {
	if r.detached != nil {
		return r.detached
	}
	return r.w.Header()
}

// detachHooks takes the registered commit hooks. r.mu must be held.
func (r *Response) detachHooks() []func(*Response) {
	hooks := r.hooks
	r.hooks = nil
	return hooks
}

// finish runs the commit hooks and then closes done, so a waiter on Done
// observes every hook's effect. done is closed even if a hook fails.
func (r *Response) finish(hooks []func(*Response)) {
	defer close(r.done)
	for _, h := range hooks {
		r.runHook(h)
	}
}

// runHook calls fn, logging a panic instead of propagating it so the
// remaining hooks still run.
func (r *Response) runHook(fn func(*Response)) {
	defer func() {
		if v := recover(); v != nil {
			r.logger.Error("Commit hook panicked",
				zap.Any("panic", v),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()
	fn(r)
}

func (r *Response) violation() error {
	r.mu.Lock()
	quiet, status := r.quiet, r.status
	r.mu.Unlock()
	if quiet {
		return ErrResponseCommitted
	}
	if r.debug {
		panic(ErrResponseCommitted)
	}
	r.logger.Warn("Write after response was committed", zap.Int("status", status))
	return ErrResponseCommitted
}
