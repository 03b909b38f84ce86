package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net"
	"sync"
	"time"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	// CompileFunc turns source code into an executable.
	CompileFunc func(ctx context.Context, name, code string) ([]byte, error)

	// Server answers one JSON request per connection.
	// The client writes the request and closes its write side.
	Server struct {
		Compile CompileFunc

		// Timeout limits a connection from accept to the response. Zero means DefaultTimeout.
		Timeout time.Duration

		// MaxRequest limits the request size. Zero means DefaultMaxRequest.
		MaxRequest int64

		wg sync.WaitGroup
	}

	Request struct {
		Command string `json:"command"`
		Code    string `json:"code,omitempty"`
	}

	Response struct {
		Program string `json:"program,omitempty"`
		Error   string `json:"error,omitempty"`
	}
)

const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRequest = 1 << 20
)

// SourceName is passed to CompileFunc for code received over the network.
const SourceName = "(source code)"

// Listen opens a TCP listener with address reuse enabled.
func Listen(ctx context.Context, addr string) (net.Listener, error) {
	lc := net.ListenConfig{Control: control}

	l, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "listen %v", addr)
	}

	return l, nil
}

// Serve accepts connections until ctx is canceled, then waits for in-flight requests.
// It closes l.
func (s *Server) Serve(ctx context.Context, l net.Listener) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "serve", "addr", l.Addr())
	defer tr.Finish("err", &err)

	stop := context.AfterFunc(ctx, func() {
		_ = l.Close()
	})
	defer stop()

	defer s.wg.Wait()

	for {
		c, err := l.Accept()
		if ctx.Err() != nil {
			if c != nil {
				_ = c.Close()
			}

			return nil
		}
		if err != nil {
			_ = l.Close()

			return errors.Wrap(err, "accept")
		}

		s.wg.Add(1)

		go func() {
			defer s.wg.Done()

			s.handleConn(ctx, c)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, c net.Conn) {
	var err error

	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "conn", "remote", c.RemoteAddr())
	defer tr.Finish("err", &err)

	defer func() {
		e := c.Close()
		if err == nil {
			err = e
		}
	}()

	timeout := s.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err = c.SetDeadline(time.Now().Add(timeout))
	if err != nil {
		err = errors.Wrap(err, "set deadline")
		return
	}

	var resp Response

	req, err := s.readRequest(c)
	if err != nil {
		resp.Error = err.Error()
	} else {
		resp = s.Handle(ctx, req)
	}

	tr.Printw("request", "command", req.Command, "code_size", len(req.Code), "error", resp.Error)

	data, err := json.Marshal(resp)
	if err != nil {
		err = errors.Wrap(err, "encode response")
		return
	}

	_, err = c.Write(data)
	if err != nil {
		err = errors.Wrap(err, "write response")
		return
	}
}

func (s *Server) readRequest(r io.Reader) (req Request, err error) {
	limit := s.MaxRequest
	if limit == 0 {
		limit = DefaultMaxRequest
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return req, errors.Wrap(err, "read request")
	}

	if int64(len(data)) > limit {
		_, _ = io.Copy(io.Discard, r)

		return req, errors.New("request is larger than %d bytes", limit)
	}

	err = json.Unmarshal(data, &req)
	if err != nil {
		return req, errors.Wrap(err, "decode request")
	}

	return req, nil
}

// Handle executes a single request.
func (s *Server) Handle(ctx context.Context, req Request) (resp Response) {
	switch req.Command {
	case "ping":
	case "compile":
		if s.Compile == nil {
			resp.Error = "compiler is not configured"
			break
		}

		exe, err := s.Compile(ctx, SourceName, req.Code)
		if err != nil {
			resp.Error = err.Error()
			break
		}

		resp.Program = base64.StdEncoding.EncodeToString(exe)
	default:
		resp.Error = "unknown command: " + req.Command
	}

	return resp
}
