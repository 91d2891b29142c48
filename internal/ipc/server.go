package ipc

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/gcbaptista/go-dictionary-lookup/internal/logger"
	"github.com/gcbaptista/go-dictionary-lookup/model"
	"github.com/gcbaptista/go-dictionary-lookup/services"
)

// ResultTracker receives every stateless lookup the server answers
type ResultTracker interface {
	TrackResult(result model.SearchResult)
}

// Server handles msgpack requests for one client
type Server struct {
	dict    services.Dictionary
	tracker ResultTracker
	dec     *msgpack.Decoder
	out     *bufio.Writer
	writeMu sync.Mutex
	logger  *log.Logger
}

// NewServer creates a server reading requests from r and writing responses to w.
// tracker may be nil.
func NewServer(dict services.Dictionary, tracker ResultTracker, r io.Reader, w io.Writer) *Server {
	return &Server{
		dict:    dict,
		tracker: tracker,
		dec:     msgpack.NewDecoder(bufio.NewReader(r)),
		out:     bufio.NewWriter(w),
		logger:  logger.New("ipc"),
	}
}

// Serve announces readiness and answers requests until the input ends or ctx is cancelled.
// A clean end of input returns nil.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Debug("starting ipc server")
	if err := s.send(Response{Status: "ready"}); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, err := s.dec.DecodeRaw()
		if err != nil {
			if stderrors.Is(err, io.EOF) {
				s.logger.Debug("input closed")
				return nil
			}
			return fmt.Errorf("reading request: %w", err)
		}

		var req Request
		if err := msgpack.Unmarshal(raw, &req); err != nil {
			s.logger.Error("malformed request", "err", err)
			if err := s.send(Response{Error: "malformed request"}); err != nil {
				return err
			}
			continue
		}

		if err := s.send(s.handle(ctx, req)); err != nil {
			return err
		}
	}
}

// handle dispatches one request
func (s *Server) handle(ctx context.Context, req Request) Response {
	s.logger.Debug("request", "id", req.ID, "action", req.Action)

	switch req.Action {
	case ActionQuery:
		s.dict.SetQuery(req.Query)
		s.dict.Recompute()
		return s.stateResponse(req.ID)
	case ActionType:
		s.dict.Type(req.Query)
		resp := s.stateResponse(req.ID)
		resp.Status = "scheduled"
		return resp
	case ActionStrategy:
		strategy, err := model.ParseStrategy(req.Strategy)
		if err == nil {
			err = s.dict.SetStrategy(strategy)
		}
		if err != nil {
			return errorResponse(req.ID, err)
		}
		return s.stateResponse(req.ID)
	case ActionLookup:
		return s.lookup(req)
	case ActionLoad:
		if err := s.dict.Load(ctx); err != nil {
			return errorResponse(req.ID, err)
		}
		return s.stateResponse(req.ID)
	case ActionRefresh:
		if err := s.dict.Refresh(ctx); err != nil {
			return errorResponse(req.ID, err)
		}
		return s.stateResponse(req.ID)
	case ActionState:
		return s.stateResponse(req.ID)
	case ActionPing:
		return Response{ID: req.ID, Status: "ok"}
	default:
		return Response{ID: req.ID, Error: fmt.Sprintf("unknown action: %q", req.Action)}
	}
}

func (s *Server) lookup(req Request) Response {
	var strategy model.Strategy
	if req.Strategy != "" {
		parsed, err := model.ParseStrategy(req.Strategy)
		if err != nil {
			return errorResponse(req.ID, err)
		}
		strategy = parsed
	}

	result := s.dict.Lookup(req.Query, strategy)
	if s.tracker != nil {
		s.tracker.TrackResult(result)
	}
	return Response{
		ID:        req.ID,
		Entries:   result.Entries,
		Count:     result.Count,
		Total:     result.Total,
		TimeTaken: result.Took.Microseconds(),
		Strategy:  string(result.Strategy),
		Query:     result.Query,
	}
}

// stateResponse reports the visible list. A load or refresh error is carried in Error.
func (s *Server) stateResponse(id string) Response {
	snap := s.dict.Snapshot()
	var took time.Duration
	if snap.LastSearchDuration != nil {
		took = *snap.LastSearchDuration
	}
	return Response{
		ID:        id,
		Entries:   snap.Visible,
		Count:     len(snap.Visible),
		Total:     snap.TotalEntries,
		TimeTaken: took.Microseconds(),
		Strategy:  string(snap.Strategy),
		Query:     snap.Query,
		Loading:   snap.IsLoading,
		Error:     snap.ErrorMessage,
	}
}

func errorResponse(id string, err error) Response {
	return Response{ID: id, Error: err.Error()}
}

// send encodes and flushes one response
func (s *Server) send(resp Response) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	data, err := msgpack.Marshal(&resp)
	if err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}
	if _, err := s.out.Write(data); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	return s.out.Flush()
}
