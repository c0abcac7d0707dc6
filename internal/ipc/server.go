package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"log/slog"

	"haptune/internal/capability"
	"haptune/internal/daemon"
	"haptune/internal/logging"
	"haptune/internal/logs"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Haptune", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String("impact", "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String("impact", "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun haptune stop"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String("component", "ipc"))
}

func (s *service) Play(req PlayRequest, resp *PlayResponse) error {
	if req.Identifier == "" {
		return errors.New("play requires an identifier")
	}
	session, err := s.daemon.Play(s.ctx, req.Identifier, req.Route)
	if err != nil {
		return err
	}
	resp.SessionID = session
	return nil
}

func (s *service) Preload(req PreloadRequest, resp *PreloadResponse) error {
	if req.Identifier == "" {
		return errors.New("preload requires an identifier")
	}
	loaded, err := s.daemon.Preload(s.ctx, req.Identifier)
	if err != nil {
		return err
	}
	resp.Loaded = loaded
	if !loaded {
		resp.Message = "already preloaded"
	}
	return nil
}

func (s *service) Unload(req UnloadRequest, resp *UnloadResponse) error {
	resp.Unloaded = s.daemon.Unload(req.Identifier)
	return nil
}

func (s *service) ClipPreload(req ClipPreloadRequest, resp *ClipPreloadResponse) error {
	if req.Identifier == "" {
		return errors.New("clip preload requires an identifier")
	}
	loaded, err := s.daemon.PreloadClip(s.ctx, req.Identifier)
	if err != nil {
		return err
	}
	resp.Loaded = loaded
	if !loaded {
		resp.Message = "clip refused or already preloaded"
	}
	return nil
}

func (s *service) ClipUnload(req ClipUnloadRequest, resp *ClipUnloadResponse) error {
	resp.Unloaded = s.daemon.UnloadClip(req.Identifier)
	return nil
}

func (s *service) ClipPlay(req ClipPlayRequest, resp *ClipPlayResponse) error {
	if req.Identifier == "" {
		return errors.New("clip play requires an identifier")
	}
	session, err := s.daemon.PlayClip(s.ctx, req.Identifier, req.Route)
	if err != nil {
		return err
	}
	resp.SessionID = session
	return nil
}

func (s *service) UnloadAll(_ UnloadAllRequest, resp *UnloadAllResponse) error {
	s.daemon.UnloadAll()
	resp.Unloaded = true
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status()
	resp.Running = status.Running
	resp.PID = status.PID
	resp.Tier = status.Tier.String()
	resp.SocketPath = status.SocketPath
	resp.LockPath = status.LockFilePath
	resp.HistoryDBPath = status.HistoryDBPath
	resp.PreloadedBundles = status.PreloadedBundles
	resp.PreloadedClips = status.PreloadedClips
	return nil
}

func (s *service) Capability(_ CapabilityRequest, resp *CapabilityResponse) error {
	desc, tier := s.daemon.Capability()
	summary := daemon.DescribeCapability(desc, tier)
	resp.Tier = summary.Tier
	resp.SupportsOnOff = summary.SupportsOnOff
	resp.SupportsAmplitudeControl = summary.SupportsAmplitudeControl
	resp.SupportsAudioCoupled = summary.SupportsAudioCoupled
	resp.SupportsEnvelopeEffects = summary.SupportsEnvelopeEffects
	resp.ResonantFrequencyHz = summary.ResonantFrequencyHz
	resp.QFactor = summary.QFactor
	resp.FrequencyMinHz = summary.FrequencyMinHz
	resp.FrequencyMaxHz = summary.FrequencyMaxHz
	resp.MaxControlPoints = summary.MaxControlPoints
	resp.NativePrimitives = summary.NativePrimitives
	return nil
}

func (s *service) CacheList(_ CacheListRequest, resp *CacheListResponse) error {
	stats, err := s.daemon.CacheStats(s.ctx)
	if err != nil {
		return err
	}
	resp.Entries = make([]CacheEntry, 0, len(stats.EntrySummaries))
	for _, entry := range stats.EntrySummaries {
		resp.Entries = append(resp.Entries, CacheEntry{
			Directory:  entry.Directory,
			SourcePath: entry.SourcePath,
			SizeBytes:  entry.SizeBytes,
			ModifiedAt: entry.ModifiedAt,
		})
	}
	return nil
}

func (s *service) CacheStats(_ CacheStatsRequest, resp *CacheStatsResponse) error {
	stats, err := s.daemon.CacheStats(s.ctx)
	if err != nil {
		return err
	}
	resp.Entries = stats.Entries
	resp.TotalBytes = stats.TotalBytes
	resp.FreeBytes = stats.FreeBytes
	resp.TotalFSBytes = stats.TotalFSBytes
	resp.FreeRatio = stats.FreeRatio
	resp.EntryList = make([]CacheEntry, 0, len(stats.EntrySummaries))
	for _, entry := range stats.EntrySummaries {
		resp.EntryList = append(resp.EntryList, CacheEntry{
			Directory:  entry.Directory,
			SourcePath: entry.SourcePath,
			SizeBytes:  entry.SizeBytes,
			ModifiedAt: entry.ModifiedAt,
		})
	}
	return nil
}

func (s *service) CacheSweep(_ CacheSweepRequest, resp *CacheSweepResponse) error {
	s.log().Debug("cache sweep requested")
	removed, err := s.daemon.CacheSweep(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.log().Info("cache swept",
		logging.String(logging.FieldEventType, "cache_sweep"),
		logging.Int("removed_count", len(removed)))
	return nil
}

func (s *service) HistoryList(req HistoryListRequest, resp *HistoryListResponse) error {
	records, err := s.daemon.HistoryList(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Records = make([]HistoryRecord, 0, len(records))
	for _, rec := range records {
		resp.Records = append(resp.Records, HistoryRecord{
			SessionID:   rec.SessionID,
			Source:      rec.Source,
			Tier:        capability.Tier(rec.Tier).String(),
			DurationMS:  rec.Duration.Milliseconds(),
			EffectCount: rec.EffectCount,
			AudioCount:  rec.AudioCount,
			FileCount:   rec.FileCount,
			Route:       rec.Route,
			StartedAt:   rec.StartedAt,
			CompletedAt: rec.CompletedAt,
		})
	}
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	logPath := s.daemon.LogPath()
	if logPath == "" {
		resp.Offset = 0
		return nil
	}
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait <= 0 && req.Follow {
		wait = time.Second
	}
	ctx := s.ctx
	if req.Follow && wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait+500*time.Millisecond)
		defer cancel()
	}
	result, err := logs.Tail(ctx, logPath, logs.TailOptions{
		Offset: req.Offset,
		Limit:  req.Limit,
		Follow: req.Follow,
		Wait:   wait,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			resp.Offset = result.Offset
			return nil
		}
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.log().Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}
