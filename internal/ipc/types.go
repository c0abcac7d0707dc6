package ipc

import "time"

// PlayRequest schedules a scene by identifier.
type PlayRequest struct {
	Identifier string
	Route      string
}

// PlayResponse carries the session id assigned to the playback.
type PlayResponse struct {
	SessionID string
}

// PreloadRequest compiles and retains a scene for replay.
type PreloadRequest struct {
	Identifier string
}

// PreloadResponse reports whether the preload was accepted.
type PreloadResponse struct {
	Loaded  bool
	Message string
}

// UnloadRequest drops one preloaded scene.
type UnloadRequest struct {
	Identifier string
}

// UnloadResponse reports whether a bundle was present.
type UnloadResponse struct {
	Unloaded bool
}

// ClipPreloadRequest decodes and retains a standalone audio clip.
type ClipPreloadRequest struct {
	Identifier string
}

// ClipPreloadResponse reports whether the clip was retained.
type ClipPreloadResponse struct {
	Loaded  bool
	Message string
}

// ClipUnloadRequest drops one preloaded clip.
type ClipUnloadRequest struct {
	Identifier string
}

// ClipUnloadResponse reports whether a clip was present.
type ClipUnloadResponse struct {
	Unloaded bool
}

// ClipPlayRequest schedules a standalone audio clip.
type ClipPlayRequest struct {
	Identifier string
	Route      string
}

// ClipPlayResponse carries the session id assigned to the clip playback.
type ClipPlayResponse struct {
	SessionID string
}

// UnloadAllRequest drops every preloaded bundle and clip.
type UnloadAllRequest struct{}

// UnloadAllResponse acknowledges the drop.
type UnloadAllResponse struct {
	Unloaded bool
}

// StatusRequest retrieves daemon status.
type StatusRequest struct{}

// StatusResponse describes the running daemon.
type StatusResponse struct {
	Running          bool
	PID              int
	Tier             string
	SocketPath       string
	LockPath         string
	HistoryDBPath    string
	PreloadedBundles []string
	PreloadedClips   []string
}

// CapabilityRequest retrieves the session capability snapshot.
type CapabilityRequest struct{}

// CapabilityResponse is the flattened capability descriptor. Unreported
// resonant frequency and Q factor are nil rather than NaN so the payload
// stays valid JSON.
type CapabilityResponse struct {
	Tier                     string
	SupportsOnOff            bool
	SupportsAmplitudeControl bool
	SupportsAudioCoupled     bool
	SupportsEnvelopeEffects  bool
	ResonantFrequencyHz      *float64
	QFactor                  *float64
	FrequencyMinHz           float64
	FrequencyMaxHz           float64
	MaxControlPoints         int
	NativePrimitives         []string
}

// CacheListRequest retrieves the extracted archive entries.
type CacheListRequest struct{}

// CacheListResponse lists cache entries, newest first.
type CacheListResponse struct {
	Entries []CacheEntry
}

// CacheStatsRequest retrieves archive cache usage.
type CacheStatsRequest struct{}

// CacheEntry is one extracted archive in the cache.
type CacheEntry struct {
	Directory  string
	SourcePath string
	SizeBytes  int64
	ModifiedAt time.Time
}

// CacheStatsResponse summarizes archive cache usage.
type CacheStatsResponse struct {
	Entries      int
	TotalBytes   int64
	FreeBytes    uint64
	TotalFSBytes uint64
	FreeRatio    float64
	EntryList    []CacheEntry
}

// CacheSweepRequest removes invalid cache entries.
type CacheSweepRequest struct{}

// CacheSweepResponse lists the directories removed by the sweep.
type CacheSweepResponse struct {
	Removed []string
}

// HistoryListRequest retrieves recent playback records.
type HistoryListRequest struct {
	Limit int
}

// HistoryRecord is one playback history row.
type HistoryRecord struct {
	SessionID   string
	Source      string
	Tier        string
	DurationMS  int64
	EffectCount int
	AudioCount  int
	FileCount   int
	Route       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// HistoryListResponse carries playback records, newest first.
type HistoryListResponse struct {
	Records []HistoryRecord
}

// LogTailRequest reads daemon log lines. A negative Offset returns the last
// Limit lines; Follow with WaitMillis polls for new lines.
type LogTailRequest struct {
	Offset     int64
	Limit      int
	Follow     bool
	WaitMillis int64
}

// LogTailResponse carries log lines and the offset to resume from.
type LogTailResponse struct {
	Lines  []string
	Offset int64
}

// StopRequest asks the daemon to stop.
type StopRequest struct{}

// StopResponse acknowledges the stop.
type StopResponse struct {
	Stopped bool
}
