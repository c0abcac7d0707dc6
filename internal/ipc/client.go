package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Play schedules a scene and returns its session id.
func (c *Client) Play(identifier, route string) (*PlayResponse, error) {
	var resp PlayResponse
	if err := c.client.Call("Haptune.Play", PlayRequest{Identifier: identifier, Route: route}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Preload compiles and retains a scene for replay.
func (c *Client) Preload(identifier string) (*PreloadResponse, error) {
	var resp PreloadResponse
	if err := c.client.Call("Haptune.Preload", PreloadRequest{Identifier: identifier}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Unload drops one preloaded scene.
func (c *Client) Unload(identifier string) (*UnloadResponse, error) {
	var resp UnloadResponse
	if err := c.client.Call("Haptune.Unload", UnloadRequest{Identifier: identifier}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClipPreload decodes and retains a standalone audio clip.
func (c *Client) ClipPreload(identifier string) (*ClipPreloadResponse, error) {
	var resp ClipPreloadResponse
	if err := c.client.Call("Haptune.ClipPreload", ClipPreloadRequest{Identifier: identifier}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClipUnload drops one preloaded clip.
func (c *Client) ClipUnload(identifier string) (*ClipUnloadResponse, error) {
	var resp ClipUnloadResponse
	if err := c.client.Call("Haptune.ClipUnload", ClipUnloadRequest{Identifier: identifier}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClipPlay schedules a standalone audio clip.
func (c *Client) ClipPlay(identifier, route string) (*ClipPlayResponse, error) {
	var resp ClipPlayResponse
	if err := c.client.Call("Haptune.ClipPlay", ClipPlayRequest{Identifier: identifier, Route: route}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UnloadAll drops every preloaded bundle and clip.
func (c *Client) UnloadAll() (*UnloadAllResponse, error) {
	var resp UnloadAllResponse
	if err := c.client.Call("Haptune.UnloadAll", UnloadAllRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Haptune.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Capability retrieves the session capability snapshot.
func (c *Client) Capability() (*CapabilityResponse, error) {
	var resp CapabilityResponse
	if err := c.client.Call("Haptune.Capability", CapabilityRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CacheList retrieves extracted archive entries, newest first.
func (c *Client) CacheList() (*CacheListResponse, error) {
	var resp CacheListResponse
	if err := c.client.Call("Haptune.CacheList", CacheListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CacheStats retrieves archive cache usage.
func (c *Client) CacheStats() (*CacheStatsResponse, error) {
	var resp CacheStatsResponse
	if err := c.client.Call("Haptune.CacheStats", CacheStatsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CacheSweep removes invalid cache entries.
func (c *Client) CacheSweep() (*CacheSweepResponse, error) {
	var resp CacheSweepResponse
	if err := c.client.Call("Haptune.CacheSweep", CacheSweepRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HistoryList retrieves recent playback records.
func (c *Client) HistoryList(limit int) (*HistoryListResponse, error) {
	var resp HistoryListResponse
	if err := c.client.Call("Haptune.HistoryList", HistoryListRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail returns log lines from the daemon.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.client.Call("Haptune.LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Haptune.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
