package assetcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnknownAction = errors.New("unknown maintenance action")

// Maintenance actions sent by the client.
const (
	ActionSkipWaiting  = "skipWaiting"
	ActionClearCache   = "clearCache"
	ActionGetCacheSize = "getCacheSize"
)

// Message is a maintenance request.
type Message struct {
	Action string `json:"action"`
}

// Reply is written to the message's reply channel. Fields that do not apply
// to the action are omitted.
type Reply struct {
	Success   *bool  `json:"success,omitempty"`
	CacheSize *int   `json:"cacheSize,omitempty"`
	CacheName string `json:"cacheName,omitempty"`
}

// HandleMessage runs a maintenance action. skipWaiting has no reply.
func (c *Controller) HandleMessage(ctx context.Context, msg Message) (*Reply, error) {
	switch msg.Action {
	case ActionSkipWaiting:
		c.SkipWaiting(ctx)
		return nil, nil
	case ActionClearCache:
		if err := c.ClearAll(ctx); err != nil {
			return nil, err
		}
		ok := true
		return &Reply{Success: &ok}, nil
	case ActionGetCacheSize:
		n, err := c.DataCacheSize(ctx)
		if err != nil {
			return nil, err
		}
		return &Reply{CacheSize: &n, CacheName: c.DataCacheName()}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, msg.Action)
}

// HandleJSON decodes a message, runs it and encodes the reply, "null" when
// the action has none.
func (c *Controller) HandleJSON(ctx context.Context, data []byte) ([]byte, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	reply, err := c.HandleMessage(ctx, msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(reply)
}
