package config

import "time"

// LiveConfig groups the refresh cadences of the live experience.  The chat
// and show list intervals are advertised to polling clients; the live
// interval also drives the WebSocket feed ticker.
type LiveConfig struct {
	ChatInterval     time.Duration
	LiveInterval     time.Duration
	ShowListInterval time.Duration
	CommentFeedLimit int
	WSMaxMessageSize int64
}

func LoadLiveConfig() LiveConfig {
	c := LiveConfig{
		ChatInterval:     envDur("CHAT_POLL_INTERVAL", 3*time.Second),
		LiveInterval:     envDur("LIVE_POLL_INTERVAL", 5*time.Second),
		ShowListInterval: envDur("SHOW_LIST_POLL_INTERVAL", 10*time.Second),
		CommentFeedLimit: envInt("COMMENT_FEED_LIMIT", 50),
		WSMaxMessageSize: int64(envInt("WS_MAX_MESSAGE_SIZE", 4096)),
	}
	if c.ChatInterval <= 0 {
		c.ChatInterval = 3 * time.Second
	}
	if c.LiveInterval <= 0 {
		c.LiveInterval = 5 * time.Second
	}
	if c.ShowListInterval <= 0 {
		c.ShowListInterval = 10 * time.Second
	}
	if c.CommentFeedLimit < 1 || c.CommentFeedLimit > 100 {
		c.CommentFeedLimit = 50
	}
	return c
}
