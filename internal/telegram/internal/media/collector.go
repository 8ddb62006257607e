package media

import (
	"sync"
	"time"

	"photobook-order-bot/internal/file"

	"github.com/go-telegram/bot/models"
)

// Collector batches photos a user sends in quick succession, so an album
// forwarded as many messages is handled once.
type Collector struct {
	delay   time.Duration
	windows map[int64]*Window
	mu      sync.Mutex
}

type Window struct {
	Photos []file.RequestFile
	Timer  *time.Timer
}

func NewCollector(delay time.Duration) *Collector {
	if delay <= 0 {
		delay = 2 * time.Second
	}
	return &Collector{
		delay:   delay,
		windows: make(map[int64]*Window),
	}
}

// ProcessMessage reports false when message carries no photo. Otherwise
// onFlush runs once no further photo arrives for the collector delay.
func (c *Collector) ProcessMessage(message *models.Message, onFlush func(userID int64, photos []file.RequestFile)) bool {
	if message.From == nil || !HasPhoto(message) {
		return false
	}
	userID := message.From.ID
	photos := ExtractPhotos(message)

	c.mu.Lock()
	defer c.mu.Unlock()

	window, ok := c.windows[userID]
	if !ok {
		window = &Window{}
		c.windows[userID] = window
	}
	window.Photos = append(window.Photos, photos...)

	if window.Timer != nil {
		window.Timer.Stop()
	}
	window.Timer = time.AfterFunc(c.delay, func() {
		if flushed := c.take(userID, window); flushed != nil {
			onFlush(userID, flushed)
		}
	})
	return true
}

func (c *Collector) take(userID int64, window *Window) []file.RequestFile {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.windows[userID] != window {
		return nil
	}
	delete(c.windows, userID)
	return window.Photos
}
