package mtproto

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"photobook-order-bot/internal/pkg/config"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/tg"
)

const (
	partSize    = 512 * 1024
	initTimeout = 30 * time.Second
)

var ErrInitTimeout = errors.New("mtproto client initialization timeout")

// Client downloads files over MTProto as the bot itself. Unlike the Bot
// API it is not capped at 20MB per file.
type Client struct {
	api        *tg.Client
	downloader *downloader.Downloader
	cancel     context.CancelFunc
	done       chan struct{}
	ready      chan struct{}
}

func NewClient(ctx context.Context, cfg *config.MTProtoCfg, botToken string) (*Client, error) {
	client := &Client{
		done:  make(chan struct{}),
		ready: make(chan struct{}),
	}

	clientCtx, cancel := context.WithCancel(ctx)
	client.cancel = cancel

	tgClient := telegram.NewClient(cfg.AppID, cfg.AppHash, telegram.Options{})

	go func() {
		defer close(client.done)

		err := tgClient.Run(clientCtx, func(ctx context.Context) error {
			if _, err := tgClient.Auth().Bot(ctx, botToken); err != nil {
				return fmt.Errorf("auth failed: %w", err)
			}

			client.api = tg.NewClient(tgClient)
			client.downloader = downloader.NewDownloader().WithPartSize(partSize)
			close(client.ready)

			<-ctx.Done()
			return ctx.Err()
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MTProto client stopped", "error", err)
		}
	}()

	select {
	case <-client.ready:
		slog.Info("MTProto client ready")
		return client, nil
	case <-client.done:
		return nil, errors.New("mtproto client stopped before it was ready")
	case <-time.After(initTimeout):
		client.cancel()
		return nil, ErrInitTimeout
	case <-ctx.Done():
		client.cancel()
		return nil, ctx.Err()
	}
}

func (c *Client) DownloadFile(ctx context.Context, fileID string, dst io.Writer) error {
	id, err := ParseFileID(fileID)
	if err != nil {
		return err
	}
	location, err := id.Location()
	if err != nil {
		return err
	}

	_, err = c.downloader.Download(c.api, location).Stream(ctx, dst)
	return err
}

func (c *Client) Close() error {
	c.cancel()
	<-c.done
	return nil
}
