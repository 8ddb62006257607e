package file

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-telegram/bot"
)

type Downloader interface {
	DownloadFile(ctx context.Context, fileID string, dst io.Writer) error
}

// TelegramDownloader fetches files through the Bot API, which serves
// at most 20MB per file.
type TelegramDownloader struct {
	api     *bot.Bot
	client  *http.Client
	maxSize int64
}

func NewTelegramDownloader(api *bot.Bot, client *http.Client, maxSize int64) Downloader {
	if maxSize <= 0 {
		maxSize = 20 * 1024 * 1024
	}
	return &TelegramDownloader{api: api, client: client, maxSize: maxSize}
}

func (d *TelegramDownloader) DownloadFile(ctx context.Context, fileID string, dst io.Writer) error {
	if fileID == "" {
		return ErrNoTgFileID
	}

	file, err := d.api.GetFile(ctx, &bot.GetFileParams{
		FileID: fileID,
	})
	if err != nil {
		return err
	}
	if file.FileSize > d.maxSize {
		return ErrFileTooLarge
	}

	link := d.api.FileDownloadLink(file)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &ErrBadStatus{Status: resp.Status}
	}

	_, err = io.Copy(dst, io.LimitReader(resp.Body, d.maxSize))
	return err
}

// FallbackDownloader hands files the primary refuses as too large to a
// second downloader. A nil large downloader keeps the primary's error.
type FallbackDownloader struct {
	primary Downloader
	large   Downloader
}

func NewFallbackDownloader(primary, large Downloader) Downloader {
	if large == nil {
		return primary
	}
	return &FallbackDownloader{primary: primary, large: large}
}

func (d *FallbackDownloader) DownloadFile(ctx context.Context, fileID string, dst io.Writer) error {
	err := d.primary.DownloadFile(ctx, fileID, dst)
	if errors.Is(err, ErrFileTooLarge) {
		return d.large.DownloadFile(ctx, fileID, dst)
	}
	return err
}
