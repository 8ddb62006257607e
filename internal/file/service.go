package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"photobook-order-bot/internal/pkg/config"

	"go.uber.org/atomic"
)

type Service interface {
	CreateFolder(folderPath string) error
	DownloadAndSave(ctx context.Context, folderPath string, files []RequestFile, downloader Downloader) <-chan DownloadResult
	ListFiles(folderPath string) ([]string, error)
	ListFolders() ([]FolderInfo, error)
	DeleteFolder(folderPath string) error
	Path(elem ...string) string
}

type DefaultService struct {
	cfg *config.FileServiceCfg
	wg  sync.WaitGroup
}

func NewDefaultService(cfg *config.FileServiceCfg) *DefaultService {
	return &DefaultService{
		cfg: cfg,
	}
}

func (d *DefaultService) Path(elem ...string) string {
	return filepath.Join(append([]string{d.cfg.DirPath}, elem...)...)
}

func (d *DefaultService) CreateFolder(folderPath string) error {
	return os.MkdirAll(d.Path(folderPath), os.ModePerm)
}

// DownloadAndSave streams one result per file and closes the channel when
// every worker is done. Files already on disk are reported as skipped, which
// makes a second call resume an interrupted upload.
func (d *DefaultService) DownloadAndSave(ctx context.Context, folderPath string, files []RequestFile, downloader Downloader) <-chan DownloadResult {
	wg := sync.WaitGroup{}
	counter := atomic.NewInt32(0)
	result := make(chan DownloadResult)
	sem := make(chan struct{}, d.parallelism())

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer close(result)
		for _, file := range files {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				wg.Wait()
				return
			}
			wg.Add(1)
			go func(f RequestFile) {
				defer func() {
					<-sem
					wg.Done()
				}()
				res := d.processFile(ctx, folderPath, f, downloader)
				res.Index = int(counter.Inc())
				res.Total = len(files)
				select {
				case result <- res:
				case <-ctx.Done():
				}
			}(file)
		}
		wg.Wait()
	}()

	return result
}

func (d *DefaultService) processFile(ctx context.Context, folderPath string, file RequestFile, downloader Downloader) DownloadResult {
	filePath := d.Path(folderPath, file.Name)
	response := &ResponseFile{Name: file.Name, TGFileID: file.TGFileID}

	dst, err := prepareFilepath(filePath)
	if errors.Is(err, ErrFileExists) {
		checksum, err := calculateChecksum(filePath)
		if err != nil {
			return DownloadResult{Result: response, Err: ErrCalculateChecksum}
		}
		response.Checksum = checksum
		response.Skipped = true
		return DownloadResult{Result: response}
	}
	if err != nil {
		return DownloadResult{Result: response, Err: &ErrPrepareFilepath{Err: err}}
	}

	err = downloader.DownloadFile(ctx, file.TGFileID, dst)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(filePath)
		return DownloadResult{Result: response, Err: &ErrDownloadFailed{Err: err}}
	}

	checksum, err := calculateChecksum(filePath)
	if err != nil {
		return DownloadResult{Result: response, Err: ErrCalculateChecksum}
	}
	response.Checksum = checksum

	return DownloadResult{Result: response}
}

// ListFiles returns absolute paths of the regular files in folderPath,
// sorted by name.
func (d *DefaultService) ListFiles(folderPath string) ([]string, error) {
	dir := d.Path(folderPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &ErrReadDir{Err: err}
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func (d *DefaultService) ListFolders() ([]FolderInfo, error) {
	entries, err := os.ReadDir(d.cfg.DirPath)
	if err != nil {
		return nil, &ErrReadDir{Err: err}
	}

	var folders []FolderInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		folders = append(folders, FolderInfo{Name: entry.Name(), ModTime: info.ModTime()})
	}
	return folders, nil
}

func (d *DefaultService) DeleteFolder(folderPath string) error {
	if folderPath == "" {
		return nil
	}
	return os.RemoveAll(d.Path(folderPath))
}

// Wait blocks until every DownloadAndSave producer has exited.
func (d *DefaultService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (d *DefaultService) parallelism() int {
	if d.cfg.MaxParallelDownloads > 0 {
		return d.cfg.MaxParallelDownloads
	}
	return 5
}
