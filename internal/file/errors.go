package file

import (
	"errors"
	"fmt"
)

var (
	ErrNoTgFileID        = errors.New("file does not have telegram file_id")
	ErrFileExists        = errors.New("file already exists")
	ErrFileTooLarge      = errors.New("file exceeds download size limit")
	ErrCalculateChecksum = errors.New("failed to calculate checksum")
)

type ErrDownloadFailed struct {
	Err error
}

func (e *ErrDownloadFailed) Error() string {
	return fmt.Errorf("failed to download file: %w", e.Err).Error()
}

func (e *ErrDownloadFailed) Unwrap() error {
	return e.Err
}

type ErrPrepareFilepath struct {
	Err error
}

func (e *ErrPrepareFilepath) Error() string {
	return fmt.Errorf("failed to prepare file path: %w", e.Err).Error()
}

func (e *ErrPrepareFilepath) Unwrap() error {
	return e.Err
}

type ErrReadDir struct {
	Err error
}

func (e *ErrReadDir) Error() string {
	return fmt.Errorf("failed to read directory: %w", e.Err).Error()
}

func (e *ErrReadDir) Unwrap() error {
	return e.Err
}

type ErrBadStatus struct {
	Status string
}

func (e *ErrBadStatus) Error() string {
	return fmt.Sprintf("bad status: %s", e.Status)
}
