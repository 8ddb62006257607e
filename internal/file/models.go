package file

import "time"

type RequestFile struct {
	Name     string `json:"name"`
	Size     uint64 `json:"size"`
	TGFileID string `json:"tg_file_id"`
}

type ResponseFile struct {
	Name     string
	Checksum string
	TGFileID string
	Skipped  bool
}

type DownloadResult struct {
	Result *ResponseFile
	Index  int
	Total  int
	Err    error
}

type FolderInfo struct {
	Name    string
	ModTime time.Time
}
