package order

import (
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

func CreateFolderPath(userID int64, title string, createdAt time.Time) string {
	if title == "" {
		title = "photobook"
	}
	path := strings.Join([]string{strconv.FormatInt(userID, 10), title, strconv.FormatInt(createdAt.Unix(), 10)}, "_")
	return slug.Make(path)
}
