package pkg

import (
	"net/http"
	"time"
)

// HTTPClient is shared by everything that downloads from the Bot API file
// endpoint.
var HTTPClient = &http.Client{
	Timeout: time.Minute,
}
