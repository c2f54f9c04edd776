// utils/http.go
package utils

import (
	"net/http"
	"time"
)

// HTTPClient is shared by outbound integrations. Code delivery must answer
// well inside the request that triggered it.
var HTTPClient = &http.Client{
	Timeout: 10 * time.Second,
}
