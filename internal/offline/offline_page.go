package offline

import (
	"net/http"
	"time"
)

const offlineDocument = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Offline</title>
<style>
body{font-family:system-ui,sans-serif;margin:0;min-height:100vh;display:flex;align-items:center;justify-content:center;background:#f4f1ea;color:#333;text-align:center}
main{max-width:28rem;padding:2rem}
h1{color:#2e7d32;font-size:1.6rem}
button{margin-top:1rem;padding:.6rem 1.4rem;border:0;border-radius:.4rem;background:#2e7d32;color:#fff;font-size:1rem}
</style>
</head>
<body>
<main>
<h1>You are offline</h1>
<p>The app could not reach the network. Records you saved on this device are safe and will be shown again once the page loads.</p>
<button onclick="location.reload()">Try again</button>
</main>
</body>
</html>
`

// OfflineDocument is the self-contained page served for navigations when
// neither the network nor the cached entry point is available.
func OfflineDocument(now time.Time) *Response {
	h := http.Header{}
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	return &Response{
		Status:   http.StatusOK,
		Header:   h,
		Body:     []byte(offlineDocument),
		StoredAt: now,
	}
}

// unavailable is the generic failure for sub-resources fetched while offline.
func unavailable(rawURL string) *Response {
	h := http.Header{}
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	return &Response{
		Status: http.StatusServiceUnavailable,
		Header: h,
		Body:   []byte("offline: " + rawURL + " is not cached\n"),
		URL:    rawURL,
	}
}
