package keepalive

import (
	"context"
	"net/http"
	"time"

	"notehub/pkg/logger"
)

// Run pings the given URL on every tick to keep a hosted instance from
// being put to sleep. A blank URL disables the pinger.
func Run(ctx context.Context, url string, interval time.Duration) {
	if url == "" {
		return
	}

	client := &http.Client{Timeout: 30 * time.Second}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			resp, err := client.Get(url)
			if err != nil {
				logger.Sugar.Warnf("Keepalive ping failed: %v", err)
				continue
			}
			resp.Body.Close()
			logger.Sugar.Infof("Keepalive ping %s -> %d", url, resp.StatusCode)
		}
	}
}
