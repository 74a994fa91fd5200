package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// WriteRateLimit 写操作限流中间件
// 每 IP 在 window 内最多 maxRequests 次 POST/PUT/PATCH/DELETE，超过返回 429；读请求不计数。
// maxRequests <= 0 时不限流。ctx 结束后后台清理协程退出。
func WriteRateLimit(ctx context.Context, maxRequests int, window time.Duration) gin.HandlerFunc {
	if maxRequests <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	var (
		mu    sync.Mutex
		store = make(map[string][]time.Time)
	)
	prune := func(ts []time.Time, cutoff time.Time) []time.Time {
		kept := ts[:0]
		for _, t := range ts {
			if t.After(cutoff) {
				kept = append(kept, t)
			}
		}
		return kept
	}
	// 定期清理过期数据
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			mu.Lock()
			cutoff := time.Now().Add(-window)
			for ip, ts := range store {
				if kept := prune(ts, cutoff); len(kept) == 0 {
					delete(store, ip)
				} else {
					store[ip] = kept
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		ip := c.ClientIP()
		now := time.Now()
		mu.Lock()
		ts := prune(store[ip], now.Add(-window))
		if len(ts) >= maxRequests {
			store[ip] = ts
			mu.Unlock()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": "写操作过于频繁，请稍后再试",
			})
			return
		}
		store[ip] = append(ts, now)
		mu.Unlock()
		c.Next()
	}
}
