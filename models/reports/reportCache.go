package reports

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/daftarhq/daftar_backend/config"
	"github.com/daftarhq/daftar_backend/utils"
	"github.com/sirupsen/logrus"
)

// every cached report key is tracked here so posting can blow them all
// away in one call
const reportCacheKeySet = "report_cache_keys"

func reportCacheEnabled() bool {
	v := strings.TrimSpace(os.Getenv("ENABLE_REPORT_CACHE"))
	return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes") || strings.EqualFold(v, "on")
}

func reportCacheTTL() time.Duration {
	// Env: REPORT_CACHE_TTL_SECONDS (default 120s)
	ttl := 120
	if v := strings.TrimSpace(os.Getenv("REPORT_CACHE_TTL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttl = n
		}
	}
	return time.Duration(ttl) * time.Second
}

func reportSlowMs() int64 {
	// Env: REPORT_SLOW_MS (default 500ms)
	ms := int64(500)
	if v := strings.TrimSpace(os.Getenv("REPORT_SLOW_MS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			ms = n
		}
	}
	return ms
}

func logSlowReport(ctx context.Context, name string, started time.Time, extra map[string]any) {
	d := time.Since(started)
	if d.Milliseconds() < reportSlowMs() {
		return
	}
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	config.GetLogger().WithFields(logrus.Fields{
		"report":         name,
		"ms":             d.Milliseconds(),
		"correlation_id": cid,
		"extra":          extra,
	}).Warn("slow report")
}

func cacheGet[T any](key string, dest *T) (bool, error) {
	if !reportCacheEnabled() {
		return false, nil
	}
	return config.GetRedisObject(key, dest)
}

func cacheSet(key string, obj any) error {
	if !reportCacheEnabled() {
		return nil
	}
	if err := config.SetRedisObject(key, obj, reportCacheTTL()); err != nil {
		return err
	}
	return config.AddRedisSet(reportCacheKeySet, key)
}

// InvalidateReportCache drops every cached report. Posting, reversal and
// payment paths call it because all three change what reports replay.
func InvalidateReportCache() error {
	keys, err := config.GetRedisSetMembers(reportCacheKeySet)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	keys = append(keys, reportCacheKeySet)
	return config.RemoveRedisKey(keys...)
}
