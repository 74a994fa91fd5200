package service

import (
	"strings"
	"time"
)

// 流水日期接受的格式，按顺序尝试
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"02.01.2006 15:04",
	DateLayout,
}

// ParseDateTime 解析流水日期，不带时区的按本地时间处理，带时区的换算为本地时间。空串返回 nil。
func ParseDateTime(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			t = t.Local()
			return &t, nil
		}
	}
	return nil, invalid("date", "日期格式错误，应为 2006-01-02 15:04")
}
