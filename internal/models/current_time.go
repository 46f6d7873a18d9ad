package models

import "time"

// CurrentTimeModel is the server clock in epoch milliseconds and RFC 3339.
type CurrentTimeModel struct {
	ReadableTime string `json:"readableTime"`
	Time         int64  `json:"time"`
}

func NewCurrentTime(t time.Time) CurrentTimeModel {
	return CurrentTimeModel{
		ReadableTime: t.UTC().Format(time.RFC3339),
		Time:         t.UnixMilli(),
	}
}
