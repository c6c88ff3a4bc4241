package cache

import (
	"time"
)

// DefaultResetHour is the local hour at which cached refresh records expire.
// Data for the previous trading day is published before 08:00 JST.
const DefaultResetHour = 8

// TimeUntilNextReset は now から次のリセット時刻（loc における hour 時）までの期間を返します。
// loc が nil の場合は Asia/Tokyo を使用します。
func TimeUntilNextReset(now time.Time, loc *time.Location, hour int) time.Duration {
	if loc == nil {
		loc = tokyo()
	}
	now = now.In(loc)

	// 次のリセット時刻を計算
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, loc)

	// 今日のリセット時刻が既に過ぎている場合は翌日を使用
	if !now.Before(next) {
		next = next.AddDate(0, 0, 1)
	}

	return next.Sub(now)
}

func tokyo() *time.Location {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		return time.FixedZone("JST", 9*60*60)
	}
	return loc
}
