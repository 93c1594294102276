package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser — парсер cron-выражений (5 полей: минута-час-день-месяц-день недели).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ErrEmptySchedule — расписание без cron-выражения и интервала.
var ErrEmptySchedule = errors.New("schedule has neither cron expression nor interval")

// Spec — расписание запуска плана.
type Spec struct {
	// CronExpr — cron-выражение (взаимоисключимо с Interval).
	CronExpr string

	// Interval — интервал между запусками.
	Interval time.Duration

	// Timezone — IANA-имя зоны для cron-выражений (default: UTC).
	Timezone string
}

// NextDue вычисляет следующее время запуска после from.
func (s Spec) NextDue(from time.Time) (time.Time, error) {
	loc := time.UTC
	if s.Timezone != "" {
		if l, err := time.LoadLocation(s.Timezone); err == nil {
			loc = l
		}
	}
	fromInTz := from.In(loc)

	switch {
	case s.CronExpr != "":
		parsed, err := cronParser.Parse(s.CronExpr)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse cron expression %q: %w", s.CronExpr, err)
		}
		return parsed.Next(fromInTz).UTC(), nil

	case s.Interval > 0:
		return fromInTz.Add(s.Interval).UTC(), nil

	default:
		return time.Time{}, ErrEmptySchedule
	}
}

// Validate проверяет корректность расписания.
func (s Spec) Validate() error {
	if s.CronExpr == "" && s.Interval <= 0 {
		return ErrEmptySchedule
	}
	if s.CronExpr != "" {
		if _, err := cronParser.Parse(s.CronExpr); err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", s.CronExpr, err)
		}
	}
	return nil
}
