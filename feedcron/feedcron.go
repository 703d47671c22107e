// Copyright 2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package feedcron schedules work against the zero curve feed calendar.
// The feed posts one curve per federal business day, so a plain cron
// schedule fires on days with nothing to download; feedcron skips those.
package feedcron

import (
	"errors"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const (
	AtPublish    = "@publish"
	AtMonthBegin = "@monthbegin"
	AtMonthEnd   = "@monthend"
)

var (
	ErrConflictingModifiers = errors.New("conflicting modifiers in schedule")
	ErrUnknownModifier      = errors.New("unknown modifier in schedule")
	ErrMalformedTimeSpec    = errors.New("malformed timespec")
	ErrFieldOutOfBounds     = errors.New("timespec field out of bounds")
)

type FeedCron struct {
	Schedule       cron.Schedule
	ScheduleString string
	TimeSpec       string
	TimeFlag       string
	DateFlag       string
	status         *FeedStatus
}

// New parses a feed aware schedule. It supports schedules via the standard
// CRON format of: Minutes(Min) Hours(H) DayOfMonth(DoM) Month(M) DayOfWeek(DoW)
// See: https://en.wikipedia.org/wiki/Cron
//
// Fires only land on days the feed publishes a curve.
//
// Additional feed-aware modifiers are supported:
//
//	@publish    - Run at the feed publish time; replaces Minute and Hour,
//	              any Minute and Hour given are added as an offset
//	@monthbegin - Run on the first feed day of the month; restricts the date
//	@monthend   - Run on the last feed day of the month; restricts the date
//
// Examples:
//   - daily at the publish time: @publish
//   - 15 minutes after publish: 15 @publish
//   - publish time on the last feed day of the month: @publish @monthend
//   - explicit time on feed days only: 45 18 * * *
func New(cronSpec string) (*FeedCron, error) {
	specParser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

	scheduleStr := strings.TrimSpace(cronSpec)
	scheduleStr = expandBriefFormat(scheduleStr)

	// separate special tokens from timespec
	tokens := strings.Split(scheduleStr, " ")

	timeSpecTokens := make([]string, 0, 5)
	specialTokens := make([]string, 0, 2)
	for _, token := range tokens {
		if token[0] == '@' {
			specialTokens = append(specialTokens, token)
		} else {
			timeSpecTokens = append(timeSpecTokens, token)
		}
	}

	var timeSpec string
	var timeFlag string
	var dateFlag string
	var err error
	for _, token := range specialTokens {
		switch token {
		case AtPublish:
			if timeFlag != "" {
				return nil, ErrConflictingModifiers
			}
			if timeSpec, err = parseTimeRelativeTo(timeSpecTokens, PublishTime/100, PublishTime%100); err != nil {
				return nil, err
			}
			timeFlag = AtPublish
		case AtMonthBegin:
			if dateFlag != "" {
				return nil, ErrConflictingModifiers
			}
			dateFlag = AtMonthBegin
		case AtMonthEnd:
			if dateFlag != "" {
				return nil, ErrConflictingModifiers
			}
			dateFlag = AtMonthEnd
		default:
			return nil, ErrUnknownModifier
		}
	}

	if timeSpec == "" {
		timeSpec = strings.Join(timeSpecTokens, " ")
	}

	schedule, err := specParser.Parse(timeSpec)
	if err != nil {
		log.Error().Err(err).Str("TimeSpec", timeSpec).Str("FeedCronSpec", cronSpec).Msg("could not parse timespec")
		return nil, err
	}

	fc := &FeedCron{
		Schedule:       schedule,
		ScheduleString: cronSpec,
		TimeSpec:       timeSpec,
		TimeFlag:       timeFlag,
		DateFlag:       dateFlag,
		status:         NewFeedStatus(),
	}

	return fc, nil
}

// matchesDateFlag checks the date restriction of the schedule, if any
func (fc *FeedCron) matchesDateFlag(t time.Time) bool {
	dateOnly := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, fc.status.tz)
	switch fc.DateFlag {
	case AtMonthBegin:
		return dateOnly.Equal(fc.status.FirstFeedDayOfMonth(t))
	case AtMonthEnd:
		return dateOnly.Equal(fc.status.LastFeedDayOfMonth(t))
	default:
		return true
	}
}

// Next returns the next schedule fire that lands on a feed day
func (fc *FeedCron) Next(forDate time.Time) time.Time {
	checkDate := forDate.In(fc.status.tz)
	next := fc.Schedule.Next(checkDate)

	// a date flag restricts fires to a single day per month; fast-forward to
	// that day instead of stepping the schedule through every fire in between
	switch fc.DateFlag {
	case AtMonthBegin:
		target := fc.status.FirstFeedDayOfMonth(next)
		dateOnly := time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, fc.status.tz)
		switch {
		case dateOnly.Before(target):
			checkDate = target.Add(-time.Nanosecond)
		case dateOnly.Equal(target):
			// already positioned; keep the fire time within the day
		case dateOnly.After(target):
			nextMonth := time.Date(next.Year(), next.Month(), 1, 0, 0, 0, 0, fc.status.tz).AddDate(0, 1, 0)
			checkDate = fc.status.FirstFeedDayOfMonth(nextMonth).Add(-time.Nanosecond)
		}
	case AtMonthEnd:
		target := fc.status.LastFeedDayOfMonth(next)
		dateOnly := time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, fc.status.tz)
		switch {
		case dateOnly.Before(target):
			checkDate = target.Add(-time.Nanosecond)
		case dateOnly.Equal(target):
			// already positioned; keep the fire time within the day
		case dateOnly.After(target):
			nextMonth := time.Date(next.Year(), next.Month(), 1, 0, 0, 0, 0, fc.status.tz).AddDate(0, 1, 0)
			checkDate = fc.status.LastFeedDayOfMonth(nextMonth).Add(-time.Nanosecond)
		}
	}

	maxIters := 5000
	for iter := 0; iter < maxIters; iter++ {
		next = fc.Schedule.Next(checkDate)
		if fc.status.IsFeedDay(next) && fc.matchesDateFlag(next) {
			return next
		}
		checkDate = next
	}

	log.Panic().Str("TimeSpec", fc.TimeSpec).Str("DateFlag", fc.DateFlag).Msg("feedcron schedule never lands on a feed day")
	return time.Time{}
}

// FiresOn evaluates the given date against the schedule and returns true
// if the schedule fires on that date. The time portion of the schedule is
// ignored when evaluating this function
func (fc *FeedCron) FiresOn(forDate time.Time) bool {
	t1 := time.Date(forDate.Year(), forDate.Month(), forDate.Day(), 0, 0, 0, 0, fc.status.tz)
	t0 := t1.AddDate(0, 0, -1)
	t0 = time.Date(t0.Year(), t0.Month(), t0.Day(), 23, 59, 59, 999_999_999, fc.status.tz)
	next := fc.Next(t0)
	nextDate := time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, fc.status.tz)
	return nextDate.Equal(t1)
}

// IsFeedDay reports whether the curve feed publishes on the given date.
func IsFeedDay(t time.Time) bool {
	return NewFeedStatus().IsFeedDay(t)
}
