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

package feedcron

import (
	"time"

	"github.com/bond-vault/bv-api/common"
)

// PublishTime is the hhmm wall clock time, US/Eastern, the daily zero
// curve is expected to be posted by.
const PublishTime = 1800

// FeedStatus answers calendar questions about the zero curve feed.
type FeedStatus struct {
	tz *time.Location
}

func NewFeedStatus() *FeedStatus {
	return &FeedStatus{
		tz: common.GetTimezone(),
	}
}

// IsFeedHoliday returns true if the specified date is a federal holiday
func (fs *FeedStatus) IsFeedHoliday(t time.Time) bool {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, fs.tz)
	return holidaySet(d.Year(), fs.tz)[d.Unix()]
}

// IsFeedDay returns true if the feed publishes a curve on the specified
// date, i.e. the date is a weekday and not a federal holiday
func (fs *FeedStatus) IsFeedDay(t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}

	return !fs.IsFeedHoliday(t)
}

// IsPublished returns true once the specified time is past the publish
// time of a feed day, i.e. the day's curve should be available
func (fs *FeedStatus) IsPublished(t time.Time) bool {
	if !fs.IsFeedDay(t) {
		return false
	}

	local := t.In(fs.tz)
	timeOfDay := local.Hour()*100 + local.Minute()
	return timeOfDay >= PublishTime
}

// FirstFeedDayOfMonth returns the first date of t's month with a published
// curve
func (fs *FeedStatus) FirstFeedDayOfMonth(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, fs.tz)
	for !fs.IsFeedDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// LastFeedDayOfMonth returns the final date of t's month with a published
// curve
func (fs *FeedStatus) LastFeedDayOfMonth(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, fs.tz).AddDate(0, 1, -1)
	for !fs.IsFeedDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}
