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

package feedcron_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bond-vault/bv-api/common"
	"github.com/bond-vault/bv-api/feedcron"
)

var _ = Describe("Feedcron", func() {
	DescribeTable("when parsing feedcron spec",
		func(spec string, expectedTimeSpec string, expectedTimeFlag string, expectedDateFlag string, expectedError error) {
			cron, err := feedcron.New(spec)
			if expectedError == nil {
				Expect(err).To(BeNil())
				Expect(cron.ScheduleString).To(Equal(spec))
				Expect(cron.TimeSpec).To(Equal(expectedTimeSpec))
				Expect(cron.TimeFlag).To(Equal(expectedTimeFlag))
				Expect(cron.DateFlag).To(Equal(expectedDateFlag))
			} else {
				Expect(err).To(Equal(expectedError))
			}
		},
		Entry("Daily every 5 minutes", "*/5 * * * *", "*/5 * * * *", "", "", nil),
		Entry("Daily every 5 minutes brief form", "*/5", "*/5 * * * *", "", "", nil),
		Entry("Daily every 5 minutes 2 of 5 fields specified", "*/5 *", "*/5 * * * *", "", "", nil),
		Entry("Daily every 5 minutes 3 of 5 fields specified", "*/5 * *", "*/5 * * * *", "", "", nil),
		Entry("Daily every 5 minutes trailing whitespace", "*/5 ", "*/5 * * * *", "", "", nil),
		Entry("Daily every 5 minutes leading whitespace", " */5", "*/5 * * * *", "", "", nil),
		Entry("Malformed timespec with invalid characters", "$/5 * * * *", "", "", "", errors.New("failed to parse int from $: strconv.Atoi: parsing \"$\": invalid syntax")),
		Entry("Malformed timespec with too many fields", "*/5 * * * * *", "", "", "", errors.New("expected exactly 5 fields, found 6: [*/5 * * * * *]")),
		Entry("At the publish time", "@publish", "0 18 * * *", "@publish", "", nil),
		Entry("Daily 15 minutes after publish", "@publish 15 0 * * *", "15 18 * * *", "@publish", "", nil),
		Entry("15 minutes after publish brief form", "@publish 15", "15 18 * * *", "@publish", "", nil),
		Entry("Modifier order does not matter", "15 @publish", "15 18 * * *", "@publish", "", nil),
		Entry("Daily 30 minutes before publish", "@publish -30", "30 17 * * *", "@publish", "", nil),
		Entry("Daily 1 hour after publish", "@publish 0 1", "0 19 * * *", "@publish", "", nil),
		Entry("Daily 90 minutes after publish", "@publish 90", "30 19 * * *", "@publish", "", nil),
		Entry("Daily 6 hours after publish", "@publish 0 6", "", "", "", feedcron.ErrFieldOutOfBounds),
		Entry("Daily 19 hours before publish", "@publish 0 -19", "", "", "", feedcron.ErrFieldOutOfBounds),
		Entry("Offset is not a number", "@publish $5", "", "", "", feedcron.ErrMalformedTimeSpec),
		Entry("Publish time on last feed day of month", "@publish @monthend", "0 18 * * *", "@publish", "@monthend", nil),
		Entry("Every 5 minutes on first feed day of month", "@monthbegin */5", "*/5 * * * *", "", "@monthbegin", nil),
		Entry("Annually", "@monthend * * * 12 *", "* * * 12 *", "", "@monthend", nil),
		Entry("Both @publish @publish specified", "@publish @publish", "", "", "", feedcron.ErrConflictingModifiers),
		Entry("Both @monthbegin @monthend specified", "@monthbegin @monthend", "", "", "", feedcron.ErrConflictingModifiers),
		Entry("Unknown modifier", "@modifier", "", "", "", feedcron.ErrUnknownModifier),
	)

	DescribeTable("when evaluating next feed fire",
		func(spec string, given time.Time, expected time.Time) {
			cron, err := feedcron.New(spec)
			Expect(err).To(BeNil())
			next := cron.Next(given)
			Expect(next).To(Equal(expected))
		},
		Entry("every 5 minutes starting on saturday", "*/5 * * * *", time.Date(2022, 7, 16, 0, 0, 0, 0, common.GetTimezone()), time.Date(2022, 7, 18, 0, 0, 0, 0, common.GetTimezone())),
		Entry("every 5 minutes starting on a feed day", "*/5 * * * *", time.Date(2022, 7, 18, 10, 0, 0, 0, common.GetTimezone()), time.Date(2022, 7, 18, 10, 5, 0, 0, common.GetTimezone())),
		Entry("every 5 minutes starting on July 4th holiday", "*/5 * * * *", time.Date(2022, 7, 4, 0, 0, 0, 0, common.GetTimezone()), time.Date(2022, 7, 5, 0, 0, 0, 0, common.GetTimezone())),
		Entry("publish fire before the publish time", "@publish", time.Date(2022, 7, 1, 17, 0, 0, 0, common.GetTimezone()), time.Date(2022, 7, 1, 18, 0, 0, 0, common.GetTimezone())),
		Entry("publish fire after the publish time skips the long weekend", "@publish", time.Date(2022, 7, 1, 19, 0, 0, 0, common.GetTimezone()), time.Date(2022, 7, 5, 18, 0, 0, 0, common.GetTimezone())),
		Entry("publish fire skips Juneteenth observed", "@publish", time.Date(2022, 6, 17, 19, 0, 0, 0, common.GetTimezone()), time.Date(2022, 6, 21, 18, 0, 0, 0, common.GetTimezone())),
		Entry("publish fire skips Thanksgiving", "@publish", time.Date(2022, 11, 23, 19, 0, 0, 0, common.GetTimezone()), time.Date(2022, 11, 25, 18, 0, 0, 0, common.GetTimezone())),
		Entry("month end", "@publish @monthend", time.Date(2022, 6, 1, 0, 0, 0, 0, common.GetTimezone()), time.Date(2022, 6, 30, 18, 0, 0, 0, common.GetTimezone())),
		Entry("month begin", "@publish @monthbegin", time.Date(2022, 6, 25, 0, 0, 0, 0, common.GetTimezone()), time.Date(2022, 7, 1, 18, 0, 0, 0, common.GetTimezone())),
		Entry("month begin every 5 minutes", "@monthbegin */5", time.Date(2022, 6, 25, 13, 0, 0, 0, common.GetTimezone()), time.Date(2022, 7, 1, 0, 0, 0, 0, common.GetTimezone())),
		Entry("Annually", "@monthend * * * 12 *", time.Date(2022, 6, 25, 13, 0, 0, 0, common.GetTimezone()), time.Date(2022, 12, 30, 0, 0, 0, 0, common.GetTimezone())),
	)

	DescribeTable("when evaluating FiresOn",
		func(spec string, given time.Time, expected bool) {
			cron, err := feedcron.New(spec)
			Expect(err).To(BeNil())
			fires := cron.FiresOn(given)
			Expect(fires).To(Equal(expected))
		},
		Entry("every 5 minutes on saturday", "*/5 * * * *", time.Date(2022, 7, 16, 0, 0, 0, 0, common.GetTimezone()), false),
		Entry("every 5 minutes on a feed day", "*/5 * * * *", time.Date(2022, 7, 18, 9, 30, 0, 0, common.GetTimezone()), true),
		Entry("every 5 minutes on July 4th holiday", "*/5 * * * *", time.Date(2022, 7, 4, 0, 0, 0, 0, common.GetTimezone()), false),
		Entry("month begin, date given is month begin", "@publish @monthbegin", time.Date(2022, 7, 1, 13, 0, 0, 0, common.GetTimezone()), true),
		Entry("month begin, date given not month begin", "@publish @monthbegin", time.Date(2022, 7, 5, 13, 0, 0, 0, common.GetTimezone()), false),
		Entry("month begin, first calendar day not a feed day", "@monthbegin", time.Date(2022, 10, 3, 0, 0, 0, 0, common.GetTimezone()), true),
		Entry("month end, date given is month end", "@publish @monthend", time.Date(2022, 6, 30, 0, 0, 0, 0, common.GetTimezone()), true),
		Entry("month end, date given not month end", "@publish @monthend", time.Date(2022, 6, 29, 0, 0, 0, 0, common.GetTimezone()), false),
		Entry("month end, last calendar day not a feed day", "@monthend", time.Date(2022, 7, 29, 0, 0, 0, 0, common.GetTimezone()), true),
	)

	DescribeTable("when evaluating the feed calendar",
		func(given time.Time, feedDay bool, published bool) {
			Expect(feedcron.IsFeedDay(given)).To(Equal(feedDay))
			status := feedcron.NewFeedStatus()
			Expect(status.IsPublished(given)).To(Equal(published))
		},
		Entry("saturday", time.Date(2022, 7, 16, 12, 0, 0, 0, common.GetTimezone()), false, false),
		Entry("feed day before the publish time", time.Date(2022, 7, 18, 9, 0, 0, 0, common.GetTimezone()), true, false),
		Entry("feed day after the publish time", time.Date(2022, 7, 18, 18, 0, 0, 0, common.GetTimezone()), true, true),
		Entry("New Year's Day observed from the prior year", time.Date(2021, 12, 31, 12, 0, 0, 0, common.GetTimezone()), false, false),
		Entry("New Year's Day observed on the following monday", time.Date(2023, 1, 2, 19, 0, 0, 0, common.GetTimezone()), false, false),
		Entry("first feed day of 2023", time.Date(2023, 1, 3, 18, 30, 0, 0, common.GetTimezone()), true, true),
		Entry("Martin Luther King Jr. Day", time.Date(2022, 1, 17, 19, 0, 0, 0, common.GetTimezone()), false, false),
		Entry("Washington's Birthday", time.Date(2022, 2, 21, 19, 0, 0, 0, common.GetTimezone()), false, false),
		Entry("Good Friday is not a federal holiday", time.Date(2022, 4, 15, 18, 30, 0, 0, common.GetTimezone()), true, true),
		Entry("Memorial Day", time.Date(2022, 5, 30, 19, 0, 0, 0, common.GetTimezone()), false, false),
		Entry("Juneteenth observed", time.Date(2022, 6, 20, 19, 0, 0, 0, common.GetTimezone()), false, false),
		Entry("Independence Day", time.Date(2022, 7, 4, 19, 0, 0, 0, common.GetTimezone()), false, false),
		Entry("Labor Day", time.Date(2022, 9, 5, 19, 0, 0, 0, common.GetTimezone()), false, false),
		Entry("Columbus Day", time.Date(2022, 10, 10, 19, 0, 0, 0, common.GetTimezone()), false, false),
		Entry("Veterans Day", time.Date(2022, 11, 11, 19, 0, 0, 0, common.GetTimezone()), false, false),
		Entry("Thanksgiving", time.Date(2022, 11, 24, 19, 0, 0, 0, common.GetTimezone()), false, false),
		Entry("day after Thanksgiving publishes", time.Date(2022, 11, 25, 19, 0, 0, 0, common.GetTimezone()), true, true),
		Entry("Christmas observed", time.Date(2022, 12, 26, 19, 0, 0, 0, common.GetTimezone()), false, false),
	)

	DescribeTable("when finding month boundaries",
		func(given time.Time, first time.Time, last time.Time) {
			status := feedcron.NewFeedStatus()
			Expect(status.FirstFeedDayOfMonth(given)).To(Equal(first))
			Expect(status.LastFeedDayOfMonth(given)).To(Equal(last))
		},
		Entry("month starting on a weekend", time.Date(2022, 10, 15, 0, 0, 0, 0, common.GetTimezone()), time.Date(2022, 10, 3, 0, 0, 0, 0, common.GetTimezone()), time.Date(2022, 10, 31, 0, 0, 0, 0, common.GetTimezone())),
		Entry("month starting on an observed holiday", time.Date(2023, 1, 15, 0, 0, 0, 0, common.GetTimezone()), time.Date(2023, 1, 3, 0, 0, 0, 0, common.GetTimezone()), time.Date(2023, 1, 31, 0, 0, 0, 0, common.GetTimezone())),
		Entry("month ending on a weekend", time.Date(2022, 7, 4, 0, 0, 0, 0, common.GetTimezone()), time.Date(2022, 7, 1, 0, 0, 0, 0, common.GetTimezone()), time.Date(2022, 7, 29, 0, 0, 0, 0, common.GetTimezone())),
		Entry("month ending after observed Christmas", time.Date(2022, 12, 25, 0, 0, 0, 0, common.GetTimezone()), time.Date(2022, 12, 1, 0, 0, 0, 0, common.GetTimezone()), time.Date(2022, 12, 30, 0, 0, 0, 0, common.GetTimezone())),
	)
})
