// @license
// Copyright (C) 2025  Dinko Korunic
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package classeviva

import (
	"testing"
	"time"
)

func TestFormatDate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		value    time.Time
		expected string
	}{
		{
			name:     "SingleDigitMonthDay",
			value:    time.Date(2023, 3, 5, 0, 0, 0, 0, time.UTC),
			expected: "20230305",
		},
		{
			name:     "EndOfYear",
			value:    time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
			expected: "20241231",
		},
		{
			name:     "LocalTimezone",
			value:    time.Date(2025, 1, 9, 7, 30, 0, 0, time.Local),
			expected: "20250109",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := FormatDate(tc.value); got != tc.expected {
				t.Errorf("FormatDate() = %q, want %q", got, tc.expected)
			}
		})
	}
}

func TestOptionalDate(t *testing.T) {
	t.Parallel()

	if got := optionalDate(time.Time{}); got != "" {
		t.Errorf("optionalDate(zero) = %q, want empty", got)
	}

	if got := optionalDate(time.Date(2023, 3, 5, 0, 0, 0, 0, time.UTC)); got != "20230305" {
		t.Errorf("optionalDate() = %q, want 20230305", got)
	}
}
