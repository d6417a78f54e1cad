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

package server

import (
	"fmt"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dkorunic/classeviva-proxy/classeviva"
	"github.com/gin-gonic/gin"
)

// DefaultAgendaSpan is the agenda range used when the end date is not given.
const DefaultAgendaSpan = 30 * 24 * time.Hour

// queryDate parses an optional date query parameter, accepting any common date format in the local timezone.
func queryDate(c *gin.Context, name string) (time.Time, error) {
	v := c.Query(name)
	if v == "" {
		return time.Time{}, nil
	}

	t, err := dateparse.ParseLocal(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid %v date %q", ErrBadRequest, name, v)
	}

	return t, nil
}

func queryDates(c *gin.Context) (time.Time, time.Time, error) {
	begin, err := queryDate(c, "begin")
	if err != nil {
		return begin, begin, err
	}

	end, err := queryDate(c, "end")

	return begin, end, err
}

// absenceRange returns the absences range. A lone begin gets the current time as end, while a lone end is rejected.
func (s *Server) absenceRange(c *gin.Context) (time.Time, time.Time, error) {
	begin, end, err := queryDates(c)
	if err != nil {
		return begin, end, err
	}

	switch {
	case begin.IsZero() && !end.IsZero():
		return begin, end, fmt.Errorf("%w: end date requires a begin date", ErrBadRequest)
	case !begin.IsZero() && end.IsZero():
		end = s.now()
	}

	return begin, end, nil
}

// agendaRange returns the agenda range, defaulting begin to today and end to DefaultAgendaSpan after begin.
func (s *Server) agendaRange(c *gin.Context) (time.Time, time.Time, error) {
	begin, end, err := queryDates(c)
	if err != nil {
		return begin, end, err
	}

	if begin.IsZero() {
		begin = s.now()
	}

	if end.IsZero() {
		end = begin.Add(DefaultAgendaSpan)
	}

	if end.Before(begin) {
		return begin, end, fmt.Errorf("%w: end date before begin date", ErrBadRequest)
	}

	return begin, end, nil
}

// agendaFilter returns the requested event filter, all events by default.
func agendaFilter(c *gin.Context) classeviva.EventFilter {
	if f := c.Query("filter"); f != "" {
		return classeviva.EventFilter(f)
	}

	return classeviva.EventsAll
}

// lessonsQuery returns the lessons selection. Without any parameter today's lessons are requested; a bare ?today
// also means today.
func (s *Server) lessonsQuery(c *gin.Context) (bool, time.Time, time.Time, error) {
	begin, end, err := queryDates(c)
	if err != nil {
		return false, begin, end, err
	}

	v, present := c.GetQuery("today")
	if !present {
		return begin.IsZero() && end.IsZero(), begin, end, nil
	}

	if v == "" {
		return true, begin, end, nil
	}

	today, err := strconv.ParseBool(v)
	if err != nil {
		return false, begin, end, fmt.Errorf("%w: invalid today value %q", ErrBadRequest, v)
	}

	return today, begin, end, nil
}
