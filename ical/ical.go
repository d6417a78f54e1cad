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

// Package ical renders Classe Viva agenda events as an iCalendar feed.
package ical

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dkorunic/classeviva-proxy/classeviva"
	"github.com/jordic/goics"
)

const (
	ProdID    = "-//classeviva-proxy//Agenda//IT"
	uidSuffix = "@classeviva"
)

var ErrAgendaPayload = errors.New("unable to decode agenda payload")

// Event is a single agenda entry as returned by the remote agenda endpoint.
type Event struct {
	ID          int64  `json:"evtId"`
	Code        string `json:"evtCode"`
	Begin       string `json:"evtDatetimeBegin"`
	End         string `json:"evtDatetimeEnd"`
	FullDay     bool   `json:"isFullDay"`
	Notes       string `json:"notes"`
	AuthorName  string `json:"authorName"`
	SubjectDesc string `json:"subjectDesc"`
}

type agenda struct {
	Events []Event `json:"agenda"`
}

// calendarEvent is an agenda entry with parsed timestamps.
type calendarEvent struct {
	Event
	start time.Time
	end   time.Time
}

// Calendar is a list of agenda events emitted as a single VCALENDAR.
type Calendar struct {
	events []calendarEvent
	stamp  time.Time
}

// NewCalendar parses an agenda response into a Calendar. Event timestamps are parsed in the local timezone.
func NewCalendar(r *classeviva.Response) (*Calendar, error) {
	var a agenda

	if err := r.Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAgendaPayload, err)
	}

	c := &Calendar{
		events: make([]calendarEvent, 0, len(a.Events)),
		stamp:  time.Now(),
	}

	for _, e := range a.Events {
		start, err := dateparse.ParseLocal(e.Begin)
		if err != nil {
			return nil, fmt.Errorf("%w: event %v: %w", ErrAgendaPayload, e.ID, err)
		}

		end := start

		if e.End != "" {
			if end, err = dateparse.ParseLocal(e.End); err != nil {
				return nil, fmt.Errorf("%w: event %v: %w", ErrAgendaPayload, e.ID, err)
			}
		}

		c.events = append(c.events, calendarEvent{Event: e, start: start, end: end})
	}

	return c, nil
}

// Len returns the number of events.
func (c *Calendar) Len() int {
	return len(c.events)
}

// EmitICal implements goics.ICalEmiter.
func (c *Calendar) EmitICal() goics.Componenter {
	cal := goics.NewComponent()
	cal.SetType("VCALENDAR")
	cal.AddProperty("VERSION", "2.0")
	cal.AddProperty("PRODID", ProdID)
	cal.AddProperty("CALSCALE", "GREGORIAN")

	for _, e := range c.events {
		ev := goics.NewComponent()
		ev.SetType("VEVENT")
		ev.AddProperty("UID", strconv.FormatInt(e.ID, 10)+uidSuffix)

		k, v := goics.FormatDateTime("DTSTAMP", c.stamp)
		ev.AddProperty(k, v)

		// all day events end exclusively on the following day
		if e.FullDay {
			k, v = goics.FormatDateField("DTSTART", e.start)
			ev.AddProperty(k, v)
			k, v = goics.FormatDateField("DTEND", e.start.AddDate(0, 0, 1))
			ev.AddProperty(k, v)
		} else {
			k, v = goics.FormatDateTimeField("DTSTART", e.start)
			ev.AddProperty(k, v)
			k, v = goics.FormatDateTimeField("DTEND", e.end)
			ev.AddProperty(k, v)
		}

		ev.AddProperty("SUMMARY", escapeText(summary(e.Event)))

		if e.Notes != "" {
			ev.AddProperty("DESCRIPTION", escapeText(e.Notes))
		}

		cal.AddComponent(ev)
	}

	return cal
}

// Encode writes the agenda response to w as an iCalendar document.
func Encode(w io.Writer, r *classeviva.Response) error {
	c, err := NewCalendar(r)
	if err != nil {
		return err
	}

	goics.NewICalEncode(w).Encode(c)

	return nil
}

// summary builds the event title out of subject and author, falling back to the notes.
func summary(e Event) string {
	parts := make([]string, 0, 2)

	if e.SubjectDesc != "" {
		parts = append(parts, e.SubjectDesc)
	}

	if e.AuthorName != "" {
		parts = append(parts, e.AuthorName)
	}

	if len(parts) == 0 {
		return e.Notes
	}

	return strings.Join(parts, " - ")
}

var textEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\r\n", `\n`, "\n", `\n`)

// escapeText escapes an iCalendar TEXT value.
func escapeText(s string) string {
	return textEscaper.Replace(s)
}
