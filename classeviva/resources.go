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
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// noticeAttachmentCode is the fixed attachment selector used by noticeboard read and attach calls.
const noticeAttachmentCode = "101"

// Absences fetches the student's absences, optionally limited to a date range. Zero dates are omitted from the
// request; with both zero the remote returns all absences.
func (s *Session) Absences(ctx context.Context, begin, end time.Time) (*Response, error) {
	return s.request(ctx, http.MethodGet, "absences", "details", optionalDate(begin), optionalDate(end))
}

// Agenda fetches agenda events between begin and end, filtered by event type.
func (s *Session) Agenda(ctx context.Context, begin, end time.Time, filter EventFilter) (*Response, error) {
	code, ok := eventFilterCodes[filter]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, filter)
	}

	return s.request(ctx, http.MethodGet, "agenda", code, FormatDate(begin), FormatDate(end))
}

// Didactics fetches the educational material listing.
func (s *Session) Didactics(ctx context.Context) (*Response, error) {
	return s.request(ctx, http.MethodGet, "didactics")
}

// DidacticsListing fetches and decodes the educational material listing.
func (s *Session) DidacticsListing(ctx context.Context) (DidacticsListing, error) {
	var listing DidacticsListing

	r, err := s.Didactics(ctx)
	if err != nil {
		return listing, err
	}

	if msg := r.RemoteError(); msg != "" {
		return listing, fmt.Errorf("%w: %v", ErrRemote, msg)
	}

	err = r.Decode(&listing)

	return listing, err
}

// DownloadDidacticsItem fetches a single didactics content: file contents as a binary response and links as a text
// response holding the link URL.
func (s *Session) DownloadDidacticsItem(ctx context.Context, item DidacticsContent) (*Response, error) {
	contentID := strconv.FormatInt(item.ContentID, 10)

	switch item.ObjectType {
	case ObjectTypeFile:
		b, err := s.rawRequest(ctx, http.MethodGet, "didactics", "item", contentID)
		if err != nil {
			return nil, err
		}

		return &Response{Kind: KindBinary, Bytes: b}, nil
	case ObjectTypeLink:
		r, err := s.request(ctx, http.MethodGet, "didactics", "item", contentID)
		if err != nil {
			return nil, err
		}

		if msg := r.RemoteError(); msg != "" {
			return nil, fmt.Errorf("%w: %v", ErrRemote, msg)
		}

		var link struct {
			Item struct {
				Link string `json:"link"`
			} `json:"item"`
		}

		if err := r.Decode(&link); err != nil {
			return nil, err
		}

		return &Response{Kind: KindText, Text: link.Item.Link}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedItem, item.ObjectType)
}

// Documents fetches the student's documents (report cards and similar).
func (s *Session) Documents(ctx context.Context) (*Response, error) {
	return s.request(ctx, http.MethodPost, "documents")
}

// DownloadDocument checks document availability and downloads it. Unavailable documents return nil contents and no
// error.
func (s *Session) DownloadDocument(ctx context.Context, doc SchoolDocument) ([]byte, error) {
	r, err := s.request(ctx, http.MethodGet, "documents", "check", doc.Hash)
	if err != nil {
		return nil, err
	}

	var check struct {
		Document struct {
			Available bool `json:"available"`
		} `json:"document"`
	}

	if err := r.Decode(&check); err != nil || !check.Document.Available {
		return nil, nil //nolint:nilerr
	}

	return s.rawRequest(ctx, http.MethodGet, "documents", "read", doc.Hash)
}

// Noticeboard fetches the school noticeboard.
func (s *Session) Noticeboard(ctx context.Context) (*Response, error) {
	return s.request(ctx, http.MethodGet, "noticeboard")
}

// DownloadNotice marks the notice as read and downloads its attachment. A notice without attachments fails with
// ErrNoAttachments before any request is made.
func (s *Session) DownloadNotice(ctx context.Context, notice Notice) ([]byte, error) {
	if len(notice.Attachments) == 0 {
		return nil, ErrNoAttachments
	}

	pubID := strconv.FormatInt(notice.PubID, 10)

	if _, err := s.request(ctx, http.MethodGet, "noticeboard", "read", notice.EvtCode, pubID,
		noticeAttachmentCode); err != nil {
		return nil, err
	}

	return s.rawRequest(ctx, http.MethodGet, "noticeboard", "attach", notice.EvtCode, pubID, noticeAttachmentCode)
}

// Schoolbooks fetches the student's schoolbooks.
func (s *Session) Schoolbooks(ctx context.Context) (*Response, error) {
	return s.request(ctx, http.MethodGet, "schoolbooks")
}

// Calendar fetches the school calendar.
func (s *Session) Calendar(ctx context.Context) (*Response, error) {
	return s.request(ctx, http.MethodGet, "calendar", "all")
}

// Cards fetches the student's cards.
func (s *Session) Cards(ctx context.Context) (*Response, error) {
	return s.request(ctx, http.MethodGet, "cards")
}

// Grades fetches the student's grades, optionally only for a single subject.
func (s *Session) Grades(ctx context.Context, subject string) (*Response, error) {
	if subject == "" {
		return s.request(ctx, http.MethodGet, "grades")
	}

	return s.request(ctx, http.MethodGet, "grades", "subject", subject)
}

// Lessons fetches today's lessons, or lessons between begin and end. Either today or both dates are required.
func (s *Session) Lessons(ctx context.Context, today bool, begin, end time.Time) (*Response, error) {
	if today {
		return s.request(ctx, http.MethodGet, "lessons", "today")
	}

	if begin.IsZero() || end.IsZero() {
		return nil, ErrLessonsRange
	}

	return s.request(ctx, http.MethodGet, "lessons", FormatDate(begin), FormatDate(end))
}

// Notes fetches all of the student's notes.
func (s *Session) Notes(ctx context.Context) (*Response, error) {
	return s.request(ctx, http.MethodGet, "notes", "all")
}

// Periods fetches the school periods.
func (s *Session) Periods(ctx context.Context) (*Response, error) {
	return s.request(ctx, http.MethodGet, "periods")
}

// Subjects fetches all subjects and their teachers.
func (s *Session) Subjects(ctx context.Context) (*Response, error) {
	return s.request(ctx, http.MethodGet, "subjects")
}
