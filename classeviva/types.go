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
	"github.com/go-resty/resty/v2"
)

// Session holds credentials, authentication token and identity of a single student. It is not safe for concurrent
// use: token refresh mutates the state without any locking.
type Session struct {
	http     *resty.Client
	username string
	password string
	state    state
}

// state is the mutable authentication state. loggedIn is true iff both token and studentID are set.
type state struct {
	loggedIn  bool
	studentID string
	token     string
	firstName string
	lastName  string
}

// Identity is the student identity returned by a successful login.
type Identity struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// EventFilter filters agenda events by type.
type EventFilter string

const (
	EventsAll      EventFilter = "all"
	EventsHomework EventFilter = "homework"
	EventsOther    EventFilter = "other"
)

// eventFilterCodes maps agenda filters to the remote event codes.
var eventFilterCodes = map[EventFilter]string{
	EventsAll:      "all",
	EventsHomework: "AGHW",
	EventsOther:    "AGNT",
}

const (
	ObjectTypeFile = "file"
	ObjectTypeLink = "link"
)

// DidacticsListing is the decoded didactics (educational material) listing.
type DidacticsListing struct {
	Teachers []DidacticsTeacher `json:"didacticts"`
}

// DidacticsTeacher holds all material folders shared by a single teacher.
type DidacticsTeacher struct {
	TeacherID   string            `json:"teacherId"`
	TeacherName string            `json:"teacherName"`
	Folders     []DidacticsFolder `json:"folders"`
}

// DidacticsFolder is a named folder of didactics contents.
type DidacticsFolder struct {
	FolderID   int64              `json:"folderId"`
	FolderName string             `json:"folderName"`
	LastShare  string             `json:"lastShareDT"`
	Contents   []DidacticsContent `json:"contents"`
}

// DidacticsContent references a single file or link in a didactics folder.
type DidacticsContent struct {
	ContentID   int64  `json:"contentId"`
	ContentName string `json:"contentName"`
	ObjectType  string `json:"objectType"`
	ShareDate   string `json:"shareDT"`
}

// SchoolDocument references a document (eg. report card) listed by Documents.
type SchoolDocument struct {
	Hash string `json:"hash"`
	Desc string `json:"desc"`
}

// Notice references a noticeboard entry listed by Noticeboard.
type Notice struct {
	PubID       int64              `json:"pubId"`
	PubDate     string             `json:"pubDT"`
	EvtCode     string             `json:"evtCode"`
	Title       string             `json:"cntTitle"`
	Read        bool               `json:"readStatus"`
	Attachments []NoticeAttachment `json:"attachments"`
}

// NoticeAttachment describes a single notice attachment.
type NoticeAttachment struct {
	FileName  string `json:"fileName"`
	AttachNum int    `json:"attachNum"`
}
