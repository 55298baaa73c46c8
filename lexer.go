// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

package cmx3600

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// editNumberRegex matches the leading edit number of a line.
// Format: DIGITS[LETTER][>][>!] followed by whitespace
var editNumberRegex = regexp.MustCompile(`^(\d+[a-zA-Z]?)(>)?(>!)?\s+`)

// commentRegex matches a comment and captures the text after the '*'.
var commentRegex = regexp.MustCompile(`^\*\s*(.*)$`)

// StatementScanner reads EDL text one statement at a time.
//
//	s := NewStatementScanner(r)
//	for s.Scan() {
//		fmt.Println(s.Statement())
//	}
//	if err := s.Err(); err != nil {
//		...
//	}
type StatementScanner struct {
	scanner *bufio.Scanner

	lineNumber    int
	editNumber    string
	isVirtualEdit bool
	isRecorded    bool

	stmt Statement
	err  error
}

// NewStatementScanner creates a scanner reading from r.
func NewStatementScanner(r io.Reader) *StatementScanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &StatementScanner{scanner: sc}
}

// Scan advances to the next statement. It returns false at the end of the
// input or on the first error.
func (s *StatementScanner) Scan() bool {
	if s.err != nil {
		return false
	}
	for s.scanner.Scan() {
		s.lineNumber++
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		stmt, err := s.parseLine(line)
		if err != nil {
			s.err = err
			s.stmt = nil
			return false
		}
		s.stmt = stmt
		return true
	}
	s.err = s.scanner.Err()
	s.stmt = nil
	return false
}

// Statement returns the statement produced by the last call to Scan.
func (s *StatementScanner) Statement() Statement { return s.stmt }

// Err returns the first error encountered.
func (s *StatementScanner) Err() error { return s.err }

// Statements returns all remaining statements.
func (s *StatementScanner) Statements() ([]Statement, error) {
	var out []Statement
	for s.Scan() {
		out = append(out, s.Statement())
	}
	return out, s.Err()
}

// ParseStatements reads every statement from r.
func ParseStatements(r io.Reader) ([]Statement, error) {
	return NewStatementScanner(r).Statements()
}

func (s *StatementScanner) parseLine(line string) (Statement, error) {
	rest := line
	hasEditNumber := false
	if m := editNumberRegex.FindStringSubmatch(rest); m != nil {
		hasEditNumber = true
		s.editNumber = m[1]
		s.isVirtualEdit = m[2] != ""
		s.isRecorded = m[3] != ""
		rest = rest[len(m[0]):]
	}

	info := StatementInfo{
		LineNumber:         s.lineNumber,
		EditNumber:         s.editNumber,
		EditNumberInferred: !hasEditNumber,
		IsVirtualEdit:      s.isVirtualEdit,
		IsRecorded:         s.isRecorded,
	}

	if !hasEditNumber || strings.HasPrefix(rest, "*") {
		return noteFormStatement(rest, info), nil
	}
	return standardFormStatement(rest, info)
}

func noteFormStatement(text string, info StatementInfo) *NoteFormStatement {
	stmt := &NoteFormStatement{StatementInfo: info, Text: text}
	if m := commentRegex.FindStringSubmatch(text); m != nil {
		stmt.IsComment = true
		stmt.Text = strings.TrimRight(m[1], " \t")
	}
	return stmt
}

// standardFormStatement splits an edit line. Fields are consumed from the end
// so reel names containing spaces keep the remaining fields aligned.
func standardFormStatement(text string, info StatementInfo) (*StandardFormStatement, error) {
	fields := strings.Fields(text)
	if len(fields) < 6 {
		return nil, &ParseError{
			Line:       info.LineNumber,
			EditNumber: info.EditNumber,
			Kind:       ErrMalformedStatement,
			Message:    fmt.Sprintf("incorrect number of fields [%d] in statement: %s", len(fields), text),
		}
	}

	n := len(fields)
	stmt := &StandardFormStatement{
		StatementInfo: info,
		SourceEntry:   fields[n-4],
		SourceExit:    fields[n-3],
		SyncEntry:     fields[n-2],
		SyncExit:      fields[n-1],
	}
	head := fields[:n-4]

	last := head[len(head)-1]
	head = head[:len(head)-1]
	if IsEditType(last) {
		stmt.EditType = last
	} else {
		stmt.EditParameter = last
		if len(head) == 0 {
			return nil, &ParseError{
				Line:       info.LineNumber,
				EditNumber: info.EditNumber,
				Kind:       ErrMalformedStatement,
				Message:    fmt.Sprintf("missing edit type in statement: %s", text),
			}
		}
		stmt.EditType = head[len(head)-1]
		head = head[:len(head)-1]
	}

	switch len(head) {
	case 0:
		return nil, &ParseError{
			Line:       info.LineNumber,
			EditNumber: info.EditNumber,
			Kind:       ErrMalformedStatement,
			Message:    fmt.Sprintf("missing source in statement: %s", text),
		}
	case 1:
		// The reel ran into the channel column with no separating space.
		stmt.SourceIdentification, stmt.Channels = splitFixedWidthReel(head[0])
	default:
		stmt.Channels = head[len(head)-1]
		stmt.SourceIdentification = strings.Join(head[:len(head)-1], " ")
	}
	return stmt, nil
}

// splitFixedWidthReel splits a reel and channel that were written without a
// separator, guessing the reel column width (8, 16 or 32) from the length.
func splitFixedWidthReel(field string) (reel, channels string) {
	width := 8
	switch {
	case len(field) > 32:
		width = 32
	case len(field) > 16:
		width = 16
	}
	if len(field) <= width {
		return field, ""
	}
	return field[:width], field[width:]
}
