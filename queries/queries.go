/*
Copyright © 2025 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package queries wraps tree-sitter-typescript parsing and pre-compiled
// tree-sitter queries for the declaration files the processor and module
// graph builder walk. A pooled parser avoids paying grammar setup cost per
// file, and a QueryManager loads only the queries a caller actually needs.
package queries

import (
	"embed"
	"errors"
	"fmt"
	"iter"
	"path"
	"slices"
	"sync"
	"time"

	"github.com/pterm/pterm"

	ts "github.com/tree-sitter/go-tree-sitter"
	tsTypescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

//go:embed typescript/*.scm
var queries embed.FS

var ErrNoQueryManager = errors.New("QueryManager is nil")

type NoCaptureError struct {
	Capture string
	Query   string
}

func (e *NoCaptureError) Error() string {
	return fmt.Sprintf("No nodes for capture %s in query %s", e.Capture, e.Query)
}

var languages = struct {
	typescript *ts.Language
}{
	ts.NewLanguage(tsTypescript.LanguageTypescript()),
}

var typescriptParserPool = sync.Pool{
	New: func() any {
		parser := ts.NewParser()
		if err := parser.SetLanguage(languages.typescript); err != nil {
			panic(fmt.Sprintf("failed to set TypeScript language: %v", err))
		}
		return parser
	},
}

// RetrieveTypeScriptParser returns a pooled TypeScript parser.
// Always call PutTypeScriptParser when done.
func RetrieveTypeScriptParser() *ts.Parser {
	return typescriptParserPool.Get().(*ts.Parser)
}

// PutTypeScriptParser returns a parser to the pool.
func PutTypeScriptParser(parser *ts.Parser) {
	parser.Reset()
	typescriptParserPool.Put(parser)
}

// QuerySelector names which pre-compiled queries a QueryManager should load.
type QuerySelector struct {
	TypeScript []string
}

// AllQueries returns a selector loading every query the module graph
// builder uses to discover a declaration file's import/export specifiers.
// The canonical declaration processor does its own AST traversal for
// rewriting (position-addressed, not query-driven) since its edits need
// exact node identity rather than aggregated captures.
func AllQueries() QuerySelector {
	return QuerySelector{
		TypeScript: []string{"imports", "exports"},
	}
}

type QueryManagerI interface {
	Close()
	getQuery(name string) (*ts.Query, error)
}

// QueryManager owns a set of compiled tree-sitter queries for one
// declaration-processing run. It is not safe to share a single query
// across goroutines that mutate its cursor concurrently; construct a
// QueryMatcher per goroutine instead.
type QueryManager struct {
	typescript map[string]*ts.Query
}

func NewQueryManager(selector QuerySelector) (*QueryManager, error) {
	start := time.Now()
	qm := &QueryManager{
		typescript: make(map[string]*ts.Query),
	}

	for _, queryName := range selector.TypeScript {
		if err := qm.loadQuery(queryName); err != nil {
			qm.Close()
			return nil, fmt.Errorf("failed to load TypeScript query %s: %w", queryName, err)
		}
	}

	pterm.Debug.Println("Constructing selected queries took", time.Since(start))
	return qm, nil
}

func (qm *QueryManager) loadQuery(queryName string) error {
	// Use path.Join (not filepath.Join) - embed.FS requires POSIX / separators
	queryPath := path.Join("typescript", queryName+".scm")
	data, err := queries.ReadFile(queryPath)
	if err != nil {
		return fmt.Errorf("failed to read query file %s: %w", queryPath, err)
	}

	query, qerr := ts.NewQuery(languages.typescript, string(data))
	if qerr != nil {
		return fmt.Errorf("failed to parse query %s: %w", queryName, qerr)
	}

	qm.typescript[queryName] = query
	return nil
}

func (qm *QueryManager) Close() {
	for _, query := range qm.typescript {
		query.Close()
	}
}

func (qm *QueryManager) getQuery(queryName string) (*ts.Query, error) {
	q, ok := qm.typescript[queryName]
	if !ok {
		return nil, fmt.Errorf("unknown query %s", queryName)
	}
	return q, nil
}

type ParentNodeCaptures struct {
	NodeId   uintptr
	Captures CaptureMap
}

type CaptureInfo struct {
	NodeId    int
	Text      string
	StartByte uint
	EndByte   uint
}

type CaptureMap = map[string][]CaptureInfo

type QueryMatcher struct {
	query  *ts.Query
	cursor *ts.QueryCursor
}

func (qm QueryMatcher) Close() {
	// NOTE: we don't close queries here, only at the end of execution in QueryManager.Close
	qm.cursor.Close()
}

func (qm QueryMatcher) GetCaptureNameByIndex(index uint32) string {
	return qm.query.CaptureNames()[index]
}

func (qm QueryMatcher) CaptureCount() int {
	return len(qm.query.CaptureNames())
}

func (qm QueryMatcher) GetCaptureIndexForName(name string) (uint, bool) {
	return qm.query.CaptureIndexForName(name)
}

func (qm QueryMatcher) SetByteRange(start uint, end uint) {
	qm.cursor.SetByteRange(start, end)
}

func NewQueryMatcher(manager *QueryManager, queryName string) (*QueryMatcher, error) {
	if manager == nil {
		return nil, ErrNoQueryManager
	}
	query, err := manager.getQuery(queryName)
	if err != nil {
		return nil, err
	}
	cursor := ts.NewQueryCursor()
	qm := QueryMatcher{query, cursor}
	return &qm, nil
}

func (q QueryMatcher) AllQueryMatches(node *ts.Node, text []byte) iter.Seq[*ts.QueryMatch] {
	qm := q.cursor.Matches(q.query, node, text)
	return func(yield func(qm *ts.QueryMatch) bool) {
		for {
			m := qm.Next()
			if m == nil {
				break
			}
			if !yield(m) {
				return
			}
		}
	}
}

// ParentCaptures returns an iterator over unique parent node captures as identified by the given parent capture name.
// For each unique parent node (e.g., an import or export statement), it aggregates all captures from all query
// matches sharing that parent node into a single CaptureMap.
//
// Example usage:
//
//	for captures := range matcher.ParentCaptures(root, code, "import") {
//	  // captures holds every capture belonging to a single import statement
//	}
func (q *QueryMatcher) ParentCaptures(root *ts.Node, code []byte, parentCaptureName string) iter.Seq[CaptureMap] {
	names := q.query.CaptureNames()

	type pgroup struct {
		capMap    CaptureMap
		startByte uint
	}

	parentGroups := make(map[int]pgroup)

	for match := range q.AllQueryMatches(root, code) {
		var parentNode *ts.Node
		for _, cap := range match.Captures {
			name := names[cap.Index]
			if name == parentCaptureName {
				parentNode = &cap.Node
				break
			}
		}
		if parentNode == nil {
			continue
		}
		pid := int(parentNode.Id())
		startByte := parentNode.StartByte()
		_, ok := parentGroups[pid]
		if !ok {
			capmap := make(CaptureMap)
			parentGroups[pid] = pgroup{capmap, startByte}
		}
		for _, cap := range match.Captures {
			name := names[cap.Index]
			text := cap.Node.Utf8Text(code)
			ci := CaptureInfo{
				NodeId:    int(cap.Node.Id()),
				Text:      text,
				StartByte: cap.Node.StartByte(),
				EndByte:   cap.Node.EndByte(),
			}
			if _, hasMap := parentGroups[pid].capMap[name]; !hasMap {
				parentGroups[pid].capMap[name] = make([]CaptureInfo, 0)
			}
			if !slices.ContainsFunc(parentGroups[pid].capMap[name], func(m CaptureInfo) bool {
				return m.NodeId == ci.NodeId
			}) {
				parentGroups[pid].capMap[name] = append(parentGroups[pid].capMap[name], ci)
			}
		}
	}

	sorted := make([]pgroup, 0)
	for _, group := range parentGroups {
		sorted = append(sorted, group)
	}

	slices.SortStableFunc(sorted, func(a pgroup, b pgroup) int {
		return int(a.startByte) - int(b.startByte)
	})

	return func(yield func(CaptureMap) bool) {
		for _, group := range sorted {
			if !yield(group.capMap) {
				break
			}
		}
	}
}

func GetDescendantById(root *ts.Node, id int) *ts.Node {
	c := root.Walk()
	defer c.Close()
	var find func(node *ts.Node) *ts.Node
	find = func(node *ts.Node) *ts.Node {
		if int(node.Id()) == id {
			return node
		}
		for i := range int(node.ChildCount()) {
			child := node.Child(uint(i))
			if child == nil {
				continue
			}
			if res := find(child); res != nil {
				return res
			}
		}
		return nil
	}

	return find(root)
}

// Position represents a line/character position
type Position struct {
	Line      uint32
	Character uint32
}

// Range represents a start/end range
type Range struct {
	Start Position
	End   Position
}

// byteOffsetToPosition converts a byte offset to line/character position
func byteOffsetToPosition(content []byte, offset uint) Position {
	line := uint32(0)
	char := uint32(0)

	for i, b := range content {
		if uint(i) >= offset {
			break
		}

		if b == '\n' {
			line++
			char = 0
		} else {
			char++
		}
	}

	return Position{
		Line:      line,
		Character: char,
	}
}

// NodeToRange converts a tree-sitter node to a Range using byte-to-position conversion
func NodeToRange(node *ts.Node, content []byte) Range {
	start := byteOffsetToPosition(content, node.StartByte())
	end := byteOffsetToPosition(content, node.EndByte())
	return Range{
		Start: start,
		End:   end,
	}
}
