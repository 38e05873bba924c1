package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"unicode"

	"taskboard/internal/app"
	"taskboard/internal/service"
)

// TaskRef is a parsed task reference. Either ID is set, or Column and Num
// point at a task as printed by the show command.
type TaskRef struct {
	Column int // 0-based column, 'a' is To Do
	Num    int // 1-based position within the column
	ID     string
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// errNoBoards is returned when the local user has no board to default to.
var errNoBoards = errors.New("no boards (run: taskboard new <name>)")

// ParseTaskRef parses a task reference.
//
// Parsing rules:
//  1. All digits: a task in the To Do column (5 is the same as a5)
//  2. <letter><digits> with a letter from a to d: a task in that column (b2)
//  3. Any other letter followed by digits is an error
//  4. Anything else is taken as a task id
func ParseTaskRef(s string) (TaskRef, error) {
	if s == "" {
		return TaskRef{}, ErrTaskRefRequired
	}

	if isAllDigits(s) {
		return parsePosition(0, s, s)
	}

	if isLetter(rune(s[0])) && isAllDigits(s[1:]) {
		col := int(s[0] - 'a')
		if col >= len(service.Statuses) {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", s)
		}
		return parsePosition(col, s[1:], s)
	}

	return TaskRef{ID: s}, nil
}

func parsePosition(col int, digits, ref string) (TaskRef, error) {
	num, err := strconv.Atoi(digits)
	if err != nil || num < 1 {
		return TaskRef{}, fmt.Errorf("invalid task reference: %s", ref)
	}
	return TaskRef{Column: col, Num: num}, nil
}

// String renders the reference the way it was typed, in canonical form.
func (r TaskRef) String() string {
	if r.ID != "" {
		return r.ID
	}
	return fmt.Sprintf("%c%d", 'a'+r.Column, r.Num)
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// isLetter returns true if r is a lowercase letter a-z.
func isLetter(r rune) bool {
	return r >= 'a' && r <= 'z'
}

// ResolveBoard resolves a board reference for the local user. An empty
// reference picks the first board, digits pick by position in the boards
// listing, and anything else is a board id.
func ResolveBoard(ctx context.Context, a *app.App, ref string) (service.Board, error) {
	if ref != "" && !isAllDigits(ref) {
		return a.Boards.GetBoard(ctx, ref)
	}

	boards, err := a.Boards.ListBoards(ctx, a.LocalSession())
	if err != nil {
		return service.Board{}, err
	}
	if len(boards) == 0 {
		return service.Board{}, errNoBoards
	}

	idx := 0
	if ref != "" {
		n, err := strconv.Atoi(ref)
		if err != nil || n < 1 || n > len(boards) {
			return service.Board{}, service.NotFoundError("board", ref)
		}
		idx = n - 1
	}
	return a.Boards.GetBoard(ctx, boards[idx].ID)
}
