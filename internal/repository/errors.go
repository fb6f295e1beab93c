package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrCapacityExceeded is returned when a reservation would overbook its meal.
	ErrCapacityExceeded = errors.New("meal capacity exceeded")
)

// wrap annotates err with op, translating sql.ErrNoRows into ErrNotFound.
func wrap(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// setClause accumulates "column = $n" assignments for partial updates.
type setClause struct {
	parts []string
	args  []interface{}
}

func (s *setClause) add(column string, value interface{}) {
	s.args = append(s.args, value)
	s.parts = append(s.parts, fmt.Sprintf("%s = $%d", column, len(s.args)))
}

func (s *setClause) empty() bool { return len(s.parts) == 0 }

// build renders "UPDATE table SET ... WHERE id = $n RETURNING columns".
func (s *setClause) build(table, columns string, id int64) (string, []interface{}) {
	args := append(s.args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING %s",
		table, strings.Join(s.parts, ", "), len(args), columns)
	return query, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
