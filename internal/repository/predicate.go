package repository

import "strings"

// Predicate is a composable boolean condition over one entity's columns.
// Expressions use ? placeholders and are rebound to the driver's bindvar
// style when the query is executed.
type Predicate struct {
	expr string
	args []interface{}
}

// Eq matches rows where column equals value.
func Eq(column string, value interface{}) *Predicate {
	return &Predicate{expr: column + " = ?", args: []interface{}{value}}
}

// NotEq matches rows where column differs from value.
func NotEq(column string, value interface{}) *Predicate {
	return &Predicate{expr: column + " <> ?", args: []interface{}{value}}
}

// IsNull matches rows where column is NULL.
func IsNull(column string) *Predicate {
	return &Predicate{expr: column + " IS NULL"}
}

// NotNull matches rows where column is not NULL.
func NotNull(column string) *Predicate {
	return &Predicate{expr: column + " IS NOT NULL"}
}

// In matches rows where column is one of values.
func In(column string, values ...interface{}) *Predicate {
	if len(values) == 0 {
		// empty IN matches nothing
		return &Predicate{expr: "1 = 0"}
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	return &Predicate{expr: column + " IN (" + placeholders + ")", args: values}
}

// And combines predicates conjunctively, skipping nil members.
func And(preds ...*Predicate) *Predicate {
	parts := make([]string, 0, len(preds))
	var args []interface{}
	for _, p := range preds {
		if p == nil || p.expr == "" {
			continue
		}
		parts = append(parts, "("+p.expr+")")
		args = append(args, p.args...)
	}
	if len(parts) == 0 {
		return nil
	}
	return &Predicate{expr: strings.Join(parts, " AND "), args: args}
}

// SQL returns the WHERE expression and its arguments. A nil predicate
// yields an empty expression, meaning all rows.
func (p *Predicate) SQL() (string, []interface{}) {
	if p == nil || p.expr == "" {
		return "", nil
	}
	return p.expr, p.args
}
