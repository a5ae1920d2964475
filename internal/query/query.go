// Package query implements a lazy query builder over an embedded session.
// A Lazy value is an expression tree: chaining methods only accumulate
// operations, and nothing touches the database until Collect. SQL renders
// the statement the chain translates to.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Halkenhaeusser/labs/internal/frame"
)

// ErrNotCollected is returned for operations that need a materialized
// result, such as reading the trailing rows of a lazy query.
var ErrNotCollected = errors.New("query: result not collected; call Collect first")

// Executor runs rendered SQL and materializes the result. *session.Session
// satisfies it.
type Executor interface {
	LazyQuery(ctx context.Context, sqlText string, args ...any) (*frame.Frame, error)
}

// Lazy is a deferred query. Values are immutable: every chaining method
// returns a derived copy.
type Lazy struct {
	exec Executor

	// from is exactly one of: a table name, a subquery, or a join.
	table string
	sub   *Lazy
	join  *joinSpec

	selectList []string // rendered select expressions; empty means *
	where      []string
	args       []any
	groups     []string
	aggs       []string // "expr AS alias", paired with groups
	order      []string
	limit      int // -1 means no limit
}

type joinSpec struct {
	left, right *Lazy
	using       []string
}

// Table starts a lazy query over one table of the session.
func Table(exec Executor, name string) *Lazy {
	return &Lazy{exec: exec, table: name, limit: -1}
}

// Filter keeps rows matching cond, a SQL boolean expression with ?
// placeholders bound to args.
func (l *Lazy) Filter(cond string, args ...any) *Lazy {
	d := l.derive()
	d.where = append(d.where, cond)
	d.args = append(d.args, args...)
	return d
}

// Select restricts the output to the named columns.
func (l *Lazy) Select(cols ...string) *Lazy {
	d := l.derive()
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
	}
	d.selectList = quoted
	return d
}

// Mutate adds a computed column expr AS alias alongside the existing ones.
func (l *Lazy) Mutate(alias, expr string) *Lazy {
	d := l.derive()
	if len(d.selectList) == 0 {
		d.selectList = []string{"*"}
	}
	d.selectList = append(d.selectList, fmt.Sprintf("%s AS %s", expr, quoteIdent(alias)))
	return d
}

// GroupBy sets the grouping columns for a following Summarize.
func (l *Lazy) GroupBy(cols ...string) *Lazy {
	d := l.derive()
	d.groups = cols
	return d
}

// Summarize adds an aggregate aggExpr AS alias. The output contains the
// grouping columns plus one column per aggregate. Repeated calls extend the
// same aggregation: each adds a column to one SELECT.
func (l *Lazy) Summarize(alias, aggExpr string) *Lazy {
	d := l.deriveAggregate()
	d.aggs = append(d.aggs, fmt.Sprintf("%s AS %s", aggExpr, quoteIdent(alias)))
	return d
}

// OrderBy sorts the result. Use "col DESC" for descending order.
func (l *Lazy) OrderBy(cols ...string) *Lazy {
	d := l.derive()
	d.order = cols
	return d
}

// InnerJoin joins with another lazy query on the named columns.
func (l *Lazy) InnerJoin(other *Lazy, by ...string) *Lazy {
	return &Lazy{
		exec:  l.exec,
		join:  &joinSpec{left: l, right: other, using: by},
		limit: -1,
	}
}

// Head limits the result to the first n rows. Unlike Tail this works on a
// lazy query: it becomes a LIMIT on the generated SQL.
func (l *Lazy) Head(n int) *Lazy {
	d := l.derive()
	if d.limit < 0 || n < d.limit {
		d.limit = n
	}
	return d
}

// NRow reports the row count of the result. On a lazy query the count is
// unknown until Collect, so ok is always false.
func (l *Lazy) NRow() (n int, ok bool) {
	return 0, false
}

// Tail cannot address the trailing rows of an unmaterialized result.
func (l *Lazy) Tail(int) (*frame.Frame, error) {
	return nil, ErrNotCollected
}

// SQL renders the SELECT statement this chain translates to. Filter
// placeholders appear as ?.
func (l *Lazy) SQL() string {
	sqlText, _ := l.render()
	return sqlText
}

// Collect executes the rendered SQL and materializes the result.
func (l *Lazy) Collect(ctx context.Context) (*frame.Frame, error) {
	sqlText, args := l.render()
	f, err := l.exec.LazyQuery(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	return f, nil
}

// derive returns a copy of l that further operations can extend in place.
// When l already carries an aggregate or a limit, the copy wraps l as a
// subquery so the new operation applies to l's result rows.
func (l *Lazy) derive() *Lazy {
	if len(l.aggs) > 0 || l.limit >= 0 {
		return &Lazy{exec: l.exec, sub: l, limit: -1}
	}
	return l.copy()
}

// deriveAggregate is derive for Summarize: an existing aggregate is extended
// rather than wrapped, so consecutive Summarize calls share one SELECT. A
// limit still forces a subquery, since the aggregate must see the limited
// rows.
func (l *Lazy) deriveAggregate() *Lazy {
	if l.limit >= 0 {
		return &Lazy{exec: l.exec, sub: l, limit: -1}
	}
	return l.copy()
}

func (l *Lazy) copy() *Lazy {
	d := *l
	d.selectList = append([]string(nil), l.selectList...)
	d.where = append([]string(nil), l.where...)
	d.args = append([]any(nil), l.args...)
	d.groups = append([]string(nil), l.groups...)
	d.aggs = append([]string(nil), l.aggs...)
	d.order = append([]string(nil), l.order...)
	return &d
}

func (l *Lazy) render() (string, []any) {
	var b strings.Builder
	var args []any

	b.WriteString("SELECT ")
	switch {
	case len(l.aggs) > 0:
		parts := make([]string, 0, len(l.groups)+len(l.aggs))
		for _, g := range l.groups {
			parts = append(parts, quoteIdent(g))
		}
		parts = append(parts, l.aggs...)
		b.WriteString(strings.Join(parts, ", "))
	case len(l.selectList) > 0:
		b.WriteString(strings.Join(l.selectList, ", "))
	default:
		b.WriteString("*")
	}

	from, fromArgs := l.renderFrom()
	args = append(args, fromArgs...)
	b.WriteString(" FROM ")
	b.WriteString(from)

	if len(l.where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(l.where, " AND "))
		args = append(args, l.args...)
	}
	if len(l.aggs) > 0 && len(l.groups) > 0 {
		quoted := make([]string, len(l.groups))
		for i, g := range l.groups {
			quoted[i] = quoteIdent(g)
		}
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(quoted, ", "))
	}
	if len(l.order) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(l.order, ", "))
	}
	if l.limit >= 0 {
		fmt.Fprintf(&b, " LIMIT %d", l.limit)
	}
	return b.String(), args
}

func (l *Lazy) renderFrom() (string, []any) {
	switch {
	case l.join != nil:
		left, leftArgs := l.join.left.renderSource("lhs")
		right, rightArgs := l.join.right.renderSource("rhs")
		using := make([]string, len(l.join.using))
		for i, c := range l.join.using {
			using[i] = quoteIdent(c)
		}
		from := fmt.Sprintf("%s INNER JOIN %s USING (%s)", left, right, strings.Join(using, ", "))
		return from, append(leftArgs, rightArgs...)
	case l.sub != nil:
		sub, subArgs := l.sub.render()
		return "(" + sub + ")", subArgs
	default:
		return quoteIdent(l.table), nil
	}
}

// renderSource renders a join side: a bare table stays a bare table, while
// anything with accumulated operations becomes an aliased subquery.
func (l *Lazy) renderSource(alias string) (string, []any) {
	if l.isBareTable() {
		return quoteIdent(l.table), nil
	}
	sub, args := l.render()
	return fmt.Sprintf("(%s) AS %s", sub, quoteIdent(alias)), args
}

func (l *Lazy) isBareTable() bool {
	return l.table != "" && l.sub == nil && l.join == nil &&
		len(l.selectList) == 0 && len(l.where) == 0 && len(l.groups) == 0 &&
		len(l.aggs) == 0 && len(l.order) == 0 && l.limit < 0
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
