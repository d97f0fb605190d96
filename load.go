package main

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// loadTable streams every page the exporter yields into the target table.
// Each page is written as one multi-row INSERT inside its own transaction,
// so a mid-table failure leaves whole batches, never partial ones. Returns
// rows written.
func loadTable(ctx context.Context, conn *sql.Conn, exporter *tableExporter, progress func(int)) (int64, error) {
	table := exporter.table
	var written int64
	var batchOffset int64

	for {
		page, err := exporter.NextPage()
		if err != nil {
			return written, err
		}
		if len(page) == 0 {
			return written, nil
		}

		stmt := buildInsertStatement(table.Name, exporter.colNames, len(page))
		args := flattenRows(page)
		if err := execBatch(ctx, conn, stmt, args); err != nil {
			return written, &TargetWriteError{Table: table.Name, BatchOffset: batchOffset, Err: err}
		}
		written += int64(len(page))
		batchOffset += int64(len(page))
		if progress != nil {
			progress(len(page))
		}
	}
}

func buildInsertStatement(table string, cols []string, rowCount int) string {
	placeholders := "(" + strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",") + ")"
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(mysqlIdent(table))
	b.WriteString(" (")
	b.WriteString(mysqlIdentList(cols))
	b.WriteString(") VALUES ")
	for i := 0; i < rowCount; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(placeholders)
	}
	return b.String()
}

func flattenRows(rows [][]any) []any {
	if len(rows) == 0 {
		return nil
	}
	args := make([]any, 0, len(rows)*len(rows[0]))
	for _, row := range rows {
		args = append(args, row...)
	}
	return args
}

// execBatch writes one batch transactionally, retrying once when the
// failure looks transient (deadlock, lock wait timeout, dropped connection).
func execBatch(ctx context.Context, conn *sql.Conn, stmt string, args []any) error {
	err := execBatchOnce(ctx, conn, stmt, args)
	if err == nil || !isTransientTargetError(err) {
		return err
	}
	return execBatchOnce(ctx, conn, stmt, args)
}

func execBatchOnce(ctx context.Context, conn *sql.Conn, stmt string, args []any) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func isTransientTargetError(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		// 1205 lock wait timeout, 1213 deadlock
		return myErr.Number == 1205 || myErr.Number == 1213
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// advanceAutoIncrement moves the target's AUTO_INCREMENT counter past the
// highest migrated key so post-migration inserts cannot collide.
func advanceAutoIncrement(ctx context.Context, conn *sql.Conn, t *Table) error {
	var col string
	for _, c := range t.Columns {
		if c.AutoIncrement {
			col = c.Name
			break
		}
	}
	if col == "" {
		return nil
	}

	var max sql.NullInt64
	query := fmt.Sprintf("SELECT MAX(%s) FROM %s", mysqlIdent(col), mysqlIdent(t.Name))
	if err := conn.QueryRowContext(ctx, query).Scan(&max); err != nil {
		return err
	}
	if !max.Valid || max.Int64 < 0 {
		return nil
	}

	alter := fmt.Sprintf("ALTER TABLE %s AUTO_INCREMENT = %d", mysqlIdent(t.Name), max.Int64+1)
	_, err := conn.ExecContext(ctx, alter)
	return err
}
