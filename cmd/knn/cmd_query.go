package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <sql> [args...]",
		Short: "Run a SQL query with the knn virtual table available",
		Example: `  knn query "CREATE VIRTUAL TABLE iris USING knn(model=iris)"
  knn query "SELECT label FROM iris WHERE label MATCH ?" "[5.1,3.5,1.4,0.2]"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			db, err := e.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			conn, err := db.Conn(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			params := make([]any, len(args)-1)
			for i, a := range args[1:] {
				params[i] = a
			}
			if !isSelect(args[0]) {
				res, err := conn.ExecContext(ctx, args[0], params...)
				if err != nil {
					return err
				}
				n, _ := res.RowsAffected()
				return e.print(map[string]any{"rowsAffected": n}, "OK (%d rows affected)\n", n)
			}

			rows, err := conn.QueryContext(ctx, args[0], params...)
			if err != nil {
				return err
			}
			defer rows.Close()
			cols, err := rows.Columns()
			if err != nil {
				return err
			}
			var out []map[string]any
			for rows.Next() {
				vals := make([]any, len(cols))
				ptrs := make([]any, len(cols))
				for i := range vals {
					ptrs[i] = &vals[i]
				}
				if err := rows.Scan(ptrs...); err != nil {
					return err
				}
				row := make(map[string]any, len(cols))
				text := make([]string, len(cols))
				for i, col := range cols {
					if b, ok := vals[i].([]byte); ok {
						vals[i] = string(b)
					}
					row[col] = vals[i]
					text[i] = fmt.Sprint(vals[i])
				}
				out = append(out, row)
				if !e.jsonOut {
					if err := e.print(nil, "%s\n", strings.Join(text, "\t")); err != nil {
						return err
					}
				}
			}
			if err := rows.Err(); err != nil {
				return err
			}
			if e.jsonOut {
				return e.print(out, "")
			}
			return nil
		},
	}
}

func isSelect(stmt string) bool {
	s := strings.ToUpper(strings.TrimSpace(stmt))
	return strings.HasPrefix(s, "SELECT") || strings.HasPrefix(s, "WITH")
}
