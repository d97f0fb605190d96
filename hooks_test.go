package main

import (
	"reflect"
	"testing"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{
			"simple statements",
			"CREATE TABLE a (id INT); INSERT INTO a VALUES (1);",
			[]string{"CREATE TABLE a (id INT)", "INSERT INTO a VALUES (1)"},
		},
		{
			"semicolon inside string",
			"INSERT INTO t VALUES ('a;b'); DELETE FROM t",
			[]string{"INSERT INTO t VALUES ('a;b')", "DELETE FROM t"},
		},
		{
			"escaped quote",
			"INSERT INTO t VALUES ('it''s;fine');",
			[]string{"INSERT INTO t VALUES ('it''s;fine')"},
		},
		{
			"trailing statement without semicolon",
			"SELECT 1",
			[]string{"SELECT 1"},
		},
		{
			"blank segments dropped",
			";;\n  ;SELECT 1;",
			[]string{"SELECT 1"},
		},
		{
			"empty input",
			"",
			nil,
		},
	}
	for _, tt := range tests {
		got := splitStatements(tt.sql)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: splitStatements(%q) =\n  %v\nwant:\n  %v", tt.name, tt.sql, got, tt.want)
		}
	}
}
