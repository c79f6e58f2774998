package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// payoutDetailSearchKeys 提现账户 JSON 中可被关键字检索的字段
var payoutDetailSearchKeys = []string{"account", "email", "address"}

// sqlDialect 仅区分 postgres 与 sqlite 两种写法
type sqlDialect string

const (
	dialectSQLite   sqlDialect = "sqlite"
	dialectPostgres sqlDialect = "postgres"
)

func dialectOf(db *gorm.DB) sqlDialect {
	if db == nil || db.Dialector == nil {
		return dialectSQLite
	}
	return parseDialect(db.Dialector.Name())
}

func parseDialect(name string) sqlDialect {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql":
		return dialectPostgres
	default:
		return dialectSQLite
	}
}

// like 大小写不敏感匹配运算符
func (d sqlDialect) like() string {
	if d == dialectPostgres {
		return "ILIKE"
	}
	return "LIKE"
}

// jsonText 取 JSON 列中某个键的文本值
func (d sqlDialect) jsonText(column, key string) string {
	if d == dialectPostgres {
		return fmt.Sprintf("(%s::jsonb ->> '%s')", column, key)
	}
	return fmt.Sprintf("json_extract(%s, '$.\"%s\"')", column, key)
}

// keywordMatch 生成 "(a LIKE ? OR b LIKE ? ...)" 及对应参数
func (d sqlDialect) keywordMatch(keyword string, columns []string, jsonColumn string, jsonKeys []string) (string, []interface{}) {
	pattern := "%" + keyword + "%"
	parts := make([]string, 0, len(columns)+len(jsonKeys))
	for _, column := range columns {
		if column = strings.TrimSpace(column); column != "" {
			parts = append(parts, column+" "+d.like()+" ?")
		}
	}
	if jsonColumn = strings.TrimSpace(jsonColumn); jsonColumn != "" {
		for _, key := range jsonKeys {
			parts = append(parts, d.jsonText(jsonColumn, key)+" "+d.like()+" ?")
		}
	}
	args := make([]interface{}, len(parts))
	for i := range args {
		args[i] = pattern
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

// forUpdate 行级锁，sqlite 方言会忽略该子句
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
