package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/sportfed/arena/internal/database"
)

// conflictGuard aborts the surrounding transaction when the preceding
// conditional UPDATE (bound to $updated) matched nothing
const conflictGuard = `IF array::len($updated) = 0 { THROW "` + database.ConflictMarker + `" }`

// inUseGuard aborts the surrounding transaction while any application lock
// matching the condition is held. The condition may only reference $id.
func inUseGuard(condition string) string {
	return `IF array::len((SELECT VALUE id FROM application_lock WHERE ` + condition + `)) > 0 { THROW "` + database.InUseMarker + `" }`
}

// convertID converts a SurrealDB record ID to its "table:key" string form
func convertID(id interface{}) string {
	switch v := id.(type) {
	case string:
		return v
	case models.RecordID:
		return fmt.Sprintf("%s:%v", v.Table, v.ID)
	case *models.RecordID:
		if v != nil {
			return fmt.Sprintf("%s:%v", v.Table, v.ID)
		}
	case map[string]interface{}:
		if tb, ok := v["tb"].(string); ok {
			if idVal, ok := v["id"]; ok {
				return fmt.Sprintf("%s:%v", tb, idVal)
			}
		}
		if tb, ok := v["Table"].(string); ok {
			if idVal, ok := v["ID"]; ok {
				return fmt.Sprintf("%s:%v", tb, idVal)
			}
		}
	}
	return fmt.Sprintf("%v", id)
}

// statementRecords returns the rows of one {status, result} statement entry
func statementRecords(entry interface{}) []map[string]interface{} {
	var rows []interface{}
	switch v := entry.(type) {
	case map[string]interface{}:
		result, wrapped := v["result"]
		if !wrapped {
			return []map[string]interface{}{v}
		}
		if status, ok := v["status"].(string); ok && status != "OK" {
			return nil
		}
		switch r := result.(type) {
		case []interface{}:
			rows = r
		case map[string]interface{}:
			rows = []interface{}{r}
		}
	case []interface{}:
		rows = v
	}

	records := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		if data, ok := row.(map[string]interface{}); ok {
			records = append(records, data)
		}
	}
	return records
}

// lastRecords returns the rows of the last statement in a multi-statement result
func lastRecords(results []interface{}) []map[string]interface{} {
	if len(results) == 0 {
		return nil
	}
	return statementRecords(results[len(results)-1])
}

// queryOneRecord runs a single-row query. A missing row is nil, nil.
func queryOneRecord(ctx context.Context, db database.Database, query string, vars map[string]interface{}) (map[string]interface{}, error) {
	result, err := db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	switch v := result.(type) {
	case map[string]interface{}:
		return v, nil
	case []interface{}:
		if len(v) > 0 {
			if data, ok := v[0].(map[string]interface{}); ok {
				return data, nil
			}
		}
	}
	return nil, nil
}

// queryRecords runs a single-statement query and returns its rows
func queryRecords(ctx context.Context, db database.Database, query string, vars map[string]interface{}) ([]map[string]interface{}, error) {
	results, err := db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return lastRecords(results), nil
}

// extractCount extracts count from a "SELECT count() ... GROUP ALL" row
func extractCount(records []map[string]interface{}) int {
	if len(records) == 0 {
		return 0
	}
	return getInt(records[0], "count")
}

func nilIfNilString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nilIfNilInt(n *int) interface{} {
	if n == nil {
		return nil
	}
	return *n
}

// getString extracts a string value from a map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// getStringPtr extracts an optional string value from a map
func getStringPtr(m map[string]interface{}, key string) *string {
	if v, ok := m[key].(string); ok && v != "" {
		return &v
	}
	return nil
}

// getInt extracts an int value from a map
func getInt(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case float32:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	}
	return 0
}

// getIntPtr extracts an optional int value from a map
func getIntPtr(m map[string]interface{}, key string) *int {
	if _, ok := m[key]; !ok || m[key] == nil {
		return nil
	}
	n := getInt(m, key)
	return &n
}

// getTime extracts a time value from a map
func getTime(m map[string]interface{}, key string) *time.Time {
	switch v := m[key].(type) {
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return &t
		}
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return &t
		}
	case time.Time:
		return &v
	case models.CustomDateTime:
		t := v.Time
		return &t
	case *models.CustomDateTime:
		if v != nil {
			t := v.Time
			return &t
		}
	}
	return nil
}

// getTimeValue is getTime with the zero time for missing values
func getTimeValue(m map[string]interface{}, key string) time.Time {
	if t := getTime(m, key); t != nil {
		return t.UTC()
	}
	return time.Time{}
}

// getStringSlice extracts a string slice from a map
func getStringSlice(m map[string]interface{}, key string) []string {
	if v, ok := m[key].([]interface{}); ok {
		result := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result
	}
	return nil
}

// getMap extracts a nested object from a map
func getMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}
