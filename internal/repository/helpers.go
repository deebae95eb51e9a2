package repository

import (
	"encoding/json"
	"strings"

	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// extractRecordID extracts the key part of a SurrealDB record id
func extractRecordID(id interface{}) string {
	switch v := id.(type) {
	case string:
		// record::id() already yields the bare key
		return v
	case models.RecordID:
		return recordKey(v)
	case *models.RecordID:
		if v != nil {
			return recordKey(*v)
		}
	case map[string]interface{}:
		// Handle {"tb": "table", "id": "xxx"} format
		if key, ok := v["id"].(string); ok {
			return key
		}
	}

	// Try JSON marshaling as fallback
	if data, err := json.Marshal(id); err == nil {
		var recordID models.RecordID
		if err := json.Unmarshal(data, &recordID); err == nil {
			return recordKey(recordID)
		}
	}

	return ""
}

func recordKey(id models.RecordID) string {
	if key, ok := id.ID.(string); ok {
		return key
	}
	_, key, _ := strings.Cut(id.String(), ":")
	return strings.Trim(key, "⟨⟩`")
}

// extractQueryResults extracts query results array from SurrealDB response
func extractQueryResults(result interface{}) ([]interface{}, bool) {
	if results, ok := result.([]interface{}); ok {
		if len(results) > 0 {
			if firstResult, ok := results[0].(map[string]interface{}); ok {
				if resultArray, ok := firstResult["result"].([]interface{}); ok {
					return resultArray, true
				}
			}
			// Direct array format
			return results, true
		}
	}
	return nil, false
}

// extractRows returns every row of the first statement as a map
func extractRows(result []interface{}) []map[string]interface{} {
	rows, ok := extractQueryResults(result)
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		if m, ok := row.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

// getString extracts a string value from a map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
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

// getStringSlice extracts a string slice from a map
func getStringSlice(m map[string]interface{}, key string) []string {
	result := []string{}
	if v, ok := m[key].([]interface{}); ok {
		for _, item := range v {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
	}
	return result
}
