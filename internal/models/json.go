package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON 通用 JSON 对象字段，用于保存网关原始报文等非结构化数据
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	raw, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan 实现 sql.Scanner 接口（sqlite 返回 string，postgres 返回 []byte）
func (j *JSON) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = JSON{}
		return nil
	case []byte:
		if len(v) == 0 {
			*j = JSON{}
			return nil
		}
		return json.Unmarshal(v, j)
	case string:
		if v == "" {
			*j = JSON{}
			return nil
		}
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("unsupported JSON scan type %T", value)
	}
}
