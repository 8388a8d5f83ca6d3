package trace

import (
	"sort"
	"strings"

	oteltrace "go.opentelemetry.io/otel/trace"
)

const (
	// VendorKey tracestate 中本系统的 vendor 成员名
	VendorKey = "ctx"
	// LaneField vendor 成员内携带泳道名的字段
	LaneField = "lane"

	fieldSeparator = ";"
	kvSeparator    = ":"
)

// parseState 解析 tracestate 头为成员列表
func parseState(state string) (oteltrace.TraceState, error) {
	return oteltrace.ParseTraceState(state)
}

// VendorValue 从 tracestate 头中读取指定 vendor 成员的某个字段
// tracestate 整体非法时视为不存在
func VendorValue(state, vendorKey, fieldKey string) string {
	ts, err := parseState(state)
	if err != nil {
		return ""
	}

	for _, pair := range parseVendorFields(ts.Get(vendorKey)) {
		if pair.key == fieldKey {
			return pair.value
		}
	}
	return ""
}

// UpsertVendorFields 把 updates 合并进指定 vendor 成员并重新序列化
// 约定（对端依赖，不可更改）:
//   - 更新后的 vendor 成员排在最前，其余成员保持原有相对顺序
//   - updates 中空白值表示删除该字段
//   - vendor 成员字段为空时整个成员被省略
func UpsertVendorFields(state, vendorKey string, updates map[string]string) string {
	ts, err := parseState(state)
	if err != nil {
		ts = oteltrace.TraceState{}
	}

	pairs := parseVendorFields(ts.Get(vendorKey))

	// 先更新已有字段（保持原有字段顺序），再按 key 排序追加新字段
	seen := make(map[string]bool, len(pairs))
	merged := make([]vendorField, 0, len(pairs)+len(updates))
	for _, pair := range pairs {
		seen[pair.key] = true
		if v, ok := updates[pair.key]; ok {
			if strings.TrimSpace(v) == "" {
				continue // 空白值 ⇒ 删除
			}
			merged = append(merged, vendorField{pair.key, v})
		} else {
			merged = append(merged, pair)
		}
	}

	newKeys := make([]string, 0, len(updates))
	for k := range updates {
		if !seen[k] && strings.TrimSpace(updates[k]) != "" {
			newKeys = append(newKeys, k)
		}
	}
	sort.Strings(newKeys)
	for _, k := range newKeys {
		merged = append(merged, vendorField{k, updates[k]})
	}

	if len(merged) == 0 {
		return ts.Delete(vendorKey).String()
	}

	encoded := make([]string, 0, len(merged))
	for _, pair := range merged {
		encoded = append(encoded, pair.key+kvSeparator+pair.value)
	}

	// Insert 把该成员挪到最前，其余成员相对顺序不变
	newTS, err := ts.Insert(vendorKey, strings.Join(encoded, fieldSeparator))
	if err != nil {
		return ts.String()
	}
	return newTS.String()
}

// UpsertLane 更新或删除 tracestate 中的泳道字段
// lane 为空白时删除
func UpsertLane(state, lane string) string {
	return UpsertVendorFields(state, VendorKey, map[string]string{LaneField: lane})
}

// LaneFromState 从 tracestate 头中读取泳道名
func LaneFromState(state string) string {
	return VendorValue(state, VendorKey, LaneField)
}

// vendorField vendor 成员内的一个 key:value 字段
type vendorField struct {
	key   string
	value string
}

// parseVendorFields 解析 "k1:v1;k2:v2" 形式的字段列表，保持顺序
func parseVendorFields(member string) []vendorField {
	if member == "" {
		return nil
	}

	segments := strings.Split(member, fieldSeparator)
	pairs := make([]vendorField, 0, len(segments))
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		key, value, ok := strings.Cut(seg, kvSeparator)
		if !ok || key == "" {
			continue
		}
		pairs = append(pairs, vendorField{key, value})
	}

	return pairs
}
