package trace

import "strings"

const (
	// TraceparentHeader W3C trace 头名称
	TraceparentHeader = "traceparent"
	// TracestateHeader W3C state 头名称
	TracestateHeader = "tracestate"

	// Version 固定的 traceparent 版本前缀
	Version = "00"

	// DefaultFlags 默认 flags（已采样）
	DefaultFlags = "01"

	traceIDLength = 32
	spanIDLength  = 16
	flagsLength   = 2
)

// Traceparent traceparent 头的解析结果
type Traceparent struct {
	Version  string
	TraceID  string
	ParentID string
	Flags    string
}

// ParseTraceparent 解析 traceparent 头
// 格式: <2 hex>-<32 hex>-<16 hex>-<2 hex>，任何违例都视为无效
func ParseTraceparent(header string) (Traceparent, bool) {
	parts := strings.Split(header, "-")
	if len(parts) != 4 {
		return Traceparent{}, false
	}

	version, traceID, parentID, flags := parts[0], parts[1], parts[2], parts[3]

	if len(version) != flagsLength || !isHex(version) {
		return Traceparent{}, false
	}
	if !isValidTraceID(traceID) {
		return Traceparent{}, false
	}
	if !isValidSpanID(parentID) {
		return Traceparent{}, false
	}
	if len(flags) != flagsLength || !isHex(flags) {
		return Traceparent{}, false
	}

	return Traceparent{
		Version:  version,
		TraceID:  traceID,
		ParentID: parentID,
		Flags:    flags,
	}, true
}

// FormatTraceparent 格式化 traceparent 头
// flags 非法或缺失时回退为 "01"（已采样）
func FormatTraceparent(traceID, spanID, flags string) string {
	if len(flags) != flagsLength || !isHex(flags) {
		flags = DefaultFlags
	}
	return Version + "-" + traceID + "-" + spanID + "-" + flags
}

// isValidTraceID 校验 32 位 hex 且非全零
func isValidTraceID(s string) bool {
	return len(s) == traceIDLength && isHex(s) && !isAllZero(s)
}

// isValidSpanID 校验 16 位 hex 且非全零
func isValidSpanID(s string) bool {
	return len(s) == spanIDLength && isHex(s) && !isAllZero(s)
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func isAllZero(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '0' {
			return false
		}
	}
	return true
}
