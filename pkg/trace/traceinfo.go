// Package trace 实现泳道感知的调用链标识：
// W3C traceparent/tracestate 编解码、每跳派生以及调用级 context 槽位。
package trace

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// TraceInfo 一次调用的链路标识
// 不可变，每一跳派生新实例，不跨调用共享
type TraceInfo struct {
	// TraceID 128 位 hex（32 字符）
	TraceID string
	// ParentID 上游 span，64 位 hex，可为空
	ParentID string
	// SpanID 本跳 span，64 位 hex
	SpanID string
	// Flags 8 位 hex（2 字符）
	Flags string
	// Lane 泳道名，空串表示默认泳道
	Lane string
	// State 入站 tracestate 原文，出站 upsert 时保留其他 vendor 成员
	State string
}

// NewRoot 创建全新的根 TraceInfo
// 入站没有可用的 trace 头时使用
func NewRoot(lane string) TraceInfo {
	return TraceInfo{
		TraceID: newTraceID(),
		SpanID:  newSpanID(),
		Flags:   DefaultFlags,
		Lane:    lane,
	}
}

// Parse 从入站头解析 TraceInfo
// traceparent 非法或缺失时重新生成 traceId/flags；spanId 永远新造，
// 不继承入站 spanId；泳道取自 tracestate 的 ctx.lane 字段
func Parse(traceparent, tracestate string) TraceInfo {
	info := TraceInfo{
		SpanID: newSpanID(),
		Flags:  DefaultFlags,
	}

	if tp, ok := ParseTraceparent(traceparent); ok {
		info.TraceID = tp.TraceID
		info.ParentID = tp.ParentID
		info.Flags = tp.Flags
	} else {
		info.TraceID = newTraceID()
	}

	info.Lane = LaneFromState(tracestate)
	if info.Lane != "" {
		info.State = tracestate
	} else {
		// 入站 state 可能整体非法，能解析才保留
		if _, err := parseState(tracestate); err == nil {
			info.State = tracestate
		}
	}

	return info
}

// NextHop 派生下一跳标识：traceId/flags/lane 不变，
// parentId 置为当前 spanId，spanId 重新生成
func (t TraceInfo) NextHop() TraceInfo {
	return TraceInfo{
		TraceID:  t.TraceID,
		ParentID: t.SpanID,
		SpanID:   newSpanID(),
		Flags:    t.Flags,
		Lane:     t.Lane,
		State:    t.State,
	}
}

// Traceparent 格式化本跳的 traceparent 头
func (t TraceInfo) Traceparent() string {
	return FormatTraceparent(t.TraceID, t.SpanID, t.Flags)
}

// Tracestate 格式化本跳的 tracestate 头
// 在入站 state 基础上 upsert（或删除）泳道字段
func (t TraceInfo) Tracestate() string {
	return UpsertLane(t.State, t.Lane)
}

// newTraceID 生成 128 位随机 trace id
func newTraceID() string {
	for {
		id := uuid.New()
		s := hex.EncodeToString(id[:])
		if !isAllZero(s) {
			return s
		}
	}
}

// newSpanID 生成 64 位随机 span id
func newSpanID() string {
	var b [8]byte
	for {
		if _, err := rand.Read(b[:]); err != nil {
			// crypto/rand 失败无法安全降级
			panic(err)
		}
		s := hex.EncodeToString(b[:])
		if !isAllZero(s) {
			return s
		}
	}
}
