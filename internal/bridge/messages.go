package bridge

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/sorul/tradingbot/internal/logger"
)

// Severity 区分终端消息的级别。
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityError Severity = "ERROR"
)

// Message is one terminal message. Fields holds the body values in
// file order; the first one names the severity, the rest carry the
// payload (error code, description and friends).
type Message struct {
	Millis   int64
	Severity Severity
	Fields   []string
}

// Payload returns the fields after the severity marker.
func (m Message) Payload() []string {
	if len(m.Fields) < 2 {
		return nil
	}
	return m.Fields[1:]
}

// MessageLog 按级别划分已处理的消息。
type MessageLog struct {
	Info  []Message
	Error []Message
}

// checkMessages replays Messages.json entries strictly above the
// high-water mark in ascending millisecond order. The terminal keys
// entries by emit time, so the mark alone dedups across polls even
// though the file is rewritten whole.
func (b *Bridge) checkMessages() {
	raw, ok := tryLoadJSON(b.paths.Messages())
	if !ok {
		return
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		logger.TraceSnapshotError(b.paths.Messages(), err)
		return
	}
	type keyed struct {
		millis int64
		body   json.RawMessage
	}
	list := make([]keyed, 0, len(entries))
	for key, body := range entries {
		millis, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			logger.Warnf("消息时间戳无法解析，已跳过: %q", key)
			continue
		}
		list = append(list, keyed{millis: millis, body: body})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].millis < list[j].millis })

	for _, entry := range list {
		if entry.millis <= b.msgMillis.Load() {
			continue
		}
		b.msgMillis.Store(entry.millis)

		values, err := orderedObjectValues(entry.body)
		if err != nil {
			logger.TraceSnapshotError(b.paths.Messages(), err)
			continue
		}
		msg := Message{Millis: entry.millis, Severity: severityOf(values), Fields: values}
		b.appendMessage(msg)
		b.handler.OnMessage(msg)
	}
}

func severityOf(values []string) Severity {
	for _, v := range values {
		if v == string(SeverityError) {
			return SeverityError
		}
	}
	return SeverityInfo
}

func (b *Bridge) appendMessage(msg Message) {
	old := b.msgLog.Load()
	next := MessageLog{
		Info:  old.Info,
		Error: old.Error,
	}
	switch msg.Severity {
	case SeverityError:
		next.Error = append(append([]Message(nil), old.Error...), msg)
	default:
		next.Info = append(append([]Message(nil), old.Info...), msg)
	}
	b.msgLog.Store(&next)
}

// Messages returns the processed message partitions.
func (b *Bridge) Messages() MessageLog {
	log := b.msgLog.Load()
	return MessageLog{
		Info:  append([]Message(nil), log.Info...),
		Error: append([]Message(nil), log.Error...),
	}
}

// CleanMessages removes the messages file and forgets the partitions.
// The high-water mark survives so a stale file reappearing with old
// keys cannot replay.
func (b *Bridge) CleanMessages() {
	if err := removeIfPresent(b.paths.Messages()); err != nil {
		logger.Warnf("清理消息文件失败: %v", err)
	}
	b.msgLog.Store(&MessageLog{})
}
