// Package analytics records registration events as JSON files, one per
// event. Phone numbers are never stored in the clear; events carry an MD5
// hash so repeat contacts from the same number remain correlatable.
package analytics

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sink records one registration event. Recording is fire-and-forget:
// failures are logged and must never block the webhook reply.
type Sink interface {
	Record(number string, action string, payload any)
}

type event struct {
	SubscriptionHash string `json:"subscriptionHash"`
	Action           string `json:"action"`
	Time             int64  `json:"time"`
	Payload          any    `json:"payload"`
}

// FileSink writes each event to its own file in a directory.
type FileSink struct {
	dir string
	log *zap.Logger
}

func NewFileSink(dir string, log *zap.Logger) *FileSink {
	return &FileSink{dir: dir, log: log}
}

func hashNumber(number string) string {
	sum := md5.Sum([]byte(number))
	return hex.EncodeToString(sum[:])
}

// Record writes the event. The filename carries a UUID so two events in the
// same millisecond cannot clobber each other.
func (s *FileSink) Record(number string, action string, payload any) {
	now := time.Now()
	ev := event{
		SubscriptionHash: hashNumber(number),
		Action:           action,
		Time:             now.UnixMilli(),
		Payload:          payload,
	}
	b, err := json.Marshal(ev)
	if err != nil {
		s.log.Warn("analytics encode failed", zap.String("action", action), zap.Error(err))
		return
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.log.Warn("analytics dir unavailable", zap.Error(err))
		return
	}
	name := fmt.Sprintf("%d-%s.json", now.UnixMilli(), uuid.NewString())
	if err := os.WriteFile(filepath.Join(s.dir, name), b, 0o644); err != nil {
		s.log.Warn("analytics write failed", zap.String("action", action), zap.Error(err))
	}
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) Record(string, string, any) {}
