package ids

import (
	"strconv"
	"sync"
	"time"
)

// 雪花结构：41bit 毫秒时间戳 + 10bit 节点 + 12bit 序列
type generator struct {
	mu       sync.Mutex
	epochMS  int64
	nodeID   int64 // 0~1023
	seq      int64 // 0~4095
	lastTSMS int64
}

var (
	defaultGen *generator
	once       sync.Once
)

func initDefault() {
	once.Do(func() {
		defaultGen = &generator{
			epochMS: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli(),
			nodeID:  1,
		}
	})
}

// SetNodeID 启动时设置节点号（默认1）；超界取模
func SetNodeID(id int64) {
	initDefault()
	defaultGen.mu.Lock()
	defer defaultGen.mu.Unlock()
	defaultGen.nodeID = id & 0x3FF
}

// Generate 生成一个新的雪花ID
func Generate() int64 {
	initDefault()
	return defaultGen.next()
}

// GenerateString 字符串形式（连接ID/消息ID用）
func GenerateString() string {
	return strconv.FormatInt(Generate(), 10)
}

func (g *generator) next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UnixMilli()
	if now < g.lastTSMS {
		// 时钟回拨：顶住上一个时间戳继续发号
		now = g.lastTSMS
	}
	if now == g.lastTSMS {
		g.seq = (g.seq + 1) & 0xFFF
		if g.seq == 0 {
			for now <= g.lastTSMS {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		g.seq = 0
	}
	g.lastTSMS = now

	return (now-g.epochMS)<<22 | g.nodeID<<12 | g.seq
}
