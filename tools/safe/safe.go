package safe

import (
	"Upside/logger"
)

// SafeGo 启协程并兜住 panic，避免单个 handler 拖垮进程。
func SafeGo(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[SafeGo] panic recovered: %v", r)
			}
		}()
		f()
	}()
}
