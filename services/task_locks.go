package services

import "sync"

// taskLockMap 按任务ID懒创建互斥锁。锁条目必须在任务删除时
// （完成、取消、过期清理）一并移除，否则映射会无限增长。
type taskLockMap struct {
	locks sync.Map
}

func (m *taskLockMap) acquire(taskID string) *sync.Mutex {
	v, _ := m.locks.LoadOrStore(taskID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func (m *taskLockMap) remove(taskID string) {
	m.locks.Delete(taskID)
}
