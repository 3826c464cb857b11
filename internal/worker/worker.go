// Package worker 有界的后台任务池，队列满时丢弃新任务
package worker

import (
	"runtime"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

// Task 后台任务
type Task func()

// Stats 任务池统计
type Stats struct {
	WorkerCount int
	QueueLen    int
	QueueCap    int
	Submitted   uint64
	Executed    uint64
	Failed      uint64
	Dropped     uint64
}

// Pool 固定数量的 worker 消费同一个队列
type Pool struct {
	name    string
	workers int
	queue   chan Task
	wg      sync.WaitGroup

	mu      sync.RWMutex
	stopped bool

	submitted atomic.Uint64
	executed  atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

// NewPool 创建并启动任务池
func NewPool(workers, queueSize int) *Pool {
	return NewNamedPool("worker", workers, queueSize)
}

// NewNamedPool name 只用于日志
func NewNamedPool(name string, workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queueSize <= 0 {
		queueSize = 1000
	}

	p := &Pool{
		name:    name,
		workers: workers,
		queue:   make(chan Task, queueSize),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	log.Debugf("[%s] pool started with %d workers", name, workers)
	return p
}

// Submit 非阻塞提交，队列已满或已停止返回 false
func (p *Pool) Submit(task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return false
	}

	select {
	case p.queue <- task:
		p.submitted.Add(1)
		return true
	default:
		p.dropped.Add(1)
		log.Warnf("[%s] queue is full, task dropped", p.name)
		return false
	}
}

// Stop 不再接收新任务，等待队列中已有任务执行完；可重复调用
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	log.Debugf("[%s] pool stopped", p.name)
}

// GetStats 返回当前统计
func (p *Pool) GetStats() Stats {
	return Stats{
		WorkerCount: p.workers,
		QueueLen:    len(p.queue),
		QueueCap:    cap(p.queue),
		Submitted:   p.submitted.Load(),
		Executed:    p.executed.Load(),
		Failed:      p.failed.Load(),
		Dropped:     p.dropped.Load(),
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.queue {
		if task == nil {
			continue
		}
		p.execute(task)
	}
}

// execute 执行任务，panic 计入 Failed 不影响 worker
func (p *Pool) execute(task Task) {
	defer func() {
		p.executed.Add(1)
		if r := recover(); r != nil {
			p.failed.Add(1)
			log.Errorf("[%s] panic recovered in task: %v", p.name, r)
		}
	}()
	task()
}
