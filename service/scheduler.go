package service

import (
	"log"
	"sync"
	"time"

	"licai/models"
)

// maxCatchUpPerRoot 单轮扫描中每条根记录最多补齐的期数，
// 防止异常数据（如日期被改到很久以前的日更记录）把一轮扫描拖垮
const maxCatchUpPerRoot = 1000

// IncomeScheduler 周期收入调度器。
// 进程启动时立即跑一轮（补齐停机期间漏掉的各期），之后按固定间隔扫描。
// 单轮扫描不可重入：上一轮没跑完时新的触发直接跳过。
type IncomeScheduler struct {
	store    IncomeStore
	engine   *RecurrenceEngine
	Interval time.Duration

	ticker  *time.Ticker
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewIncomeScheduler 创建调度器
func NewIncomeScheduler(store IncomeStore, interval time.Duration) *IncomeScheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &IncomeScheduler{
		store:    store,
		engine:   NewRecurrenceEngine(store),
		Interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start 启动调度器：先立即跑一轮，再按 Interval 周期触发
func (s *IncomeScheduler) Start() {
	s.ticker = time.NewTicker(s.Interval)
	s.wg.Add(1)
	go s.run()
	log.Printf("[收入调度] 已启动，扫描间隔: %v", s.Interval)
}

// Stop 停止调度器，等待当前轮次结束
func (s *IncomeScheduler) Stop() {
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	log.Println("[收入调度] 已停止")
}

func (s *IncomeScheduler) run() {
	defer s.wg.Done()

	// 启动时先补一轮
	s.RunPass(time.Now())

	for {
		select {
		case <-s.ticker.C:
			s.RunPass(time.Now())
		case <-s.stop:
			return
		}
	}
}

// RunPass 执行一轮扫描：找出所有到期的周期性根记录，逐条补齐缺失的各期。
// 单条记录失败只记日志不中断本轮；返回本轮新生成的记录数。
// 已有一轮在跑时直接跳过并返回 0。
func (s *IncomeScheduler) RunPass(today time.Time) int {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Println("[收入调度] 上一轮扫描尚未结束，本次触发跳过")
		return 0
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	roots, err := s.store.FindDueRoots(today)
	if err != nil {
		log.Printf("[收入调度] 查询到期记录失败: %v", err)
		return 0
	}
	if len(roots) == 0 {
		return 0
	}

	created := 0
	failed := 0
	for i := range roots {
		n, err := s.catchUp(&roots[i], today)
		created += n
		if err != nil {
			failed++
			log.Printf("[收入调度] 记录 %d (%s) 补齐失败: %v", roots[i].ID, roots[i].Title, err)
		}
	}

	log.Printf("[收入调度] 本轮结束: 到期 %d 条，新生成 %d 期，失败 %d 条", len(roots), created, failed)
	return created
}

// catchUp 对单条根记录循环推算，直到链追平今天
func (s *IncomeScheduler) catchUp(root *models.Income, today time.Time) (int, error) {
	created := 0
	for i := 0; i < maxCatchUpPerRoot; i++ {
		next, err := s.engine.PlanNextOccurrence(root, today)
		if err != nil {
			// 周期类型非法属于数据完整性问题，与存储失败一样：记日志后跳过该记录
			return created, err
		}
		if next == nil {
			return created, nil
		}
		if err := s.store.Insert(next); err != nil {
			// 唯一索引冲突等插入失败：该记录本轮放弃，下一轮重试
			return created, err
		}
		created++
	}
	return created, nil
}
