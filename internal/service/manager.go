package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"

	"changewatch/internal/config"
	"changewatch/internal/logger"
	"changewatch/internal/report"
	"changewatch/internal/repository"
	"changewatch/internal/scanner"
	"changewatch/internal/service/pipeline"
	"changewatch/internal/service/storage"
	"changewatch/internal/service/websocket"
)

// ErrStopped is returned for uploads that arrive after Stop.
var ErrStopped = errors.New("manager stopped")

// Manager stores uploads and runs comparisons on a single background worker so
// that runs never overlap.
type Manager struct {
	pipeline         *pipeline.Pipeline
	uploadStore      *storage.UploadStore
	websocketService *websocket.HubService
	comparisonRepo   repository.ComparisonRepository
	logger           *logger.Logger

	processingQueue chan ComparisonTask
	ctx             context.Context
	cancel          context.CancelFunc
	stopOnce        sync.Once
	wg              sync.WaitGroup

	// mu guards stopped and the close of processingQueue.
	mu      sync.RWMutex
	stopped bool

	// OnResult, when set before the first upload, observes every finished run.
	OnResult func(*pipeline.Result)
}

// ComparisonTask asks the worker to compare the newest images after Image arrived.
type ComparisonTask struct {
	Image scanner.ImageRef
}

// NewManager starts the comparison worker. websocketService and comparisonRepo may be nil.
func NewManager(p *pipeline.Pipeline, uploadStore *storage.UploadStore, websocketService *websocket.HubService,
	comparisonRepo repository.ComparisonRepository, config *config.Config, logger *logger.Logger) *Manager {
	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	manager := &Manager{
		pipeline:         p,
		uploadStore:      uploadStore,
		websocketService: websocketService,
		comparisonRepo:   comparisonRepo,
		logger:           logger,
		processingQueue:  make(chan ComparisonTask, queueSize),
		ctx:              ctx,
		cancel:           cancel,
	}

	manager.wg.Add(1)
	go manager.processingWorker()

	manager.logger.Info("🎬 Manager started - strategy %s, queue size %d", p.Strategy().Name, queueSize)
	return manager
}

// HandleUpload saves an uploaded frame and queues a comparison.
func (m *Manager) HandleUpload(image []byte) (scanner.ImageRef, error) {
	if m.isStopped() {
		return scanner.ImageRef{}, ErrStopped
	}

	ref, err := m.uploadStore.Save(image)
	if err != nil {
		return ref, err
	}

	m.Enqueue(ComparisonTask{Image: ref})
	return ref, nil
}

// Enqueue queues a comparison and reports whether it was accepted. Tasks
// arriving after Stop are refused.
func (m *Manager) Enqueue(task ComparisonTask) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.stopped {
		m.logger.Warning("⚠️  Manager stopped - skipping comparison for %s", task.Image.Name)
		return false
	}

	select {
	case m.processingQueue <- task:
		m.logger.Info("📸 %s queued for comparison", task.Image.Name)
		return true
	default:
		m.logger.Warning("⚠️  Processing queue full - skipping comparison for %s", task.Image.Name)
		return false
	}
}

func (m *Manager) isStopped() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stopped
}

func (m *Manager) GetWebsocketService() *websocket.HubService {
	return m.websocketService
}

func (m *Manager) GetUploadStore() *storage.UploadStore {
	return m.uploadStore
}

func (m *Manager) GetComparisonRepository() repository.ComparisonRepository {
	return m.comparisonRepo
}

func (m *Manager) processingWorker() {
	defer m.wg.Done()

	m.logger.Info("🔧 Comparison worker started")
	for task := range m.processingQueue {
		m.runComparison(task)
	}
	m.logger.Info("🔧 Comparison worker stopped")
}

func (m *Manager) runComparison(task ComparisonTask) {
	result, err := m.pipeline.Run(m.ctx, m.uploadStore.Dir())
	if err != nil {
		m.logger.Error("❌ Comparison after %s failed: %v", task.Image.Name, err)
		return
	}

	var out bytes.Buffer
	result.Report(report.NewReporter(&out))
	m.logger.Info("🔍 Image Comparison Result:\n%s", strings.TrimRight(out.String(), "\n"))

	if m.comparisonRepo != nil {
		if _, err := m.comparisonRepo.Insert(result.Comparison()); err != nil {
			m.logger.Error("Error saving comparison %s to database: %v", result.RunID, err)
		}
	}

	if m.websocketService != nil {
		if err := m.websocketService.BroadcastJSON(result); err != nil {
			m.logger.Error("Error broadcasting comparison %s: %v", result.RunID, err)
		}
	}

	if m.OnResult != nil {
		m.OnResult(result)
	}
}

// Stop refuses further uploads, drains the queue and waits for the worker.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		m.stopped = true
		close(m.processingQueue)
		m.mu.Unlock()

		m.wg.Wait()
		m.cancel()
		m.logger.Info("🛑 Manager stopped")
	})
}
