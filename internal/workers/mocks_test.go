package workers

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/enp09/duende/internal/queue"
	"github.com/enp09/duende/internal/services/analysis"
)

type mockSyncer struct {
	syncFunc func(ctx context.Context, userID uuid.UUID) (int, error)
}

func (m *mockSyncer) Sync(ctx context.Context, userID uuid.UUID) (int, error) {
	if m.syncFunc != nil {
		return m.syncFunc(ctx, userID)
	}
	return 0, nil
}

type mockAnalyzer struct {
	analyzeFunc func(ctx context.Context, userID uuid.UUID) (*analysis.Result, error)
}

func (m *mockAnalyzer) Analyze(ctx context.Context, userID uuid.UUID) (*analysis.Result, error) {
	if m.analyzeFunc != nil {
		return m.analyzeFunc(ctx, userID)
	}
	return &analysis.Result{}, nil
}

type mockJobQueue struct {
	mu          sync.Mutex
	enqueued    []*queue.Job
	enqueueFunc func(ctx context.Context, job *queue.Job) error
}

func (m *mockJobQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	if m.enqueueFunc != nil {
		if err := m.enqueueFunc(ctx, job); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enqueued = append(m.enqueued, job)
	return nil
}

func (m *mockJobQueue) Consume(context.Context, int) (<-chan queue.MessageInterface, <-chan error, error) {
	return nil, nil, nil
}

func (m *mockJobQueue) Close() error { return nil }

func (m *mockJobQueue) HealthCheck(context.Context) error { return nil }

type mockMessage struct {
	job       *queue.Job
	acked     bool
	nacked    bool
	requeued  bool
	ackErr    error
	nackCalls int
}

func (m *mockMessage) Ack() error {
	m.acked = true
	return m.ackErr
}

func (m *mockMessage) Nack(requeue bool) error {
	m.nacked = true
	m.requeued = requeue
	m.nackCalls++
	return nil
}

func (m *mockMessage) GetJob() *queue.Job { return m.job }

var (
	_ queue.JobQueue         = (*mockJobQueue)(nil)
	_ queue.MessageInterface = (*mockMessage)(nil)
	_ CalendarSyncer         = (*mockSyncer)(nil)
	_ CalendarAnalyzer       = (*mockAnalyzer)(nil)
)
