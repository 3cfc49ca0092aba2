package pipeline

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/community-enrich/internal/model"
	"github.com/sells-group/community-enrich/internal/store"
	"github.com/sells-group/community-enrich/pkg/lookup"
)

// memStore is an in-memory Store for scheduler and intake tests. Error
// injection fields let tests exercise the fail-open and best-effort paths.
type memStore struct {
	mu          sync.Mutex
	jobs        map[string]*model.Job
	communities []model.Community
	nextID      int

	createJobErr error
	existsErr    error
	insertErr    error
	advanceErr   error
	statusErr    error

	statusUpdates []model.JobStatus
	advanceDeltas []int
}

func newMemStore() *memStore {
	return &memStore{jobs: make(map[string]*model.Job)}
}

func (m *memStore) CreateJob(ctx context.Context, owner string, entities []string, location string) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createJobErr != nil {
		return nil, m.createJobErr
	}
	m.nextID++
	job := &model.Job{
		ID:         "job-" + strconv.Itoa(m.nextID),
		Owner:      owner,
		Entities:   append([]string(nil), entities...),
		Location:   location,
		Status:     model.JobStatusProcessing,
		TotalCount: len(entities),
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	m.jobs[job.ID] = job
	return job, nil
}

func (m *memStore) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, eris.Errorf("job %s not found", jobID)
	}
	copied := *job
	return &copied, nil
}

func (m *memStore) ListJobs(ctx context.Context, filter store.JobFilter) ([]model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Job
	for _, job := range m.jobs {
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		out = append(out, *job)
	}
	return out, nil
}

func (m *memStore) UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusUpdates = append(m.statusUpdates, status)
	if m.statusErr != nil {
		return m.statusErr
	}
	job, ok := m.jobs[jobID]
	if !ok {
		return eris.Errorf("job %s not found", jobID)
	}
	job.Status = status
	return nil
}

func (m *memStore) AdvanceJobProgress(ctx context.Context, jobID string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advanceDeltas = append(m.advanceDeltas, delta)
	if m.advanceErr != nil {
		return m.advanceErr
	}
	if job, ok := m.jobs[jobID]; ok {
		job.ProcessedCount += delta
	}
	return nil
}

func (m *memStore) InsertCommunity(ctx context.Context, name, location string, result model.EnrichmentResult) (*model.Community, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	m.nextID++
	c := model.Community{
		ID:        "community-" + strconv.Itoa(m.nextID),
		Name:      name,
		Location:  location,
		Result:    result,
		CreatedAt: time.Now(),
	}
	m.communities = append(m.communities, c)
	return &c, nil
}

func (m *memStore) CommunityExists(ctx context.Context, name, location string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	for _, c := range m.communities {
		if c.Name == name && c.Location == location {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) GetCommunity(ctx context.Context, name, location string) (*model.Community, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.communities {
		if c.Name == name && c.Location == location {
			copied := c
			return &copied, nil
		}
	}
	return nil, eris.Errorf("community %s not found", name)
}

func (m *memStore) ListCommunities(ctx context.Context, filter store.CommunityFilter) ([]model.Community, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Community(nil), m.communities...), nil
}

func (m *memStore) Migrate(ctx context.Context) error { return nil }
func (m *memStore) Close() error                      { return nil }

func (m *memStore) communityNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for _, c := range m.communities {
		names = append(names, c.Name)
	}
	return names
}

func (m *memStore) finalStatuses() []model.JobStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.JobStatus(nil), m.statusUpdates...)
}

// stubLookup scripts lookup responses and records call order.
type stubLookup struct {
	mu    sync.Mutex
	calls []string
	fn    func(req lookup.Request) (*lookup.Response, error)
}

func (s *stubLookup) Lookup(ctx context.Context, req lookup.Request) (*lookup.Response, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req.Name)
	s.mu.Unlock()
	if s.fn != nil {
		return s.fn(req)
	}
	return &lookup.Response{Text: `{"city":"Plano","state":"TX"}`, Model: "stub"}, nil
}

func (s *stubLookup) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// stubNotifier records sends and closes done after the first one.
type stubNotifier struct {
	mu    sync.Mutex
	sends []sentMessage
	err   error
	done  chan struct{}
	once  sync.Once
}

type sentMessage struct {
	recipient string
	subject   string
	body      string
}

func newStubNotifier() *stubNotifier {
	return &stubNotifier{done: make(chan struct{})}
}

func (n *stubNotifier) Send(ctx context.Context, recipient, subject, body string) error {
	n.mu.Lock()
	n.sends = append(n.sends, sentMessage{recipient: recipient, subject: subject, body: body})
	n.mu.Unlock()
	n.once.Do(func() { close(n.done) })
	return n.err
}

func (n *stubNotifier) sendCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sends)
}
