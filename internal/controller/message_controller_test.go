package controller_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/storeconnect/crm-messaging/internal/apperrors"
	"github.com/storeconnect/crm-messaging/internal/controller"
	"github.com/storeconnect/crm-messaging/internal/model"
	"github.com/storeconnect/crm-messaging/internal/ratelimit"
	"github.com/storeconnect/crm-messaging/internal/service"
)

// --- Mock repositories ---

type mockQueue struct {
	mu   sync.Mutex
	seq  int64
	msgs map[int64]*model.OutboundMessage
}

func newMockQueue() *mockQueue {
	return &mockQueue{msgs: map[int64]*model.OutboundMessage{}}
}

func (q *mockQueue) Enqueue(msg *model.OutboundMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	msg.ID = q.seq
	msg.Status = model.StatusPending
	msg.CreatedAt = time.Now()
	msg.UpdatedAt = msg.CreatedAt
	q.msgs[msg.ID] = msg
	return nil
}

func (q *mockQueue) ClaimDue(int) ([]*model.OutboundMessage, error) { return nil, nil }

func (q *mockQueue) GetByID(id int64) (*model.OutboundMessage, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	m, ok := q.msgs[id]
	if !ok {
		return nil, apperrors.NewMessageNotFound(id)
	}
	return m, nil
}

func (q *mockQueue) MarkSent(int64) error { return nil }
func (q *mockQueue) MarkFailed(id int64, _ string) (*model.OutboundMessage, error) {
	return q.GetByID(id)
}
func (q *mockQueue) MarkRetrying(int64, time.Time) error { return nil }
func (q *mockQueue) MarkTerminallyFailed(int64) error    { return nil }
func (q *mockQueue) MarkSkipped(int64, string) error     { return nil }

func (q *mockQueue) MarkDelivered(id int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if m, ok := q.msgs[id]; ok && m.Status == model.StatusSent {
		m.Status = model.StatusDelivered
	}
	return nil
}

func (q *mockQueue) CountPending() (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, m := range q.msgs {
		if m.Status == model.StatusPending || m.Status == model.StatusRetrying {
			n++
		}
	}
	return n, nil
}

func (q *mockQueue) CountByStatus() (map[string]int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	stats := map[string]int{}
	for _, m := range q.msgs {
		stats[m.Status]++
	}
	return stats, nil
}

func (q *mockQueue) ReleaseStuck(time.Duration) (int64, error) { return 0, nil }

type mockLeads struct {
	created []*model.Lead
}

func (m *mockLeads) Create(lead *model.Lead) error {
	lead.ID = "lead-1"
	lead.CreatedAt = time.Now()
	m.created = append(m.created, lead)
	return nil
}

type mockTemplates struct{}

func (mockTemplates) Save(*model.Template) error      { return nil }
func (mockTemplates) List() ([]model.Template, error) { return nil, nil }
func (mockTemplates) Delete(string) error             { return nil }
func (mockTemplates) GetByKey(key string) (*model.Template, error) {
	return nil, apperrors.NewTemplateNotFound(key)
}

// --- Tests ---

func TestEnqueueMessageHandler(t *testing.T) {
	q := newMockQueue()
	ctrl := &controller.MessageController{
		MessageService: &service.MessageService{Messages: q},
		Messages:       q,
	}

	body, _ := json.Marshal(map[string]any{
		"channel": "email",
		"payload": map[string]string{"recipient": "a@b.c", "body": "hi"},
	})
	req := httptest.NewRequest("POST", "/api/messages", bytes.NewReader(body))
	w := httptest.NewRecorder()

	ctrl.EnqueueMessage(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	var res model.OutboundMessage
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Status != model.StatusPending {
		t.Errorf("expected pending, got %s", res.Status)
	}
	if res.ID == 0 {
		t.Error("expected an assigned id")
	}
}

func TestEnqueueMessageHandlerRejectsBadBody(t *testing.T) {
	q := newMockQueue()
	ctrl := &controller.MessageController{
		MessageService: &service.MessageService{Messages: q},
		Messages:       q,
	}

	req := httptest.NewRequest("POST", "/api/messages", bytes.NewReader([]byte(`{"channel":""}`)))
	w := httptest.NewRecorder()
	ctrl.EnqueueMessage(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestQueueStatsHandler(t *testing.T) {
	q := newMockQueue()
	svc := &service.MessageService{Messages: q}
	if _, err := svc.Enqueue(service.EnqueueInput{
		Channel: "email",
		Payload: map[string]string{"recipient": "a@b.c", "body": "hi"},
	}); err != nil {
		t.Fatal(err)
	}

	ctrl := &controller.MessageController{MessageService: svc, Messages: q}
	w := httptest.NewRecorder()
	ctrl.QueueStats(w, httptest.NewRequest("GET", "/api/queue/stats", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var res struct {
		Pending  int            `json:"pending"`
		ByStatus map[string]int `json:"by_status"`
	}
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.Pending != 1 {
		t.Errorf("expected 1 pending, got %d", res.Pending)
	}
	if res.ByStatus[model.StatusPending] != 1 {
		t.Errorf("expected 1 pending in by_status, got %v", res.ByStatus)
	}
}

func TestLeadEndpointRateLimited(t *testing.T) {
	q := newMockQueue()
	leads := &mockLeads{}
	leadService := &service.LeadService{
		Leads:     leads,
		Templates: mockTemplates{},
		Queue:     &service.MessageService{Messages: q},
		Log:       zerolog.Nop(),
	}
	ctrl := &controller.LeadController{LeadService: leadService, Validate: validator.New()}

	limiter := ratelimit.NewLimiter()
	r := chi.NewRouter()
	r.With(ratelimit.Middleware(limiter, "leads", 2, time.Minute)).
		Post("/api/leads", ctrl.CreateLead)

	payload, _ := json.Marshal(map[string]string{
		"email":      "alice@example.com",
		"first_name": "Alice",
	})

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/api/leads", bytes.NewReader(payload))
		req.Header.Set("X-Forwarded-For", "203.0.113.9")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	if w := do(); w.Code != http.StatusCreated {
		t.Fatalf("first request: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if w := do(); w.Code != http.StatusCreated {
		t.Fatalf("second request: expected 201, got %d", w.Code)
	}
	w := do()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("429 must carry Retry-After")
	}
	if len(leads.created) != 2 {
		t.Errorf("expected 2 leads persisted, got %d", len(leads.created))
	}
}

func TestLeadValidation(t *testing.T) {
	ctrl := &controller.LeadController{
		LeadService: &service.LeadService{
			Leads:     &mockLeads{},
			Templates: mockTemplates{},
			Queue:     &service.MessageService{Messages: newMockQueue()},
			Log:       zerolog.Nop(),
		},
		Validate: validator.New(),
	}

	payload, _ := json.Marshal(map[string]string{"email": "not-an-email", "first_name": "X"})
	req := httptest.NewRequest("POST", "/api/leads", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	ctrl.CreateLead(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}
