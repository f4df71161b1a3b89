package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"two_point_controller/internal/models"
	"two_point_controller/internal/service"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockController struct {
	mu sync.Mutex

	attrs     models.Attributes
	attrsErr  error
	sensor    float64
	sensorErr error
	actor     float64
	diff      float64
	diffErr   error
	target    float64
	enabled   bool
	writable  bool
	setErr    error

	setTargetCalls  []float64
	setEnabledCalls []bool
	attrsCalls      int
	// user IDs found in the context of each write, -1 when absent
	writeOperators []int
}

func (m *mockController) recordOperator(ctx context.Context) {
	id, ok := service.OperatorFrom(ctx)
	if !ok {
		id = -1
	}
	m.writeOperators = append(m.writeOperators, id)
}

func (m *mockController) Attributes(ctx context.Context) (models.Attributes, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attrsCalls++
	return m.attrs, m.attrsErr
}
func (m *mockController) SensorValue(ctx context.Context) (float64, error) {
	return m.sensor, m.sensorErr
}
func (m *mockController) ActorValue(ctx context.Context) float64 { return m.actor }
func (m *mockController) Difference(ctx context.Context) (float64, error) {
	return m.diff, m.diffErr
}
func (m *mockController) Target() float64 { return m.target }
func (m *mockController) SetTarget(ctx context.Context, v float64) error {
	m.setTargetCalls = append(m.setTargetCalls, v)
	m.recordOperator(ctx)
	if m.setErr != nil {
		return m.setErr
	}
	m.target = v
	return nil
}
func (m *mockController) Enabled() bool { return m.enabled }
func (m *mockController) SetEnabled(ctx context.Context, enabled bool) error {
	m.setEnabledCalls = append(m.setEnabledCalls, enabled)
	m.recordOperator(ctx)
	if m.setErr != nil {
		return m.setErr
	}
	m.enabled = enabled
	return nil
}
func (m *mockController) Writable() bool { return m.writable }

func (m *mockController) attributeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attrsCalls
}

type mockEventLog struct {
	resp     []models.ControlEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.ControlEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
