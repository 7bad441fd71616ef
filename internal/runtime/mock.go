package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockRuntime is a mock implementation of Runtime for testing
type MockRuntime struct {
	mu sync.RWMutex

	// RuntimeName is returned by Name(); defaults to "mock"
	RuntimeName string

	// Containers tracks the state of mock conduits
	Containers map[string]*ContainerInfo

	// Created holds the options of every successful Create
	Created map[string]CreateOptions

	// LogOutput maps conduit names to canned log output
	LogOutput map[string]string

	// Errors allows injecting errors for specific operations
	Errors map[string]error

	// CallLog records all method calls for verification
	CallLog []MockCall
}

// MockCall represents a recorded method call
type MockCall struct {
	Method string
	Args   []interface{}
}

// NewMockRuntime creates a new mock runtime
func NewMockRuntime() *MockRuntime {
	return &MockRuntime{
		Containers: make(map[string]*ContainerInfo),
		Created:    make(map[string]CreateOptions),
		LogOutput:  make(map[string]string),
		Errors:     make(map[string]error),
		CallLog:    make([]MockCall, 0),
	}
}

func (m *MockRuntime) record(method string, args ...interface{}) {
	m.CallLog = append(m.CallLog, MockCall{Method: method, Args: args})
}

// SetError sets an error to be returned for a specific operation
func (m *MockRuntime) SetError(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.Errors, operation)
		return
	}
	m.Errors[operation] = err
}

// AddContainer adds a conduit to the mock
func (m *MockRuntime) AddContainer(name string, status ContainerStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info := &ContainerInfo{Name: name, Status: status}
	if status == StatusRunning {
		info.StartedAt = time.Now()
	}
	m.Containers[name] = info
}

// SetHealth sets the native health state reported for a conduit.
func (m *MockRuntime) SetHealth(name, health string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.Containers[name]; ok {
		c.Health = health
	}
}

// GetCalls returns all recorded calls
func (m *MockRuntime) GetCalls() []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	calls := make([]MockCall, len(m.CallLog))
	copy(calls, m.CallLog)
	return calls
}

// GetCallsFor returns all calls for a specific method
func (m *MockRuntime) GetCallsFor(method string) []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var calls []MockCall
	for _, call := range m.CallLog {
		if call.Method == method {
			calls = append(calls, call)
		}
	}
	return calls
}

// Reset clears all state
func (m *MockRuntime) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Containers = make(map[string]*ContainerInfo)
	m.Created = make(map[string]CreateOptions)
	m.LogOutput = make(map[string]string)
	m.Errors = make(map[string]error)
	m.CallLog = make([]MockCall, 0)
}

// Name returns the runtime identifier
func (m *MockRuntime) Name() string {
	if m.RuntimeName != "" {
		return m.RuntimeName
	}
	return "mock"
}

// Create creates a new conduit
func (m *MockRuntime) Create(ctx context.Context, opts CreateOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if opts.Conduit == nil {
		return fmt.Errorf("create: conduit is required")
	}
	name := opts.Conduit.Name
	m.record("Create", name)

	if err, ok := m.Errors["Create"]; ok {
		return err
	}
	if _, exists := m.Containers[name]; exists {
		return fmt.Errorf("container already exists: %s", name)
	}

	info := &ContainerInfo{Name: name, Status: StatusStopped, InstanceID: opts.Conduit.InstanceID}
	if opts.Start {
		info.Status = StatusRunning
		info.StartedAt = time.Now()
	}
	m.Containers[name] = info
	m.Created[name] = opts

	return nil
}

// Start starts an existing conduit
func (m *MockRuntime) Start(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Start", name)

	if err, ok := m.Errors["Start"]; ok {
		return err
	}

	if container, ok := m.Containers[name]; ok {
		container.Status = StatusRunning
		container.StartedAt = time.Now()
		return nil
	}

	return fmt.Errorf("container not found: %s", name)
}

// Stop stops a running conduit
func (m *MockRuntime) Stop(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Stop", name)

	if err, ok := m.Errors["Stop"]; ok {
		return err
	}

	if container, ok := m.Containers[name]; ok {
		container.Status = StatusStopped
		container.StartedAt = time.Time{}
		return nil
	}

	return fmt.Errorf("container not found: %s", name)
}

// GracefulStop stops a conduit, ignoring the timeout
func (m *MockRuntime) GracefulStop(ctx context.Context, name string, timeout time.Duration) error {
	m.mu.Lock()
	m.record("GracefulStop", name, timeout)
	err, failed := m.Errors["GracefulStop"]
	m.mu.Unlock()

	if failed {
		return err
	}
	return m.Stop(ctx, name)
}

// Destroy stops and removes a conduit
func (m *MockRuntime) Destroy(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Destroy", name)

	if err, ok := m.Errors["Destroy"]; ok {
		return err
	}

	delete(m.Containers, name)
	delete(m.Created, name)
	return nil
}

// IsRunning checks if a conduit is currently running
func (m *MockRuntime) IsRunning(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("IsRunning", name)

	if err, ok := m.Errors["IsRunning"]; ok {
		return false, err
	}

	if container, ok := m.Containers[name]; ok {
		return container.Status == StatusRunning, nil
	}

	return false, nil
}

// Status returns a copy of the conduit's state
func (m *MockRuntime) Status(ctx context.Context, name string) (*ContainerInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Status", name)

	if err, ok := m.Errors["Status"]; ok {
		return nil, err
	}

	if container, ok := m.Containers[name]; ok {
		info := *container
		return &info, nil
	}

	return &ContainerInfo{Name: name, Status: StatusNotFound}, nil
}

// Logs returns canned output
func (m *MockRuntime) Logs(ctx context.Context, name string, opts LogOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Logs", name, opts)

	if err, ok := m.Errors["Logs"]; ok {
		return "", err
	}
	if _, ok := m.Containers[name]; !ok {
		return "", fmt.Errorf("container not found: %s", name)
	}
	if opts.Follow {
		return "", nil
	}
	return m.LogOutput[name], nil
}

// List returns all conduits known to the mock
func (m *MockRuntime) List(ctx context.Context) ([]*ContainerInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("List")

	if err, ok := m.Errors["List"]; ok {
		return nil, err
	}

	var containers []*ContainerInfo
	for _, container := range m.Containers {
		info := *container
		containers = append(containers, &info)
	}

	return containers, nil
}

var (
	_ Runtime         = (*MockRuntime)(nil)
	_ GracefulStopper = (*MockRuntime)(nil)
)
